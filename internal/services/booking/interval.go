package booking

import (
	"fmt"
	"regexp"
	"time"

	"civicpay/internal/models"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)(?::([0-5]\d))?$`)

// NormalizeClock accepts zero-padded 24h "HH:MM" or "HH:MM:SS" and returns
// "HH:MM:SS", so that string comparison orders times correctly.
func NormalizeClock(s string) (string, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("%w: time %q must be HH:MM or HH:MM:SS", ErrInvalidInput, s)
	}
	sec := m[3]
	if sec == "" {
		sec = "00"
	}
	return m[1] + ":" + m[2] + ":" + sec, nil
}

func NormalizeDate(s string) (string, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, s)
	}
	return d.Format("2006-01-02"), nil
}

// Interval is a half-open [Start, End) range of normalised clock times. An
// empty End makes it the point [Start, Start).
type Interval struct {
	Start string
	End   string
}

func (i Interval) end() string {
	if i.End == "" {
		return i.Start
	}
	return i.End
}

// Overlaps reports whether a and b share any instant. Touching endpoints do
// not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.end() && b.Start < a.end()
}

// IntervalOf returns the slot a reservation occupies. ok is false for
// reservations without a start time, which never block.
func IntervalOf(r models.Reservation) (Interval, bool) {
	if r.StartTime == nil || *r.StartTime == "" {
		return Interval{}, false
	}
	iv := Interval{Start: normalizeStored(*r.StartTime)}
	if r.EndTime != nil && *r.EndTime != "" {
		iv.End = normalizeStored(*r.EndTime)
	}
	return iv, true
}

// normalizeStored tolerates legacy rows written as "HH:MM".
func normalizeStored(s string) string {
	if n, err := NormalizeClock(s); err == nil {
		return n
	}
	return s
}

func candidateInterval(start, end string) (Interval, error) {
	s, err := NormalizeClock(start)
	if err != nil {
		return Interval{}, err
	}
	if end == "" {
		return Interval{Start: s}, nil
	}
	e, err := NormalizeClock(end)
	if err != nil {
		return Interval{}, err
	}
	if e <= s {
		return Interval{}, fmt.Errorf("%w: end time %s must be after start time %s", ErrInvalidInput, e, s)
	}
	return Interval{Start: s, End: e}, nil
}

func overlapping(candidate Interval, existing []models.Reservation) []models.Reservation {
	var out []models.Reservation
	for _, r := range existing {
		iv, ok := IntervalOf(r)
		if ok && Overlaps(candidate, iv) {
			out = append(out, r)
		}
	}
	return out
}
