package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)
)

// Validator defines validation methods
type Validator struct {
	Errors map[string]string
}

// New creates a new validator
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid checks if there are any validation errors
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records the first error for a field
func (v *Validator) AddError(field, message string) {
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

// Check adds an error if the condition is false
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Required checks if a string is not empty
func (v *Validator) Required(field, value string) {
	v.Check(strings.TrimSpace(value) != "", field, "must not be empty")
}

// MaxLength checks if a string has at most n characters
func (v *Validator) MaxLength(field string, value string, n int) {
	v.Check(len(value) <= n, field, fmt.Sprintf("must not be more than %d characters long", n))
}

// PositiveCents checks an amount is in (0, MaxAmountCents]
func (v *Validator) PositiveCents(field string, cents int64) {
	v.Check(cents > 0, field, "must be a positive number of cents")
	v.Check(cents <= MaxAmountCents, field, fmt.Sprintf("must not exceed %d cents", MaxAmountCents))
}

// NonNegative checks a rate or fee is not negative
func (v *Validator) NonNegative(field string, value *int64) {
	if value != nil {
		v.Check(*value >= 0, field, "must not be negative")
	}
}

// Date checks for a YYYY-MM-DD calendar date
func (v *Validator) Date(field, value string) {
	_, err := time.Parse("2006-01-02", value)
	v.Check(err == nil, field, "must be a date in YYYY-MM-DD format")
}

// Clock checks for a zero-padded 24-hour HH:MM or HH:MM:SS time
func (v *Validator) Clock(field, value string) {
	v.Check(clockRegex.MatchString(value), field, "must be a 24-hour time in HH:MM or HH:MM:SS format")
}
