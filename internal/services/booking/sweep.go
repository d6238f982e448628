package booking

import (
	"context"
	"fmt"
	"time"

	"civicpay/internal/models"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// SweepAbandoned is the only writer of draft -> expired. It is a single
// predicate update, so running it twice, or alongside Reserve, is safe: a
// draft created after the cutoff is never selected.
func (s *service) SweepAbandoned(ctx context.Context, now time.Time) (*SweepResult, error) {
	ctx, span := tracer.Start(ctx, "booking.SweepAbandoned")
	defer span.End()

	cutoff := now.Add(-s.config.AbandonAfter)
	expired, err := s.repo.ExpireDrafts(ctx, cutoff, now)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("sweep abandoned bookings: %w", err)
	}
	if expired == nil {
		expired = []models.Reservation{}
	}

	result := &SweepResult{
		ExpiredCount: len(expired),
		ExpiredIDs:   make([]string, 0, len(expired)),
		Bookings:     expired,
	}
	for _, r := range expired {
		result.ExpiredIDs = append(result.ExpiredIDs, r.ID)
		s.publish(ctx, EventExpired, r, now)
	}
	span.SetAttributes(attribute.Int("booking.expired_count", result.ExpiredCount))

	if result.ExpiredCount > 0 {
		s.log.WithFields(logrus.Fields{
			"expired": result.ExpiredCount,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("expired abandoned bookings")
	}
	return result, nil
}
