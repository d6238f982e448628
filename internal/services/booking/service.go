package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"civicpay/internal/models"
	"civicpay/internal/repositories"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("civicpay/booking")

type service struct {
	repo   repositories.ReservationRepository
	pub    EventPublisher
	log    *logrus.Logger
	config Config
	now    func() time.Time
}

// NewService creates the booking service. pub may be nil, in which case
// lifecycle events are not published.
func NewService(repo repositories.ReservationRepository, pub EventPublisher, log *logrus.Logger, config Config) Service {
	if repo == nil {
		panic("reservation repository is required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if config.AbandonAfter <= 0 {
		config.AbandonAfter = DefaultAbandonAfter
	}
	return &service{
		repo:   repo,
		pub:    pub,
		log:    log,
		config: config,
		now:    time.Now,
	}
}

func (s *service) freshSince(now time.Time) time.Time {
	return now.Add(-s.config.AbandonAfter)
}

func (s *service) CheckConflict(ctx context.Context, q ConflictQuery) (*ConflictResult, error) {
	if q.ResourceID == "" {
		return nil, fmt.Errorf("%w: resource id is required", ErrInvalidInput)
	}
	date, err := NormalizeDate(q.Date)
	if err != nil {
		return nil, err
	}
	candidate, err := candidateInterval(q.StartTime, q.EndTime)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindBlocking(ctx, repositories.BlockingQuery{
		ResourceID: q.ResourceID,
		Date:       date,
		ExcludeID:  q.ExcludeID,
		FreshSince: s.freshSince(s.now()),
	})
	if err != nil {
		return nil, fmt.Errorf("check conflict: %w", err)
	}

	conflicts := overlapping(candidate, existing)
	if conflicts == nil {
		conflicts = []models.Reservation{}
	}
	return &ConflictResult{
		HasConflict: len(conflicts) > 0,
		Conflicting: conflicts,
	}, nil
}

func (s *service) BookedTimeSlots(ctx context.Context, resourceID, date string) ([]TimeSlot, error) {
	if resourceID == "" {
		return nil, fmt.Errorf("%w: resource id is required", ErrInvalidInput)
	}
	date, err := NormalizeDate(date)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindBlocking(ctx, repositories.BlockingQuery{
		ResourceID: resourceID,
		Date:       date,
		FreshSince: s.freshSince(s.now()),
	})
	if err != nil {
		return nil, fmt.Errorf("list booked slots: %w", err)
	}

	slots := make([]TimeSlot, 0, len(existing))
	for _, r := range existing {
		iv, ok := IntervalOf(r)
		if !ok {
			continue
		}
		slots = append(slots, TimeSlot{
			ReservationID: r.ID,
			StartTime:     iv.Start,
			EndTime:       iv.End,
			Status:        r.Status,
		})
	}
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].StartTime < slots[j].StartTime })
	return slots, nil
}

func (s *service) Reserve(ctx context.Context, in ReserveInput) (*models.Reservation, error) {
	ctx, span := tracer.Start(ctx, "booking.Reserve")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.resource_id", in.ResourceID),
		attribute.String("booking.date", in.Date),
	)

	if in.ResourceID == "" || in.UserID == "" {
		return nil, fmt.Errorf("%w: resource id and user id are required", ErrInvalidInput)
	}
	if in.EndTime == "" {
		return nil, fmt.Errorf("%w: end time is required", ErrInvalidInput)
	}
	date, err := NormalizeDate(in.Date)
	if err != nil {
		return nil, err
	}
	candidate, err := candidateInterval(in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}

	serviceType := in.ServiceType
	if serviceType == "" {
		serviceType = "facility_booking"
	}

	now := s.now()
	res := &models.Reservation{
		ResourceID:  in.ResourceID,
		UserID:      in.UserID,
		ServiceType: serviceType,
		Date:        &date,
		StartTime:   &candidate.Start,
		EndTime:     &candidate.End,
		Status:      models.StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	conflicts, err := s.repo.CreateExclusive(ctx, res, repositories.BlockingQuery{
		ResourceID: in.ResourceID,
		Date:       date,
		FreshSince: s.freshSince(now),
	}, func(existing []models.Reservation) []models.Reservation {
		return overlapping(candidate, existing)
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("reserve slot: %w", err)
	}
	if len(conflicts) > 0 {
		return nil, &ConflictError{Conflicts: conflicts}
	}

	s.log.WithFields(logrus.Fields{
		"reservation_id": res.ID,
		"resource_id":    res.ResourceID,
		"date":           date,
		"start":          candidate.Start,
		"end":            candidate.End,
	}).Info("slot reserved as draft")
	s.publish(ctx, EventReserved, *res, now)
	return res, nil
}

// CheckCompletable reports whether userID could pay for the reservation
// now. It reads only, so payment can refuse before charging.
func (s *service) CheckCompletable(ctx context.Context, reservationID, userID string) (*models.Reservation, error) {
	res, err := s.owned(ctx, reservationID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkCompletable(res, s.now()); err != nil {
		return nil, err
	}
	return res, nil
}

// Complete moves a paid draft to submitted. A slotted draft past the
// abandonment window is refused even if the sweep has not run yet, since
// its slot may already have been taken.
func (s *service) Complete(ctx context.Context, reservationID, userID string) (*models.Reservation, error) {
	res, err := s.owned(ctx, reservationID, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.checkCompletable(res, now); err != nil {
		return nil, err
	}

	// Freshness is part of the update predicate: a draft that goes stale
	// after the check above no longer holds its slot and must not submit.
	updated, err := s.repo.SubmitDraft(ctx, reservationID, s.freshSince(now), now)
	if err != nil {
		if errors.Is(err, repositories.ErrStatusChanged) {
			current, getErr := s.get(ctx, reservationID)
			if getErr != nil {
				return nil, getErr
			}
			if err := s.checkCompletable(current, now); err != nil {
				return nil, err
			}
			return nil, ErrReservationExpired
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("complete reservation: %w", err)
	}

	s.publish(ctx, EventSubmitted, *updated, now)
	return updated, nil
}

func (s *service) checkCompletable(res *models.Reservation, now time.Time) error {
	switch {
	case res.Status == models.StatusExpired:
		return ErrReservationExpired
	case res.Status != models.StatusDraft:
		return fmt.Errorf("%w: cannot submit a %s reservation", ErrInvalidTransition, res.Status)
	case res.Date != nil && res.CreatedAt.Before(s.freshSince(now)):
		return ErrReservationExpired
	}
	return nil
}

func (s *service) Cancel(ctx context.Context, reservationID, userID string) (*models.Reservation, error) {
	res, err := s.owned(ctx, reservationID, userID)
	if err != nil {
		return nil, err
	}
	if res.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: reservation is already %s", ErrInvalidTransition, res.Status)
	}

	now := s.now()
	updated, err := s.repo.TransitionStatus(ctx, reservationID,
		models.NonTerminalStatuses(), models.StatusCancelled, now)
	if err != nil {
		if errors.Is(err, repositories.ErrStatusChanged) {
			return nil, fmt.Errorf("%w: reservation changed concurrently", ErrInvalidTransition)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cancel reservation: %w", err)
	}

	s.log.WithField("reservation_id", reservationID).Info("reservation cancelled")
	s.publish(ctx, EventCancelled, *updated, now)
	return updated, nil
}

// owned loads a reservation and checks it belongs to userID.
func (s *service) owned(ctx context.Context, id, userID string) (*models.Reservation, error) {
	res, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID == "" || res.UserID != userID {
		return nil, ErrForbidden
	}
	return res, nil
}

func (s *service) get(ctx context.Context, id string) (*models.Reservation, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: reservation id is required", ErrInvalidInput)
	}
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

func (s *service) publish(ctx context.Context, key string, r models.Reservation, at time.Time) {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishJSON(ctx, key, eventOf(r, at)); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":          key,
			"reservation_id": r.ID,
		}).Warn("publish booking event failed")
	}
}
