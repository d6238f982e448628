package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"civicpay/internal/models"
	"civicpay/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// memoryRepo applies the same predicates as the gorm repository to an
// in-memory table.
type memoryRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Reservation
}

func newMemoryRepo(rows ...models.Reservation) *memoryRepo {
	m := &memoryRepo{rows: make(map[string]*models.Reservation)}
	for i := range rows {
		r := rows[i]
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		m.rows[r.ID] = &r
	}
	return m
}

func (m *memoryRepo) blocking(q repositories.BlockingQuery) []models.Reservation {
	var out []models.Reservation
	for _, r := range m.rows {
		if r.ResourceID != q.ResourceID || r.Date == nil || *r.Date != q.Date || r.StartTime == nil {
			continue
		}
		if q.ExcludeID != "" && r.ID == q.ExcludeID {
			continue
		}
		active := false
		for _, s := range models.ActiveStatuses {
			if r.Status == s {
				active = true
			}
		}
		if active || (r.Status == models.StatusDraft && !r.CreatedAt.Before(q.FreshSince)) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].StartTime < *out[j].StartTime })
	return out
}

func (m *memoryRepo) FindBlocking(_ context.Context, q repositories.BlockingQuery) ([]models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blocking(q), nil
}

func (m *memoryRepo) CreateExclusive(_ context.Context, r *models.Reservation, q repositories.BlockingQuery, conflicts repositories.ConflictFunc) ([]models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if found := conflicts(m.blocking(q)); len(found) > 0 {
		return found, nil
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	row := *r
	m.rows[r.ID] = &row
	return nil, nil
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *r
	return &out, nil
}

func (m *memoryRepo) TransitionStatus(_ context.Context, id string, from []models.ReservationStatus, to models.ReservationStatus, at time.Time) (*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	for _, f := range from {
		if r.Status == f {
			r.Status = to
			r.UpdatedAt = at
			out := *r
			return &out, nil
		}
	}
	return nil, repositories.ErrStatusChanged
}

func (m *memoryRepo) SubmitDraft(_ context.Context, id string, freshSince, at time.Time) (*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if r.Status != models.StatusDraft || (r.Date != nil && r.CreatedAt.Before(freshSince)) {
		return nil, repositories.ErrStatusChanged
	}
	r.Status = models.StatusSubmitted
	r.UpdatedAt = at
	out := *r
	return &out, nil
}

func (m *memoryRepo) ExpireDrafts(_ context.Context, createdBefore, at time.Time) ([]models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reservation
	for _, r := range m.rows {
		if r.Status == models.StatusDraft && r.Date != nil && r.CreatedAt.Before(createdBefore) {
			r.Status = models.StatusExpired
			r.UpdatedAt = at
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memoryRepo) status(id string) models.ReservationStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id].Status
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	args := m.Called(ctx, key, v)
	return args.Error(0)
}

func strPtr(s string) *string { return &s }

func slot(id, resource, date, start, end string, status models.ReservationStatus, createdAt time.Time) models.Reservation {
	r := models.Reservation{
		ID:         id,
		ResourceID: resource,
		UserID:     "user-" + id,
		Date:       strPtr(date),
		StartTime:  strPtr(start),
		Status:     status,
		CreatedAt:  createdAt,
	}
	if end != "" {
		r.EndTime = strPtr(end)
	}
	return r
}
