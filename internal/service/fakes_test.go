package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/staff-service/internal/domain"
	"github.com/spec-kit/staff-service/internal/events"
	"github.com/spec-kit/staff-service/internal/repository"
)

var fakeEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeStaffRepo mimics the store, including the partial unique index on (franchise, email).
type fakeStaffRepo struct {
	mu    sync.Mutex
	rows  map[string]domain.Staff
	clock int
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{rows: make(map[string]domain.Staff)}
}

func (r *fakeStaffRepo) tick() time.Time {
	r.clock++
	return fakeEpoch.Add(time.Duration(r.clock) * time.Second)
}

func (r *fakeStaffRepo) emailTaken(franchiseID string, email *string, exceptID string) bool {
	if email == nil {
		return false
	}
	for id, row := range r.rows {
		if id != exceptID && row.FranchiseID == franchiseID && row.Email != nil && *row.Email == *email {
			return true
		}
	}
	return false
}

func (r *fakeStaffRepo) Create(_ context.Context, staff *domain.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(staff.FranchiseID, staff.Email, "") {
		return repository.ErrDuplicateKey
	}
	staff.ID = uuid.NewString()
	staff.CreatedAt = r.tick()
	staff.UpdatedAt = staff.CreatedAt
	r.rows[staff.ID] = *staff
	return nil
}

func (r *fakeStaffRepo) GetByID(_ context.Context, id string) (*domain.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (r *fakeStaffRepo) Exists(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[id]
	return ok, nil
}

func (r *fakeStaffRepo) filtered(filter repository.StaffFilter) []domain.Staff {
	var out []domain.Staff
	for _, row := range r.rows {
		if filter.BusinessID != nil && row.BusinessID != *filter.BusinessID {
			continue
		}
		if filter.FranchiseID != nil && row.FranchiseID != *filter.FranchiseID {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeStaffRepo) List(_ context.Context, filter repository.StaffFilter) ([]domain.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.filtered(filter)
	if filter.Offset >= len(all) {
		return []domain.Staff{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], nil
}

func (r *fakeStaffRepo) Count(_ context.Context, filter repository.StaffFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.filtered(filter))), nil
}

func (r *fakeStaffRepo) Update(_ context.Context, id string, patch domain.StaffPatch) (*domain.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.EmailSet && r.emailTaken(row.FranchiseID, patch.Email, id) {
		return nil, repository.ErrDuplicateKey
	}
	if patch.Name != nil {
		row.Name = *patch.Name
	}
	if patch.EmailSet {
		row.Email = patch.Email
	}
	if patch.Role != nil {
		row.Role = *patch.Role
	}
	if patch.Active != nil {
		row.Active = *patch.Active
	}
	row.UpdatedAt = r.tick()
	r.rows[id] = row
	return &row, nil
}

func (r *fakeStaffRepo) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.Active = false
	row.UpdatedAt = r.tick()
	r.rows[id] = row
	return nil
}

type fakeScheduleRepo struct {
	mu   sync.Mutex
	rows []domain.Schedule
}

func (r *fakeScheduleRepo) Create(_ context.Context, schedule *domain.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	schedule.ID = uuid.NewString()
	schedule.CreatedAt = time.Now().UTC()
	schedule.UpdatedAt = schedule.CreatedAt
	r.rows = append(r.rows, *schedule)
	return nil
}

func (r *fakeScheduleRepo) ListByStaff(_ context.Context, staffID string) ([]domain.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Schedule
	for _, row := range r.rows {
		if row.StaffID == staffID {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

type mockStaffRepo struct {
	mock.Mock
}

func (m *mockStaffRepo) Create(ctx context.Context, staff *domain.Staff) error {
	return m.Called(ctx, staff).Error(0)
}

func (m *mockStaffRepo) GetByID(ctx context.Context, id string) (*domain.Staff, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Staff), args.Error(1)
}

func (m *mockStaffRepo) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockStaffRepo) List(ctx context.Context, filter repository.StaffFilter) ([]domain.Staff, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Staff), args.Error(1)
}

func (m *mockStaffRepo) Count(ctx context.Context, filter repository.StaffFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStaffRepo) Update(ctx context.Context, id string, patch domain.StaffPatch) (*domain.Staff, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Staff), args.Error(1)
}

func (m *mockStaffRepo) Deactivate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type recordingDispatcher struct {
	mu       sync.Mutex
	received []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.received = append(d.received, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.received))
	for _, e := range d.received {
		out = append(out, e.Type)
	}
	return out
}

type countingTx struct {
	calls atomic.Int32
}

func (c *countingTx) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	c.calls.Add(1)
	return fn(ctx)
}

func strPtr(s string) *string { return &s }
