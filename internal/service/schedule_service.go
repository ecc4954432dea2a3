package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/staff-service/internal/domain"
	"github.com/spec-kit/staff-service/internal/events"
	"github.com/spec-kit/staff-service/internal/repository"
	apperrors "github.com/spec-kit/staff-service/pkg/util/errorutil"
)

// TransactionManager scopes a unit of work in one store transaction.
type TransactionManager interface {
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type inlineTransactionManager struct{}

func (inlineTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// ScheduleService owns the schedule ledger. It reads the staff directory only
// to confirm the owner exists.
type ScheduleService struct {
	staff      repository.StaffRepository
	schedules  repository.ScheduleRepository
	tx         TransactionManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ScheduleDependencies bundles what ScheduleService needs.
type ScheduleDependencies struct {
	StaffRepo    repository.StaffRepository
	ScheduleRepo repository.ScheduleRepository
	Tx           TransactionManager
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewScheduleService constructs the service.
func NewScheduleService(deps ScheduleDependencies) *ScheduleService {
	tx := deps.Tx
	if tx == nil {
		tx = inlineTransactionManager{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		staff:      deps.StaffRepo,
		schedules:  deps.ScheduleRepo,
		tx:         tx,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// AttachScheduleInput carries the raw interval; timestamps are RFC 3339 strings.
type AttachScheduleInput struct {
	Start string
	End   string
	Notes *string
}

// Attach records an interval for an existing staff member. The existence
// check and the insert share one transaction, and the staff row stays share
// locked until commit.
func (s *ScheduleService) Attach(ctx context.Context, staffID string, in AttachScheduleInput) (*domain.Schedule, error) {
	if !validID(staffID) {
		return nil, staffNotFound(staffID)
	}

	var created *domain.Schedule
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		exists, err := s.staff.Exists(txCtx, staffID)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if !exists {
			return staffNotFound(staffID)
		}

		schedule, err := buildSchedule(staffID, in)
		if err != nil {
			return err
		}

		if err := s.schedules.Create(txCtx, schedule); err != nil {
			if errors.Is(err, repository.ErrConstraint) {
				return apperrors.NewValidationError("schedule rejected by store constraints", nil)
			}
			return apperrors.NewInternalError(err)
		}
		created = schedule
		return nil
	})
	if err != nil {
		return nil, asDomainError(err)
	}

	if s.dispatcher != nil {
		event := events.NewEvent(events.EventScheduleAttached, staffID, events.ScheduleAttachedPayload{
			ScheduleID: created.ID,
			Start:      created.Start,
			End:        created.End,
		})
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("publish event", zap.String("event_type", string(event.Type)), zap.Error(err))
		}
	}
	return created, nil
}

// ListByStaff returns the staff member's schedules, earliest start first. An
// unknown staff id yields an empty list.
func (s *ScheduleService) ListByStaff(ctx context.Context, staffID string) ([]domain.Schedule, error) {
	if !validID(staffID) {
		return []domain.Schedule{}, nil
	}
	list, err := s.schedules.ListByStaff(ctx, staffID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []domain.Schedule{}, nil
		}
		return nil, apperrors.NewInternalError(err)
	}
	if list == nil {
		list = []domain.Schedule{}
	}
	return list, nil
}

func buildSchedule(staffID string, in AttachScheduleInput) (*domain.Schedule, error) {
	var missing []string
	if strings.TrimSpace(in.Start) == "" {
		missing = append(missing, "start")
	}
	if strings.TrimSpace(in.End) == "" {
		missing = append(missing, "end")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}

	start, err := parseTimestamp("start", in.Start)
	if err != nil {
		return nil, err
	}
	end, err := parseTimestamp("end", in.End)
	if err != nil {
		return nil, err
	}

	schedule := &domain.Schedule{StaffID: staffID, Start: start, End: end}
	if in.Notes != nil {
		notes := strings.TrimSpace(*in.Notes)
		if notes != "" {
			schedule.Notes = &notes
		}
	}
	return schedule, nil
}

func parseTimestamp(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("malformed timestamp", map[string]any{
			"field":  field,
			"format": "RFC3339",
		})
	}
	return t.UTC(), nil
}

// asDomainError keeps domain errors raised inside a transaction and wraps
// transaction plumbing failures as internal errors.
func asDomainError(err error) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return apperrors.NewInternalError(err)
}
