package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/staff-service/internal/domain"
	"github.com/spec-kit/staff-service/internal/events"
	"github.com/spec-kit/staff-service/internal/repository"
	apperrors "github.com/spec-kit/staff-service/pkg/util/errorutil"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit within int.
	MaxPage = math.MaxInt / MaxLimit
)

// StaffService owns the staff directory: creation, listing, patching and soft deletion.
type StaffService struct {
	staff      repository.StaffRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// StaffDependencies bundles what StaffService needs.
type StaffDependencies struct {
	StaffRepo  repository.StaffRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewStaffService constructs the service.
func NewStaffService(deps StaffDependencies) *StaffService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{
		staff:      deps.StaffRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateStaffInput is the payload accepted by Create.
type CreateStaffInput struct {
	BusinessID  string
	FranchiseID string
	Name        string
	Email       *string
	Role        *domain.StaffRole
	Active      *bool
}

// StaffListQuery holds list filters and the requested page window.
type StaffListQuery struct {
	BusinessID  *string
	FranchiseID *string
	Page        int
	Limit       int
}

// StaffPage is one window of a filtered listing.
type StaffPage struct {
	Items []domain.Staff
	Total int64
	Page  int
	Limit int
}

// NormalizePage applies defaults and the hard caps to a requested page window.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page > MaxPage {
		page = MaxPage
	}
	return page, limit
}

// Create inserts a staff record. Email uniqueness per franchise is left to the
// store's partial unique index; a duplicate surfaces as a conflict.
func (s *StaffService) Create(ctx context.Context, in CreateStaffInput) (*domain.Staff, error) {
	staff := &domain.Staff{
		BusinessID:  strings.TrimSpace(in.BusinessID),
		FranchiseID: strings.TrimSpace(in.FranchiseID),
		Name:        strings.TrimSpace(in.Name),
		Email:       normalizeEmail(in.Email),
		Role:        domain.StaffRoleStaff,
		Active:      true,
	}
	if in.Role != nil {
		staff.Role = *in.Role
	}
	if in.Active != nil {
		staff.Active = *in.Active
	}

	var missing []string
	if staff.BusinessID == "" {
		missing = append(missing, "businessId")
	}
	if staff.FranchiseID == "" {
		missing = append(missing, "franchiseId")
	}
	if staff.Name == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}
	if !staff.Role.Valid() {
		return nil, invalidRoleError(staff.Role)
	}

	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, s.mapStaffError(err, staff.ID, staff.Email)
	}

	s.publish(ctx, events.EventStaffCreated, staff)
	return staff, nil
}

// List returns one page of staff, newest first, with the total matching the filter.
func (s *StaffService) List(ctx context.Context, q StaffListQuery) (*StaffPage, error) {
	page, limit := NormalizePage(q.Page, q.Limit)
	filter := repository.StaffFilter{
		BusinessID:  q.BusinessID,
		FranchiseID: q.FranchiseID,
		Limit:       limit,
		Offset:      (page - 1) * limit,
	}

	var (
		items []domain.Staff
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.staff.List(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.staff.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if items == nil {
		items = []domain.Staff{}
	}

	return &StaffPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Get fetches a single staff record.
func (s *StaffService) Get(ctx context.Context, id string) (*domain.Staff, error) {
	if !validID(id) {
		return nil, staffNotFound(id)
	}
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapStaffError(err, id, nil)
	}
	return staff, nil
}

// Update applies an allow-listed patch and returns the stored result.
func (s *StaffService) Update(ctx context.Context, id string, patch domain.StaffPatch) (*domain.Staff, error) {
	if !validID(id) {
		return nil, staffNotFound(id)
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name must not be empty", map[string]any{"fields": []string{"name"}})
		}
		patch.Name = &name
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, invalidRoleError(*patch.Role)
	}
	if patch.EmailSet {
		patch.Email = normalizeEmail(patch.Email)
	}

	staff, err := s.staff.Update(ctx, id, patch)
	if err != nil {
		return nil, s.mapStaffError(err, id, patch.Email)
	}

	if !patch.Empty() {
		s.publish(ctx, events.EventStaffUpdated, staff)
	}
	return staff, nil
}

// Deactivate soft-deletes a staff record. Repeating it is harmless.
func (s *StaffService) Deactivate(ctx context.Context, id string) error {
	if !validID(id) {
		return staffNotFound(id)
	}
	if err := s.staff.Deactivate(ctx, id); err != nil {
		return s.mapStaffError(err, id, nil)
	}

	s.publishEvent(ctx, events.NewEvent(events.EventStaffDeactivated, id, nil))
	return nil
}

func (s *StaffService) mapStaffError(err error, id string, email *string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return staffNotFound(id)
	case errors.Is(err, repository.ErrDuplicateKey):
		details := map[string]any{}
		if email != nil {
			details["email"] = *email
		}
		return apperrors.NewConflict("email already in use within franchise", details)
	case errors.Is(err, repository.ErrConstraint):
		return apperrors.NewValidationError("staff record rejected by store constraints", nil)
	default:
		return apperrors.NewInternalError(err)
	}
}

func (s *StaffService) publish(ctx context.Context, eventType events.EventType, staff *domain.Staff) {
	event := events.NewEvent(eventType, staff.ID, events.StaffChangedPayload{
		Name:   staff.Name,
		Email:  staff.Email,
		Role:   string(staff.Role),
		Active: staff.Active,
	})
	event.BusinessID = staff.BusinessID
	event.FranchiseID = staff.FranchiseID
	s.publishEvent(ctx, event)
}

func (s *StaffService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func staffNotFound(id string) error {
	return apperrors.NewNotFound("staff", map[string]any{"id": id})
}

func invalidRoleError(role domain.StaffRole) error {
	return apperrors.NewValidationError("invalid role", map[string]any{
		"role":    string(role),
		"allowed": []string{string(domain.StaffRoleManager), string(domain.StaffRoleStaff)},
	})
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*email)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// validID reports whether id can name a stored record; anything else resolves to nothing.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
