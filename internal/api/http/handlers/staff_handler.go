package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/staff-service/internal/api/dto"
	"github.com/spec-kit/staff-service/internal/domain"
	"github.com/spec-kit/staff-service/internal/service"
	apperrors "github.com/spec-kit/staff-service/pkg/util/errorutil"
)

// StaffDirectory is the staff lifecycle the handler drives.
type StaffDirectory interface {
	Create(ctx context.Context, in service.CreateStaffInput) (*domain.Staff, error)
	List(ctx context.Context, q service.StaffListQuery) (*service.StaffPage, error)
	Get(ctx context.Context, id string) (*domain.Staff, error)
	Update(ctx context.Context, id string, patch domain.StaffPatch) (*domain.Staff, error)
	Deactivate(ctx context.Context, id string) error
}

// StaffHandler exposes the staff directory endpoints.
type StaffHandler struct {
	staff StaffDirectory
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staff StaffDirectory) *StaffHandler {
	return &StaffHandler{staff: staff}
}

// Create handles POST /staff.
func (h *StaffHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload(err)
	}

	staff, err := h.staff.Create(c.UserContext(), req.ToInput())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewStaffResponse(staff))
}

// List handles GET /staff.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	page, err := h.staff.List(c.UserContext(), service.StaffListQuery{
		BusinessID:  optionalQuery(c, "businessId"),
		FranchiseID: optionalQuery(c, "franchiseId"),
		Page:        intQuery(c, "page"),
		Limit:       intQuery(c, "limit"),
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStaffListResponse(page))
}

// Get handles GET /staff/:id.
func (h *StaffHandler) Get(c *fiber.Ctx) error {
	staff, err := h.staff.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStaffResponse(staff))
}

// Update handles PATCH /staff/:id. Keys outside the patchable set are rejected.
func (h *StaffHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateStaffRequest
	if err := decodeStrict(c.Body(), &req); err != nil {
		return err
	}

	staff, err := h.staff.Update(c.UserContext(), c.Params("id"), req.ToPatch())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStaffResponse(staff))
}

// Deactivate handles DELETE /staff/:id.
func (h *StaffHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.staff.Deactivate(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.AckResponse{OK: true})
}

func decodeStrict(body []byte, dst any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
			return apperrors.NewValidationError("field is not patchable", map[string]any{
				"field": strings.Trim(field, `"`),
			})
		}
		return invalidPayload(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return invalidPayload(err)
	}
	return nil
}

func invalidPayload(err error) error {
	details := map[string]any{}
	if err != nil {
		details["reason"] = err.Error()
	}
	return apperrors.NewValidationError("invalid payload", details)
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	return &v
}

// intQuery returns 0 for absent or unparsable values; the service applies defaults.
func intQuery(c *fiber.Ctx, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return v
}
