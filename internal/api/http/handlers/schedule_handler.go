package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/staff-service/internal/api/dto"
	"github.com/spec-kit/staff-service/internal/domain"
	"github.com/spec-kit/staff-service/internal/service"
)

// ScheduleLedger is the schedule surface the handler drives.
type ScheduleLedger interface {
	Attach(ctx context.Context, staffID string, in service.AttachScheduleInput) (*domain.Schedule, error)
	ListByStaff(ctx context.Context, staffID string) ([]domain.Schedule, error)
}

// ScheduleHandler exposes schedules nested under a staff member.
type ScheduleHandler struct {
	schedules ScheduleLedger
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(schedules ScheduleLedger) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// Attach handles POST /staff/:id/schedule.
func (h *ScheduleHandler) Attach(c *fiber.Ctx) error {
	var req dto.AttachScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload(err)
	}

	schedule, err := h.schedules.Attach(c.UserContext(), c.Params("id"), req.ToInput())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewScheduleResponse(schedule))
}

// List handles GET /staff/:id/schedule.
func (h *ScheduleHandler) List(c *fiber.Ctx) error {
	list, err := h.schedules.ListByStaff(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewScheduleListResponse(list))
}
