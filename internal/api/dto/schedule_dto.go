package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/spec-kit/staff-service/internal/domain"
	"github.com/spec-kit/staff-service/internal/service"
)

// AttachScheduleRequest payload. Timestamps are RFC 3339 strings. Fields stay
// raw so a wrongly typed value is rejected by the service after the staff
// lookup, like any other malformed timestamp.
type AttachScheduleRequest struct {
	Start json.RawMessage `json:"start"`
	End   json.RawMessage `json:"end"`
	Notes json.RawMessage `json:"notes"`
}

// ToInput converts the payload into service input. Non-string literals are
// passed through as their JSON text.
func (r AttachScheduleRequest) ToInput() service.AttachScheduleInput {
	in := service.AttachScheduleInput{Start: rawText(r.Start), End: rawText(r.End)}
	if notes := rawText(r.Notes); notes != "" {
		in.Notes = &notes
	}
	return in
}

func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// ScheduleResponse is the wire shape of a schedule.
type ScheduleResponse struct {
	ID        string    `json:"id"`
	StaffID   string    `json:"staffId"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewScheduleResponse maps a domain record.
func NewScheduleResponse(s *domain.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:        s.ID,
		StaffID:   s.StaffID,
		Start:     s.Start,
		End:       s.End,
		Notes:     s.Notes,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// NewScheduleListResponse maps schedules, keeping an empty list non-nil.
func NewScheduleListResponse(list []domain.Schedule) []ScheduleResponse {
	out := make([]ScheduleResponse, 0, len(list))
	for i := range list {
		out = append(out, NewScheduleResponse(&list[i]))
	}
	return out
}
