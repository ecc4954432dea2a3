package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/spec-kit/staff-service/internal/domain"
	"github.com/spec-kit/staff-service/internal/service"
)

// CreateStaffRequest payload.
type CreateStaffRequest struct {
	BusinessID  string            `json:"businessId"`
	FranchiseID string            `json:"franchiseId"`
	Name        string            `json:"name"`
	Email       *string           `json:"email"`
	Role        *domain.StaffRole `json:"role"`
	Active      *bool             `json:"active"`
}

// ToInput converts the payload into service input.
func (r CreateStaffRequest) ToInput() service.CreateStaffInput {
	return service.CreateStaffInput{
		BusinessID:  r.BusinessID,
		FranchiseID: r.FranchiseID,
		Name:        r.Name,
		Email:       r.Email,
		Role:        r.Role,
		Active:      r.Active,
	}
}

// NullableString tells an absent field apart from an explicit null.
type NullableString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON marks the field as present; null leaves Value nil.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// UpdateStaffRequest lists the only fields a PATCH may touch.
type UpdateStaffRequest struct {
	Name   *string           `json:"name"`
	Email  NullableString    `json:"email"`
	Role   *domain.StaffRole `json:"role"`
	Active *bool             `json:"active"`
}

// ToPatch converts the payload into a domain patch.
func (r UpdateStaffRequest) ToPatch() domain.StaffPatch {
	return domain.StaffPatch{
		Name:     r.Name,
		EmailSet: r.Email.Set,
		Email:    r.Email.Value,
		Role:     r.Role,
		Active:   r.Active,
	}
}

// StaffResponse is the wire shape of a staff record.
type StaffResponse struct {
	ID          string           `json:"id"`
	BusinessID  string           `json:"businessId"`
	FranchiseID string           `json:"franchiseId"`
	Name        string           `json:"name"`
	Email       *string          `json:"email"`
	Role        domain.StaffRole `json:"role"`
	Active      bool             `json:"active"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// NewStaffResponse maps a domain record.
func NewStaffResponse(s *domain.Staff) StaffResponse {
	return StaffResponse{
		ID:          s.ID,
		BusinessID:  s.BusinessID,
		FranchiseID: s.FranchiseID,
		Name:        s.Name,
		Email:       s.Email,
		Role:        s.Role,
		Active:      s.Active,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// StaffListResponse is one page of staff.
type StaffListResponse struct {
	Items []StaffResponse `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// NewStaffListResponse maps a service page.
func NewStaffListResponse(p *service.StaffPage) StaffListResponse {
	items := make([]StaffResponse, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, NewStaffResponse(&p.Items[i]))
	}
	return StaffListResponse{Items: items, Total: p.Total, Page: p.Page, Limit: p.Limit}
}

// AckResponse acknowledges a write that returns no record.
type AckResponse struct {
	OK bool `json:"ok"`
}
