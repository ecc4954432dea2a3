package domain

import "time"

// StaffRole enumerates roles a staff member can hold within a franchise.
type StaffRole string

const (
	StaffRoleManager StaffRole = "manager"
	StaffRoleStaff   StaffRole = "staff"
)

// Valid reports whether the role is one of the known roles.
func (r StaffRole) Valid() bool {
	switch r {
	case StaffRoleManager, StaffRoleStaff:
		return true
	}
	return false
}

// Staff models one employee or manager within a franchise of a business.
type Staff struct {
	ID          string
	BusinessID  string
	FranchiseID string
	Name        string
	Email       *string
	Role        StaffRole
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StaffPatch lists the fields an update may touch. Tenant identifiers are
// not patchable.
type StaffPatch struct {
	Name *string
	// EmailSet distinguishes "clear the email" (EmailSet with nil Email) from
	// "leave it alone".
	EmailSet bool
	Email    *string
	Role     *StaffRole
	Active   *bool
}

// Empty reports whether the patch changes no field.
func (p StaffPatch) Empty() bool {
	return p.Name == nil && !p.EmailSet && p.Role == nil && p.Active == nil
}
