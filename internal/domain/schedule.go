package domain

import "time"

// Schedule is one time interval assigned to a staff member.
type Schedule struct {
	ID        string
	StaffID   string
	Start     time.Time
	End       time.Time
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
