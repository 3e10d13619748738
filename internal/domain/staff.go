package domain

import "time"

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleAgent    StaffRole = "AGENT"
	StaffRoleTeamLead StaffRole = "TEAM_LEAD"
	StaffRoleAdmin    StaffRole = "ADMIN"
)

// Staff models a support agent, supervisor or administrator. The engine only
// reads this directory: display names for assignment history, role filters
// for assignment dropdowns.
type Staff struct {
	ID        string
	Name      string
	Email     string
	Role      StaffRole
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UnassignedLabel is the display fallback when a case has no assignee.
const UnassignedLabel = "Sin asignar"
