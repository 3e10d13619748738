package dto

import "github.com/spec-kit/case-service/internal/domain"

// StaffSummary is the directory entry shown in assignment dropdowns.
type StaffSummary struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Email  string           `json:"email"`
	Role   domain.StaffRole `json:"role"`
	Active bool             `json:"active"`
}

// StatusOption describes one status in a variant's vocabulary for UI pickers.
type StatusOption struct {
	Value domain.CaseStatus `json:"value"`
	Label string            `json:"label"`
	Icon  string            `json:"icon"`
	Color string            `json:"color"`
}
