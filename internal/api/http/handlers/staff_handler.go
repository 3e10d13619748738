package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-service/internal/api/dto"
	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/repository"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// StaffHandler exposes the staff directory for assignment dropdowns.
type StaffHandler struct {
	staff repository.StaffRepository
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staff repository.StaffRepository) *StaffHandler {
	return &StaffHandler{staff: staff}
}

// ListAssignable GET /staff/cases/:variant/assignable lists the active staff
// whose role the variant accepts as assignee.
func (h *StaffHandler) ListAssignable(c *fiber.Ctx) error {
	variant, err := variantFromPath(c)
	if err != nil {
		return err
	}
	profile, err := variant.Profile()
	if err != nil {
		return apperrors.NewUnknownVariant(err)
	}

	active := true
	members, err := h.staff.List(c.Context(), repository.StaffFilter{
		Roles:  profile.AssignableRoles,
		Active: &active,
	})
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": staffSummaries(members)})
}

// List GET /staff/directory lists every staff member.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	members, err := h.staff.List(c.Context(), repository.StaffFilter{})
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": staffSummaries(members)})
}

func staffSummaries(members []domain.Staff) []dto.StaffSummary {
	items := make([]dto.StaffSummary, 0, len(members))
	for _, member := range members {
		items = append(items, dto.StaffSummary{
			ID:     member.ID,
			Name:   member.Name,
			Email:  member.Email,
			Role:   member.Role,
			Active: member.Active,
		})
	}
	return items
}
