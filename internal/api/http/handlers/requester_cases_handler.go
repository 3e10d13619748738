package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-service/internal/api/dto"
	"github.com/spec-kit/case-service/internal/auth"
	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/service"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// RequesterCasesHandler exposes the requester-facing surface: open a case,
// see your own cases, reply publicly. Internal notes never leave this layer.
type RequesterCasesHandler struct {
	cases    *service.CaseService
	comments *service.CommentService
}

// NewRequesterCasesHandler constructs handler.
func NewRequesterCasesHandler(cases *service.CaseService, comments *service.CommentService) *RequesterCasesHandler {
	return &RequesterCasesHandler{cases: cases, comments: comments}
}

// CreateCase POST /cases/:variant.
func (h *RequesterCasesHandler) CreateCase(c *fiber.Ctx) error {
	principal, variant, err := requesterAndVariant(c)
	if err != nil {
		return err
	}
	var req dto.CreateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Subject == "" {
		return apperrors.NewValidationError("subject required", nil)
	}

	input := service.CaseCreateInput{
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    req.Priority,
		Channel:     domain.ChannelWeb,
		RequesterID: &principal.Requester.ID,
		NotifyEmail: boolOrDefault(req.NotifyEmail, true),
		NotifyChat:  true,
	}
	created, err := h.cases.CreateCase(c.UserContext(), variant, principal.Actor(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": caseSummary(created)})
}

// ListCases GET /cases/:variant.
func (h *RequesterCasesHandler) ListCases(c *fiber.Ctx) error {
	principal, variant, err := requesterAndVariant(c)
	if err != nil {
		return err
	}
	filter := parseCaseQuery(c)
	filter.RequesterID = &principal.Requester.ID
	cases, err := h.cases.ListCases(c.UserContext(), variant, filter)
	if err != nil {
		return err
	}
	items := make([]dto.CaseSummary, 0, len(cases))
	for i := range cases {
		items = append(items, caseSummary(&cases[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetCase GET /cases/:variant/:id.
func (h *RequesterCasesHandler) GetCase(c *fiber.Ctx) error {
	principal, variant, err := requesterAndVariant(c)
	if err != nil {
		return err
	}
	detail, err := h.cases.GetCaseForRequester(c.UserContext(), variant, c.Params("id"), principal.Requester.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseDetail(detail)})
}

// AddComment POST /cases/:variant/:id/comments. Requester comments are always
// public.
func (h *RequesterCasesHandler) AddComment(c *fiber.Ctx) error {
	principal, variant, err := requesterAndVariant(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperrors.NewValidationError("body required", nil)
	}
	if _, err := h.cases.GetCaseForRequester(c.UserContext(), variant, c.Params("id"), principal.Requester.ID); err != nil {
		return err
	}
	comment, err := h.comments.AddComment(c.UserContext(), service.AddCommentInput{
		Variant: variant,
		CaseID:  c.Params("id"),
		Author:  principal.Actor(),
		Body:    req.Body,
		Type:    domain.CommentTypePublic,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

func requesterAndVariant(c *fiber.Ctx) (*auth.Principal, domain.Variant, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Requester == nil {
		return nil, "", apperrors.NewUnauthorized("requester required")
	}
	variant, err := variantFromPath(c)
	if err != nil {
		return nil, "", err
	}
	return principal, variant, nil
}
