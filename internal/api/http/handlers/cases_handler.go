package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-service/internal/api/dto"
	"github.com/spec-kit/case-service/internal/auth"
	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/service"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// CasesHandler manages staff case endpoints. All routes carry a :variant path
// segment, parsed against the registry before touching any service.
type CasesHandler struct {
	cases      *service.CaseService
	lifecycle  *service.LifecycleService
	comments   *service.CommentService
	conversion *service.ConversionService
}

// NewCasesHandler constructs handler.
func NewCasesHandler(cases *service.CaseService, lifecycle *service.LifecycleService, comments *service.CommentService, conversion *service.ConversionService) *CasesHandler {
	return &CasesHandler{cases: cases, lifecycle: lifecycle, comments: comments, conversion: conversion}
}

// CreateCase POST /staff/cases/:variant.
func (h *CasesHandler) CreateCase(c *fiber.Ctx) error {
	principal, variant, err := staffAndVariant(c)
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
	if req.RequesterID == nil && req.RequesterEmail == "" {
		return apperrors.NewValidationError("requester_id or requester_email required", nil)
	}

	input := service.CaseCreateInput{
		Subject:        req.Subject,
		Description:    req.Description,
		Priority:       req.Priority,
		Channel:        req.Channel,
		RequesterID:    req.RequesterID,
		RequesterName:  req.RequesterName,
		RequesterEmail: req.RequesterEmail,
		NotifyEmail:    boolOrDefault(req.NotifyEmail, true),
		NotifyChat:     boolOrDefault(req.NotifyChat, true),
	}
	created, err := h.cases.CreateCase(c.UserContext(), variant, principal.Actor(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": caseSummary(created)})
}

// ListCases GET /staff/cases/:variant.
func (h *CasesHandler) ListCases(c *fiber.Ctx) error {
	_, variant, err := staffAndVariant(c)
	if err != nil {
		return err
	}
	cases, err := h.cases.ListCases(c.UserContext(), variant, parseCaseQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.CaseSummary, 0, len(cases))
	for i := range cases {
		items = append(items, caseSummary(&cases[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetCase GET /staff/cases/:variant/:id.
func (h *CasesHandler) GetCase(c *fiber.Ctx) error {
	_, variant, err := staffAndVariant(c)
	if err != nil {
		return err
	}
	detail, err := h.cases.GetCase(c.UserContext(), variant, c.Params("id"), true)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseDetail(detail)})
}

// ChangeStatus POST /staff/cases/:variant/:id/status.
func (h *CasesHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, variant, err := staffAndVariant(c)
	if err != nil {
		return err
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	updated, err := h.lifecycle.ChangeStatus(c.UserContext(), variant, c.Params("id"),
		req.Status, principal.Actor(), req.Comment, boolOrDefault(req.Notify, true))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseSummary(updated)})
}

// ChangePriority POST /staff/cases/:variant/:id/priority.
func (h *CasesHandler) ChangePriority(c *fiber.Ctx) error {
	principal, variant, err := staffAndVariant(c)
	if err != nil {
		return err
	}
	var req dto.ChangePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.lifecycle.ChangePriority(c.UserContext(), variant, c.Params("id"), req.Priority, principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseSummary(updated)})
}

// Assign POST /staff/cases/:variant/:id/assign.
func (h *CasesHandler) Assign(c *fiber.Ctx) error {
	principal, variant, err := staffAndVariant(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.lifecycle.Assign(c.UserContext(), variant, c.Params("id"), req.AssigneeID, principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseSummary(updated)})
}

// AddComment POST /staff/cases/:variant/:id/comments.
func (h *CasesHandler) AddComment(c *fiber.Ctx) error {
	principal, variant, err := staffAndVariant(c)
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
	comment, err := h.comments.AddComment(c.UserContext(), service.AddCommentInput{
		Variant:    variant,
		CaseID:     c.Params("id"),
		Author:     principal.Actor(),
		Body:       req.Body,
		Type:       req.Type,
		IsResponse: req.IsResponse,
		EmailTo:    req.EmailTo,
		EmailCc:    req.EmailCc,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// Convert POST /staff/cases/:variant/:id/convert.
func (h *CasesHandler) Convert(c *fiber.Ctx) error {
	principal, variant, err := staffAndVariant(c)
	if err != nil {
		return err
	}
	var req dto.ConvertRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	target, err := domain.ParseVariant(req.TargetVariant)
	if err != nil {
		return apperrors.NewValidationError("invalid target_variant", map[string]any{"target_variant": req.TargetVariant})
	}
	result, err := h.conversion.Convert(c.UserContext(), variant, c.Params("id"), target, principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ConversionResponse{
		Source:         caseSummary(result.Source),
		Target:         caseSummary(result.Target),
		CopiedComments: result.CopiedComments,
		CopiedFiles:    result.CopiedFiles,
	}})
}

// Statuses GET /staff/cases/:variant/statuses exposes the variant's status
// vocabulary for UI pickers.
func (h *CasesHandler) Statuses(c *fiber.Ctx) error {
	variant, err := variantFromPath(c)
	if err != nil {
		return err
	}
	profile, err := variant.Profile()
	if err != nil {
		return apperrors.NewUnknownVariant(err)
	}
	options := make([]dto.StatusOption, 0, len(profile.Statuses))
	for _, info := range profile.Statuses {
		options = append(options, dto.StatusOption{
			Value: info.Value,
			Label: info.Label,
			Icon:  info.Icon,
			Color: info.Color,
		})
	}
	return c.JSON(fiber.Map{"data": options})
}

func variantFromPath(c *fiber.Ctx) (domain.Variant, error) {
	variant, err := domain.ParseVariant(c.Params("variant"))
	if err != nil {
		return "", apperrors.NewValidationError("invalid case variant", map[string]any{"variant": c.Params("variant")})
	}
	return variant, nil
}

func staffAndVariant(c *fiber.Ctx) (*auth.Principal, domain.Variant, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return nil, "", apperrors.NewUnauthorized("staff required")
	}
	variant, err := variantFromPath(c)
	if err != nil {
		return nil, "", err
	}
	return principal, variant, nil
}

func parseCaseQuery(c *fiber.Ctx) service.CaseListFilter {
	filter := service.CaseListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.CaseStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.CasePriority(strings.TrimSpace(part)))
		}
	}
	if assignee := c.Query("assignee_id"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	if requester := c.Query("requester_id"); requester != "" {
		filter.RequesterID = &requester
	}
	if search := c.Query("q"); search != "" {
		filter.SearchTerm = &search
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func boolOrDefault(val *bool, def bool) bool {
	if val == nil {
		return def
	}
	return *val
}

func caseSummary(c *domain.SupportCase) dto.CaseSummary {
	label := string(c.Status)
	if profile, err := c.Variant.Profile(); err == nil {
		label = profile.StatusLabel(c.Status)
	}
	return dto.CaseSummary{
		ID:                c.ID,
		Variant:           c.Variant,
		CaseNumber:        c.CaseNumber,
		Subject:           c.Subject,
		Status:            c.Status,
		StatusLabel:       label,
		Priority:          c.Priority,
		RequesterName:     c.RequesterName,
		AssigneeID:        c.AssigneeID,
		Channel:           c.Channel,
		ConvertedToNumber: c.ConvertedToNumber,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func caseDetail(detail *service.CaseDetail) dto.CaseDetailResponse {
	comments := make([]dto.CommentResponse, 0, len(detail.Comments))
	for i := range detail.Comments {
		comments = append(comments, commentResponse(&detail.Comments[i]))
	}
	attachments := make([]dto.AttachmentResponse, 0, len(detail.Attachments))
	for _, att := range detail.Attachments {
		attachments = append(attachments, attachmentResponse(&att))
	}
	history := make([]dto.HistoryResponse, 0, len(detail.History))
	for _, entry := range detail.History {
		history = append(history, dto.HistoryResponse{
			ID:          entry.ID,
			FieldName:   entry.FieldName,
			OldValue:    entry.OldValue,
			NewValue:    entry.NewValue,
			ChangedBy:   entry.ChangedBy,
			Description: entry.Description,
			CreatedAt:   entry.CreatedAt,
		})
	}
	c := detail.Case
	return dto.CaseDetailResponse{
		CaseSummary:     caseSummary(c),
		Description:     c.Description,
		RequesterEmail:  c.RequesterEmail,
		ResolvedAt:      c.ResolvedAt,
		ClosedAt:        c.ClosedAt,
		FirstResponseAt: c.FirstResponseAt,
		Comments:        comments,
		Attachments:     attachments,
		History:         history,
	}
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:          comment.ID,
		AuthorID:    comment.AuthorID,
		AuthorName:  comment.AuthorName,
		Body:        comment.Body,
		Type:        comment.Type,
		IsSystem:    comment.IsSystem,
		EmailTo:     comment.EmailTo,
		EmailCc:     comment.EmailCc,
		SentAsEmail: comment.SentAsEmail,
		CreatedAt:   comment.CreatedAt,
	}
}

func attachmentResponse(att *domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:               att.ID,
		CommentID:        att.CommentID,
		OriginalFilename: att.OriginalFilename,
		MimeType:         att.MimeType,
		SizeBytes:        att.SizeBytes,
		IsInline:         att.IsInline,
		CreatedAt:        att.CreatedAt,
	}
}
