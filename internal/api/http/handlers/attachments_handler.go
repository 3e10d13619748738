package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-service/internal/service"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// AttachmentsHandler manages upload, download and deletion of case files.
type AttachmentsHandler struct {
	attachments *service.AttachmentService
}

// NewAttachmentsHandler constructs handler.
func NewAttachmentsHandler(attachments *service.AttachmentService) *AttachmentsHandler {
	return &AttachmentsHandler{attachments: attachments}
}

// Upload POST /staff/cases/:variant/:id/attachments (multipart).
func (h *AttachmentsHandler) Upload(c *fiber.Ctx) error {
	principal, variant, err := staffAndVariant(c)
	if err != nil {
		return err
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file field required", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	var commentID *string
	if v := c.FormValue("comment_id"); v != "" {
		commentID = &v
	}

	attachment, err := h.attachments.SaveUpload(c.UserContext(), service.SaveUploadInput{
		Variant:    variant,
		CaseID:     c.Params("id"),
		CommentID:  commentID,
		Filename:   fileHeader.Filename,
		MimeType:   fileHeader.Header.Get("Content-Type"),
		SizeBytes:  fileHeader.Size,
		Content:    file,
		UploadedBy: principal.Actor().ID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attachmentResponse(attachment)})
}

// Download GET /staff/cases/:variant/attachments/:attachmentId.
func (h *AttachmentsHandler) Download(c *fiber.Ctx) error {
	_, variant, err := staffAndVariant(c)
	if err != nil {
		return err
	}
	attachment, rc, err := h.attachments.Open(c.UserContext(), variant, c.Params("attachmentId"))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, attachment.MimeType)
	c.Set(fiber.HeaderContentLength, strconv.FormatInt(attachment.SizeBytes, 10))
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+attachment.OriginalFilename+`"`)
	return c.SendStream(rc)
}

// Delete DELETE /staff/cases/:variant/attachments/:attachmentId.
func (h *AttachmentsHandler) Delete(c *fiber.Ctx) error {
	_, variant, err := staffAndVariant(c)
	if err != nil {
		return err
	}
	if err := h.attachments.Delete(c.UserContext(), variant, c.Params("attachmentId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
