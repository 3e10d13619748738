package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/repository"
	"github.com/spec-kit/case-service/internal/storage"
	"github.com/spec-kit/case-service/internal/upload"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// sniffLen is how many leading bytes feed content detection.
const sniffLen = 3072

// AttachmentService validates uploads, stores their bytes and persists their
// metadata in the variant's attachments table.
type AttachmentService struct {
	cases       repository.CaseRepository
	attachments repository.AttachmentRepository
	store       storage.FileStore
	validator   *upload.Validator
	logger      *zap.Logger
}

// AttachmentDependencies bundles collaborators for the service.
type AttachmentDependencies struct {
	CaseRepo       repository.CaseRepository
	AttachmentRepo repository.AttachmentRepository
	Store          storage.FileStore
	Validator      *upload.Validator
	Logger         *zap.Logger
}

// NewAttachmentService constructs the service.
func NewAttachmentService(deps AttachmentDependencies) *AttachmentService {
	return &AttachmentService{
		cases:       deps.CaseRepo,
		attachments: deps.AttachmentRepo,
		store:       deps.Store,
		validator:   deps.Validator,
		logger:      deps.Logger,
	}
}

// SaveUploadInput describes one incoming file.
type SaveUploadInput struct {
	Variant    domain.Variant
	CaseID     string
	CommentID  *string
	Filename   string
	MimeType   string
	SizeBytes  int64
	Content    io.Reader
	UploadedBy *string
	IsInline   bool
	ContentID  *string
}

// SaveUpload runs the full pipeline: metadata validation, content sniffing,
// filename sanitization, byte storage under a generated unique name, then the
// metadata row. A row failure after the bytes landed triggers a best-effort
// file cleanup so storage does not accumulate orphans.
func (s *AttachmentService) SaveUpload(ctx context.Context, input SaveUploadInput) (*domain.Attachment, error) {
	profile, err := input.Variant.Profile()
	if err != nil {
		return nil, apperrors.NewUnknownVariant(err)
	}
	c, err := s.cases.GetByID(ctx, profile, input.CaseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": input.CaseID})
		}
		return nil, apperrors.MapError(err)
	}

	if result := s.validator.Validate(input.Filename, input.SizeBytes, input.MimeType); !result.OK {
		return nil, apperrors.NewAttachmentRejected(result.Reason, map[string]any{
			"filename": input.Filename,
		})
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(input.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, apperrors.NewInternalError(fmt.Errorf("read upload: %w", err))
	}
	head = head[:n]
	if result := s.validator.VerifyContent(input.Filename, input.MimeType, head); !result.OK {
		return nil, apperrors.NewAttachmentRejected(result.Reason, map[string]any{
			"filename": input.Filename,
		})
	}

	original := upload.SanitizeFilename(input.Filename)
	stored := uuid.NewString() + filepath.Ext(original)
	relPath := path.Join(string(input.Variant), c.CaseNumber, stored)

	content := io.MultiReader(bytes.NewReader(head), input.Content)
	if err := s.store.Write(ctx, relPath, content); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("store upload: %w", err))
	}

	attachment := &domain.Attachment{
		CaseID:           c.ID,
		CommentID:        input.CommentID,
		StoredFilename:   stored,
		OriginalFilename: original,
		RelativePath:     relPath,
		MimeType:         input.MimeType,
		SizeBytes:        input.SizeBytes,
		IsInline:         input.IsInline,
		ContentID:        input.ContentID,
		UploadedBy:       input.UploadedBy,
	}
	if err := s.attachments.Create(ctx, profile, attachment); err != nil {
		if cleanupErr := s.store.Delete(ctx, relPath); cleanupErr != nil && !errors.Is(cleanupErr, storage.ErrNotExist) {
			s.logger.Error("orphan cleanup failed",
				zap.String("path", relPath),
				zap.Error(cleanupErr))
		}
		return nil, apperrors.MapError(err)
	}
	return attachment, nil
}

// Open streams the stored bytes for download.
func (s *AttachmentService) Open(ctx context.Context, variant domain.Variant, attachmentID string) (*domain.Attachment, io.ReadCloser, error) {
	profile, err := variant.Profile()
	if err != nil {
		return nil, nil, apperrors.NewUnknownVariant(err)
	}
	attachment, err := s.attachments.GetByID(ctx, profile, attachmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("attachment", map[string]any{"attachment_id": attachmentID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	rc, err := s.store.Open(ctx, attachment.RelativePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, nil, apperrors.NewNotFound("attachment file", map[string]any{"path": attachment.RelativePath})
		}
		return nil, nil, apperrors.NewInternalError(err)
	}
	return attachment, rc, nil
}

// ListByCase returns attachment metadata for a case.
func (s *AttachmentService) ListByCase(ctx context.Context, variant domain.Variant, caseID string) ([]domain.Attachment, error) {
	profile, err := variant.Profile()
	if err != nil {
		return nil, apperrors.NewUnknownVariant(err)
	}
	attachments, err := s.attachments.ListByCase(ctx, profile, caseID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachments, nil
}

// Delete removes the file first, then the row. A file already missing from
// storage is logged and does not block deleting the metadata.
func (s *AttachmentService) Delete(ctx context.Context, variant domain.Variant, attachmentID string) error {
	profile, err := variant.Profile()
	if err != nil {
		return apperrors.NewUnknownVariant(err)
	}
	attachment, err := s.attachments.GetByID(ctx, profile, attachmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("attachment", map[string]any{"attachment_id": attachmentID})
		}
		return apperrors.MapError(err)
	}

	if err := s.store.Delete(ctx, attachment.RelativePath); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			s.logger.Warn("attachment file already gone",
				zap.String("path", attachment.RelativePath))
		} else {
			return apperrors.NewInternalError(fmt.Errorf("delete stored file: %w", err))
		}
	}

	if err := s.attachments.Delete(ctx, profile, attachmentID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
