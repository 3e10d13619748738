package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/events"
	"github.com/spec-kit/case-service/internal/repository"
	"github.com/spec-kit/case-service/internal/storage"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// ConversionService turns a case of one variant into a new case of another,
// carrying the thread and files along. Only variants whose profile declares a
// converted status can be a conversion source.
type ConversionService struct {
	cases       repository.CaseRepository
	comments    repository.CommentRepository
	history     repository.HistoryRepository
	attachments repository.AttachmentRepository
	store       storage.FileStore
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// ConversionDependencies bundles collaborators for the service.
type ConversionDependencies struct {
	CaseRepo       repository.CaseRepository
	CommentRepo    repository.CommentRepository
	HistoryRepo    repository.HistoryRepository
	AttachmentRepo repository.AttachmentRepository
	Store          storage.FileStore
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewConversionService constructs the service.
func NewConversionService(deps ConversionDependencies) *ConversionService {
	return &ConversionService{
		cases:       deps.CaseRepo,
		comments:    deps.CommentRepo,
		history:     deps.HistoryRepo,
		attachments: deps.AttachmentRepo,
		store:       deps.Store,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
	}
}

// ConversionResult reports what the workflow produced.
type ConversionResult struct {
	Source         *domain.SupportCase
	Target         *domain.SupportCase
	CopiedComments int
	CopiedFiles    int
}

// Convert creates the target case, marks the source as converted and copies
// the thread and attachments. The source case is the system of record until
// the target row exists; once both rows are persisted the copy steps are best
// effort and never roll the conversion back.
func (s *ConversionService) Convert(ctx context.Context, sourceVariant domain.Variant, caseID string, targetVariant domain.Variant, actor events.Actor) (*ConversionResult, error) {
	sourceProfile, err := sourceVariant.Profile()
	if err != nil {
		return nil, apperrors.NewUnknownVariant(err)
	}
	targetProfile, err := targetVariant.Profile()
	if err != nil {
		return nil, apperrors.NewUnknownVariant(err)
	}
	if sourceProfile.ConvertedStatus == "" {
		return nil, apperrors.NewValidationError("case type cannot be converted", map[string]any{
			"variant": sourceVariant,
		})
	}
	if sourceVariant == targetVariant {
		return nil, apperrors.NewValidationError("cannot convert a case to its own type", nil)
	}

	source, err := s.cases.GetByID(ctx, sourceProfile, caseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
		}
		return nil, apperrors.MapError(err)
	}
	if source.ConvertedToNumber != nil {
		return nil, apperrors.NewConflict("case already converted", map[string]any{
			"converted_to": *source.ConvertedToNumber,
		})
	}

	number, err := s.cases.NextCaseNumber(ctx, targetProfile, time.Now().Year())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	target := &domain.SupportCase{
		Variant:        targetVariant,
		CaseNumber:     number,
		Subject:        source.Subject,
		Description:    source.Description,
		Status:         targetProfile.Statuses[0].Value,
		Priority:       source.Priority,
		RequesterID:    source.RequesterID,
		RequesterName:  source.RequesterName,
		RequesterEmail: source.RequesterEmail,
		Channel:        source.Channel,
	}
	if err := s.cases.Create(ctx, targetProfile, target); err != nil {
		return nil, apperrors.MapError(err)
	}

	oldStatus := source.Status
	source.Status = sourceProfile.ConvertedStatus
	source.ConvertedToNumber = &target.CaseNumber
	now := time.Now()
	if source.ResolvedAt == nil {
		source.ResolvedAt = &now
	}
	if err := s.cases.Update(ctx, sourceProfile, source); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordConversionHistory(ctx, sourceProfile, source, oldStatus, targetVariant, target.CaseNumber, actor)
	s.addConversionComment(ctx, sourceProfile, source.ID, target.CaseNumber, actor)

	commentIDs := s.copyComments(ctx, sourceProfile, targetProfile, source.ID, target.ID)
	copiedFiles := s.copyAttachments(ctx, sourceProfile, targetProfile, source, target, commentIDs)

	s.publishEvent(ctx, events.Event{
		Type:    events.EventCaseConverted,
		Variant: sourceVariant,
		CaseID:  source.ID,
		Actor:   actor,
		Payload: events.CaseConvertedPayload{
			TargetVariant: targetVariant,
			TargetNumber:  target.CaseNumber,
		},
	})

	return &ConversionResult{
		Source:         source,
		Target:         target,
		CopiedComments: len(commentIDs),
		CopiedFiles:    copiedFiles,
	}, nil
}

func (s *ConversionService) recordConversionHistory(ctx context.Context, profile *domain.VariantProfile, source *domain.SupportCase, oldStatus domain.CaseStatus, targetVariant domain.Variant, targetNumber string, actor events.Actor) {
	entries := []*domain.HistoryEntry{
		{
			CaseID:      source.ID,
			FieldName:   domain.HistoryFieldStatus,
			OldValue:    string(oldStatus),
			NewValue:    string(source.Status),
			ChangedBy:   actor.ID,
			Description: fmt.Sprintf("Estado cambiado de %s a %s", profile.StatusLabel(oldStatus), profile.StatusLabel(source.Status)),
		},
		{
			CaseID:      source.ID,
			FieldName:   domain.ConversionHistoryField(targetVariant),
			OldValue:    "",
			NewValue:    targetNumber,
			ChangedBy:   actor.ID,
			Description: fmt.Sprintf("Caso convertido a %s", targetNumber),
		},
	}
	for _, entry := range entries {
		if err := s.history.Create(ctx, profile, entry); err != nil {
			s.logger.Error("conversion history failed",
				zap.String("case_id", source.ID),
				zap.String("field", entry.FieldName),
				zap.Error(err))
		}
	}
}

func (s *ConversionService) addConversionComment(ctx context.Context, profile *domain.VariantProfile, caseID, targetNumber string, actor events.Actor) {
	comment := &domain.Comment{
		CaseID:     caseID,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Body:       fmt.Sprintf("Caso convertido a %s", targetNumber),
		Type:       domain.CommentTypeInternal,
		IsSystem:   true,
	}
	if err := s.comments.Create(ctx, profile, comment); err != nil {
		s.logger.Error("conversion comment failed",
			zap.String("case_id", caseID),
			zap.Error(err))
	}
}

// copyComments duplicates the source thread into the target case and returns
// the old-to-new comment ID map used to re-link attachments. Copies never
// carry SentAsEmail: nothing was sent from the new case.
func (s *ConversionService) copyComments(ctx context.Context, sourceProfile, targetProfile *domain.VariantProfile, sourceID, targetID string) map[string]string {
	idMap := make(map[string]string)
	comments, err := s.comments.ListByCase(ctx, sourceProfile, sourceID)
	if err != nil {
		s.logger.Error("conversion comment listing failed",
			zap.String("case_id", sourceID),
			zap.Error(err))
		return idMap
	}
	for _, original := range comments {
		copied := &domain.Comment{
			CaseID:      targetID,
			AuthorID:    original.AuthorID,
			AuthorName:  original.AuthorName,
			Body:        original.Body,
			Type:        original.Type,
			IsSystem:    original.IsSystem,
			EmailTo:     original.EmailTo,
			EmailCc:     original.EmailCc,
			SentAsEmail: false,
		}
		if err := s.comments.Create(ctx, targetProfile, copied); err != nil {
			s.logger.Error("conversion comment copy failed",
				zap.String("comment_id", original.ID),
				zap.Error(err))
			continue
		}
		idMap[original.ID] = copied.ID
	}
	return idMap
}

// copyAttachments duplicates file bytes and metadata into the target case.
// Orphaned attachments (their comment was deleted) stay on the source only.
// Each file copies independently; a failed one is logged and skipped.
func (s *ConversionService) copyAttachments(ctx context.Context, sourceProfile, targetProfile *domain.VariantProfile, source, target *domain.SupportCase, commentIDs map[string]string) int {
	attachments, err := s.attachments.ListByCase(ctx, sourceProfile, source.ID)
	if err != nil {
		s.logger.Error("conversion attachment listing failed",
			zap.String("case_id", source.ID),
			zap.Error(err))
		return 0
	}

	copied := 0
	for _, original := range attachments {
		if original.CommentID == nil {
			continue
		}
		newCommentID, ok := commentIDs[*original.CommentID]
		if !ok {
			continue
		}

		dst := path.Join(string(target.Variant), target.CaseNumber, original.StoredFilename)
		if err := s.store.Copy(ctx, original.RelativePath, dst); err != nil {
			s.logger.Error("conversion file copy failed",
				zap.String("src", original.RelativePath),
				zap.String("dst", dst),
				zap.Error(err))
			continue
		}

		duplicate := &domain.Attachment{
			CaseID:           target.ID,
			CommentID:        &newCommentID,
			StoredFilename:   original.StoredFilename,
			OriginalFilename: original.OriginalFilename,
			RelativePath:     dst,
			MimeType:         original.MimeType,
			SizeBytes:        original.SizeBytes,
			IsInline:         original.IsInline,
			ContentID:        original.ContentID,
			UploadedBy:       original.UploadedBy,
			SentAsEmail:      false,
		}
		if err := s.attachments.Create(ctx, targetProfile, duplicate); err != nil {
			s.logger.Error("conversion attachment row failed",
				zap.String("attachment_id", original.ID),
				zap.Error(err))
			continue
		}
		copied++
	}
	return copied
}

func (s *ConversionService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
