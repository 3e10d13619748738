package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/events"
	"github.com/spec-kit/case-service/internal/repository"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// CommentService creates public and internal comments and maintains the
// first-response timestamp.
type CommentService struct {
	cases      repository.CaseRepository
	comments   repository.CommentRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CommentDependencies bundles collaborators for the service.
type CommentDependencies struct {
	CaseRepo    repository.CaseRepository
	CommentRepo repository.CommentRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	return &CommentService{
		cases:      deps.CaseRepo,
		comments:   deps.CommentRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// AddCommentInput describes a new comment.
type AddCommentInput struct {
	Variant  domain.Variant
	CaseID   string
	Author   events.Actor
	Body     string
	Type     domain.CommentType
	IsSystem bool
	// IsResponse marks a public staff reply that uses the richer response
	// notification instead of the plain comment one.
	IsResponse bool
	EmailTo    []string
	EmailCc    []string
}

// AddComment persists the comment. The first authored, non-system comment on
// a case stamps FirstResponseAt; later comments never touch it. Recipient
// lists are recorded only on public, non-system comments. The body is stored
// exactly as submitted; sanitization is a render-time concern.
func (s *CommentService) AddComment(ctx context.Context, input AddCommentInput) (*domain.Comment, error) {
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
	if strings.TrimSpace(input.Body) == "" {
		return nil, apperrors.NewValidationError("body required", nil)
	}

	commentType := input.Type
	if commentType == "" {
		commentType = domain.CommentTypePublic
	}

	comment := &domain.Comment{
		CaseID:     c.ID,
		AuthorID:   input.Author.ID,
		AuthorName: input.Author.Name,
		Body:       input.Body,
		Type:       commentType,
		IsSystem:   input.IsSystem,
	}
	if commentType == domain.CommentTypePublic && !input.IsSystem {
		comment.EmailTo = input.EmailTo
		comment.EmailCc = input.EmailCc
	}

	if err := s.comments.Create(ctx, profile, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	if comment.Authored() && c.FirstResponseAt == nil {
		now := time.Now()
		c.FirstResponseAt = &now
		if err := s.cases.Update(ctx, profile, c); err != nil {
			// comment row exists; losing the stamp is logged, not fatal
			s.logger.Error("first response stamp failed",
				zap.String("case_id", c.ID),
				zap.Error(err))
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventCaseCommentAdded,
		Variant: input.Variant,
		CaseID:  c.ID,
		Actor:   input.Author,
		Payload: events.CaseCommentAddedPayload{
			CommentID:   comment.ID,
			CommentType: comment.Type,
			IsSystem:    comment.IsSystem,
			IsResponse:  input.IsResponse,
			AuthorName:  comment.AuthorName,
			BodyPreview: stringPreview(comment.Body, 120),
			EmailTo:     comment.EmailTo,
			EmailCc:     comment.EmailCc,
		},
	})
	return comment, nil
}

// ListByCase returns the thread, hiding internal comments from requesters.
func (s *CommentService) ListByCase(ctx context.Context, variant domain.Variant, caseID string, includeInternal bool) ([]domain.Comment, error) {
	profile, err := variant.Profile()
	if err != nil {
		return nil, apperrors.NewUnknownVariant(err)
	}
	comments, err := s.comments.ListByCase(ctx, profile, caseID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if includeInternal {
		return comments, nil
	}
	visible := make([]domain.Comment, 0, len(comments))
	for _, comment := range comments {
		if comment.Type == domain.CommentTypeInternal {
			continue
		}
		visible = append(visible, comment)
	}
	return visible, nil
}

func (s *CommentService) publishEvent(ctx context.Context, event events.Event) {
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

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	suffix := "..."
	cut := max - len(suffix)
	if cut <= 0 {
		suffix = ""
		cut = max
	}
	// never slice through a multibyte rune
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + suffix
}
