package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/events"
	"github.com/spec-kit/case-service/internal/repository"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// CaseService covers creation, listing and detail for every variant. It is
// the composition replacement for per-variant controller code: one service
// parameterized by the variant profile.
type CaseService struct {
	cases       repository.CaseRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	history     repository.HistoryRepository
	requesters  repository.RequesterRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// CaseDependencies bundles collaborators for the service.
type CaseDependencies struct {
	CaseRepo       repository.CaseRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	HistoryRepo    repository.HistoryRepository
	RequesterRepo  repository.RequesterRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewCaseService constructs the service.
func NewCaseService(deps CaseDependencies) *CaseService {
	return &CaseService{
		cases:       deps.CaseRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		history:     deps.HistoryRepo,
		requesters:  deps.RequesterRepo,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
	}
}

// CaseCreateInput describes creation payload.
type CaseCreateInput struct {
	Subject        string
	Description    string
	Priority       domain.CasePriority
	Channel        domain.CaseChannel
	RequesterID    *string
	RequesterName  string
	RequesterEmail string
	NotifyEmail    bool
	NotifyChat     bool
}

// CaseListFilter describes listing filters.
type CaseListFilter struct {
	RequesterID *string
	AssigneeID  *string
	Statuses    []domain.CaseStatus
	Priorities  []domain.CasePriority
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// CaseDetail aggregates everything a detail view needs.
type CaseDetail struct {
	Case        *domain.SupportCase
	Comments    []domain.Comment
	Attachments []domain.Attachment
	History     []domain.HistoryEntry
}

// CreateCase allocates a case number from the per-variant yearly sequence,
// persists the case with the variant's initial status, and emits the
// creation event carrying the notification flags.
func (s *CaseService) CreateCase(ctx context.Context, variant domain.Variant, actor events.Actor, input CaseCreateInput) (*domain.SupportCase, error) {
	profile, err := variant.Profile()
	if err != nil {
		return nil, apperrors.NewUnknownVariant(err)
	}
	if strings.TrimSpace(input.Subject) == "" {
		return nil, apperrors.NewValidationError("subject required", nil)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.CasePriorityMedium
	}
	if !validPriority(priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	channel := input.Channel
	if channel == "" {
		channel = domain.ChannelWeb
	}

	requesterName := input.RequesterName
	requesterEmail := input.RequesterEmail
	if input.RequesterID != nil {
		requester, err := s.requesters.GetByID(ctx, *input.RequesterID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("requester", map[string]any{"requester_id": *input.RequesterID})
			}
			return nil, apperrors.MapError(err)
		}
		requesterName = requester.Name
		requesterEmail = requester.Email
	}

	number, err := s.cases.NextCaseNumber(ctx, profile, time.Now().Year())
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	c := &domain.SupportCase{
		Variant:        variant,
		CaseNumber:     number,
		Subject:        strings.TrimSpace(input.Subject),
		Description:    strings.TrimSpace(input.Description),
		Status:         profile.Statuses[0].Value,
		Priority:       priority,
		RequesterID:    input.RequesterID,
		RequesterName:  requesterName,
		RequesterEmail: requesterEmail,
		Channel:        channel,
	}
	if err := s.cases.Create(ctx, profile, c); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventCaseCreated,
		Variant: variant,
		CaseID:  c.ID,
		Actor:   actor,
		Payload: events.CaseCreatedPayload{
			CaseNumber:  c.CaseNumber,
			Subject:     c.Subject,
			Priority:    c.Priority,
			NotifyEmail: input.NotifyEmail,
			NotifyChat:  input.NotifyChat,
		},
	})
	return c, nil
}

// ListCases returns a filtered page for one variant.
func (s *CaseService) ListCases(ctx context.Context, variant domain.Variant, filter CaseListFilter) ([]domain.SupportCase, error) {
	profile, err := variant.Profile()
	if err != nil {
		return nil, apperrors.NewUnknownVariant(err)
	}
	repoFilter := repository.CaseFilter{
		RequesterID: filter.RequesterID,
		AssigneeID:  filter.AssigneeID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	cases, err := s.cases.ListWithFilter(ctx, profile, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return cases, nil
}

// GetCase loads the case with its thread, attachments and history. Internal
// comments are hidden unless the caller is staff.
func (s *CaseService) GetCase(ctx context.Context, variant domain.Variant, caseID string, includeInternal bool) (*CaseDetail, error) {
	profile, err := variant.Profile()
	if err != nil {
		return nil, apperrors.NewUnknownVariant(err)
	}
	c, err := s.cases.GetByID(ctx, profile, caseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
		}
		return nil, apperrors.MapError(err)
	}

	comments, err := s.comments.ListByCase(ctx, profile, c.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !includeInternal {
		visible := make([]domain.Comment, 0, len(comments))
		for _, comment := range comments {
			if comment.Type == domain.CommentTypeInternal {
				continue
			}
			visible = append(visible, comment)
		}
		comments = visible
	}

	attachments, err := s.attachments.ListByCase(ctx, profile, c.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	history, err := s.history.ListByCase(ctx, profile, c.ID, 200, 0)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &CaseDetail{
		Case:        c,
		Comments:    comments,
		Attachments: attachments,
		History:     history,
	}, nil
}

// GetCaseForRequester loads the detail while enforcing ownership.
func (s *CaseService) GetCaseForRequester(ctx context.Context, variant domain.Variant, caseID, requesterID string) (*CaseDetail, error) {
	detail, err := s.GetCase(ctx, variant, caseID, false)
	if err != nil {
		return nil, err
	}
	if detail.Case.RequesterID == nil || *detail.Case.RequesterID != requesterID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return detail, nil
}

func (s *CaseService) publishEvent(ctx context.Context, event events.Event) {
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
