package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/events"
	"github.com/spec-kit/case-service/internal/repository"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// LifecycleService applies status, priority and assignment transitions.
// Transitions are free-form: any status in the variant's vocabulary is
// reachable from any other. The UI restricts what it offers; the engine does
// not enforce a transition table.
type LifecycleService struct {
	cases      repository.CaseRepository
	comments   repository.CommentRepository
	history    repository.HistoryRepository
	staff      repository.StaffRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// LifecycleDependencies bundles collaborators for the service.
type LifecycleDependencies struct {
	CaseRepo    repository.CaseRepository
	CommentRepo repository.CommentRepository
	HistoryRepo repository.HistoryRepository
	StaffRepo   repository.StaffRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		cases:      deps.CaseRepo,
		comments:   deps.CommentRepo,
		history:    deps.HistoryRepo,
		staff:      deps.StaffRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// ChangeStatus moves a case to newStatus. Equal status is a successful no-op
// producing no history, comment or notification. ResolvedAt and ClosedAt are
// stamped the first time a resolved/closed status is reached and never
// overwritten. History, system comment and notification only happen after the
// case row persisted.
func (s *LifecycleService) ChangeStatus(ctx context.Context, variant domain.Variant, caseID string, newStatus domain.CaseStatus, actor events.Actor, comment string, notify bool) (*domain.SupportCase, error) {
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
	if !profile.HasStatus(newStatus) {
		return nil, apperrors.NewValidationError("status outside variant vocabulary", map[string]any{
			"status":  newStatus,
			"variant": variant,
		})
	}
	if newStatus == c.Status {
		return c, nil
	}

	oldStatus := c.Status
	c.Status = newStatus
	now := time.Now()
	if profile.IsResolvedStatus(newStatus) && c.ResolvedAt == nil {
		c.ResolvedAt = &now
	}
	if profile.IsClosedStatus(newStatus) && c.ClosedAt == nil {
		c.ClosedAt = &now
	}

	if err := s.cases.Update(ctx, profile, c); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordHistory(ctx, profile, c.ID, domain.HistoryFieldStatus,
		string(oldStatus), string(newStatus), actor,
		fmt.Sprintf("Estado cambiado de %s a %s", profile.StatusLabel(oldStatus), profile.StatusLabel(newStatus)))

	text := comment
	if text == "" {
		text = fmt.Sprintf("Estado cambiado de %s a %s", profile.StatusLabel(oldStatus), profile.StatusLabel(newStatus))
	}
	s.addSystemComment(ctx, profile, c.ID, text, actor)

	s.publishEvent(ctx, events.Event{
		Type:    events.EventCaseStatusChanged,
		Variant: variant,
		CaseID:  c.ID,
		Actor:   actor,
		Payload: events.CaseStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
			Notify:    notify,
		},
	})
	return c, nil
}

// ChangePriority follows the same no-op/persist/log/system-comment shape as
// ChangeStatus but never touches timestamps and never notifies.
func (s *LifecycleService) ChangePriority(ctx context.Context, variant domain.Variant, caseID string, newPriority domain.CasePriority, actor events.Actor) (*domain.SupportCase, error) {
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
	if !validPriority(newPriority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": newPriority})
	}
	if newPriority == c.Priority {
		return c, nil
	}

	oldPriority := c.Priority
	c.Priority = newPriority
	if err := s.cases.Update(ctx, profile, c); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordHistory(ctx, profile, c.ID, domain.HistoryFieldPriority,
		string(oldPriority), string(newPriority), actor,
		fmt.Sprintf("Prioridad cambiada de %s a %s", oldPriority, newPriority))
	s.addSystemComment(ctx, profile, c.ID,
		fmt.Sprintf("Prioridad cambiada de %s a %s", oldPriority, newPriority), actor)

	s.publishEvent(ctx, events.Event{
		Type:    events.EventCasePriorityChanged,
		Variant: variant,
		CaseID:  c.ID,
		Actor:   actor,
		Payload: events.CasePriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: newPriority,
		},
	})
	return c, nil
}

// Assign changes the case assignee. The raw reference is normalized first:
// "", "0" and nil all mean unassign. History records resolved display names,
// falling back to "Sin asignar". Assignment never notifies.
func (s *LifecycleService) Assign(ctx context.Context, variant domain.Variant, caseID string, assigneeRef *string, actor events.Actor) (*domain.SupportCase, error) {
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

	newAssignee := NormalizeAssigneeRef(assigneeRef)
	if equalRef(c.AssigneeID, newAssignee) {
		return c, nil
	}

	var assignee *domain.Staff
	if newAssignee != nil {
		assignee, err = s.staff.GetByID(ctx, *newAssignee)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": *newAssignee})
			}
			return nil, apperrors.MapError(err)
		}
		if !assignee.Active {
			return nil, apperrors.NewConflict("assignee inactive", map[string]any{"staff_id": assignee.ID})
		}
		if !roleAssignable(profile, assignee.Role) {
			return nil, apperrors.NewForbidden("assignee role not allowed for this case type")
		}
	}

	oldAssignee := c.AssigneeID
	c.AssigneeID = newAssignee
	if err := s.cases.Update(ctx, profile, c); err != nil {
		return nil, apperrors.MapError(err)
	}

	oldName := s.assigneeName(ctx, oldAssignee)
	newName := domain.UnassignedLabel
	if assignee != nil {
		newName = assignee.Name
	}

	s.recordHistory(ctx, profile, c.ID, domain.HistoryFieldAssignee,
		oldName, newName, actor,
		fmt.Sprintf("Asignación cambiada de %s a %s", oldName, newName))

	text := fmt.Sprintf("Caso asignado a %s", newName)
	if newAssignee == nil {
		text = "Caso marcado como sin asignar"
	}
	s.addSystemComment(ctx, profile, c.ID, text, actor)

	s.publishEvent(ctx, events.Event{
		Type:    events.EventCaseAssigned,
		Variant: variant,
		CaseID:  c.ID,
		Actor:   actor,
		Payload: events.CaseAssignedPayload{
			OldAssigneeID:   oldAssignee,
			NewAssigneeID:   newAssignee,
			OldAssigneeName: oldName,
			NewAssigneeName: newName,
		},
	})
	return c, nil
}

// NormalizeAssigneeRef collapses the legacy unassign sentinels ("", "0") to
// nil.
func NormalizeAssigneeRef(ref *string) *string {
	if ref == nil {
		return nil
	}
	if *ref == "" || *ref == "0" {
		return nil
	}
	return ref
}

func equalRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func validPriority(p domain.CasePriority) bool {
	switch p {
	case domain.CasePriorityLow, domain.CasePriorityMedium, domain.CasePriorityHigh, domain.CasePriorityUrgent:
		return true
	}
	return false
}

func roleAssignable(profile *domain.VariantProfile, role domain.StaffRole) bool {
	for _, candidate := range profile.AssignableRoles {
		if candidate == role {
			return true
		}
	}
	return false
}

func (s *LifecycleService) assigneeName(ctx context.Context, id *string) string {
	if id == nil {
		return domain.UnassignedLabel
	}
	staff, err := s.staff.GetByID(ctx, *id)
	if err != nil {
		return domain.UnassignedLabel
	}
	return staff.Name
}

// recordHistory appends an audit entry. The case row already persisted, so a
// history failure is logged and swallowed rather than failing the operation.
func (s *LifecycleService) recordHistory(ctx context.Context, profile *domain.VariantProfile, caseID, field, oldValue, newValue string, actor events.Actor, description string) {
	entry := &domain.HistoryEntry{
		CaseID:      caseID,
		FieldName:   field,
		OldValue:    oldValue,
		NewValue:    newValue,
		ChangedBy:   actor.ID,
		Description: description,
	}
	if err := s.history.Create(ctx, profile, entry); err != nil {
		s.logger.Error("record history failed",
			zap.String("case_id", caseID),
			zap.String("field", field),
			zap.Error(err))
	}
}

func (s *LifecycleService) addSystemComment(ctx context.Context, profile *domain.VariantProfile, caseID, body string, actor events.Actor) {
	comment := &domain.Comment{
		CaseID:     caseID,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Body:       body,
		Type:       domain.CommentTypeInternal,
		IsSystem:   true,
	}
	if err := s.comments.Create(ctx, profile, comment); err != nil {
		s.logger.Error("system comment failed",
			zap.String("case_id", caseID),
			zap.Error(err))
	}
}

func (s *LifecycleService) publishEvent(ctx context.Context, event events.Event) {
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
