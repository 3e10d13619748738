package events

import (
	"time"

	"github.com/spec-kit/case-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCaseCreated         EventType = "case_created"
	EventCaseStatusChanged   EventType = "case_status_changed"
	EventCasePriorityChanged EventType = "case_priority_changed"
	EventCaseAssigned        EventType = "case_assigned"
	EventCaseCommentAdded    EventType = "case_comment_added"
	EventCaseConverted       EventType = "case_converted"
)

// Actor encapsulates actor metadata for an event. A nil ID means the action
// was anonymous or system-originated.
type Actor struct {
	Type domain.SubjectType `json:"type"`
	ID   *string            `json:"id,omitempty"`
	Name string             `json:"name,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Variant   domain.Variant `json:"variant"`
	CaseID    string         `json:"case_id"`
	Actor     Actor          `json:"actor"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   interface{}    `json:"payload"`
}

// CaseCreatedPayload payload. The notify flags control which outbound
// channels the creation dispatch attempts.
type CaseCreatedPayload struct {
	CaseNumber  string              `json:"case_number"`
	Subject     string              `json:"subject"`
	Priority    domain.CasePriority `json:"priority"`
	NotifyEmail bool                `json:"notify_email"`
	NotifyChat  bool                `json:"notify_chat"`
}

// CaseStatusChangedPayload payload.
type CaseStatusChangedPayload struct {
	OldStatus domain.CaseStatus `json:"old_status"`
	NewStatus domain.CaseStatus `json:"new_status"`
	Comment   string            `json:"comment,omitempty"`
	Notify    bool              `json:"notify"`
}

// CasePriorityChangedPayload payload.
type CasePriorityChangedPayload struct {
	OldPriority domain.CasePriority `json:"old_priority"`
	NewPriority domain.CasePriority `json:"new_priority"`
}

// CaseAssignedPayload payload. Names are resolved display values, with the
// unassigned fallback already applied.
type CaseAssignedPayload struct {
	OldAssigneeID   *string `json:"old_assignee_id,omitempty"`
	NewAssigneeID   *string `json:"new_assignee_id,omitempty"`
	OldAssigneeName string  `json:"old_assignee_name"`
	NewAssigneeName string  `json:"new_assignee_name"`
}

// CaseCommentAddedPayload payload. IsResponse marks a public staff reply that
// should use the richer response notification.
type CaseCommentAddedPayload struct {
	CommentID   string             `json:"comment_id"`
	CommentType domain.CommentType `json:"comment_type"`
	IsSystem    bool               `json:"is_system"`
	IsResponse  bool               `json:"is_response"`
	AuthorName  string             `json:"author_name"`
	BodyPreview string             `json:"body_preview"`
	EmailTo     []string           `json:"email_to,omitempty"`
	EmailCc     []string           `json:"email_cc,omitempty"`
}

// CaseConvertedPayload payload.
type CaseConvertedPayload struct {
	TargetVariant domain.Variant `json:"target_variant"`
	TargetNumber  string         `json:"target_number"`
}
