package dto

import (
	"time"

	"github.com/spec-kit/case-service/internal/domain"
)

// CreateCaseRequest payload.
type CreateCaseRequest struct {
	Subject     string              `json:"subject"`
	Description string              `json:"description"`
	Priority    domain.CasePriority `json:"priority"`
	Channel     domain.CaseChannel  `json:"channel"`
	// Staff may open cases on behalf of unregistered submitters.
	RequesterID    *string `json:"requester_id"`
	RequesterName  string  `json:"requester_name"`
	RequesterEmail string  `json:"requester_email"`
	NotifyEmail    *bool   `json:"notify_email"`
	NotifyChat     *bool   `json:"notify_chat"`
}

// CaseSummary response.
type CaseSummary struct {
	ID                string              `json:"id"`
	Variant           domain.Variant      `json:"variant"`
	CaseNumber        string              `json:"case_number"`
	Subject           string              `json:"subject"`
	Status            domain.CaseStatus   `json:"status"`
	StatusLabel       string              `json:"status_label"`
	Priority          domain.CasePriority `json:"priority"`
	RequesterName     string              `json:"requester_name"`
	AssigneeID        *string             `json:"assignee_id"`
	Channel           domain.CaseChannel  `json:"channel"`
	ConvertedToNumber *string             `json:"converted_to_number,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// CaseDetailResponse provides the full case view.
type CaseDetailResponse struct {
	CaseSummary
	Description     string               `json:"description"`
	RequesterEmail  string               `json:"requester_email"`
	ResolvedAt      *time.Time           `json:"resolved_at"`
	ClosedAt        *time.Time           `json:"closed_at"`
	FirstResponseAt *time.Time           `json:"first_response_at"`
	Comments        []CommentResponse    `json:"comments"`
	Attachments     []AttachmentResponse `json:"attachments"`
	History         []HistoryResponse    `json:"history"`
}

// CommentResponse represents one thread entry.
type CommentResponse struct {
	ID          string             `json:"id"`
	AuthorID    *string            `json:"author_id"`
	AuthorName  string             `json:"author_name"`
	Body        string             `json:"body"`
	Type        domain.CommentType `json:"type"`
	IsSystem    bool               `json:"is_system"`
	EmailTo     []string           `json:"email_to,omitempty"`
	EmailCc     []string           `json:"email_cc,omitempty"`
	SentAsEmail bool               `json:"sent_as_email"`
	CreatedAt   time.Time          `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID               string    `json:"id"`
	CommentID        *string   `json:"comment_id,omitempty"`
	OriginalFilename string    `json:"original_filename"`
	MimeType         string    `json:"mime_type"`
	SizeBytes        int64     `json:"size_bytes"`
	IsInline         bool      `json:"is_inline"`
	CreatedAt        time.Time `json:"created_at"`
}

// HistoryResponse represents one audit entry.
type HistoryResponse struct {
	ID          string    `json:"id"`
	FieldName   string    `json:"field_name"`
	OldValue    string    `json:"old_value"`
	NewValue    string    `json:"new_value"`
	ChangedBy   *string   `json:"changed_by"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status  domain.CaseStatus `json:"status"`
	Comment string            `json:"comment"`
	Notify  *bool             `json:"notify"`
}

// ChangePriorityRequest payload.
type ChangePriorityRequest struct {
	Priority domain.CasePriority `json:"priority"`
}

// AssignRequest payload. An empty or "0" assignee unassigns the case.
type AssignRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body       string             `json:"body"`
	Type       domain.CommentType `json:"type"`
	IsResponse bool               `json:"is_response"`
	EmailTo    []string           `json:"email_to"`
	EmailCc    []string           `json:"email_cc"`
}

// ConvertRequest payload.
type ConvertRequest struct {
	TargetVariant string `json:"target_variant"`
}

// ConversionResponse reports the conversion outcome.
type ConversionResponse struct {
	Source         CaseSummary `json:"source"`
	Target         CaseSummary `json:"target"`
	CopiedComments int         `json:"copied_comments"`
	CopiedFiles    int         `json:"copied_files"`
}
