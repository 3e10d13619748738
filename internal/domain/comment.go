package domain

import "time"

// CommentType differentiates requester-visible replies from internal notes.
type CommentType string

const (
	CommentTypePublic   CommentType = "public"
	CommentTypeInternal CommentType = "internal"
)

// Comment captures communications and system audit notes in a case thread.
// EmailTo/EmailCc record the outbound recipient lists when a public comment
// was sent as email; they are bookkeeping, not delivery state.
type Comment struct {
	ID          string
	CaseID      string
	AuthorID    *string
	AuthorName  string
	Body        string
	Type        CommentType
	IsSystem    bool
	EmailTo     []string
	EmailCc     []string
	SentAsEmail bool
	CreatedAt   time.Time
}

// Authored reports whether the comment counts toward first response: a
// non-system comment with a known author.
func (c *Comment) Authored() bool {
	return !c.IsSystem && c.AuthorID != nil
}
