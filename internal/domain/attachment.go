package domain

import "time"

// Attachment stores metadata for a validated upload. StoredFilename is a
// generated unique name on disk; OriginalFilename is display metadata only.
// CommentID is a nullable back-reference: deleting a comment orphans its
// attachments, which then display at the case level.
type Attachment struct {
	ID               string
	CaseID           string
	CommentID        *string
	StoredFilename   string
	OriginalFilename string
	RelativePath     string
	MimeType         string
	SizeBytes        int64
	IsInline         bool
	ContentID        *string
	UploadedBy       *string
	SentAsEmail      bool
	CreatedAt        time.Time
}
