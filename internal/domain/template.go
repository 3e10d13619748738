package domain

import "time"

// EmailTemplate is an admin-managed outbound message template. Subject and
// BodyHTML may embed {{variable}} placeholders drawn from AvailableVariables.
type EmailTemplate struct {
	ID                 string
	TemplateKey        string
	Subject            string
	BodyHTML           string
	AvailableVariables []string
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
