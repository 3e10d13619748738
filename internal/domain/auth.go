package domain

// SubjectType differentiates requester vs staff tokens.
type SubjectType string

const (
	SubjectTypeRequester SubjectType = "REQUESTER"
	SubjectTypeStaff     SubjectType = "STAFF"
)
