package domain

import "time"

// Requester is a registered submitter. Anonymous PQRS submitters have no
// requester row; their name/email live on the case itself.
type Requester struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
