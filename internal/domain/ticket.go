package domain

import "time"

// Ticket is the aggregate for support requests. Status, priority, category
// and type reference exactly one catalog row each. Version is the optimistic
// concurrency stamp bumped on every committed update.
type Ticket struct {
	ID                string
	Title             string
	Description       string
	CreatorID         string
	AssignedToID      *string
	StatusID          string
	PriorityID        string
	CategoryID        string
	TypeID            string
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ClosedAt          *time.Time
	ResolutionMessage *string
}
