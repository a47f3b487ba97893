package domain

import "time"

// Comment is a message on a ticket thread. Comments share the ticket's
// lifetime: deleting the ticket removes them via storage-level cascade.
type Comment struct {
	ID        string
	TicketID  string
	UserID    string
	Content   string
	CreatedAt time.Time
}
