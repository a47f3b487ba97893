package events

import (
	"time"

	"github.com/soportesys/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket_created"
	EventTicketUpdated EventType = "ticket_updated"
	EventTicketClosed  EventType = "ticket_closed"
	EventTicketDeleted EventType = "ticket_deleted"
	EventCommentAdded  EventType = "comment_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	ActorRole domain.Role `json:"actor_role"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title      string `json:"title"`
	TypeID     string `json:"type_id"`
	StatusID   string `json:"status_id"`
	PriorityID string `json:"priority_id"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	ChangedFields []string `json:"changed_fields"`
	Version       int64    `json:"version"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	StatusID          string  `json:"status_id"`
	ResolutionMessage *string `json:"resolution_message,omitempty"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID string `json:"comment_id"`
	Preview   string `json:"preview"`
}
