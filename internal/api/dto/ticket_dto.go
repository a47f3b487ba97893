package dto

import (
	"time"

	"github.com/soportesys/helpdesk/pkg/patch"
)

// CreateTicketRequest describes the ticket creation payload. Status and
// priority are never accepted here; they are derived from the ticket type.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
	TypeID      string `json:"type_id"`
}

// UpdateTicketRequest is the partial-update payload. patch.Field keeps the
// three states of each key apart: omitted, null, and set.
type UpdateTicketRequest struct {
	Title             patch.Field[string]    `json:"title"`
	Description       patch.Field[string]    `json:"description"`
	StatusID          patch.Field[string]    `json:"status_id"`
	PriorityID        patch.Field[string]    `json:"priority_id"`
	CategoryID        patch.Field[string]    `json:"category_id"`
	TypeID            patch.Field[string]    `json:"type_id"`
	AssignedToID      patch.Field[string]    `json:"assigned_to_id"`
	ClosedAt          patch.Field[time.Time] `json:"closed_at"`
	ResolutionMessage patch.Field[string]    `json:"resolution_message"`
}

// CreateCommentRequest describes a new comment.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// TicketSummary is the list-view projection.
type TicketSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatorID    string    `json:"creator_id"`
	AssignedToID *string   `json:"assigned_to_id,omitempty"`
	StatusID     string    `json:"status_id"`
	PriorityID   string    `json:"priority_id"`
	CategoryID   string    `json:"category_id"`
	TypeID       string    `json:"type_id"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TicketDetailResponse is the single-ticket projection with comments.
type TicketDetailResponse struct {
	TicketSummary
	Description       string            `json:"description"`
	ClosedAt          *time.Time        `json:"closed_at,omitempty"`
	ResolutionMessage *string           `json:"resolution_message,omitempty"`
	Comments          []CommentResponse `json:"comments"`
}

// CommentResponse is the comment projection.
type CommentResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CatalogEntryResponse is a lookup row.
type CatalogEntryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TicketTypeResponse is a ticket type lookup row.
type TicketTypeResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}
