package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/soportesys/helpdesk/internal/auth"
	"github.com/soportesys/helpdesk/internal/authz"
	"github.com/soportesys/helpdesk/internal/domain"
	"github.com/soportesys/helpdesk/internal/events"
	"github.com/soportesys/helpdesk/internal/repository"
	"github.com/soportesys/helpdesk/pkg/patch"
	apperrors "github.com/soportesys/helpdesk/pkg/util"
)

// TicketService coordinates the ticket lifecycle: creation with default
// derivation, guarded partial update, closure and deletion. Authorization
// runs before any mutation is attempted.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	catalogs   CatalogResolver
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Catalogs   CatalogResolver
	Dispatcher events.Dispatcher
}

// TicketCreateInput describes the ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	CategoryID  string
	TypeID      string
}

// TicketPatch is the partial-update payload. Every field is tri-state:
// omitted fields leave the ticket untouched, which is what makes assignment
// clearing distinguishable from no change.
type TicketPatch struct {
	Title             patch.Field[string]
	Description       patch.Field[string]
	StatusID          patch.Field[string]
	PriorityID        patch.Field[string]
	CategoryID        patch.Field[string]
	TypeID            patch.Field[string]
	AssignedToID      patch.Field[string]
	ClosedAt          patch.Field[time.Time]
	ResolutionMessage patch.Field[string]
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		catalogs:   deps.Catalogs,
		dispatcher: deps.Dispatcher,
	}
}

// Create validates the referenced type and category, derives status and
// priority from the type's defaults (falling back to the catalog rows named
// "Nuevo" and "Media"), and persists the ticket owned by the principal.
func (s *TicketService) Create(ctx context.Context, principal *auth.Principal, input TicketCreateInput) (*domain.Ticket, error) {
	if !authz.Allows(authz.OpCreateTicket, principal.Role, authz.TicketFacts{}) {
		return nil, apperrors.NewForbidden("not allowed to create tickets")
	}

	ticketType, err := s.catalogs.TicketType(ctx, input.TypeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidReference("ticket type does not exist", map[string]any{"type_id": input.TypeID})
		}
		return nil, apperrors.NewStoreFailure(err)
	}
	if _, err := s.catalogs.Entry(ctx, domain.CatalogCategory, input.CategoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidReference("category does not exist", map[string]any{"category_id": input.CategoryID})
		}
		return nil, apperrors.NewStoreFailure(err)
	}

	statusID, err := s.defaultID(ctx, ticketType.DefaultStatusID, domain.CatalogStatus, domain.DefaultStatusName)
	if err != nil {
		return nil, err
	}
	priorityID, err := s.defaultID(ctx, ticketType.DefaultPriorityID, domain.CatalogPriority, domain.DefaultPriorityName)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		CreatorID:   principal.ID,
		StatusID:    statusID,
		PriorityID:  priorityID,
		CategoryID:  input.CategoryID,
		TypeID:      input.TypeID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewStoreFailure(err)
	}

	s.publish(ctx, principal, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Title:      ticket.Title,
			TypeID:     ticket.TypeID,
			StatusID:   ticket.StatusID,
			PriorityID: ticket.PriorityID,
		},
	})
	return ticket, nil
}

// Get returns the ticket when the principal is its creator, its assignee or
// staff.
func (s *TicketService) Get(ctx context.Context, principal *auth.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	statusName, err := s.statusName(ctx, ticket.StatusID)
	if err != nil {
		return nil, err
	}
	facts := authz.FactsFor(principal.ID, ticket, statusName)
	if !authz.Allows(authz.OpViewTicket, principal.Role, facts) {
		return nil, apperrors.NewForbidden("not allowed to view this ticket")
	}
	return ticket, nil
}

// List returns tickets visible to the principal: clients see their own,
// agents and support see created-or-assigned, admin sees all.
func (s *TicketService) List(ctx context.Context, principal *auth.Principal, limit, offset int) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{Limit: limit, Offset: offset}
	switch principal.Role {
	case domain.RoleClient:
		filter.CreatorID = &principal.ID
	case domain.RoleAgent, domain.RoleSupport:
		filter.CreatedOrAssignedID = &principal.ID
	}
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStoreFailure(err)
	}
	return tickets, nil
}

// Update applies a guarded partial update. Non-status field changes require
// staff; setting resolutionMessage or changing status to a different row
// requires admin. An empty effective diff is a no-op returning the current
// ticket. The commit is compare-and-swap on the ticket version.
func (s *TicketService) Update(ctx context.Context, principal *auth.Principal, ticketID string, p TicketPatch) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if !authz.Allows(authz.OpUpdateTicket, principal.Role, authz.TicketFacts{}) {
		return nil, apperrors.NewForbidden("not allowed to update tickets")
	}

	if err := rejectNull("title", p.Title); err != nil {
		return nil, err
	}
	if err := rejectNull("description", p.Description); err != nil {
		return nil, err
	}
	if err := rejectNull("statusId", p.StatusID); err != nil {
		return nil, err
	}
	if err := rejectNull("priorityId", p.PriorityID); err != nil {
		return nil, err
	}
	if err := rejectNull("categoryId", p.CategoryID); err != nil {
		return nil, err
	}
	if err := rejectNull("typeId", p.TypeID); err != nil {
		return nil, err
	}

	statusChanging := false
	if v, ok := p.StatusID.Value(); ok && v != ticket.StatusID {
		statusChanging = true
	}
	if p.ResolutionMessage.Present() || statusChanging {
		if !authz.Allows(authz.OpCloseTicket, principal.Role, authz.TicketFacts{}) {
			return nil, apperrors.NewForbidden("only administrators may close tickets or set a resolution message")
		}
	}

	updated := *ticket
	var changed []string
	newStatusName := ""

	if v, ok := p.Title.Value(); ok {
		if trimmed := strings.TrimSpace(v); trimmed != ticket.Title {
			updated.Title = trimmed
			changed = append(changed, "title")
		}
	}
	if v, ok := p.Description.Value(); ok {
		if trimmed := strings.TrimSpace(v); trimmed != ticket.Description {
			updated.Description = trimmed
			changed = append(changed, "description")
		}
	}
	if v, ok := p.StatusID.Value(); ok {
		entry, err := s.requireEntry(ctx, domain.CatalogStatus, v, "status")
		if err != nil {
			return nil, err
		}
		newStatusName = entry.Name
		if v != ticket.StatusID {
			updated.StatusID = v
			changed = append(changed, "status")
		}
	}
	if v, ok := p.PriorityID.Value(); ok {
		if _, err := s.requireEntry(ctx, domain.CatalogPriority, v, "priority"); err != nil {
			return nil, err
		}
		if v != ticket.PriorityID {
			updated.PriorityID = v
			changed = append(changed, "priority")
		}
	}
	if v, ok := p.CategoryID.Value(); ok {
		if _, err := s.requireEntry(ctx, domain.CatalogCategory, v, "category"); err != nil {
			return nil, err
		}
		if v != ticket.CategoryID {
			updated.CategoryID = v
			changed = append(changed, "category")
		}
	}
	if v, ok := p.TypeID.Value(); ok {
		if _, err := s.catalogs.TicketType(ctx, v); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewInvalidReference("ticket type does not exist", map[string]any{"type_id": v})
			}
			return nil, apperrors.NewStoreFailure(err)
		}
		if v != ticket.TypeID {
			updated.TypeID = v
			changed = append(changed, "type")
		}
	}
	if p.AssignedToID.Present() {
		if p.AssignedToID.IsNull() {
			if ticket.AssignedToID != nil {
				updated.AssignedToID = nil
				changed = append(changed, "assignee")
			}
		} else if v, ok := p.AssignedToID.Value(); ok {
			if _, err := s.users.GetByID(ctx, v); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, apperrors.NewInvalidReference("assigned user does not exist", map[string]any{"assigned_to_id": v})
				}
				return nil, apperrors.NewStoreFailure(err)
			}
			if ticket.AssignedToID == nil || *ticket.AssignedToID != v {
				assignee := v
				updated.AssignedToID = &assignee
				changed = append(changed, "assignee")
			}
		}
	}
	if p.ClosedAt.Present() {
		if p.ClosedAt.IsNull() {
			if ticket.ClosedAt != nil {
				updated.ClosedAt = nil
				changed = append(changed, "closed_at")
			}
		} else if v, ok := p.ClosedAt.Value(); ok {
			if ticket.ClosedAt == nil || !ticket.ClosedAt.Equal(v) {
				closedAt := v
				updated.ClosedAt = &closedAt
				changed = append(changed, "closed_at")
			}
		}
	}
	if p.ResolutionMessage.Present() {
		if p.ResolutionMessage.IsNull() {
			if ticket.ResolutionMessage != nil {
				updated.ResolutionMessage = nil
				changed = append(changed, "resolution_message")
			}
		} else if v, ok := p.ResolutionMessage.Value(); ok {
			if ticket.ResolutionMessage == nil || *ticket.ResolutionMessage != v {
				message := v
				updated.ResolutionMessage = &message
				changed = append(changed, "resolution_message")
			}
		}
	}

	if len(changed) == 0 {
		return ticket, nil
	}

	if err := s.tickets.UpdateVersioned(ctx, &updated); err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			return nil, apperrors.NewConflict("ticket was modified concurrently", map[string]any{
				"ticket_id": ticket.ID,
				"version":   ticket.Version,
			})
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		default:
			return nil, apperrors.NewStoreFailure(err)
		}
	}

	if statusChanging && newStatusName == domain.ClosedStatusName {
		s.publish(ctx, principal, events.Event{
			Type:     events.EventTicketClosed,
			TicketID: updated.ID,
			Payload: events.TicketClosedPayload{
				StatusID:          updated.StatusID,
				ResolutionMessage: updated.ResolutionMessage,
			},
		})
	} else {
		s.publish(ctx, principal, events.Event{
			Type:     events.EventTicketUpdated,
			TicketID: updated.ID,
			Payload: events.TicketUpdatedPayload{
				ChangedFields: changed,
				Version:       updated.Version,
			},
		})
	}
	return &updated, nil
}

// Delete removes a ticket and, through the storage cascade, its comments.
// Admin only; deletion is terminal.
func (s *TicketService) Delete(ctx context.Context, principal *auth.Principal, ticketID string) error {
	if !authz.Allows(authz.OpDeleteTicket, principal.Role, authz.TicketFacts{}) {
		return apperrors.NewForbidden("only administrators may delete tickets")
	}
	if _, err := s.load(ctx, ticketID); err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.NewStoreFailure(err)
	}
	s.publish(ctx, principal, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticketID,
	})
	return nil
}

func (s *TicketService) load(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewStoreFailure(err)
	}
	return ticket, nil
}

func (s *TicketService) statusName(ctx context.Context, statusID string) (string, error) {
	entry, err := s.catalogs.Entry(ctx, domain.CatalogStatus, statusID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", apperrors.NewStoreFailure(err)
	}
	return entry.Name, nil
}

func (s *TicketService) requireEntry(ctx context.Context, kind domain.CatalogKind, id, label string) (*domain.CatalogEntry, error) {
	entry, err := s.catalogs.Entry(ctx, kind, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidReference(label+" does not exist", map[string]any{label + "_id": id})
		}
		return nil, apperrors.NewStoreFailure(err)
	}
	return entry, nil
}

func (s *TicketService) defaultID(ctx context.Context, configured *string, kind domain.CatalogKind, fallbackName string) (string, error) {
	if configured != nil && *configured != "" {
		return *configured, nil
	}
	entry, err := s.catalogs.EntryByName(ctx, kind, fallbackName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NewConfigurationIncomplete(
				"required catalog row is missing; seed the database",
				map[string]any{"catalog": string(kind), "name": fallbackName},
			)
		}
		return "", apperrors.NewStoreFailure(err)
	}
	return entry.ID, nil
}

func (s *TicketService) publish(ctx context.Context, principal *auth.Principal, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.ActorID = principal.ID
	event.ActorRole = principal.Role
	_ = s.dispatcher.Publish(ctx, event)
}

func rejectNull[T any](field string, f patch.Field[T]) error {
	if f.IsNull() {
		return apperrors.NewValidationError(field+" cannot be null", map[string]any{"field": field})
	}
	return nil
}
