// Package authz holds the capability matrix as a pure decision function.
// It performs no I/O: callers load the ticket facts and pass them in, so
// every decision is recomputed from fresh state on each request.
package authz

import (
	"github.com/soportesys/helpdesk/internal/domain"
)

// Operation identifies a guarded action.
type Operation string

const (
	OpCreateTicket Operation = "ticket.create"
	OpViewTicket   Operation = "ticket.view"
	OpUpdateTicket Operation = "ticket.update"
	// OpCloseTicket covers changing a ticket's status to a different row or
	// setting its resolution message; it is stricter than OpUpdateTicket.
	OpCloseTicket  Operation = "ticket.close"
	OpAddComment   Operation = "ticket.comment"
	OpDeleteTicket Operation = "ticket.delete"
	OpListUsers    Operation = "user.list"
)

// TicketFacts carries the ownership and state facts a decision needs.
// Operations that do not involve a ticket ignore it.
type TicketFacts struct {
	IsCreator  bool
	IsAssignee bool
	StatusName string
}

// Allows evaluates the capability matrix. The caller is assumed to already
// be an authenticated, active principal with a valid role; that invariant is
// enforced upstream by the principal resolver.
func Allows(op Operation, role domain.Role, facts TicketFacts) bool {
	switch op {
	case OpCreateTicket:
		return true
	case OpViewTicket:
		return facts.IsCreator || facts.IsAssignee || role.IsStaff()
	case OpUpdateTicket:
		return role.IsStaff()
	case OpCloseTicket:
		return role == domain.RoleAdmin
	case OpAddComment:
		if facts.StatusName == domain.ClosedStatusName {
			return false
		}
		return facts.IsCreator || facts.IsAssignee || role.IsStaff()
	case OpDeleteTicket:
		return role == domain.RoleAdmin
	case OpListUsers:
		return role == domain.RoleAdmin
	}
	return false
}

// FactsFor derives TicketFacts for a user acting on a ticket. statusName is
// passed separately because the ticket row only carries the status id.
func FactsFor(userID string, ticket *domain.Ticket, statusName string) TicketFacts {
	facts := TicketFacts{StatusName: statusName}
	if ticket == nil {
		return facts
	}
	facts.IsCreator = ticket.CreatorID == userID
	facts.IsAssignee = ticket.AssignedToID != nil && *ticket.AssignedToID == userID
	return facts
}
