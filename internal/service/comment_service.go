package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/soportesys/helpdesk/internal/auth"
	"github.com/soportesys/helpdesk/internal/authz"
	"github.com/soportesys/helpdesk/internal/domain"
	"github.com/soportesys/helpdesk/internal/events"
	"github.com/soportesys/helpdesk/internal/repository"
	apperrors "github.com/soportesys/helpdesk/pkg/util"
)

// TxStarter opens a transaction for compound writes. *pgxpool.Pool satisfies
// it; tests may leave it nil, in which case the writes run unwrapped.
type TxStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CommentService guards comment creation: eligibility per the capability
// matrix, no comments on closed tickets, and the ticket's updated_at touched
// in the same transaction as the insert.
type CommentService struct {
	comments   repository.CommentRepository
	tickets    repository.TicketRepository
	catalogs   CatalogResolver
	tx         TxStarter
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	CommentRepo repository.CommentRepository
	TicketRepo  repository.TicketRepository
	Catalogs    CatalogResolver
	Tx          TxStarter
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	return &CommentService{
		comments:   deps.CommentRepo,
		tickets:    deps.TicketRepo,
		catalogs:   deps.Catalogs,
		tx:         deps.Tx,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Add posts a comment on the ticket. The comment insert is the operation of
// record; a failure touching the ticket timestamp does not abort it but is
// logged.
func (s *CommentService) Add(ctx context.Context, principal *auth.Principal, ticketID, content string) (*domain.Comment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewStoreFailure(err)
	}

	statusName := ""
	if entry, err := s.catalogs.Entry(ctx, domain.CatalogStatus, ticket.StatusID); err == nil {
		statusName = entry.Name
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewStoreFailure(err)
	}

	facts := authz.FactsFor(principal.ID, ticket, statusName)
	if !authz.Allows(authz.OpAddComment, principal.Role, facts) {
		if statusName == domain.ClosedStatusName {
			return nil, apperrors.NewForbidden("comments cannot be added to a closed ticket")
		}
		return nil, apperrors.NewForbidden("not allowed to comment on this ticket")
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		UserID:   principal.ID,
		Content:  strings.TrimSpace(content),
	}
	if err := s.persist(ctx, comment); err != nil {
		return nil, err
	}

	s.publish(ctx, principal, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		Payload: events.CommentAddedPayload{
			CommentID: comment.ID,
			Preview:   preview(comment.Content, 120),
		},
	})
	return comment, nil
}

// ListForTicket returns the ticket's comments, oldest first. Visibility is
// the caller's concern: handlers only reach this after the ticket itself was
// authorized for viewing.
func (s *CommentService) ListForTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewStoreFailure(err)
	}
	return comments, nil
}

// persist writes the comment and touches the ticket inside one transaction
// when a TxStarter is configured.
func (s *CommentService) persist(ctx context.Context, comment *domain.Comment) error {
	if s.tx == nil {
		if err := s.comments.Create(ctx, comment); err != nil {
			return apperrors.NewStoreFailure(err)
		}
		s.touch(ctx, s.tickets, comment.TicketID)
		return nil
	}

	tx, err := s.tx.Begin(ctx)
	if err != nil {
		return apperrors.NewStoreFailure(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.comments.WithTx(tx).Create(ctx, comment); err != nil {
		return apperrors.NewStoreFailure(err)
	}
	s.touchWithSavepoint(ctx, tx, comment.TicketID)

	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewStoreFailure(err)
	}
	return nil
}

// touchWithSavepoint runs the touch inside a savepoint. A server-side touch
// failure aborts the whole transaction otherwise, which would take the
// comment insert down with it; rolling back only the savepoint keeps the
// outer transaction committable.
func (s *CommentService) touchWithSavepoint(ctx context.Context, tx pgx.Tx, ticketID string) {
	sp, err := tx.Begin(ctx)
	if err != nil {
		s.logTouchFailure(ticketID, err)
		return
	}
	if err := s.tickets.WithTx(sp).Touch(ctx, ticketID); err != nil {
		_ = sp.Rollback(ctx)
		s.logTouchFailure(ticketID, err)
		return
	}
	if err := sp.Commit(ctx); err != nil {
		s.logTouchFailure(ticketID, err)
	}
}

func (s *CommentService) touch(ctx context.Context, tickets repository.TicketRepository, ticketID string) {
	if err := tickets.Touch(ctx, ticketID); err != nil {
		s.logTouchFailure(ticketID, err)
	}
}

func (s *CommentService) logTouchFailure(ticketID string, err error) {
	if s.logger != nil {
		s.logger.Warn("failed to touch ticket after comment",
			zap.String("ticket_id", ticketID),
			zap.Error(err))
	}
}

func (s *CommentService) publish(ctx context.Context, principal *auth.Principal, event events.Event) {
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

// preview truncates on rune boundaries; comment content is routinely
// multibyte.
func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
