package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/soportesys/helpdesk/internal/domain"
)

// TicketFilter captures list scoping. Exactly one of the scope fields is set
// for non-admin callers; admin listing leaves both nil.
type TicketFilter struct {
	// CreatorID limits results to tickets created by the user.
	CreatorID *string
	// CreatedOrAssignedID limits results to tickets the user created or is
	// assigned to.
	CreatedOrAssignedID *string
	Limit               int
	Offset              int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// UpdateVersioned commits a compare-and-swap on (id, version) and bumps
	// the version. Returns ErrVersionConflict when the row exists at a
	// different version, pgx.ErrNoRows when it does not exist.
	UpdateVersioned(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	// Touch refreshes updated_at without changing the version.
	Touch(ctx context.Context, id string) error
	// WithTx returns the repository bound to the given transaction.
	WithTx(tx pgx.Tx) TicketRepository
}

type ticketRepository struct {
	db Querier
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(db Querier) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) WithTx(tx pgx.Tx) TicketRepository {
	return &ticketRepository{db: tx}
}

const ticketColumns = `id, title, description, creator_id, assigned_to_id, status_id, priority_id,
               category_id, type_id, version, created_at, updated_at, closed_at, resolution_message`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, creator_id, assigned_to_id, status_id, priority_id, category_id, type_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, version, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.CreatorID,
		ticket.AssignedToID,
		ticket.StatusID,
		ticket.PriorityID,
		ticket.CategoryID,
		ticket.TypeID,
	).Scan(&ticket.ID, &ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) UpdateVersioned(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, assigned_to_id=$3, status_id=$4, priority_id=$5,
            category_id=$6, type_id=$7, closed_at=$8, resolution_message=$9,
            version=version+1, updated_at=NOW()
        WHERE id=$10 AND version=$11
        RETURNING version, updated_at`
	err := r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.AssignedToID,
		ticket.StatusID,
		ticket.PriorityID,
		ticket.CategoryID,
		ticket.TypeID,
		ticket.ClosedAt,
		ticket.ResolutionMessage,
		ticket.ID,
		ticket.Version,
	).Scan(&ticket.Version, &ticket.UpdatedAt)
	if err == nil {
		return nil
	}
	if err != pgx.ErrNoRows {
		return err
	}
	// Zero rows: distinguish a vanished ticket from a lost race.
	var exists bool
	if probeErr := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); probeErr != nil {
		return probeErr
	}
	if exists {
		return ErrVersionConflict
	}
	return pgx.ErrNoRows
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.CreatorID,
		&ticket.AssignedToID,
		&ticket.StatusID,
		&ticket.PriorityID,
		&ticket.CategoryID,
		&ticket.TypeID,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
		&ticket.ResolutionMessage,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		clauses = append(clauses, fmt.Sprintf("creator_id=$%d", len(args)))
	}
	if filter.CreatedOrAssignedID != nil {
		args = append(args, *filter.CreatedOrAssignedID)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(creator_id=%s OR assigned_to_id=%s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.CreatorID,
			&ticket.AssignedToID,
			&ticket.StatusID,
			&ticket.PriorityID,
			&ticket.CategoryID,
			&ticket.TypeID,
			&ticket.Version,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.ClosedAt,
			&ticket.ResolutionMessage,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Touch(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE tickets SET updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
