package repository

import (
	"context"
	"fmt"

	"github.com/soportesys/helpdesk/internal/domain"
)

// CatalogRepository reads the flat lookup tables and ticket types. Catalogs
// are never mutated by this service.
type CatalogRepository interface {
	GetEntry(ctx context.Context, kind domain.CatalogKind, id string) (*domain.CatalogEntry, error)
	GetEntryByName(ctx context.Context, kind domain.CatalogKind, name string) (*domain.CatalogEntry, error)
	ListEntries(ctx context.Context, kind domain.CatalogKind) ([]domain.CatalogEntry, error)
	GetTicketType(ctx context.Context, id string) (*domain.TicketType, error)
	ListTicketTypes(ctx context.Context) ([]domain.TicketType, error)
}

type catalogRepository struct {
	db Querier
}

// NewCatalogRepository returns a Postgres-backed implementation.
func NewCatalogRepository(db Querier) CatalogRepository {
	return &catalogRepository{db: db}
}

// catalogTables whitelists the table per kind; kinds never come from user
// input but the query is assembled by name, so keep the mapping closed.
var catalogTables = map[domain.CatalogKind]string{
	domain.CatalogStatus:   "statuses",
	domain.CatalogPriority: "priorities",
	domain.CatalogCategory: "categories",
}

func (r *catalogRepository) GetEntry(ctx context.Context, kind domain.CatalogKind, id string) (*domain.CatalogEntry, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, name FROM %s WHERE id=$1`, table)
	var entry domain.CatalogEntry
	if err := r.db.QueryRow(ctx, query, id).Scan(&entry.ID, &entry.Name); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *catalogRepository) GetEntryByName(ctx context.Context, kind domain.CatalogKind, name string) (*domain.CatalogEntry, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, name FROM %s WHERE name=$1`, table)
	var entry domain.CatalogEntry
	if err := r.db.QueryRow(ctx, query, name).Scan(&entry.ID, &entry.Name); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *catalogRepository) ListEntries(ctx context.Context, kind domain.CatalogKind) ([]domain.CatalogEntry, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, name FROM %s ORDER BY name ASC`, table)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CatalogEntry
	for rows.Next() {
		var entry domain.CatalogEntry
		if err := rows.Scan(&entry.ID, &entry.Name); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *catalogRepository) GetTicketType(ctx context.Context, id string) (*domain.TicketType, error) {
	const query = `
        SELECT id, name, description, default_status_id, default_priority_id
        FROM ticket_types WHERE id=$1`
	var tt domain.TicketType
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&tt.ID,
		&tt.Name,
		&tt.Description,
		&tt.DefaultStatusID,
		&tt.DefaultPriorityID,
	); err != nil {
		return nil, err
	}
	return &tt, nil
}

func (r *catalogRepository) ListTicketTypes(ctx context.Context) ([]domain.TicketType, error) {
	const query = `
        SELECT id, name, description, default_status_id, default_priority_id
        FROM ticket_types ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketType
	for rows.Next() {
		var tt domain.TicketType
		if err := rows.Scan(
			&tt.ID,
			&tt.Name,
			&tt.Description,
			&tt.DefaultStatusID,
			&tt.DefaultPriorityID,
		); err != nil {
			return nil, err
		}
		result = append(result, tt)
	}
	return result, rows.Err()
}

func tableFor(kind domain.CatalogKind) (string, error) {
	table, ok := catalogTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown catalog kind %q", kind)
	}
	return table, nil
}
