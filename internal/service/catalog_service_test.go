package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/soportesys/helpdesk/internal/domain"
)

type fakeCatalogRepo struct {
	entries map[domain.CatalogKind][]domain.CatalogEntry
	types   []domain.TicketType
	calls   int
}

func (r *fakeCatalogRepo) GetEntry(ctx context.Context, kind domain.CatalogKind, id string) (*domain.CatalogEntry, error) {
	r.calls++
	for _, e := range r.entries[kind] {
		if e.ID == id {
			entry := e
			return &entry, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCatalogRepo) GetEntryByName(ctx context.Context, kind domain.CatalogKind, name string) (*domain.CatalogEntry, error) {
	r.calls++
	for _, e := range r.entries[kind] {
		if e.Name == name {
			entry := e
			return &entry, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCatalogRepo) ListEntries(ctx context.Context, kind domain.CatalogKind) ([]domain.CatalogEntry, error) {
	r.calls++
	return r.entries[kind], nil
}

func (r *fakeCatalogRepo) GetTicketType(ctx context.Context, id string) (*domain.TicketType, error) {
	r.calls++
	for _, tt := range r.types {
		if tt.ID == id {
			found := tt
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCatalogRepo) ListTicketTypes(ctx context.Context) ([]domain.TicketType, error) {
	r.calls++
	return r.types, nil
}

func TestCatalogServiceWithoutCache(t *testing.T) {
	ctx := context.Background()
	repo := &fakeCatalogRepo{
		entries: map[domain.CatalogKind][]domain.CatalogEntry{
			domain.CatalogStatus: {
				{ID: "s-1", Name: "Cerrado"},
				{ID: "s-2", Name: "Nuevo"},
			},
		},
		types: []domain.TicketType{{ID: "t-1", Name: "Incidente"}},
	}
	svc := NewCatalogService(repo, nil, time.Minute, nil)

	t.Run("entry by name hits the store", func(t *testing.T) {
		entry, err := svc.EntryByName(ctx, domain.CatalogStatus, "Nuevo")
		if err != nil {
			t.Fatalf("entry by name: %v", err)
		}
		if entry.ID != "s-2" {
			t.Fatalf("wrong entry: %+v", entry)
		}
	})

	t.Run("miss propagates no rows", func(t *testing.T) {
		_, err := svc.EntryByName(ctx, domain.CatalogStatus, "Fantasma")
		if !errors.Is(err, pgx.ErrNoRows) {
			t.Fatalf("expected pgx.ErrNoRows, got %v", err)
		}
	})

	t.Run("lists entries and types", func(t *testing.T) {
		entries, err := svc.ListEntries(ctx, domain.CatalogStatus)
		if err != nil || len(entries) != 2 {
			t.Fatalf("list entries: %v %v", entries, err)
		}
		types, err := svc.ListTicketTypes(ctx)
		if err != nil || len(types) != 1 {
			t.Fatalf("list types: %v %v", types, err)
		}
	})
}
