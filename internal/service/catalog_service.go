package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/soportesys/helpdesk/internal/domain"
	"github.com/soportesys/helpdesk/internal/repository"
)

// CatalogResolver is the lookup surface the ticket and comment services use
// for validation and default derivation.
type CatalogResolver interface {
	Entry(ctx context.Context, kind domain.CatalogKind, id string) (*domain.CatalogEntry, error)
	EntryByName(ctx context.Context, kind domain.CatalogKind, name string) (*domain.CatalogEntry, error)
	TicketType(ctx context.Context, id string) (*domain.TicketType, error)
}

// CatalogService resolves catalog rows, caching list and by-name reads in
// Redis. Catalogs are seed data, so a short TTL cache is safe; a cache
// outage silently degrades to Postgres.
type CatalogService struct {
	catalogs repository.CatalogRepository
	cache    *redis.Client
	ttl      time.Duration
	logger   *zap.Logger
}

// NewCatalogService constructs the service. cache may be nil.
func NewCatalogService(catalogs repository.CatalogRepository, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CatalogService{catalogs: catalogs, cache: cache, ttl: ttl, logger: logger}
}

// Entry looks up a catalog row by id. Misses return pgx.ErrNoRows untouched;
// callers decide whether that means InvalidReference or NotFound.
func (s *CatalogService) Entry(ctx context.Context, kind domain.CatalogKind, id string) (*domain.CatalogEntry, error) {
	return s.catalogs.GetEntry(ctx, kind, id)
}

// EntryByName looks up a catalog row by its well-known name.
func (s *CatalogService) EntryByName(ctx context.Context, kind domain.CatalogKind, name string) (*domain.CatalogEntry, error) {
	key := "catalog:name:" + string(kind) + ":" + name
	var cached domain.CatalogEntry
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}
	entry, err := s.catalogs.GetEntryByName(ctx, kind, name)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, entry)
	return entry, nil
}

// ListEntries returns all rows of a catalog, name-ordered.
func (s *CatalogService) ListEntries(ctx context.Context, kind domain.CatalogKind) ([]domain.CatalogEntry, error) {
	key := "catalog:list:" + string(kind)
	var cached []domain.CatalogEntry
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}
	entries, err := s.catalogs.ListEntries(ctx, kind)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, entries)
	return entries, nil
}

// TicketType looks up a ticket type with its configured defaults.
func (s *CatalogService) TicketType(ctx context.Context, id string) (*domain.TicketType, error) {
	return s.catalogs.GetTicketType(ctx, id)
}

// ListTicketTypes returns all ticket types, name-ordered.
func (s *CatalogService) ListTicketTypes(ctx context.Context) ([]domain.TicketType, error) {
	key := "catalog:list:ticket_types"
	var cached []domain.TicketType
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}
	types, err := s.catalogs.ListTicketTypes(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, types)
	return types, nil
}

func (s *CatalogService) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil && s.logger != nil {
			s.logger.Debug("catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false
	}
	return true
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil && s.logger != nil {
		s.logger.Debug("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
