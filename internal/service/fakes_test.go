package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/soportesys/helpdesk/internal/domain"
	"github.com/soportesys/helpdesk/internal/events"
	"github.com/soportesys/helpdesk/internal/repository"
)

type fakeTicketRepo struct {
	tickets   map[string]*domain.Ticket
	nextID    int
	touched   []string
	touchErr  error
	updateErr error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) put(ticket *domain.Ticket) *domain.Ticket {
	if ticket.ID == "" {
		r.nextID++
		ticket.ID = fmt.Sprintf("ticket-%d", r.nextID)
	}
	if ticket.Version == 0 {
		ticket.Version = 1
	}
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return ticket
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.put(ticket)
	return nil
}

func (r *fakeTicketRepo) UpdateVersioned(ctx context.Context, ticket *domain.Ticket) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != ticket.Version {
		return repository.ErrVersionConflict
	}
	ticket.Version++
	ticket.UpdatedAt = time.Now()
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	stored, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeTicketRepo) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, t := range r.tickets {
		switch {
		case filter.CreatorID != nil:
			if t.CreatorID != *filter.CreatorID {
				continue
			}
		case filter.CreatedOrAssignedID != nil:
			id := *filter.CreatedOrAssignedID
			if t.CreatorID != id && (t.AssignedToID == nil || *t.AssignedToID != id) {
				continue
			}
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTicketRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) Touch(ctx context.Context, id string) error {
	if r.touchErr != nil {
		return r.touchErr
	}
	r.touched = append(r.touched, id)
	return nil
}

func (r *fakeTicketRepo) WithTx(tx pgx.Tx) repository.TicketRepository {
	return r
}

type fakeCommentRepo struct {
	comments  []domain.Comment
	nextID    int
	createErr error
}

func (r *fakeCommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	comment.ID = fmt.Sprintf("comment-%d", r.nextID)
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	var out []domain.Comment
	for _, c := range r.comments {
		if c.TicketID == ticketID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCommentRepo) WithTx(tx pgx.Tx) repository.CommentRepository {
	return r
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	stored, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmailOrUsername(ctx context.Context, identifier string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == identifier || u.Username == identifier {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

type fakeCatalog struct {
	entries map[domain.CatalogKind][]domain.CatalogEntry
	types   map[string]domain.TicketType
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		entries: make(map[domain.CatalogKind][]domain.CatalogEntry),
		types:   make(map[string]domain.TicketType),
	}
}

func (c *fakeCatalog) addEntry(kind domain.CatalogKind, id, name string) {
	c.entries[kind] = append(c.entries[kind], domain.CatalogEntry{ID: id, Name: name})
}

func (c *fakeCatalog) Entry(ctx context.Context, kind domain.CatalogKind, id string) (*domain.CatalogEntry, error) {
	for _, e := range c.entries[kind] {
		if e.ID == id {
			entry := e
			return &entry, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (c *fakeCatalog) EntryByName(ctx context.Context, kind domain.CatalogKind, name string) (*domain.CatalogEntry, error) {
	for _, e := range c.entries[kind] {
		if e.Name == name {
			entry := e
			return &entry, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (c *fakeCatalog) TicketType(ctx context.Context, id string) (*domain.TicketType, error) {
	tt, ok := c.types[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &tt, nil
}

// fakeTx stands in for a pgx transaction. Begin records the savepoint child
// so tests can assert which scope was rolled back.
type fakeTx struct {
	child      *fakeTx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) {
	t.child = &fakeTx{}
	return t.child, nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }

func (t *fakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func (t *fakeTx) Conn() *pgx.Conn { return nil }

type fakeTxStarter struct {
	tx *fakeTx
}

func (s *fakeTxStarter) Begin(ctx context.Context) (pgx.Tx, error) {
	s.tx = &fakeTx{}
	return s.tx, nil
}

type fakeDispatcher struct {
	published []events.Event
}

func (d *fakeDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *fakeDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *fakeDispatcher) lastType() events.EventType {
	if len(d.published) == 0 {
		return ""
	}
	return d.published[len(d.published)-1].Type
}
