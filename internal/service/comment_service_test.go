package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/soportesys/helpdesk/internal/auth"
	"github.com/soportesys/helpdesk/internal/domain"
	"github.com/soportesys/helpdesk/internal/events"
)

func newCommentFixture(t *testing.T) (*CommentService, *fakeCommentRepo, *fakeTicketRepo, *fakeDispatcher) {
	t.Helper()
	comments := &fakeCommentRepo{}
	tickets := newFakeTicketRepo()
	dispatcher := &fakeDispatcher{}
	svc := NewCommentService(CommentDependencies{
		CommentRepo: comments,
		TicketRepo:  tickets,
		Catalogs:    seededCatalog(),
		Dispatcher:  dispatcher,
		Logger:      zap.NewNop(),
	})
	return svc, comments, tickets, dispatcher
}

func seedOpenTicket(tickets *fakeTicketRepo, statusID string, assignee *string) {
	tickets.put(&domain.Ticket{
		ID: "ticket-1", Title: "Printer down", CreatorID: clientPrincipal.ID,
		AssignedToID: assignee, StatusID: statusID, PriorityID: "prio-med",
		CategoryID: "cat-tech", TypeID: "type-incident", Version: 1,
	})
}

func TestCommentAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("creator comments and ticket is touched", func(t *testing.T) {
		svc, _, tickets, dispatcher := newCommentFixture(t)
		seedOpenTicket(tickets, "status-new", nil)

		comment, err := svc.Add(ctx, clientPrincipal, "ticket-1", "  any update on this?  ")
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if comment.Content != "any update on this?" {
			t.Fatalf("content not trimmed: %q", comment.Content)
		}
		if comment.UserID != clientPrincipal.ID {
			t.Fatalf("author wrong: %+v", comment)
		}
		if len(tickets.touched) != 1 || tickets.touched[0] != "ticket-1" {
			t.Fatalf("ticket not touched: %v", tickets.touched)
		}
		if dispatcher.lastType() != events.EventCommentAdded {
			t.Fatalf("expected comment event, got %v", dispatcher.lastType())
		}
	})

	t.Run("assignee comments", func(t *testing.T) {
		svc, _, tickets, _ := newCommentFixture(t)
		assignee := agentPrincipal.ID
		seedOpenTicket(tickets, "status-new", &assignee)
		if _, err := svc.Add(ctx, agentPrincipal, "ticket-1", "taking a look"); err != nil {
			t.Fatalf("add: %v", err)
		}
	})

	t.Run("non-participant client denied", func(t *testing.T) {
		svc, _, tickets, _ := newCommentFixture(t)
		seedOpenTicket(tickets, "status-new", nil)
		other := &auth.Principal{ID: "user-other", Role: domain.RoleClient}
		_, err := svc.Add(ctx, other, "ticket-1", "let me in")
		assertDomainError(t, err, "FORBIDDEN")
	})

	t.Run("closed ticket rejects everyone including admin", func(t *testing.T) {
		svc, _, tickets, _ := newCommentFixture(t)
		seedOpenTicket(tickets, "status-closed", nil)

		for _, principal := range []*auth.Principal{clientPrincipal, agentPrincipal, adminPrincipal} {
			_, err := svc.Add(ctx, principal, "ticket-1", "one more thing")
			assertDomainError(t, err, "FORBIDDEN")
		}
	})

	t.Run("missing ticket is not found", func(t *testing.T) {
		svc, _, _, _ := newCommentFixture(t)
		_, err := svc.Add(ctx, adminPrincipal, "ticket-ghost", "hello?")
		assertDomainError(t, err, "NOT_FOUND")
	})

	t.Run("touch failure does not fail the comment", func(t *testing.T) {
		svc, comments, tickets, _ := newCommentFixture(t)
		seedOpenTicket(tickets, "status-new", nil)
		tickets.touchErr = errors.New("deadlock detected")

		comment, err := svc.Add(ctx, clientPrincipal, "ticket-1", "still broken")
		if err != nil {
			t.Fatalf("comment must survive touch failure: %v", err)
		}
		if comment.ID == "" || len(comments.comments) != 1 {
			t.Fatalf("comment not persisted: %+v", comments.comments)
		}
	})
}

func newTxCommentFixture(t *testing.T) (*CommentService, *fakeCommentRepo, *fakeTicketRepo, *fakeTxStarter) {
	t.Helper()
	comments := &fakeCommentRepo{}
	tickets := newFakeTicketRepo()
	starter := &fakeTxStarter{}
	svc := NewCommentService(CommentDependencies{
		CommentRepo: comments,
		TicketRepo:  tickets,
		Catalogs:    seededCatalog(),
		Tx:          starter,
		Logger:      zap.NewNop(),
	})
	return svc, comments, tickets, starter
}

func TestCommentAddTransactional(t *testing.T) {
	ctx := context.Background()

	t.Run("commits insert and touch together", func(t *testing.T) {
		svc, comments, tickets, starter := newTxCommentFixture(t)
		seedOpenTicket(tickets, "status-new", nil)

		if _, err := svc.Add(ctx, clientPrincipal, "ticket-1", "taking a look"); err != nil {
			t.Fatalf("add: %v", err)
		}
		if !starter.tx.committed {
			t.Fatal("outer transaction not committed")
		}
		if starter.tx.child == nil || !starter.tx.child.committed {
			t.Fatal("savepoint around the touch not committed")
		}
		if len(comments.comments) != 1 || len(tickets.touched) != 1 {
			t.Fatalf("insert or touch missing: %d comments, %v touched", len(comments.comments), tickets.touched)
		}
	})

	t.Run("touch failure rolls back only the savepoint", func(t *testing.T) {
		svc, comments, tickets, starter := newTxCommentFixture(t)
		seedOpenTicket(tickets, "status-new", nil)
		tickets.touchErr = errors.New("deadlock detected")

		comment, err := svc.Add(ctx, clientPrincipal, "ticket-1", "still broken")
		if err != nil {
			t.Fatalf("comment must survive touch failure: %v", err)
		}
		if comment.ID == "" || len(comments.comments) != 1 {
			t.Fatalf("comment not persisted: %+v", comments.comments)
		}
		if starter.tx.child == nil || !starter.tx.child.rolledBack {
			t.Fatal("savepoint not rolled back after touch failure")
		}
		if !starter.tx.committed {
			t.Fatal("outer transaction must still commit the insert")
		}
	})
}

func TestPreview(t *testing.T) {
	t.Run("short content unchanged", func(t *testing.T) {
		if got := preview("hola", 120); got != "hola" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("truncates on rune boundaries", func(t *testing.T) {
		content := "Persiste el fallo de facturación en la sección de señalización"
		got := preview(content, 20)
		if len([]rune(got)) != 20 {
			t.Fatalf("expected 20 runes, got %d (%q)", len([]rune(got)), got)
		}
		want := string([]rune(content)[:17]) + "..."
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	})
}

func TestCommentListForTicket(t *testing.T) {
	ctx := context.Background()
	svc, comments, _, _ := newCommentFixture(t)
	comments.comments = []domain.Comment{
		{ID: "c1", TicketID: "ticket-1", UserID: "user-1", Content: "first"},
		{ID: "c2", TicketID: "ticket-2", UserID: "user-1", Content: "other ticket"},
		{ID: "c3", TicketID: "ticket-1", UserID: "user-2", Content: "second"},
	}

	got, err := svc.ListForTicket(ctx, "ticket-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c1" || got[1].ID != "c3" {
		t.Fatalf("wrong comments: %+v", got)
	}
}
