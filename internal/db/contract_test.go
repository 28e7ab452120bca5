package db_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/wuwenbin0122/agentmate/internal/db"
	"github.com/wuwenbin0122/agentmate/internal/models"
)

// exerciseMessageLog runs the behaviour every backend must share.
func exerciseMessageLog(t *testing.T, log db.MessageLog) {
	t.Helper()
	ctx := context.Background()

	alice := "alice-" + uuid.NewString()
	bob := "bob-" + uuid.NewString()
	t.Cleanup(func() {
		_ = log.Clear(context.Background(), alice)
		_ = log.Clear(context.Background(), bob)
	})

	for i := 0; i < 12; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		if err := log.Append(ctx, models.NewTurn(alice, role, fmt.Sprintf("msg-%02d", i))); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if err := log.Append(ctx, models.NewTurn(bob, models.RoleUser, "hello from bob")); err != nil {
		t.Fatalf("append bob: %v", err)
	}

	count, err := log.Count(ctx, alice)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 12 {
		t.Fatalf("expected 12 turns, got %d", count)
	}

	recent, err := log.Recent(ctx, alice, 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 5 {
		t.Fatalf("expected 5 recent turns, got %d", len(recent))
	}
	for i, turn := range recent {
		want := fmt.Sprintf("msg-%02d", 7+i)
		if turn.Content != want {
			t.Fatalf("recent[%d]: expected %q, got %q", i, want, turn.Content)
		}
		if turn.UserID != alice {
			t.Fatalf("recent[%d]: leaked user %q", i, turn.UserID)
		}
		if i > 0 && turn.ID <= recent[i-1].ID {
			t.Fatalf("recent turns not in insertion order: %d then %d", recent[i-1].ID, turn.ID)
		}
		if turn.CreatedAt.IsZero() {
			t.Fatalf("recent[%d]: missing created_at", i)
		}
	}
	if recent[0].Role != models.RoleAssistant || recent[1].Role != models.RoleUser {
		t.Fatalf("roles not preserved: %q, %q", recent[0].Role, recent[1].Role)
	}

	all, err := log.Recent(ctx, alice, 100)
	if err != nil {
		t.Fatalf("recent all: %v", err)
	}
	if len(all) != 12 || all[0].Content != "msg-00" {
		t.Fatalf("expected full history oldest first, got %d turns starting %q", len(all), all[0].Content)
	}

	summary := models.NewTurn("", models.RoleSystem, "Summary so far: alice likes tea")
	if err := log.Compact(ctx, alice, summary); err != nil {
		t.Fatalf("compact: %v", err)
	}
	after, err := log.Recent(ctx, alice, 10)
	if err != nil {
		t.Fatalf("recent after compact: %v", err)
	}
	if len(after) != 1 || after[0].Role != models.RoleSystem || after[0].Content != summary.Content {
		t.Fatalf("expected single summary turn, got %+v", after)
	}

	if err := log.Clear(ctx, alice); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if count, err := log.Count(ctx, alice); err != nil || count != 0 {
		t.Fatalf("expected 0 turns after clear, got %d (%v)", count, err)
	}
	if count, err := log.Count(ctx, bob); err != nil || count != 1 {
		t.Fatalf("clear leaked into other user: %d (%v)", count, err)
	}

	if err := log.Append(ctx, models.NewTurn("", models.RoleUser, "orphan")); !errors.Is(err, db.ErrEmptyUserID) {
		t.Fatalf("expected ErrEmptyUserID, got %v", err)
	}
	if err := log.Append(ctx, models.NewTurn(alice, models.Role("tool"), "x")); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}
