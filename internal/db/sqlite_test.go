package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/wuwenbin0122/agentmate/internal/db"
	"github.com/wuwenbin0122/agentmate/internal/models"
	"github.com/wuwenbin0122/agentmate/internal/utils"
)

func newTestSQLite(t *testing.T) *db.SQLite {
	t.Helper()
	store, err := db.NewSQLite(context.Background(), filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteMessageLog(t *testing.T) {
	exerciseMessageLog(t, newTestSQLite(t))
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.db")
	ctx := context.Background()

	first, err := db.NewSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := first.Append(ctx, models.NewTurn("u1", models.RoleUser, "remember me")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := db.NewSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer second.Close()

	turns, err := second.Recent(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(turns) != 1 || turns[0].Content != "remember me" {
		t.Fatalf("expected persisted turn, got %+v", turns)
	}
}

func TestSQLiteRecentWithNonPositiveLimit(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	if err := store.Append(ctx, models.NewTurn("u1", models.RoleUser, "hi")); err != nil {
		t.Fatalf("append: %v", err)
	}
	turns, err := store.Recent(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected no turns for zero limit, got %d", len(turns))
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	log, err := db.Open(ctx, utils.HistoryConfig{
		Backend:    utils.BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "memory.db"),
	})
	if err != nil {
		t.Fatalf("open sqlite backend: %v", err)
	}
	defer log.Close()

	if _, ok := log.(*db.SQLite); !ok {
		t.Fatalf("expected *db.SQLite, got %T", log)
	}

	if _, err := db.Open(ctx, utils.HistoryConfig{Backend: "cassandra"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
