package db_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/wuwenbin0122/agentmate/internal/db"
	"github.com/wuwenbin0122/agentmate/internal/utils"
)

func TestPostgresMessageLog(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	store, err := db.NewPostgres(context.Background(), utils.PostgresConfig{
		DSN:            dsn,
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema failed: %v", err)
	}

	exerciseMessageLog(t, store)
}
