package db_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/wuwenbin0122/agentmate/internal/db"
	"github.com/wuwenbin0122/agentmate/internal/utils"
)

func TestRedisMessageLog(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set; skipping redis integration test")
	}

	store, err := db.NewRedis(context.Background(), utils.RedisConfig{
		URL:       url,
		KeyPrefix: "agentmate_test:" + uuid.NewString() + ":",
	})
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	defer store.Close()

	exerciseMessageLog(t, store)
}
