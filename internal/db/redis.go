package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wuwenbin0122/agentmate/internal/models"
	"github.com/wuwenbin0122/agentmate/internal/utils"
)

// Redis keeps each user's log in a list (<prefix><user>) with a companion
// counter (<prefix><user>:seq) supplying turn ids.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(ctx context.Context, cfg utils.RedisConfig) (*Redis, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("redis: url is empty")
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return NewRedisWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "agentmate:history:"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) listKey(userID string) string { return r.prefix + userID }
func (r *Redis) seqKey(userID string) string  { return r.prefix + userID + ":seq" }

func (r *Redis) Append(ctx context.Context, turn models.Turn) error {
	if err := validateTurn(turn); err != nil {
		return err
	}

	id, err := r.client.Incr(ctx, r.seqKey(turn.UserID)).Result()
	if err != nil {
		return fmt.Errorf("redis: next id: %w", err)
	}
	payload, err := encodeRedisTurn(id, turn)
	if err != nil {
		return err
	}

	if err := r.client.RPush(ctx, r.listKey(turn.UserID), payload).Err(); err != nil {
		return fmt.Errorf("redis: push turn: %w", err)
	}
	return nil
}

func (r *Redis) Recent(ctx context.Context, userID string, limit int) ([]models.Turn, error) {
	if limit <= 0 {
		return nil, nil
	}

	// the list is already chronological; the tail holds the newest entries
	raw, err := r.client.LRange(ctx, r.listKey(userID), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: range turns: %w", err)
	}

	turns := make([]models.Turn, 0, len(raw))
	for _, item := range raw {
		var turn models.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("redis: decode turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (r *Redis) Count(ctx context.Context, userID string) (int, error) {
	n, err := r.client.LLen(ctx, r.listKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: count turns: %w", err)
	}
	return int(n), nil
}

func (r *Redis) Clear(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, r.listKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis: clear history: %w", err)
	}
	return nil
}

func (r *Redis) Compact(ctx context.Context, userID string, summary models.Turn) error {
	summary.UserID = userID
	if err := validateTurn(summary); err != nil {
		return err
	}

	id, err := r.client.Incr(ctx, r.seqKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("redis: next id: %w", err)
	}
	payload, err := encodeRedisTurn(id, summary)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.listKey(userID))
		pipe.RPush(ctx, r.listKey(userID), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: compact history: %w", err)
	}
	return nil
}

func encodeRedisTurn(id int64, turn models.Turn) (string, error) {
	turn.ID = id
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	turn.CreatedAt = turn.CreatedAt.UTC()

	payload, err := json.Marshal(turn)
	if err != nil {
		return "", fmt.Errorf("redis: encode turn: %w", err)
	}
	return string(payload), nil
}
