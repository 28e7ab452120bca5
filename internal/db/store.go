// Package db holds the Message Log backends: an append-only, per-user log of
// role-tagged turns with most-recent-N, count and clear queries.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/wuwenbin0122/agentmate/internal/models"
	"github.com/wuwenbin0122/agentmate/internal/utils"
)

var (
	ErrUnknownBackend = errors.New("db: unknown history backend")
	ErrEmptyUserID    = errors.New("db: user id is required")
)

// MessageLog is the storage contract every backend satisfies.
//
// Recent returns at most limit turns, oldest first. Compact removes every
// turn of the user and appends summary in their place.
type MessageLog interface {
	Append(ctx context.Context, turn models.Turn) error
	Recent(ctx context.Context, userID string, limit int) ([]models.Turn, error)
	Count(ctx context.Context, userID string) (int, error)
	Clear(ctx context.Context, userID string) error
	Compact(ctx context.Context, userID string, summary models.Turn) error
	Close() error
}

// Open connects the backend named in cfg.Backend and prepares its schema.
func Open(ctx context.Context, cfg utils.HistoryConfig) (MessageLog, error) {
	switch cfg.Backend {
	case "", utils.BackendSQLite:
		return NewSQLite(ctx, cfg.SQLitePath)
	case utils.BackendPostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	case utils.BackendMongo:
		m, err := NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		if err := m.EnsureCollections(ctx); err != nil {
			_ = m.Close()
			return nil, err
		}
		return m, nil
	case utils.BackendRedis:
		return NewRedis(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

func validateTurn(turn models.Turn) error {
	if turn.UserID == "" {
		return ErrEmptyUserID
	}
	if _, err := models.ParseRole(string(turn.Role)); err != nil {
		return fmt.Errorf("db: %w", err)
	}
	return nil
}

// reverse flips a newest-first page into chronological order.
func reverse(turns []models.Turn) []models.Turn {
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns
}
