package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wuwenbin0122/agentmate/internal/models"
	"github.com/wuwenbin0122/agentmate/internal/utils"
)

type Postgres struct {
	Pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, cfg utils.PostgresConfig) (*Postgres, error) {
	dsn := cfg.BuildDSN()
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns >= 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(cfg.ConnectTimeout))
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &Postgres{Pool: pool}, nil
}

func (p *Postgres) Close() error {
	if p == nil || p.Pool == nil {
		return nil
	}
	p.Pool.Close()
	return nil
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if p == nil || p.Pool == nil {
		return fmt.Errorf("postgres: pool not initialised")
	}

	statements := []string{
		strings.Join([]string{
			"CREATE TABLE IF NOT EXISTS chat_history (",
			"    id BIGSERIAL PRIMARY KEY,",
			"    user_id TEXT NOT NULL,",
			"    role TEXT NOT NULL,",
			"    content TEXT NOT NULL,",
			"    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()",
			")",
		}, "\n"),
		"CREATE INDEX IF NOT EXISTS idx_chat_history_user ON chat_history (user_id, id)",
	}

	for _, stmt := range statements {
		if _, err := p.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}

	return nil
}

func (p *Postgres) Append(ctx context.Context, turn models.Turn) error {
	if err := validateTurn(turn); err != nil {
		return err
	}
	if err := insertPostgresTurn(ctx, p.Pool, turn); err != nil {
		return err
	}
	return nil
}

func (p *Postgres) Recent(ctx context.Context, userID string, limit int) ([]models.Turn, error) {
	if limit <= 0 {
		return nil, nil
	}

	const query = `SELECT id, user_id, role, content, created_at FROM chat_history WHERE user_id = $1 ORDER BY id DESC LIMIT $2`
	rows, err := p.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: query recent: %w", err)
	}
	defer rows.Close()

	turns := make([]models.Turn, 0, limit)
	for rows.Next() {
		var (
			turn models.Turn
			role string
		)
		if err := rows.Scan(&turn.ID, &turn.UserID, &role, &turn.Content, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan turn: %w", err)
		}
		turn.Role = models.Role(role)
		turn.CreatedAt = turn.CreatedAt.UTC()
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate turns: %w", err)
	}

	return reverse(turns), nil
}

func (p *Postgres) Count(ctx context.Context, userID string) (int, error) {
	var count int
	if err := p.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM chat_history WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count turns: %w", err)
	}
	return count, nil
}

func (p *Postgres) Clear(ctx context.Context, userID string) error {
	if _, err := p.Pool.Exec(ctx, `DELETE FROM chat_history WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("postgres: clear history: %w", err)
	}
	return nil
}

func (p *Postgres) Compact(ctx context.Context, userID string, summary models.Turn) error {
	summary.UserID = userID
	if err := validateTurn(summary); err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, p.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM chat_history WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("postgres: compaction delete: %w", err)
		}
		return insertPostgresTurn(ctx, tx, summary)
	})
}

type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertPostgresTurn(ctx context.Context, exec pgExecer, turn models.Turn) error {
	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	const stmt = `INSERT INTO chat_history (user_id, role, content, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := exec.Exec(ctx, stmt, turn.UserID, string(turn.Role), turn.Content, createdAt); err != nil {
		return fmt.Errorf("postgres: insert turn: %w", err)
	}
	return nil
}

func timeoutOrDefault(value time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return 10 * time.Second
}
