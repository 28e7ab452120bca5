package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/wuwenbin0122/agentmate/internal/models"
)

// SQLite is the default file-backed log.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: database path is required")
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// single writer; database/sql serialises callers on the one connection
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	store := &SQLite{db: conn}
	if err := store.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS chat_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_chat_history_user ON chat_history(user_id, id);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Append(ctx context.Context, turn models.Turn) error {
	if err := validateTurn(turn); err != nil {
		return err
	}
	if err := insertSQLiteTurn(ctx, s.db, turn); err != nil {
		return err
	}
	return nil
}

func (s *SQLite) Recent(ctx context.Context, userID string, limit int) ([]models.Turn, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, role, content, created_at
		FROM chat_history
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query recent: %w", err)
	}
	defer rows.Close()

	turns := make([]models.Turn, 0, limit)
	for rows.Next() {
		var (
			turn      models.Turn
			role      string
			createdAt string
		)
		if err := rows.Scan(&turn.ID, &turn.UserID, &role, &turn.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan turn: %w", err)
		}
		turn.Role = models.Role(role)
		turn.CreatedAt = parseSQLiteTime(createdAt)
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate turns: %w", err)
	}

	return reverse(turns), nil
}

func (s *SQLite) Count(ctx context.Context, userID string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_history WHERE user_id = ?`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("sqlite: count turns: %w", err)
	}
	return count, nil
}

func (s *SQLite) Clear(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_history WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("sqlite: clear history: %w", err)
	}
	return nil
}

func (s *SQLite) Compact(ctx context.Context, userID string, summary models.Turn) error {
	summary.UserID = userID
	if err := validateTurn(summary); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin compaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_history WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("sqlite: compaction delete: %w", err)
	}
	if err := insertSQLiteTurn(ctx, tx, summary); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit compaction: %w", err)
	}
	return nil
}

type sqliteExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertSQLiteTurn(ctx context.Context, exec sqliteExecer, turn models.Turn) error {
	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := exec.ExecContext(ctx,
		`INSERT INTO chat_history (user_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		turn.UserID, string(turn.Role), turn.Content, createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert turn: %w", err)
	}
	return nil
}

// parseSQLiteTime accepts both our RFC 3339 stamps and CURRENT_TIMESTAMP
// defaults written by other tools.
func parseSQLiteTime(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
