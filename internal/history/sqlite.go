package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/valpere/perelay/internal/chat"
)

// SQLite is a single-file Store for deployments without an external KV
// service. One row per conversation, turns as a JSON blob, overwritten on
// save.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at dbPath.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		turns TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLite) Load(ctx context.Context, conversationID string) ([]chat.Turn, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT turns FROM conversations WHERE id = ?`, conversationID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: load %s: %w", conversationID, err)
	}
	var turns []chat.Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, fmt.Errorf("history: decode %s: %w", conversationID, err)
	}
	return turns, nil
}

func (s *SQLite) Save(ctx context.Context, conversationID string, turns []chat.Turn) error {
	raw, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("history: encode %s: %w", conversationID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, turns) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET turns = excluded.turns, updated_at = CURRENT_TIMESTAMP`,
		conversationID, string(raw))
	if err != nil {
		return fmt.Errorf("history: save %s: %w", conversationID, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }
