package scorestore

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: `CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    player TEXT NOT NULL,
    elapsed_seconds INTEGER NOT NULL CHECK (elapsed_seconds >= 0),
    lives_left INTEGER NOT NULL CHECK (lives_left >= 0),
    created_at INTEGER NOT NULL DEFAULT (unixepoch())
)`,
	insert: `INSERT INTO runs (player, elapsed_seconds, lives_left) VALUES (?, ?, ?)`,
	list:   `SELECT player, elapsed_seconds, lives_left FROM runs ORDER BY id`,
	clear: []string{
		`DELETE FROM runs`,
		`DELETE FROM sqlite_sequence WHERE name = 'runs'`,
	},
}

// SQLiteStore persists runs in a local SQLite database
type SQLiteStore struct {
	*sqlStore
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %w", ErrPersistence, err)
	}
	// one writer at a time; SQLite serialises anyway
	db.SetMaxOpenConns(1)

	store, err := newSQLStore(ctx, db, sqliteDialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{sqlStore: store}, nil
}
