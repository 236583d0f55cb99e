package scorestore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresTable is the table the Postgres store and the import tool share
const PostgresTable = "buzzwire_runs"

// PostgresSchema creates the runs table when it is missing
const PostgresSchema = `CREATE TABLE IF NOT EXISTS ` + PostgresTable + ` (
    id BIGSERIAL PRIMARY KEY,
    player TEXT NOT NULL,
    elapsed_seconds INTEGER NOT NULL CHECK (elapsed_seconds >= 0),
    lives_left INTEGER NOT NULL CHECK (lives_left >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

var postgresDialect = dialect{
	name:   "postgres",
	schema: PostgresSchema,
	insert: `INSERT INTO ` + PostgresTable + ` (player, elapsed_seconds, lives_left) VALUES ($1, $2, $3)`,
	list:   `SELECT player, elapsed_seconds, lives_left FROM ` + PostgresTable + ` ORDER BY id`,
	clear: []string{
		`DELETE FROM ` + PostgresTable,
		`ALTER SEQUENCE ` + PostgresTable + `_id_seq RESTART WITH 1`,
	},
}

// PostgresStore persists runs in a shared Postgres database
type PostgresStore struct {
	*sqlStore
}

// OpenPostgres connects with the given DSN and ensures the runs table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %w", ErrPersistence, err)
	}

	store, err := newSQLStore(ctx, db, postgresDialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{sqlStore: store}, nil
}
