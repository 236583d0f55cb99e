package scorestore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/mcdev12/buzzwire/go/internal/models"
	"github.com/mcdev12/buzzwire/go/internal/sqlutil"
)

// dialect holds the statements that differ between SQL backends
type dialect struct {
	name   string
	schema string
	insert string
	list   string
	// clear runs in one transaction
	clear []string
}

// sqlStore implements Store over database/sql. Rows are listed in insertion
// order so ranking ties keep their append order.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
	mu      sync.Mutex
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*sqlStore, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: ping %s: %w", ErrPersistence, d.name, err)
	}
	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		return nil, fmt.Errorf("%w: ensure %s schema: %w", ErrPersistence, d.name, err)
	}
	return &sqlStore{db: db, dialect: d}, nil
}

func (s *sqlStore) Append(ctx context.Context, record models.RunRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, s.dialect.insert, record.Player, record.ElapsedSeconds, record.LivesLeft); err != nil {
		return fmt.Errorf("%w: insert run: %w", ErrPersistence, err)
	}
	return nil
}

func (s *sqlStore) List(ctx context.Context) ([]models.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.list)
	if err != nil {
		return nil, fmt.Errorf("%w: list runs: %w", ErrPersistence, err)
	}
	defer rows.Close()

	var records []models.RunRecord
	for rows.Next() {
		var r models.RunRecord
		if err := rows.Scan(&r.Player, &r.ElapsedSeconds, &r.LivesLeft); err != nil {
			return nil, fmt.Errorf("%w: scan run: %w", ErrPersistence, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate runs: %w", ErrPersistence, err)
	}
	return records, nil
}

func (s *sqlStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := sqlutil.Run(ctx, s.db, func(tx *sql.Tx) error {
		for _, stmt := range s.dialect.clear {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: clear runs: %w", ErrPersistence, err)
	}
	return nil
}

func (s *sqlStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
