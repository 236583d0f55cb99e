// Package scorestore persists completed runs.
package scorestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mcdev12/buzzwire/go/internal/models"
)

// ErrPersistence wraps every store I/O failure
var ErrPersistence = errors.New("persistence error")

// ErrInvalidRecord is returned when a record cannot be stored as-is
var ErrInvalidRecord = errors.New("invalid run record")

// Store is an append-only record store of completed runs. Implementations
// serialise Append and Clear.
type Store interface {
	Append(ctx context.Context, record models.RunRecord) error
	List(ctx context.Context) ([]models.RunRecord, error)
	Clear(ctx context.Context) error
	Close() error
}

// Driver names accepted by Open
const (
	DriverCSV      = "csv"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open creates the store for the given driver. location is a file path for
// csv and sqlite and a DSN for postgres.
func Open(ctx context.Context, driver, location string) (Store, error) {
	switch driver {
	case DriverCSV:
		return NewCSVStore(location), nil
	case DriverSQLite:
		store, err := OpenSQLite(ctx, location)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverPostgres:
		store, err := OpenPostgres(ctx, location)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// validateRecord checks the invariants every stored record must hold. Player
// names with separators are refused because the file format does not escape.
func validateRecord(r models.RunRecord) error {
	if strings.TrimSpace(r.Player) == "" {
		return fmt.Errorf("%w: player is required", ErrInvalidRecord)
	}
	if r.Player != strings.TrimSpace(r.Player) {
		return fmt.Errorf("%w: player must be trimmed", ErrInvalidRecord)
	}
	if strings.ContainsAny(r.Player, ",\r\n") {
		return fmt.Errorf("%w: player contains a separator", ErrInvalidRecord)
	}
	if r.ElapsedSeconds < 0 {
		return fmt.Errorf("%w: elapsed seconds must be >= 0", ErrInvalidRecord)
	}
	if r.LivesLeft < 0 {
		return fmt.Errorf("%w: lives left must be >= 0", ErrInvalidRecord)
	}
	return nil
}
