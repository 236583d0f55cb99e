package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/mcdev12/buzzwire/go/internal/dbconfig"
	"github.com/mcdev12/buzzwire/go/internal/models"
	"github.com/mcdev12/buzzwire/go/internal/scorestore"
)

func main() {
	path := flag.String("csv", "scores.csv", "leaderboard CSV to import")
	replace := flag.Bool("replace", false, "delete existing runs before importing")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env file: %v\n", err)
	}

	ctx := context.Background()

	// 1) Load the CSV leaderboard
	records, err := loadRuns(ctx, *path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read CSV: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg, err := dbconfig.NewConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "db config: %v\n", err)
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Copy inside one transaction
	imported, err := importRuns(ctx, pool, records, *replace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "import runs: %v\n", err)
		os.Exit(1)
	}

	// 4) Print summary
	fmt.Printf(
		"Score import complete: %d read from %s, %d copied into %s\n",
		len(records), *path, imported, scorestore.PostgresTable,
	)
}

// loadRuns reads the leaderboard file. Unlike the store, a missing file is
// an error here: there is nothing to import.
func loadRuns(ctx context.Context, path string) ([]models.RunRecord, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return scorestore.NewCSVStore(path).List(ctx)
}

var runColumns = []string{"player", "elapsed_seconds", "lives_left"}

func runRows(records []models.RunRecord) pgx.CopyFromSource {
	return pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
		r := records[i]
		return []any{r.Player, int32(r.ElapsedSeconds), int32(r.LivesLeft)}, nil
	})
}

func importRuns(ctx context.Context, pool *pgxpool.Pool, records []models.RunRecord, replace bool) (int64, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, scorestore.PostgresSchema); err != nil {
		return 0, fmt.Errorf("ensure schema: %w", err)
	}
	if replace {
		if _, err := tx.Exec(ctx, "DELETE FROM "+scorestore.PostgresTable); err != nil {
			return 0, fmt.Errorf("clear runs: %w", err)
		}
	}

	n, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{scorestore.PostgresTable},
		runColumns,
		runRows(records),
	)
	if err != nil {
		return 0, fmt.Errorf("copy runs: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}
