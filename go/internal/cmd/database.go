package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/buzzwire/go/internal/config"
	"github.com/mcdev12/buzzwire/go/internal/dbconfig"
	"github.com/mcdev12/buzzwire/go/internal/scorestore"
)

// setupStore opens the score store named by the config. A postgres store
// without a DSN is built from the DB_* environment variables.
func setupStore(ctx context.Context, cfg config.StoreConfig) (scorestore.Store, error) {
	location := cfg.Path
	target := cfg.Path

	if cfg.Driver == scorestore.DriverPostgres {
		location = cfg.DSN
		target = "dsn"
		if location == "" {
			dbCfg, err := dbconfig.NewConfigFromEnv()
			if err != nil {
				return nil, err
			}
			location = dbCfg.DSN()
			target = dbCfg.Redacted()
		}
	}

	store, err := scorestore.Open(ctx, cfg.Driver, location)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s score store: %w", cfg.Driver, err)
	}

	log.Info().
		Str("driver", cfg.Driver).
		Str("location", target).
		Msg("score store ready")
	return store, nil
}
