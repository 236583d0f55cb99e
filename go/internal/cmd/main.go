package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/buzzwire/go/internal/config"
	"github.com/mcdev12/buzzwire/go/internal/serial"
)

func main() {
	// load .env
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load(config.ResolvePath())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("buzzwire exited with error")
		os.Exit(1)
	}
	log.Info().Msg("graceful shutdown complete")
}

func setupLogging(cfg config.LogConfig) {
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// run wires the components and blocks until ctx is cancelled or one of
// the workers fails.
func run(ctx context.Context, cfg config.Config) error {
	services, err := setupServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Close()

	server := setupServer(cfg.Server, services)

	g, ctx := errgroup.WithContext(ctx)

	// the machine consumes serial events; the source feeds them
	serialCh := make(chan serial.Event)

	g.Go(func() error {
		return services.Machine.Run(ctx, serialCh)
	})
	g.Go(func() error {
		return services.Relay.Run(ctx)
	})
	g.Go(func() error {
		return services.Gateway.Start(ctx)
	})
	g.Go(func() error {
		runSerial(ctx, cfg.Serial, services.Opener, services.Machine, serialCh)
		return nil
	})
	g.Go(func() error {
		return serve(ctx, server)
	})

	log.Info().
		Int("port", cfg.Server.Port).
		Str("store", cfg.Store.Driver).
		Bool("serial", cfg.Serial.Enabled).
		Msg("buzzwire started")

	return g.Wait()
}
