package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/buzzwire/go/internal/api"
	"github.com/mcdev12/buzzwire/go/internal/config"
	"github.com/mcdev12/buzzwire/go/internal/events"
	"github.com/mcdev12/buzzwire/go/internal/gateway"
	"github.com/mcdev12/buzzwire/go/internal/outbox"
	"github.com/mcdev12/buzzwire/go/internal/scorestore"
	"github.com/mcdev12/buzzwire/go/internal/serial"
	"github.com/mcdev12/buzzwire/go/internal/session"
)

type Services struct {
	Store   scorestore.Store
	Machine *session.Machine
	Gateway *gateway.Service
	Relay   *outbox.Relay
	Health  *outbox.HealthChecker
	API     *api.Service
	Opener  serial.Opener

	closers []func() error
}

// snapshotSource defers to the machine once it has been created. The
// gateway needs a state provider before the machine exists.
type snapshotSource struct {
	machine *session.Machine
}

func (s *snapshotSource) Snapshot() *session.Snapshot {
	if s.machine == nil {
		return nil
	}
	return s.machine.Snapshot()
}

func setupServices(ctx context.Context, cfg config.Config) (*Services, error) {
	// Wire up dependency injection chain
	// Store → Publishers → Gateway → Session machine → RPC service
	services := &Services{}

	store, err := setupStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	services.Store = store
	services.closers = append(services.closers, store.Close)

	publisher, conn, err := setupPublisher(ctx, cfg.NATS)
	if err != nil {
		services.Close()
		return nil, err
	}
	var checker outbox.ConnectionChecker
	if conn != nil {
		checker = conn
		services.closers = append(services.closers, conn.Close)
	}
	services.Relay = outbox.NewRelay(publisher, outbox.DefaultConfig())
	services.Health = outbox.NewHealthChecker(services.Relay, checker)

	source := &snapshotSource{}
	services.Gateway = gateway.NewService(gateway.DefaultConfig(), source)

	machine, err := session.New(sessionConfig(cfg), store, events.Emitters{services.Gateway, services.Relay})
	if err != nil {
		services.Close()
		return nil, fmt.Errorf("failed to create session machine: %w", err)
	}
	source.machine = machine
	services.Machine = machine
	services.API = api.NewService(machine)

	if cfg.Serial.Enabled {
		services.Opener = serial.PortOpener(serial.PortConfig{
			Name:        cfg.Serial.Port,
			BaudRate:    cfg.Serial.BaudRate,
			ReadTimeout: cfg.Serial.ReadTimeout,
		})
	}

	return services, nil
}

// setupPublisher picks JetStream when a NATS URL is configured and falls
// back to logging events otherwise.
func setupPublisher(ctx context.Context, cfg config.NATSConfig) (outbox.EventPublisher, *outbox.JetStreamPublisher, error) {
	if cfg.URL == "" {
		log.Info().Msg("nats url not set, domain events will be logged")
		return outbox.LogPublisher{}, nil, nil
	}

	jsCfg := outbox.DefaultJetStreamConfig()
	jsCfg.URL = cfg.URL
	if cfg.Stream != "" {
		jsCfg.StreamName = cfg.Stream
	}
	if cfg.SubjectPrefix != "" {
		jsCfg.SubjectPrefix = cfg.SubjectPrefix
	}

	publisher, err := outbox.NewJetStreamPublisher(ctx, jsCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create JetStream publisher: %w", err)
	}
	return publisher, publisher, nil
}

func sessionConfig(cfg config.Config) session.Config {
	sc := session.DefaultConfig()
	sc.StartingLives = cfg.Session.StartingLives
	sc.MaxDuration = cfg.Session.MaxDuration
	sc.CancelPolicy = session.CancelPolicy(cfg.Session.CancelPolicy)
	sc.CancelGrace = cfg.Session.CancelGrace
	sc.AutoStart = cfg.Session.AutoStart
	if cfg.Serial.Enabled {
		sc.SerialStatus = session.SerialConnecting
	} else {
		sc.SerialStatus = session.SerialDisabled
	}
	return sc
}

// Close releases the store and the NATS connection, newest first
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Error().Err(err).Msg("failed to close resource")
		}
	}
	s.closers = nil
}
