// Package gateway pushes session snapshots and domain events to presentation
// clients over WebSocket and serves the current state over plain HTTP.
package gateway

import (
	"context"
	"net/http"

	"github.com/mcdev12/buzzwire/go/internal/events"
	"github.com/rs/zerolog/log"
)

// Service is the presentation gateway
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	stateProvider     StateProvider
}

type Config struct {
	ConnectionConfig ConnectionConfig
}

func DefaultConfig() Config {
	return Config{ConnectionConfig: DefaultConnectionConfig()}
}

func NewService(config Config, stateProvider StateProvider) *Service {
	s := &Service{stateProvider: stateProvider}
	s.connectionManager = NewConnectionManager(config.ConnectionConfig, s.currentSnapshot)
	s.wsHandler = NewWebSocketHandler(s.connectionManager)
	s.stateHandler = NewStateHandler(stateProvider)
	return s
}

// Start runs the broadcaster until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting session gateway")
	s.connectionManager.Start(ctx)
	log.Info().Msg("session gateway stopped")
	return nil
}

// Emit implements events.Emitter
func (s *Service) Emit(env events.Envelope) {
	s.connectionManager.Broadcast(env)
}

func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	log.Info().Msg("session gateway routes registered")
}

func (s *Service) GetStats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}

func (s *Service) currentSnapshot() (events.Envelope, bool) {
	snap := s.stateProvider.Snapshot()
	if snap == nil {
		return events.Envelope{}, false
	}
	env, err := events.New(events.TypeSnapshotChanged, snap.RunID, snap.UpdatedAt, snap)
	if err != nil {
		log.Error().Err(err).Msg("failed to build snapshot event")
		return events.Envelope{}, false
	}
	return env, true
}
