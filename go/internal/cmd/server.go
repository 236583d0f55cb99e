package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/buzzwire/go/internal/api"
	"github.com/mcdev12/buzzwire/go/internal/config"
)

const shutdownTimeout = 5 * time.Second

func setupServer(cfg config.ServerConfig, services *Services) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	// Register services
	registerServices(mux, services)

	// Add health check and metrics endpoints
	setupHealthCheck(mux, services)

	// Wrap with CORS
	handler := c.Handler(mux)

	// Setup HTTP/2 server
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func registerServices(mux *http.ServeMux, services *Services) {
	// Register session intent service
	sessionServicePath, sessionServiceHandler := api.NewSessionServiceHandler(services.API)
	mux.Handle(sessionServicePath, sessionServiceHandler)

	// Register websocket feed and pull endpoints
	services.Gateway.RegisterRoutes(mux)
}

func setupHealthCheck(mux *http.ServeMux, services *Services) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})

	mux.Handle("GET /health/outbox", services.Health)

	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		if err := services.Health.WriteMetrics(w); err != nil {
			log.Error().Err(err).Msg("failed to write outbox metrics")
			return
		}
		stats := services.Gateway.GetStats()
		if _, err := fmt.Fprintf(w, `
# HELP buzzwire_gateway_connections Connected presentation clients
# TYPE buzzwire_gateway_connections gauge
buzzwire_gateway_connections %d
`, stats.TotalConnections); err != nil {
			log.Error().Err(err).Msg("failed to write gateway metrics")
		}
	})
}

// serve runs the server until ctx is cancelled, then shuts it down
func serve(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	log.Info().Msg("http server stopped")
	return nil
}
