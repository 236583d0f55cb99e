package outbox

import (
	"context"

	"github.com/mcdev12/buzzwire/go/internal/events"
	"github.com/rs/zerolog/log"
)

// LogPublisher writes events to the log. Used when no stream is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, env events.Envelope) error {
	log.Info().
		Str("event_id", env.ID.String()).
		Str("event_type", env.Type).
		Str("run_id", env.RunID).
		RawJSON("payload", env.Payload).
		Msg("publishing event")
	return nil
}
