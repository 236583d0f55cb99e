// Package outbox relays domain events from the session to an external
// stream without ever blocking the session loop.
package outbox

import (
	"context"

	"github.com/mcdev12/buzzwire/go/internal/events"
)

// EventPublisher delivers one event to the outside world
type EventPublisher interface {
	Publish(ctx context.Context, env events.Envelope) error
}
