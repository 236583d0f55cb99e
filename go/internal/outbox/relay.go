package outbox

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/buzzwire/go/internal/events"
	"github.com/rs/zerolog/log"
)

type Config struct {
	QueueSize   int
	MaxRetries  int
	RetryDelay  time.Duration
	IgnoreTypes []string
	Clock       clockwork.Clock
}

func DefaultConfig() Config {
	return Config{
		QueueSize:   256,
		MaxRetries:  3,
		RetryDelay:  time.Second,
		IgnoreTypes: []string{events.TypeSnapshotChanged},
		Clock:       clockwork.NewRealClock(),
	}
}

// Relay is a bounded in-memory outbox. Emit enqueues without blocking and
// drops the event when the queue is full; Run publishes in FIFO order.
type Relay struct {
	publisher EventPublisher
	config    Config
	queue     chan events.Envelope

	running   atomic.Bool
	processed atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64

	mu        sync.Mutex
	lastEvent time.Time
}

func NewRelay(publisher EventPublisher, cfg Config) *Relay {
	def := DefaultConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	return &Relay{
		publisher: publisher,
		config:    cfg,
		queue:     make(chan events.Envelope, cfg.QueueSize),
	}
}

// Emit implements events.Emitter
func (r *Relay) Emit(env events.Envelope) {
	if slices.Contains(r.config.IgnoreTypes, env.Type) {
		return
	}
	select {
	case r.queue <- env:
	default:
		r.dropped.Add(1)
		log.Warn().
			Str("event_id", env.ID.String()).
			Str("event_type", env.Type).
			Msg("outbox queue full, dropping event")
	}
}

// Run publishes queued events until ctx is cancelled
func (r *Relay) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return fmt.Errorf("outbox relay already running")
	}
	defer r.running.Store(false)

	log.Info().
		Int("queue_size", r.config.QueueSize).
		Int("max_retries", r.config.MaxRetries).
		Msg("outbox relay started")

	for {
		select {
		case <-ctx.Done():
			if n := len(r.queue); n > 0 {
				log.Warn().Int("pending", n).Msg("outbox relay stopped with unpublished events")
			} else {
				log.Info().Msg("outbox relay stopped")
			}
			return nil
		case env := <-r.queue:
			if err := r.publishWithRetry(ctx, env); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				r.failed.Add(1)
				log.Error().
					Err(err).
					Str("event_id", env.ID.String()).
					Str("event_type", env.Type).
					Msg("failed to publish event")
				continue
			}
			r.processed.Add(1)
			r.mu.Lock()
			r.lastEvent = r.config.Clock.Now()
			r.mu.Unlock()
		}
	}
}

func (r *Relay) publishWithRetry(ctx context.Context, env events.Envelope) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.config.Clock.After(r.config.RetryDelay * time.Duration(attempt)):
			}
		}

		if err := r.publisher.Publish(ctx, env); err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Str("event_id", env.ID.String()).
				Int("attempt", attempt+1).
				Msg("failed to publish event, retrying")
			continue
		}
		return nil
	}

	return fmt.Errorf("failed after %d attempts: %w", r.config.MaxRetries+1, lastErr)
}

// Stats returns the relay counters
func (r *Relay) Stats() Stats {
	r.mu.Lock()
	last := r.lastEvent
	r.mu.Unlock()
	return Stats{
		Running:    r.running.Load(),
		Processed:  r.processed.Load(),
		Dropped:    r.dropped.Load(),
		Failed:     r.failed.Load(),
		QueueDepth: len(r.queue),
		LastEvent:  last,
	}
}

type Stats struct {
	Running    bool
	Processed  uint64
	Dropped    uint64
	Failed     uint64
	QueueDepth int
	LastEvent  time.Time
}
