package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ErrTransportUnavailable is returned once when the transport cannot be opened
var ErrTransportUnavailable = errors.New("serial transport unavailable")

// Opener opens the underlying byte stream. A Read that returns (0, nil) means
// no data was available yet.
type Opener func(ctx context.Context) (io.ReadCloser, error)

// SourceConfig holds tuning for the reader loop
type SourceConfig struct {
	PollInterval time.Duration
	ReadBufSize  int
	Clock        clockwork.Clock
}

// DefaultSourceConfig returns the reader defaults
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		PollInterval: 20 * time.Millisecond,
		ReadBufSize:  1024,
		Clock:        clockwork.NewRealClock(),
	}
}

// Source reads controller events from a transport. Run may be called once.
type Source struct {
	open Opener
	cfg  SourceConfig
}

// NewSource creates a Source over the given opener
func NewSource(open Opener, cfg SourceConfig) *Source {
	def := DefaultSourceConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.ReadBufSize <= 0 {
		cfg.ReadBufSize = def.ReadBufSize
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	return &Source{open: open, cfg: cfg}
}

// Run opens the transport and delivers events to out, in arrival order, until
// ctx is cancelled or the stream ends. The transport is closed on every return
// path. A failed open returns ErrTransportUnavailable without retrying.
func (s *Source) Run(ctx context.Context, out chan<- Event) error {
	rc, err := s.open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransportUnavailable, err)
	}

	var once sync.Once
	closeTransport := func() {
		once.Do(func() {
			if err := rc.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close serial transport")
			}
		})
	}
	defer closeTransport()
	// closing unblocks a Read that is waiting for data
	stop := context.AfterFunc(ctx, closeTransport)
	defer stop()

	log.Info().Msg("serial reader started")

	var dec Decoder
	buf := make([]byte, s.cfg.ReadBufSize)
	for {
		n, err := rc.Read(buf)
		if n > 0 {
			for _, ev := range dec.Feed(buf[:n]) {
				if !s.deliver(ctx, out, ev) {
					log.Info().Msg("serial reader stopped")
					return nil
				}
			}
		}

		if err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("serial reader stopped")
				return nil
			}
			if errors.Is(err, io.EOF) {
				if ev, ok := dec.Flush(); ok {
					s.deliver(ctx, out, ev)
				}
				log.Info().Msg("serial stream ended")
				return nil
			}
			return fmt.Errorf("read serial: %w", err)
		}

		if n == 0 {
			select {
			case <-ctx.Done():
				log.Info().Msg("serial reader stopped")
				return nil
			case <-s.cfg.Clock.After(s.cfg.PollInterval):
			}
		}
	}
}

func (s *Source) deliver(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		log.Debug().Str("event", ev.String()).Msg("serial event")
		return true
	case <-ctx.Done():
		return false
	}
}
