package main

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/buzzwire/go/internal/config"
	"github.com/mcdev12/buzzwire/go/internal/serial"
	"github.com/mcdev12/buzzwire/go/internal/session"
)

// statusSink receives serial link status changes
type statusSink interface {
	SetSerialStatus(ctx context.Context, status session.SerialStatus) error
}

// runSerial reads the controller until ctx is cancelled or the stream ends,
// reporting the link status to sink. A nil opener means serial is disabled.
// The port is opened once; manual play continues when it is unavailable.
func runSerial(ctx context.Context, cfg config.SerialConfig, open serial.Opener, sink statusSink, out chan<- serial.Event) {
	if open == nil {
		return
	}

	setStatus := func(status session.SerialStatus) {
		if err := sink.SetSerialStatus(ctx, status); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Str("status", string(status)).Msg("failed to report serial status")
		}
	}

	connected := func(ctx context.Context) (io.ReadCloser, error) {
		rc, err := open(ctx)
		if err != nil {
			return nil, err
		}
		log.Info().Str("port", cfg.Port).Int("baud_rate", cfg.BaudRate).Msg("serial port open")
		setStatus(session.SerialConnected)
		return rc, nil
	}

	source := serial.NewSource(connected, serial.SourceConfig{PollInterval: cfg.PollInterval})
	err := source.Run(ctx, out)
	switch {
	case errors.Is(err, serial.ErrTransportUnavailable):
		log.Error().Err(err).Str("port", cfg.Port).Msg("serial controller unavailable, continuing with manual play")
		setStatus(session.SerialUnavailable)
	case err != nil:
		log.Error().Err(err).Msg("serial reader failed")
		setStatus(session.SerialClosed)
	default:
		if ctx.Err() == nil {
			setStatus(session.SerialClosed)
		}
	}
}
