package session

import (
	"context"

	"github.com/mcdev12/buzzwire/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Start begins a fresh run from any phase
func (m *Machine) Start(ctx context.Context) error {
	return m.do(ctx, "start", func(context.Context) error {
		m.start(TriggerIntent)
		return nil
	})
}

// StopClock pauses the race clock of the current run. The run stays live and
// nothing is recorded.
func (m *Machine) StopClock(ctx context.Context) error {
	return m.do(ctx, "stop_clock", func(context.Context) error {
		if !m.st.running {
			return ErrNotRunning
		}
		m.race.Stop()
		log.Debug().Str("run_id", m.st.runID).Msg("race clock paused")
		return nil
	})
}

// ResumeClock continues a paused run without resetting its time
func (m *Machine) ResumeClock(ctx context.Context) error {
	return m.do(ctx, "resume_clock", func(context.Context) error {
		if !m.st.running {
			return ErrNotRunning
		}
		m.race.Start()
		log.Debug().Str("run_id", m.st.runID).Msg("race clock resumed")
		return nil
	})
}

// Finish ends the current run as completed
func (m *Machine) Finish(ctx context.Context) error {
	return m.do(ctx, "finish", func(context.Context) error {
		if !m.st.running {
			return ErrNotRunning
		}
		m.end(models.RunOutcomeFinished)
		return nil
	})
}

// SubmitName records the pending run under name and reloads the leaderboard.
// On a persistence failure the run stays pending so the name can be retried.
func (m *Machine) SubmitName(ctx context.Context, name string) error {
	return m.do(ctx, "submit_name", func(ctx context.Context) error {
		return m.submitName(ctx, name)
	})
}

// CancelNaming discards the pending run and applies the cancel policy
func (m *Machine) CancelNaming(ctx context.Context) error {
	return m.do(ctx, "cancel_naming", func(context.Context) error {
		return m.cancelNaming()
	})
}

// ClearLeaderboard removes every stored run
func (m *Machine) ClearLeaderboard(ctx context.Context) error {
	return m.do(ctx, "clear_leaderboard", m.clearLeaderboard)
}

// SetSerialStatus records the state of the controller link
func (m *Machine) SetSerialStatus(ctx context.Context, status SerialStatus) error {
	return m.do(ctx, "set_serial_status", func(context.Context) error {
		if m.st.serial != status {
			log.Info().Str("from", string(m.st.serial)).Str("to", string(status)).Msg("serial status changed")
		}
		m.st.serial = status
		return nil
	})
}
