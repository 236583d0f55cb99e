package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/buzzwire/go/internal/models"
)

var (
	ErrInvalidName    = errors.New("invalid player name")
	ErrNoPendingRun   = errors.New("no completed run awaiting a name")
	ErrNotRunning     = errors.New("no run in progress")
	ErrMachineStopped = errors.New("session machine stopped")
	ErrInvalidConfig  = errors.New("invalid session config")
)

// Phase is the externally visible session phase
type Phase string

const (
	PhaseIdle    Phase = "IDLE"
	PhaseRunning Phase = "RUNNING"
	PhasePaused  Phase = "PAUSED"
	PhaseOver    Phase = "OVER"
)

// CancelPolicy decides what follows a discarded run
type CancelPolicy string

const (
	CancelRestart CancelPolicy = "restart"
	CancelIdle    CancelPolicy = "idle"
)

// SerialStatus describes the controller link
type SerialStatus string

const (
	SerialDisabled    SerialStatus = "disabled"
	SerialConnecting  SerialStatus = "connecting"
	SerialConnected   SerialStatus = "connected"
	SerialUnavailable SerialStatus = "unavailable"
	SerialClosed      SerialStatus = "closed"
)

// Start triggers, reported on run.started events
const (
	TriggerIntent = "intent"
	TriggerSerial = "serial"
	TriggerAuto   = "auto_start"
	TriggerCancel = "cancel_policy"
)

// Config holds the session rules
type Config struct {
	StartingLives int
	MaxDuration   time.Duration
	CancelPolicy  CancelPolicy
	CancelGrace   time.Duration
	AutoStart     bool
	SerialStatus  SerialStatus
	TickPeriod    time.Duration
	Clock         clockwork.Clock
}

// DefaultConfig returns the standard game rules
func DefaultConfig() Config {
	return Config{
		StartingLives: 9,
		MaxDuration:   180 * time.Second,
		CancelPolicy:  CancelRestart,
		CancelGrace:   time.Second,
		SerialStatus:  SerialDisabled,
		TickPeriod:    time.Second,
		Clock:         clockwork.NewRealClock(),
	}
}

// Validate checks the config for values the machine cannot run with
func (c Config) Validate() error {
	if c.StartingLives <= 0 {
		return fmt.Errorf("%w: starting lives must be positive", ErrInvalidConfig)
	}
	if c.MaxDuration < time.Second {
		return fmt.Errorf("%w: max duration must be at least one second", ErrInvalidConfig)
	}
	switch c.CancelPolicy {
	case CancelRestart, CancelIdle:
	default:
		return fmt.Errorf("%w: unknown cancel policy %q", ErrInvalidConfig, c.CancelPolicy)
	}
	if c.CancelGrace < 0 {
		return fmt.Errorf("%w: cancel grace must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Completion is a terminal run waiting for a name. It is consumed exactly once.
type Completion struct {
	RunID          string            `json:"run_id"`
	ElapsedSeconds int               `json:"elapsed_seconds"`
	LivesLeft      int               `json:"lives_left"`
	Outcome        models.RunOutcome `json:"outcome"`
	CompletedAt    time.Time         `json:"completed_at"`
}

// Snapshot is an immutable view of the session. Never modify a Snapshot
// obtained from the machine.
type Snapshot struct {
	RunID              string                    `json:"run_id,omitempty"`
	Phase              Phase                     `json:"phase"`
	ElapsedSeconds     int                       `json:"elapsed_seconds"`
	ElapsedFormatted   string                    `json:"elapsed_formatted"`
	LivesLeft          int                       `json:"lives_left"`
	ClockRunning       bool                      `json:"clock_running"`
	Pending            *Completion               `json:"pending,omitempty"`
	Leaderboard        []models.LeaderboardEntry `json:"leaderboard"`
	LeaderboardVersion int                       `json:"leaderboard_version"`
	SerialStatus       SerialStatus              `json:"serial_status"`
	Warning            string                    `json:"warning,omitempty"`
	LastEventAt        *time.Time                `json:"last_event_at,omitempty"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}
