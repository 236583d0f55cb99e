// Package session owns the state of the buzz wire game. One Machine
// reconciles controller events, the race clock and user intents in a single
// event loop and publishes immutable snapshots for readers.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/buzzwire/go/internal/events"
	"github.com/mcdev12/buzzwire/go/internal/leaderboard"
	"github.com/mcdev12/buzzwire/go/internal/models"
	"github.com/mcdev12/buzzwire/go/internal/raceclock"
	"github.com/mcdev12/buzzwire/go/internal/serial"
	"github.com/rs/zerolog/log"
)

// Store is the persistence the machine needs
type Store interface {
	Append(ctx context.Context, record models.RunRecord) error
	List(ctx context.Context) ([]models.RunRecord, error)
	Clear(ctx context.Context) error
}

type command struct {
	name  string
	apply func(ctx context.Context) error
	reply chan error
}

// state is owned by the loop goroutine
type state struct {
	runID       string
	running     bool // false in Idle and Over
	over        bool
	lives       int
	pending     *Completion
	board       []models.LeaderboardEntry
	boardVer    int
	serial      SerialStatus
	warning     string
	lastEventAt time.Time
}

// Machine is the session state machine. Intents may be called from any
// goroutine; they are applied in order by Run.
type Machine struct {
	cfg   Config
	clock clockwork.Clock
	race  *raceclock.RaceClock
	store Store
	board *leaderboard.Board
	emit  events.Emitter

	inbox   chan command
	started atomic.Bool
	done    chan struct{}
	snap    atomic.Pointer[Snapshot]

	st      state
	grace   clockwork.Timer
	graceCh <-chan time.Time
}

// New creates a machine in the Idle phase. emit may be nil.
func New(cfg Config, store Store, emit events.Emitter) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.SerialStatus == "" {
		cfg.SerialStatus = SerialDisabled
	}
	if emit == nil {
		emit = events.Emitters(nil)
	}

	m := &Machine{
		cfg:   cfg,
		clock: cfg.Clock,
		race:  raceclock.New(cfg.Clock, cfg.TickPeriod),
		store: store,
		board: leaderboard.NewBoard(store),
		emit:  emit,
		inbox: make(chan command),
		done:  make(chan struct{}),
		st: state{
			lives:  cfg.StartingLives,
			serial: cfg.SerialStatus,
		},
	}
	m.snap.Store(m.buildSnapshot())
	return m, nil
}

// Snapshot returns the latest published snapshot. It never blocks.
func (m *Machine) Snapshot() *Snapshot {
	return m.snap.Load()
}

// Done is closed when Run has returned
func (m *Machine) Done() <-chan struct{} {
	return m.done
}

// Run processes controller events, clock ticks and intents until ctx is
// cancelled. serialCh may be nil when no controller is attached. Run may only
// be called once.
func (m *Machine) Run(ctx context.Context, serialCh <-chan serial.Event) error {
	if !m.started.CompareAndSwap(false, true) {
		return fmt.Errorf("session machine already running")
	}
	defer close(m.done)
	defer m.race.Stop()
	defer m.cancelGrace()

	m.reloadLeaderboard(ctx)
	if m.cfg.AutoStart {
		m.start(TriggerAuto)
	}
	m.publish()

	log.Info().
		Int("starting_lives", m.cfg.StartingLives).
		Dur("max_duration", m.cfg.MaxDuration).
		Str("cancel_policy", string(m.cfg.CancelPolicy)).
		Msg("session machine started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("session machine stopped")
			return nil

		case cmd := <-m.inbox:
			err := cmd.apply(ctx)
			if err != nil {
				log.Debug().Err(err).Str("intent", cmd.name).Msg("intent rejected")
			}
			m.publish()
			cmd.reply <- err
			continue

		case ev, ok := <-serialCh:
			if !ok {
				serialCh = nil
				continue
			}
			m.handleSerial(ev)

		case <-m.race.Ticks():
			m.handleTick()

		case <-m.graceCh:
			m.graceCh = nil
			m.grace = nil
			log.Debug().Msg("cancel grace elapsed")
			m.start(TriggerCancel)
		}
		m.publish()
	}
}

// do hands fn to the loop and waits for its result
func (m *Machine) do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	cmd := command{name: name, apply: fn, reply: make(chan error, 1)}
	select {
	case m.inbox <- cmd:
	case <-m.done:
		return ErrMachineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Machine) handleSerial(ev serial.Event) {
	m.st.lastEventAt = m.clock.Now()

	switch ev.Kind {
	case serial.KindRestart:
		m.start(TriggerSerial)
	case serial.KindResetTimer:
		m.resetTimer()
	case serial.KindLivesUpdate:
		if !m.st.running {
			log.Debug().Int("lives", ev.Lives).Msg("ignoring lives update outside a run")
			return
		}
		m.st.lives = ev.Lives
		if ev.Lives <= 0 {
			m.end(models.RunOutcomeOutOfLives)
		}
	}
}

func (m *Machine) handleTick() {
	if !m.st.running || !m.race.Running() {
		return
	}
	if time.Duration(m.race.Elapsed())*time.Second >= m.cfg.MaxDuration {
		m.end(models.RunOutcomeTimeout)
	}
}

// start enters Running with a fresh run. Any pending completion is discarded.
func (m *Machine) start(trigger string) {
	m.cancelGrace()
	if m.st.pending != nil {
		m.discard("superseded")
	}

	m.st.runID = uuid.NewString()
	m.st.running = true
	m.st.over = false
	m.st.lives = m.cfg.StartingLives
	m.race.Reset()
	m.race.Start()

	now := m.clock.Now()
	log.Info().
		Str("run_id", m.st.runID).
		Str("trigger", trigger).
		Msg("run started")
	m.publishEvent(events.TypeRunStarted, events.RunStartedPayload{
		RunID:         m.st.runID,
		StartingLives: m.cfg.StartingLives,
		Trigger:       trigger,
		StartedAt:     now.UTC(),
	})
}

// end moves a running session to Over and captures the pending completion
func (m *Machine) end(outcome models.RunOutcome) {
	m.race.Stop()
	m.st.running = false
	m.st.over = true

	now := m.clock.Now()
	m.st.pending = &Completion{
		RunID:          m.st.runID,
		ElapsedSeconds: m.race.Elapsed(),
		LivesLeft:      max(m.st.lives, 0),
		Outcome:        outcome,
		CompletedAt:    now.UTC(),
	}

	log.Info().
		Str("run_id", m.st.runID).
		Str("outcome", string(outcome)).
		Int("elapsed_seconds", m.st.pending.ElapsedSeconds).
		Int("lives_left", m.st.pending.LivesLeft).
		Msg("run over")
	m.publishEvent(events.TypeRunOver, events.RunOverPayload{
		RunID:          m.st.runID,
		Outcome:        string(outcome),
		ElapsedSeconds: m.st.pending.ElapsedSeconds,
		LivesLeft:      m.st.pending.LivesLeft,
		EndedAt:        now.UTC(),
	})
}

// resetTimer zeroes the clock. Only a live run keeps counting afterwards.
func (m *Machine) resetTimer() {
	m.race.Reset()
	if m.st.running {
		m.race.Start()
	}
	log.Debug().Str("run_id", m.st.runID).Msg("race clock reset")
}

func (m *Machine) discard(reason string) {
	runID := m.st.pending.RunID
	m.st.pending = nil
	log.Info().Str("run_id", runID).Str("reason", reason).Msg("run discarded")

	payload := events.RunDiscardedPayload{RunID: runID, Reason: reason}
	if reason == "cancelled" {
		payload.CancelPolicy = string(m.cfg.CancelPolicy)
	}
	m.publishEvent(events.TypeRunDiscarded, payload)
}

func (m *Machine) submitName(ctx context.Context, name string) error {
	if m.st.pending == nil {
		return ErrNoPendingRun
	}
	name, err := normalizeName(name)
	if err != nil {
		return err
	}

	pending := m.st.pending
	record := models.RunRecord{
		Player:         name,
		ElapsedSeconds: pending.ElapsedSeconds,
		LivesLeft:      pending.LivesLeft,
	}
	if err := m.store.Append(ctx, record); err != nil {
		m.st.warning = "could not save run: " + err.Error()
		log.Error().Err(err).Str("run_id", pending.RunID).Str("player", name).Msg("failed to save run")
		return fmt.Errorf("save run: %w", err)
	}

	m.st.pending = nil
	m.st.warning = ""
	m.reloadLeaderboard(ctx)

	log.Info().
		Str("run_id", pending.RunID).
		Str("player", name).
		Int("elapsed_seconds", record.ElapsedSeconds).
		Int("lives_left", record.LivesLeft).
		Msg("run recorded")
	m.publishEvent(events.TypeRunRecorded, events.RunRecordedPayload{
		RunID:          pending.RunID,
		Player:         name,
		ElapsedSeconds: record.ElapsedSeconds,
		LivesLeft:      record.LivesLeft,
		Score:          leaderboard.Score(record),
		Rank:           leaderboard.PositionOf(m.st.board, record),
	})
	return nil
}

func (m *Machine) cancelNaming() error {
	if m.st.pending == nil {
		return ErrNoPendingRun
	}
	m.discard("cancelled")

	switch m.cfg.CancelPolicy {
	case CancelIdle:
		m.st.over = false
		m.st.lives = m.cfg.StartingLives
		m.race.Reset()
	default:
		m.armGrace()
	}
	return nil
}

func (m *Machine) clearLeaderboard(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		m.st.warning = "could not clear leaderboard: " + err.Error()
		log.Error().Err(err).Msg("failed to clear leaderboard")
		return fmt.Errorf("clear leaderboard: %w", err)
	}
	m.st.warning = ""
	m.reloadLeaderboard(ctx)

	log.Info().Msg("leaderboard cleared")
	m.publishEvent(events.TypeLeaderboardCleared, events.LeaderboardClearedPayload{
		ClearedAt: m.clock.Now().UTC(),
	})
	return nil
}

// reloadLeaderboard keeps the previous board if the store cannot be read
func (m *Machine) reloadLeaderboard(ctx context.Context) {
	entries, err := m.board.Load(ctx)
	if err != nil {
		m.st.warning = "could not load leaderboard: " + err.Error()
		log.Error().Err(err).Msg("leaderboard reload failed")
		return
	}
	m.st.board = entries
	m.st.boardVer++
}

func (m *Machine) armGrace() {
	m.cancelGrace()
	if m.cfg.CancelGrace <= 0 {
		m.start(TriggerCancel)
		return
	}
	m.grace = m.clock.NewTimer(m.cfg.CancelGrace)
	m.graceCh = m.grace.Chan()
}

func (m *Machine) cancelGrace() {
	if m.grace == nil {
		return
	}
	stopAndDrainTimer(m.grace)
	m.grace = nil
	m.graceCh = nil
}

// stopAndDrainTimer stops a timer and drains a value that already fired
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

func (m *Machine) phase() Phase {
	switch {
	case m.st.running && !m.race.Running():
		return PhasePaused
	case m.st.running:
		return PhaseRunning
	case m.st.over:
		return PhaseOver
	default:
		return PhaseIdle
	}
}

func (m *Machine) buildSnapshot() *Snapshot {
	elapsed := m.race.Elapsed()
	snap := &Snapshot{
		RunID:              m.st.runID,
		Phase:              m.phase(),
		ElapsedSeconds:     elapsed,
		ElapsedFormatted:   leaderboard.FormatElapsed(elapsed),
		LivesLeft:          m.st.lives,
		ClockRunning:       m.race.Running(),
		Leaderboard:        m.st.board,
		LeaderboardVersion: m.st.boardVer,
		SerialStatus:       m.st.serial,
		Warning:            m.st.warning,
		UpdatedAt:          m.clock.Now().UTC(),
	}
	if snap.Leaderboard == nil {
		snap.Leaderboard = []models.LeaderboardEntry{}
	}
	if m.st.pending != nil {
		p := *m.st.pending
		snap.Pending = &p
	}
	if !m.st.lastEventAt.IsZero() {
		at := m.st.lastEventAt.UTC()
		snap.LastEventAt = &at
	}
	return snap
}

func (m *Machine) publish() {
	snap := m.buildSnapshot()
	m.snap.Store(snap)
	m.publishEvent(events.TypeSnapshotChanged, snap)
}

func (m *Machine) publishEvent(eventType string, payload any) {
	env, err := events.New(eventType, m.st.runID, m.clock.Now(), payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to build event")
		return
	}
	m.emit.Emit(env)
}

// normalizeName trims the name and rejects what the score file cannot hold
func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if strings.ContainsAny(name, ",\r\n") {
		return "", fmt.Errorf("%w: name must not contain commas or line breaks", ErrInvalidName)
	}
	return name, nil
}
