// Package raceclock counts the elapsed whole seconds of a run.
//
// Elapsed time is derived from the underlying clock, never from the number of
// ticks received, so a slow consumer cannot make the count drift. Ticks only
// tell the consumer that the whole-second value may have changed.
package raceclock

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTickPeriod is how often a running clock notifies its consumer
const DefaultTickPeriod = time.Second

// RaceClock is a pausable stopwatch. All methods are safe for concurrent use.
type RaceClock struct {
	clock  clockwork.Clock
	period time.Duration

	mu      sync.Mutex
	running bool
	accum   time.Duration // elapsed before the current running span
	since   time.Time     // start of the current running span
	ticker  clockwork.Ticker
	stopCh  chan struct{}
	last    int

	ticks chan int
}

// New creates a stopped clock at zero. A zero period uses DefaultTickPeriod.
func New(clock clockwork.Clock, period time.Duration) *RaceClock {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if period <= 0 {
		period = DefaultTickPeriod
	}
	return &RaceClock{
		clock:  clock,
		period: period,
		ticks:  make(chan int, 1),
	}
}

// Start begins counting. Calling Start on a running clock does nothing.
func (c *RaceClock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}
	c.running = true
	c.since = c.clock.Now()
	c.ticker = c.clock.NewTicker(c.period)
	c.stopCh = make(chan struct{})
	go c.tickLoop(c.ticker, c.stopCh)
}

// Stop halts the count. It does not wait for the tick goroutine to exit.
func (c *RaceClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	c.accum += c.clock.Since(c.since)
	c.running = false
	c.ticker.Stop()
	close(c.stopCh)
	c.ticker = nil
	c.stopCh = nil
}

// Reset sets the count to zero without changing whether the clock runs. A
// running clock realigns its ticks to the reset instant.
func (c *RaceClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accum = 0
	c.last = 0
	if c.running {
		c.since = c.clock.Now()
		c.ticker.Reset(c.period)
	}
}

// Elapsed returns the whole seconds counted so far
func (c *RaceClock) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsedLocked()
}

// Running reports whether the clock is counting
func (c *RaceClock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Ticks delivers the elapsed count each time it changes while running.
// Notifications are coalesced: a slow reader sees only the latest value.
func (c *RaceClock) Ticks() <-chan int {
	return c.ticks
}

func (c *RaceClock) elapsedLocked() int {
	d := c.accum
	if c.running {
		d += c.clock.Since(c.since)
	}
	return int(d / time.Second)
}

func (c *RaceClock) tickLoop(ticker clockwork.Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			c.mu.Lock()
			if !c.running || c.stopCh != stop {
				c.mu.Unlock()
				return
			}
			n := c.elapsedLocked()
			changed := n != c.last
			c.last = n
			c.mu.Unlock()

			if changed {
				c.notify(n)
			}
		}
	}
}

func (c *RaceClock) notify(n int) {
	select {
	case c.ticks <- n:
		return
	default:
	}
	// replace the unread value with the newer one
	select {
	case <-c.ticks:
	default:
	}
	select {
	case c.ticks <- n:
	default:
	}
}
