package outbox

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ConnectionChecker reports whether the downstream transport is up
type ConnectionChecker interface {
	Connected() bool
}

type HealthStatus struct {
	Healthy         bool      `json:"healthy"`
	RelayActive     bool      `json:"relay_active"`
	EventsProcessed uint64    `json:"events_processed"`
	EventsDropped   uint64    `json:"events_dropped"`
	EventsFailed    uint64    `json:"events_failed"`
	PendingEvents   int       `json:"pending_events"`
	LastEventTime   time.Time `json:"last_event_time"`
	NATSConnected   *bool     `json:"nats_connected,omitempty"`
	Errors          []string  `json:"errors"`
}

// HealthChecker derives a HealthStatus from the relay counters
type HealthChecker struct {
	relay *Relay
	conn  ConnectionChecker
}

// NewHealthChecker creates a checker. conn may be nil when events are only logged.
func NewHealthChecker(relay *Relay, conn ConnectionChecker) *HealthChecker {
	return &HealthChecker{relay: relay, conn: conn}
}

func (h *HealthChecker) Check() HealthStatus {
	stats := h.relay.Stats()
	status := HealthStatus{
		Healthy:         true,
		RelayActive:     stats.Running,
		EventsProcessed: stats.Processed,
		EventsDropped:   stats.Dropped,
		EventsFailed:    stats.Failed,
		PendingEvents:   stats.QueueDepth,
		LastEventTime:   stats.LastEvent,
		Errors:          []string{},
	}

	if !stats.Running {
		status.Healthy = false
		status.Errors = append(status.Errors, "relay not active")
	}
	if h.conn != nil {
		connected := h.conn.Connected()
		status.NATSConnected = &connected
		if !connected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}
	if capacity := h.relay.config.QueueSize; stats.QueueDepth > capacity*3/4 {
		status.Errors = append(status.Errors, fmt.Sprintf("high pending event count: %d", stats.QueueDepth))
	}
	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check()

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

// WriteMetrics writes the relay counters in the Prometheus text format
func (h *HealthChecker) WriteMetrics(w io.Writer) error {
	status := h.Check()

	healthy := 0
	if status.Healthy {
		healthy = 1
	}

	_, err := fmt.Fprintf(w, `# HELP buzzwire_outbox_healthy Whether the event relay is healthy
# TYPE buzzwire_outbox_healthy gauge
buzzwire_outbox_healthy %d

# HELP buzzwire_outbox_events_processed_total Total number of events published
# TYPE buzzwire_outbox_events_processed_total counter
buzzwire_outbox_events_processed_total %d

# HELP buzzwire_outbox_events_dropped_total Events dropped because the queue was full
# TYPE buzzwire_outbox_events_dropped_total counter
buzzwire_outbox_events_dropped_total %d

# HELP buzzwire_outbox_events_failed_total Events that exhausted their retries
# TYPE buzzwire_outbox_events_failed_total counter
buzzwire_outbox_events_failed_total %d

# HELP buzzwire_outbox_pending_events Current number of queued events
# TYPE buzzwire_outbox_pending_events gauge
buzzwire_outbox_pending_events %d
`,
		healthy,
		status.EventsProcessed,
		status.EventsDropped,
		status.EventsFailed,
		status.PendingEvents,
	)
	return err
}
