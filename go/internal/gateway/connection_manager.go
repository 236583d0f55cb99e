package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/buzzwire/go/internal/events"
	"github.com/rs/zerolog/log"
)

// ConnectionManager fans events out to the connected display clients
type ConnectionManager struct {
	connections map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan events.Envelope

	// greeting returns the first message a new client receives
	greeting func() (events.Envelope, bool)
}

// Connection is one display client. Send is closed exactly once, on unregister.
type Connection struct {
	ID       string
	ClientID string
	Conn     *websocket.Conn
	Send     chan []byte
	Manager  *ConnectionManager

	ConnectedAt time.Time
}

// ConnectionConfig tunes socket deadlines and buffers
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		SendBufferSize:  64,
		CheckOrigin: func(r *http.Request) bool {
			// the scoreboard display runs from arbitrary local origins
			return true
		},
	}
}

// NewConnectionManager creates a manager. greeting, when set, supplies the
// first message every new client receives.
func NewConnectionManager(config ConnectionConfig, greeting func() (events.Envelope, bool)) *ConnectionManager {
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = DefaultConnectionConfig().SendBufferSize
	}
	return &ConnectionManager{
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan events.Envelope, 1000),
		greeting:    greeting,
	}
}

// Start processes broadcast messages until ctx is cancelled, then closes
// every connection.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("display feed started")

	for {
		select {
		case <-ctx.Done():
			cm.closeAll()
			log.Info().Msg("display feed stopped")
			return
		case env := <-cm.broadcastCh:
			cm.handleBroadcast(env)
		}
	}
}

// UpgradeConnection accepts a display client and starts its pumps
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, clientID string) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		ClientID:    clientID,
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}

	// queue the current state before the client can see any broadcast
	if cm.greeting != nil {
		if env, ok := cm.greeting(); ok {
			if data, err := json.Marshal(env); err == nil {
				connection.Send <- data
			} else {
				log.Error().Err(err).Msg("failed to marshal greeting")
			}
		}
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("client_id", clientID).
		Msg("display client connected")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.connections[conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn]; exists {
		delete(cm.connections, conn)
		close(conn.Send)

		log.Info().
			Str("connection_id", conn.ID).
			Str("client_id", conn.ClientID).
			Dur("connected_for", time.Since(conn.ConnectedAt)).
			Msg("display client disconnected")
	}
}

// drop unregisters conn and closes its socket. Safe to call more than once.
func (cm *ConnectionManager) drop(conn *Connection) {
	cm.unregisterConnection(conn)
	conn.Conn.Close()
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.RLock()
	targets := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range targets {
		cm.unregisterConnection(conn)
	}
}

// Broadcast queues an event for every connected client. It never blocks.
func (cm *ConnectionManager) Broadcast(env events.Envelope) {
	select {
	case cm.broadcastCh <- env:
	default:
		log.Warn().Str("event_type", env.Type).Msg("display feed backlog full, dropping event")
	}
}

func (cm *ConnectionManager) handleBroadcast(env events.Envelope) {
	cm.mu.RLock()
	if len(cm.connections) == 0 {
		cm.mu.RUnlock()
		return
	}
	targets := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targets {
		if !cm.enqueue(conn, data) {
			log.Warn().
				Str("connection_id", conn.ID).
				Msg("display client too slow, dropping it")
			cm.drop(conn)
		}
	}

	log.Debug().
		Str("event_type", env.Type).
		Int("connections", len(targets)).
		Msg("event pushed to displays")
}

// enqueue sends under the read lock so Send cannot be closed concurrently
func (cm *ConnectionManager) enqueue(conn *Connection, data []byte) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if !cm.connections[conn] {
		return true
	}
	select {
	case conn.Send <- data:
		return true
	default:
		return false
	}
}

// ConnectionStats summarises the active connections
type ConnectionStats struct {
	TotalConnections int `json:"total_connections"`
}

func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return ConnectionStats{TotalConnections: len(cm.connections)}
}

// writePump owns every write to the socket. It returns when Send is closed
// or a write fails.
func (c *Connection) writePump() {
	keepalive := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		keepalive.Stop()
		c.Manager.drop(c)
	}()

	for {
		frame := websocket.TextMessage
		var payload []byte

		select {
		case msg, open := <-c.Send:
			if !open {
				_ = c.write(websocket.CloseMessage, nil)
				return
			}
			payload = msg
		case <-keepalive.C:
			frame = websocket.PingMessage
		}

		if err := c.write(frame, payload); err != nil {
			log.Warn().
				Err(err).
				Str("connection_id", c.ID).
				Int("frame", frame).
				Msg("websocket write failed")
			return
		}
	}
}

func (c *Connection) write(frame int, payload []byte) error {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(frame, payload)
}

// readPump keeps the read deadline moving on pongs and discards client
// messages; the feed is one-way and intents go through the RPC API.
func (c *Connection) readPump() {
	defer c.Manager.drop(c)

	extend := func() error {
		return c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	_ = extend()
	c.Conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().
					Err(err).
					Str("connection_id", c.ID).
					Msg("display client closed unexpectedly")
			}
			return
		}
		log.Debug().
			Str("connection_id", c.ID).
			Int("bytes", len(message)).
			Msg("ignoring client message")
		_ = extend()
	}
}
