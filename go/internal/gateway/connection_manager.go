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
	"github.com/rs/zerolog/log"
)

// ConnectionManager fans applied live updates back out to downstream
// display clients (venue screens, overlays) over WebSocket, one pool of
// connections per competition.
type ConnectionManager struct {
	competitionConnections map[string]map[*Connection]bool
	mu                     sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan BroadcastMessage
}

// Connection represents a WebSocket connection to a downstream client.
type Connection struct {
	ID            string
	CompetitionID string
	Conn          *websocket.Conn
	Send          chan []byte
	Manager       *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds configuration for downstream WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage is a payload to deliver to one competition's pool.
type BroadcastMessage struct {
	CompetitionID string
	Kind          string      // "live-update" or "scoreboard"
	Payload       interface{} // marshalled once per broadcast
}

// envelope is the wire shape delivered to downstream clients.
type envelope struct {
	Kind          string      `json:"kind"`
	CompetitionID string      `json:"competition_id"`
	Payload       interface{} `json:"payload"`
}

// DefaultConnectionConfig returns default downstream WebSocket settings.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			// Scoreboard reads are public; restrict origins upstream if needed.
			return true
		},
	}
}

// NewConnectionManager creates a downstream fanout manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		competitionConnections: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, 1000),
	}
}

// Start begins processing broadcast messages until the context ends.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("gateway connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("gateway connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket subscribed to
// one competition's updates.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, competitionID string) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:            uuid.New().String(),
		CompetitionID: competitionID,
		Conn:          conn,
		Send:          make(chan []byte, 256),
		Manager:       cm,
		ConnectedAt:   time.Now(),
		LastPing:      time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("competition_id", competitionID).
		Msg("downstream WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.competitionConnections[conn.CompetitionID] == nil {
		cm.competitionConnections[conn.CompetitionID] = make(map[*Connection]bool)
	}
	cm.competitionConnections[conn.CompetitionID][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("competition_id", conn.CompetitionID).
		Int("total_connections", len(cm.competitionConnections[conn.CompetitionID])).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if connections, exists := cm.competitionConnections[conn.CompetitionID]; exists {
		if _, exists := connections[conn]; exists {
			delete(connections, conn)
			close(conn.Send)

			if len(connections) == 0 {
				delete(cm.competitionConnections, conn.CompetitionID)
			}

			log.Info().
				Str("connection_id", conn.ID).
				Str("competition_id", conn.CompetitionID).
				Msg("connection unregistered")
		}
	}
}

// Broadcast queues a payload for every downstream client watching a
// competition. Drops the message when the queue is full rather than
// blocking the applier path.
func (cm *ConnectionManager) Broadcast(competitionID, kind string, payload interface{}) {
	select {
	case cm.broadcastCh <- BroadcastMessage{CompetitionID: competitionID, Kind: kind, Payload: payload}:
	default:
		log.Warn().Str("competition_id", competitionID).Msg("broadcast channel full, dropping message")
	}
}

func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	data, err := json.Marshal(envelope{
		Kind:          message.Kind,
		CompetitionID: message.CompetitionID,
		Payload:       message.Payload,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal broadcast payload")
		return
	}

	// Sends happen under the read lock: unregisterConnection closes Send
	// under the write lock, so a close can never interleave with a send.
	cm.mu.RLock()
	connections, exists := cm.competitionConnections[message.CompetitionID]
	if !exists {
		cm.mu.RUnlock()
		return
	}

	delivered := 0
	var full []*Connection
	for conn := range connections {
		select {
		case conn.Send <- data:
			delivered++
		default:
			full = append(full, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range full {
		log.Warn().
			Str("connection_id", conn.ID).
			Msg("connection send buffer full, closing connection")
		cm.unregisterConnection(conn)
		conn.Conn.Close()
	}

	log.Debug().
		Str("kind", message.Kind).
		Str("competition_id", message.CompetitionID).
		Int("connections", delivered).
		Msg("broadcast delivered")
}

// Stats returns counts of active downstream connections.
func (cm *ConnectionManager) Stats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	totalConnections := 0
	perCompetition := make(map[string]int)

	for id, connections := range cm.competitionConnections {
		count := len(connections)
		totalConnections += count
		perCompetition[id] = count
	}

	return map[string]interface{}{
		"total_connections":       totalConnections,
		"active_competitions":     len(cm.competitionConnections),
		"competition_connections": perCompetition,
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			c.LastPing = time.Now()
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	// Downstream clients are read-only; inbound messages are drained and
	// logged at debug only.
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		log.Debug().
			Str("connection_id", c.ID).
			RawJSON("message", message).
			Msg("received downstream client message")
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
