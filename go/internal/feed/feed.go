package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/liftingsocial/wlbridge/go/internal/live"
)

// Status is the transport state exposed to consumers. Connection trouble is
// never fatal to the host; it only moves this status.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusConnecting   Status = "connecting"
	StatusDisconnected Status = "disconnected"
)

// Config holds feed connection settings.
type Config struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	BackoffBase      time.Duration
	BackoffCap       time.Duration
}

// DefaultConfig returns feed settings with the standard backoff ladder
// (1s, 2s, 4s ... capped at 30s).
func DefaultConfig(url string) Config {
	return Config{
		URL:              url,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		BackoffBase:      time.Second,
		BackoffCap:       30 * time.Second,
	}
}

// Callbacks receive feed activity. Event fires for each inbound live-update
// frame. Reconnect fires once per subscribed competition after the
// connection is (re)established; the transport replays nothing across
// disconnects, so each Reconnect must trigger a full reconciliation fetch.
type Callbacks struct {
	Event     func(event *live.LiveEvent)
	Status    func(status Status)
	Reconnect func(competitionID string)
}

// controlMessage is the outbound room membership frame.
type controlMessage struct {
	Action        string `json:"action"`
	CompetitionID string `json:"competition_id"`
}

// inboundFrame is the envelope WL-System sends on the live socket.
type inboundFrame struct {
	Event         string          `json:"event"`
	CompetitionID string          `json:"competition_id"`
	Type          live.EventType  `json:"type"`
	Timestamp     time.Time       `json:"timestamp"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// Client owns the single process-wide WL-System feed connection. Rooms are
// joined and left by competition id with reference counting; releasing the
// last reference leaves the room but keeps the connection up for reuse.
// Nothing outside this package touches the raw connection.
type Client struct {
	config    Config
	callbacks Callbacks
	clock     clockwork.Clock
	dialer    *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	rooms  map[string]int
	status Status

	cancel context.CancelFunc
	done   chan struct{}
}

// NewClient creates a feed client. Start must be called before frames flow.
func NewClient(config Config, callbacks Callbacks, clock clockwork.Clock) *Client {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Client{
		config:    config,
		callbacks: callbacks,
		clock:     clock,
		dialer: &websocket.Dialer{
			HandshakeTimeout: config.HandshakeTimeout,
		},
		rooms:  make(map[string]int),
		status: StatusDisconnected,
	}
}

// Start launches the connect/read loop. It returns immediately.
func (c *Client) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(runCtx)
}

// Stop tears the connection down and stops reconnecting.
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.mu.Unlock()
	if c.done != nil {
		<-c.done
	}
}

// Status returns the current transport status.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Rooms returns the competition ids with at least one active subscription.
func (c *Client) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		ids = append(ids, id)
	}
	return ids
}

// Subscribe takes a reference on a competition room, joining it on the wire
// when this is the first reference and the connection is up. Joins for
// rooms subscribed while disconnected happen on the next (re)connect.
func (c *Client) Subscribe(competitionID string) error {
	c.mu.Lock()
	c.rooms[competitionID]++
	first := c.rooms[competitionID] == 1
	conn := c.conn
	c.mu.Unlock()

	if first && conn != nil {
		if err := c.sendControl(conn, "join", competitionID); err != nil {
			return fmt.Errorf("failed to join room %s: %w", competitionID, err)
		}
	}

	log.Debug().Str("competition_id", competitionID).Msg("subscribed to live feed room")
	return nil
}

// Unsubscribe releases a reference and reports whether it was the last one.
// Only when the last reference goes is the room left on the wire; the shared
// connection itself stays open for other competitions. Callers must keep
// competition state alive until the last reference is released.
func (c *Client) Unsubscribe(competitionID string) bool {
	c.mu.Lock()
	count, ok := c.rooms[competitionID]
	if !ok {
		c.mu.Unlock()
		return false
	}
	count--
	last := count <= 0
	if last {
		delete(c.rooms, competitionID)
	} else {
		c.rooms[competitionID] = count
	}
	conn := c.conn
	c.mu.Unlock()

	if last && conn != nil {
		if err := c.sendControl(conn, "leave", competitionID); err != nil {
			log.Warn().Err(err).Str("competition_id", competitionID).Msg("failed to leave room")
		}
	}

	log.Debug().Str("competition_id", competitionID).Msg("unsubscribed from live feed room")
	return last
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)

	retry := newBackoff(c.config.BackoffBase, c.config.BackoffCap)

	for {
		c.setStatus(StatusConnecting)

		conn, _, err := c.dialer.DialContext(ctx, c.config.URL, nil)
		if err != nil {
			c.setStatus(StatusDisconnected)
			if ctx.Err() != nil {
				return
			}

			delay := retry.Next()
			log.Warn().
				Err(err).
				Dur("retry_in", delay).
				Msg("live feed dial failed")

			select {
			case <-ctx.Done():
				return
			case <-c.clock.After(delay):
			}
			continue
		}

		retry.Reset()

		c.mu.Lock()
		c.conn = conn
		rooms := make([]string, 0, len(c.rooms))
		for id := range c.rooms {
			rooms = append(rooms, id)
		}
		c.mu.Unlock()

		c.setStatus(StatusConnected)
		log.Info().Str("url", c.config.URL).Int("rooms", len(rooms)).Msg("live feed connected")

		// Re-join every active room and reconcile each: frames sent while
		// we were away are gone for good.
		for _, id := range rooms {
			if err := c.sendControl(conn, "join", id); err != nil {
				log.Warn().Err(err).Str("competition_id", id).Msg("failed to rejoin room")
				continue
			}
			if c.callbacks.Reconnect != nil {
				c.callbacks.Reconnect(id)
			}
		}

		c.readLoop(conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
		c.setStatus(StatusDisconnected)

		if ctx.Err() != nil {
			return
		}

		delay := retry.Next()
		log.Warn().Dur("retry_in", delay).Msg("live feed disconnected")
		select {
		case <-ctx.Done():
			return
		case <-c.clock.After(delay):
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Warn().Err(err).Msg("dropped malformed feed frame")
			continue
		}

		if frame.Event != "live-update" {
			log.Debug().Str("event", frame.Event).Msg("ignoring unknown feed event")
			continue
		}

		if c.callbacks.Event != nil {
			c.callbacks.Event(&live.LiveEvent{
				CompetitionID: frame.CompetitionID,
				Type:          frame.Type,
				Timestamp:     frame.Timestamp,
				Data:          frame.Data,
			})
		}
	}
}

func (c *Client) sendControl(conn *websocket.Conn, action, competitionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return conn.WriteJSON(controlMessage{Action: action, CompetitionID: competitionID})
}

func (c *Client) setStatus(status Status) {
	c.mu.Lock()
	changed := c.status != status
	c.status = status
	c.mu.Unlock()

	if changed && c.callbacks.Status != nil {
		c.callbacks.Status(status)
	}
}
