// Package stream provides a WebSocket client for the WAF event feed with
// automatic reconnection.
package stream

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Connection settings
	defaultReconnectDelay = 5 * time.Second
	defaultPingInterval   = 30 * time.Second
	handshakeTimeout      = 10 * time.Second
	writeTimeout          = 10 * time.Second
)

// ConnectionState describes the client's connection lifecycle.
type ConnectionState string

// Connection states. The client owns this state exclusively; consumers
// observe it through the state-change callback or State().
const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
)

// MessageHandler receives decoded event-stream messages in arrival order.
type MessageHandler func(msg Message)

// StateHandler receives connection state transitions.
type StateHandler func(state ConnectionState)

// Client is a WebSocket client for the WAF event stream with automatic
// reconnection at a fixed interval. Reconnection continues indefinitely
// until Disconnect is called; Disconnect is permanent.
type Client struct {
	endpoint string
	token    string

	mu        sync.Mutex
	state     ConnectionState
	conn      *websocket.Conn
	onMessage []MessageHandler
	onState   []StateHandler

	// Serializes all writes to the connection: the websocket allows at
	// most one concurrent writer, and Send races the liveness ticker.
	writeMu sync.Mutex

	done    chan struct{}
	running atomic.Bool
	closed  atomic.Bool
	wg      sync.WaitGroup

	// Tunable in tests
	reconnectDelay time.Duration
	pingInterval   time.Duration

	// Stats
	messagesReceived uint64
	eventsDelivered  uint64
	controlFiltered  uint64
	reconnects       uint64
	droppedSends     uint64
}

// NewClient creates a disconnected client.
func NewClient() *Client {
	return &Client{
		state:          StateDisconnected,
		done:           make(chan struct{}),
		reconnectDelay: defaultReconnectDelay,
		pingInterval:   defaultPingInterval,
	}
}

// Subscribe registers callbacks for messages and state changes. Either
// handler may be nil. Delivery is synchronous with frame arrival.
func (c *Client) Subscribe(onMessage MessageHandler, onState StateHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if onMessage != nil {
		c.onMessage = append(c.onMessage, onMessage)
	}
	if onState != nil {
		c.onState = append(c.onState, onState)
	}
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect opens the stream to the given endpoint, appending the bearer
// token as a connection parameter. Calling Connect while already
// connecting or connected is a no-op, as is calling it after Disconnect.
func (c *Client) Connect(endpoint, authToken string) {
	if c.closed.Load() {
		return
	}
	if c.running.Swap(true) {
		log.Printf("[stream] client already running")
		return
	}
	c.endpoint = endpoint
	c.token = authToken

	c.wg.Add(1)
	go c.runLoop()
	log.Printf("[stream] client started")
}

// Send serializes and transmits a command object. Messages sent while not
// connected are silently dropped; the client never queues during outages.
func (c *Client) Send(v interface{}) {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected || conn == nil {
		atomic.AddUint64(&c.droppedSends, 1)
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("[stream] marshal failed: %v", err)
		return
	}
	if err := c.writeFrame(conn, payload); err != nil {
		log.Printf("[stream] send failed: %v", err)
	}
}

// writeFrame is the single write path for the connection.
func (c *Client) writeFrame(conn *websocket.Conn, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// Disconnect permanently shuts down the client, cancelling any pending
// reconnect and the liveness timer. Safe to call multiple times.
func (c *Client) Disconnect() {
	if c.closed.Swap(true) {
		return
	}
	close(c.done)

	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.mu.Unlock()

	c.wg.Wait()
	c.setState(StateDisconnected)
	log.Printf("[stream] client disconnected")
}

// Stats returns current client statistics.
func (c *Client) Stats() map[string]interface{} {
	return map[string]interface{}{
		"state":             string(c.State()),
		"messages_received": atomic.LoadUint64(&c.messagesReceived),
		"events_delivered":  atomic.LoadUint64(&c.eventsDelivered),
		"control_filtered":  atomic.LoadUint64(&c.controlFiltered),
		"reconnects":        atomic.LoadUint64(&c.reconnects),
		"dropped_sends":     atomic.LoadUint64(&c.droppedSends),
	}
}

func (c *Client) runLoop() {
	defer c.wg.Done()

	for {
		if c.closed.Load() {
			return
		}
		c.setState(StateConnecting)

		err := c.connectAndStream()
		if c.closed.Load() {
			return
		}
		if err != nil {
			log.Printf("[stream] connection error: %v, reconnecting in %v", err, c.reconnectDelay)
		} else {
			log.Printf("[stream] connection closed, reconnecting in %v", c.reconnectDelay)
		}

		c.setState(StateReconnecting)
		atomic.AddUint64(&c.reconnects, 1)

		// The cancellation flag is re-checked at the top of the loop, so a
		// Disconnect racing with this timer cannot resurrect the connection.
		select {
		case <-c.done:
			return
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *Client) connectAndStream() error {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}()

	c.setState(StateConnected)
	log.Printf("[stream] connected to %s", c.endpoint)

	// Liveness probe: a bare text token every pingInterval. The backend
	// answers with a token the decode step filters out.
	pingDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := c.writeFrame(conn, []byte(pingToken)); err != nil {
					return
				}
			case <-pingDone:
				return
			case <-c.done:
				// Close connection to unblock ReadMessage
				conn.Close()
				return
			}
		}
	}()
	defer close(pingDone)

	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return nil
			}
			return fmt.Errorf("read failed: %w", err)
		}

		if messageType != websocket.TextMessage {
			continue
		}
		atomic.AddUint64(&c.messagesReceived, 1)

		msg, ok := Decode(payload)
		if !ok {
			// Liveness acks and heartbeats
			atomic.AddUint64(&c.controlFiltered, 1)
			continue
		}

		atomic.AddUint64(&c.eventsDelivered, 1)
		c.deliver(msg)
	}
}

func (c *Client) setState(s ConnectionState) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	handlers := make([]StateHandler, len(c.onState))
	copy(handlers, c.onState)
	c.mu.Unlock()

	for _, h := range handlers {
		h(s)
	}
}

func (c *Client) deliver(msg Message) {
	c.mu.Lock()
	handlers := make([]MessageHandler, len(c.onMessage))
	copy(handlers, c.onMessage)
	c.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}
}
