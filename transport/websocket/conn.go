package websocket

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Screen captures arrive as
	// binary frames, so this is generous.
	maxMessageSize = 1 << 20

	// Size of the per-connection outbound buffer.
	sendBufferSize = 256
)

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Envelope is the wire format for named events: one JSON object per text
// frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Conn is one open channel connection. Event handlers must be registered
// inside the accept callback, before any frames are read; after that the
// handler table is read-only.
type Conn struct {
	id      string
	channel string
	ws      *websocket.Conn
	send    chan []byte

	handlers   map[string]func(json.RawMessage)
	binary     func([]byte)
	disconnect []func()

	mu     sync.Mutex
	closed bool
}

// ID returns the transport-assigned identifier, "<channel>#<uuid>".
func (c *Conn) ID() string { return c.id }

// Channel returns the channel name this connection was accepted on.
func (c *Conn) Channel() string { return c.channel }

// On subscribes a handler for the named inbound event.
func (c *Conn) On(event string, fn func(data json.RawMessage)) {
	c.handlers[event] = fn
}

// OnBinary subscribes a handler for raw binary frames.
func (c *Conn) OnBinary(fn func(data []byte)) {
	c.binary = fn
}

// OnDisconnect registers a callback fired exactly once when the connection
// goes away, in registration order.
func (c *Conn) OnDisconnect(fn func()) {
	c.disconnect = append(c.disconnect, fn)
}

// Emit marshals v and enqueues an Envelope for delivery. It never blocks on
// the peer: if the outbound buffer is full the message is dropped and
// ErrSendBufferFull is returned.
func (c *Conn) Emit(event string, v interface{}) error {
	var data json.RawMessage
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		data = b
	}

	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnClosed
	}

	select {
	case c.send <- payload:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close tears the connection down. Safe to call more than once.
func (c *Conn) Close() {
	c.ws.Close()
	c.teardown()
}

// teardown marks the connection closed, releases the write pump, and fires
// disconnect callbacks exactly once.
func (c *Conn) teardown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	for _, fn := range c.disconnect {
		fn()
	}
}

// readPump pumps frames from the WebSocket connection to the registered
// event handlers.
func (c *Conn) readPump() {
	defer func() {
		c.ws.Close()
		c.teardown()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error on %s: %v", c.id, err)
			}
			break
		}

		if messageType == websocket.BinaryMessage {
			if c.binary != nil {
				c.binary(message)
			}
			continue
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Printf("Malformed frame on %s: %v", c.id, err)
			continue
		}

		// Events nobody subscribed to are dropped silently.
		if handler, ok := c.handlers[env.Event]; ok {
			handler(env.Data)
		}
	}
}

// writePump pumps enqueued messages to the WebSocket connection and keeps
// the connection alive with periodic pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The connection was torn down.
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.ws.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
