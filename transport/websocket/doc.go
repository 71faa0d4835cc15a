// Package websocket provides the realtime channel transport for the
// Cosmic Orbiters relay hub.
//
// The websocket package implements:
//   - Named-event framing over a single WebSocket connection
//   - Per-channel connection acceptance with transport-assigned ids
//   - Non-blocking, buffered delivery per connection
//   - Connection lifecycle management (ping/pong keepalive, disconnect
//     notification)
//
// Message Protocol:
//
// Every text frame carries one JSON envelope:
//
//	{"event": "login", "data": {"name": "Ann", "color": "red"}}
//
// Handlers are subscribed per event name with Conn.On. Binary frames bypass
// the envelope entirely and are delivered to the Conn.OnBinary handler; the
// server display uses this for raw screen captures.
//
// Connection Identifiers:
//
// Each accepted connection gets an id of the form "<channel>#<uuid>", e.g.
// "/player#1b4e28ba-...". The channel prefix mirrors the namespace the
// connection arrived on; consumers that key state by connection strip it.
//
// Delivery Contract:
//
// Emit marshals the payload and enqueues it on the connection's buffered
// send channel. It never blocks on the peer's socket: a connection whose
// buffer is full is dropped rather than allowed to stall the caller. Writes
// to the wire happen on a dedicated goroutine per connection.
//
// Usage:
//
//	accept := websocket.Handler("/player", func(c *websocket.Conn) {
//		c.On("login", func(data json.RawMessage) { ... })
//		c.OnDisconnect(func() { ... })
//	})
//	mux.HandleFunc("/player", accept)
package websocket
