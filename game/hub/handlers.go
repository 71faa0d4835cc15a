package hub

import (
	"encoding/base64"
	"encoding/json"
	"log"
)

// AttachServer registers a presentation-server connection and subscribes
// its inbound events: screen captures (binary frames), per-player events,
// and game creation.
func (h *Hub) AttachServer(c Conn) {
	id := normalizeID(ChannelServer, c.ID())

	h.mu.Lock()
	h.registry.Add(RoleServer, c)
	count := h.registry.Count(RoleServer)
	h.registry.Broadcast(RoleAdmin, "connection", count)
	h.mu.Unlock()

	log.Printf("New server %s (count: %d)", id, count)

	c.OnDisconnect(func() { h.serverDisconnect(c, id) })
	c.OnBinary(func(frame []byte) { h.serverScreen(frame) })
	c.On("event", func(data json.RawMessage) { h.serverEvent(data) })
	c.On("create", func(data json.RawMessage) { h.serverCreate(data) })
}

// serverDisconnect removes the server connection and re-syncs the current
// game config to all players so they recover from the server loss.
func (h *Hub) serverDisconnect(c Conn, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	log.Printf("Disconnected server %s", id)
	h.registry.Remove(RoleServer, c.ID())
	h.registry.Broadcast(RoleServer, "disconnection", id)
	h.registry.Broadcast(RolePlayer, "game", h.session.Config())
}

// serverScreen fans a raw screen capture out to stream viewers, wrapped as
// a base64 frame.
func (h *Hub) serverScreen(frame []byte) {
	wrapped := ScreenFrame{
		Image:  true,
		Buffer: base64.StdEncoding.EncodeToString(frame),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.registry.Broadcast(RoleStream, "screen", wrapped)
}

// serverEvent delivers a server-originated event to one player. Stale or
// unknown player ids are a silent no-op.
func (h *Hub) serverEvent(data json.RawMessage) {
	var args PlayerEventArgs
	if err := json.Unmarshal(data, &args); err != nil {
		log.Printf("Malformed player event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.roster.SendToPlayer(args.PlayerID, PlayerEvent{
		EventType: args.EventType,
		EventData: args.EventData,
	})
}

// serverCreate installs a new game: the config is parsed fully before any
// state is touched, the roster is discarded, and the fresh state goes out
// to players and admins.
func (h *Hub) serverCreate(data json.RawMessage) {
	config, err := parseConfig(data)
	if err != nil {
		log.Printf("Rejected game create: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.session.CreateFromServer(config)
	h.roster.Reset()

	h.registry.Broadcast(RolePlayer, "players", h.roster.Logins())
	h.registry.Broadcast(RolePlayer, "game", config)
	h.registry.Broadcast(RoleAdmin, "game", config)

	log.Printf("Created game: %s", config)
}

// AttachPlayer registers a player connection and immediately pushes the
// current game and roster so late joiners catch up, then subscribes login
// and disconnect handling.
func (h *Hub) AttachPlayer(c Conn) {
	id := normalizeID(ChannelPlayer, c.ID())

	h.mu.Lock()
	h.registry.Add(RolePlayer, c)
	c.Emit("game", h.session.Config())
	c.Emit("players", h.roster.Logins())
	h.mu.Unlock()

	c.OnDisconnect(func() { h.playerDisconnect(c, id) })
	c.On("login", func(data json.RawMessage) { h.playerLogin(c, id, data) })
}

// playerDisconnect notifies the server, cleans the registry and roster,
// and rebroadcasts the shrunken roster to the remaining players.
func (h *Hub) playerDisconnect(c Conn, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	log.Printf("Disconnected player %s", id)
	h.registry.Broadcast(RoleServer, "playerDisconnect", id)
	h.registry.Remove(RolePlayer, c.ID())
	h.registry.Broadcast(RoleServer, "disconnection", id)
	h.roster.Remove(id)
	h.registry.Broadcast(RolePlayer, "players", h.roster.Logins())
}

// playerLogin records the player in the roster, forwards the augmented
// login to the server, shares the grown roster with all players, and
// catches the newcomer up with a start signal if the game is already live.
func (h *Hub) playerLogin(c Conn, id string, data json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	log.Printf("Player login %s: %s", id, data)
	h.roster.Add(data, id, c)

	h.registry.Broadcast(RoleServer, "login", withID(id, data))
	h.registry.Broadcast(RolePlayer, "players", h.roster.Logins())

	if h.session.Started() {
		c.Emit("start", nil)
	}
}

// AttachControls subscribes a handheld controller connection. Controller
// connections are never pooled; they only push button presses toward the
// server display.
func (h *Hub) AttachControls(c Conn) {
	id := normalizeID(ChannelControls, c.ID())

	c.On("button", func(data json.RawMessage) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.registry.Broadcast(RoleServer, "button", withID(id, data))
	})
}

// AttachStream registers a stream-viewer connection. Stream viewers are
// write-only: they just receive screen frames until they go away.
func (h *Hub) AttachStream(c Conn) {
	id := normalizeID(ChannelStream, c.ID())
	log.Printf("New stream viewer %s", id)

	h.mu.Lock()
	h.registry.Add(RoleStream, c)
	h.mu.Unlock()

	c.OnDisconnect(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.registry.Remove(RoleStream, c.ID())
		h.registry.Broadcast(RoleServer, "disconnection", id)
	})
}

// AttachAdmin registers an admin console connection, pushes the current
// server-connection count and game config, and subscribes the game
// lifecycle controls.
func (h *Hub) AttachAdmin(c Conn) {
	id := normalizeID(ChannelAdmin, c.ID())

	h.mu.Lock()
	h.registry.Add(RoleAdmin, c)
	c.Emit("connection", h.registry.Count(RoleServer))
	c.Emit("game", h.session.Config())
	h.mu.Unlock()

	c.OnDisconnect(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.registry.Remove(RoleAdmin, c.ID())
		h.registry.Broadcast(RoleServer, "disconnection", id)
	})

	c.On("create", func(data json.RawMessage) {
		log.Printf("Admin create: %s", data)
		h.AdminCreate(data)
	})
	c.On("start", func(data json.RawMessage) {
		log.Printf("Admin start: %s", data)
		h.AdminStart(data)
	})
	c.On("end", func(data json.RawMessage) {
		h.AdminEnd(data)
	})
	c.On("kick", func(data json.RawMessage) {
		h.Kick(data)
	})
}
