package hub

import (
	"encoding/json"
	"sync"

	"github.com/thebelin/cosmic-orbiters/game/roster"
	"github.com/thebelin/cosmic-orbiters/game/session"
)

// Hub owns the shared relay state: the connection registry, the player
// roster, and the game session. One mutex serializes every handler body so
// cross-field mutations (roster entries, session transitions plus their
// fan-outs) happen atomically.
type Hub struct {
	mu       sync.Mutex
	registry *Registry
	roster   *roster.Roster
	session  *session.State
}

// New returns a hub with no connections, an empty roster, and no game.
func New() *Hub {
	return &Hub{
		registry: NewRegistry(),
		roster:   roster.New(),
		session:  session.New(),
	}
}

// Snapshot is a point-in-time view of the hub for the REST API and admin
// tooling.
type Snapshot struct {
	Status  session.Status    `json:"status"`
	Config  json.RawMessage   `json:"config,omitempty"`
	Players []json.RawMessage `json:"players"`
	Counts  map[string]int    `json:"connections"`
}

// State returns a consistent snapshot of session, roster, and connection
// counts.
func (h *Hub) State() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	return Snapshot{
		Status:  h.session.Status(),
		Config:  h.session.Config(),
		Players: h.roster.Logins(),
		Counts: map[string]int{
			string(RoleServer): h.registry.Count(RoleServer),
			string(RoleAdmin):  h.registry.Count(RoleAdmin),
			string(RoleStream): h.registry.Count(RoleStream),
			string(RolePlayer): h.registry.Count(RolePlayer),
		},
	}
}

// AdminCreate performs an admin-originated game create: the session moves
// to created and the payload is forwarded verbatim to the server and
// player roles. The stored config is not replaced; only a
// server-originated create does that.
func (h *Hub) AdminCreate(payload json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.session.CreateFromAdmin()
	h.registry.Broadcast(RoleServer, "create", payload)
	h.registry.Broadcast(RolePlayer, "create", payload)
}

// AdminStart starts the game and forwards the payload to the server and
// player roles. Players logging in from now on receive an immediate start
// signal.
func (h *Hub) AdminStart(payload json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.session.Start()
	h.registry.Broadcast(RoleServer, "start", payload)
	h.registry.Broadcast(RolePlayer, "start", payload)
}

// AdminEnd ends the game, returning the session to created, and forwards
// the payload to the server and player roles.
func (h *Hub) AdminEnd(payload json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.session.End()
	h.registry.Broadcast(RoleServer, "end", payload)
	h.registry.Broadcast(RolePlayer, "end", payload)
}

// Kick forwards a kick payload verbatim to the server role. The server
// display owns the actual disconnect; the roster entry goes away when the
// kicked player's transport reports it.
func (h *Hub) Kick(payload json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.registry.Broadcast(RoleServer, "kick", payload)
}
