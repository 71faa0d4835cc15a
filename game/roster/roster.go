package roster

import "encoding/json"

// Conn is the slice of a connection the roster needs: addressed delivery to
// one player.
type Conn interface {
	Emit(event string, v interface{}) error
}

// Entry is one logged-in player. The three fields are always added,
// replaced, and removed together.
type Entry struct {
	ID    string
	Login json.RawMessage
	Conn  Conn
}

// Roster is the set of logged-in players, keyed by normalized id, iterated
// in login order. Not safe for concurrent use; the relay hub serializes
// access.
type Roster struct {
	entries map[string]*Entry
	order   []string
}

// New returns an empty roster.
func New() *Roster {
	return &Roster{
		entries: make(map[string]*Entry),
	}
}

// Add records a logged-in player. A player already present under the same
// id is replaced in place, keeping its original position in login order.
func (r *Roster) Add(login json.RawMessage, id string, conn Conn) {
	if _, exists := r.entries[id]; !exists {
		r.order = append(r.order, id)
	}
	r.entries[id] = &Entry{ID: id, Login: login, Conn: conn}
}

// Remove drops the player with the given id. Unknown ids are a no-op.
func (r *Roster) Remove(id string) {
	if _, exists := r.entries[id]; !exists {
		return
	}
	delete(r.entries, id)
	for i, other := range r.order {
		if other == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Reset discards every entry. Used when a new game is created.
func (r *Roster) Reset() {
	r.entries = make(map[string]*Entry)
	r.order = nil
}

// SendToPlayer delivers an "event" message with the given payload to one
// player's connection. Unknown or stale ids are a silent no-op.
func (r *Roster) SendToPlayer(id string, payload interface{}) {
	entry, exists := r.entries[id]
	if !exists {
		return
	}
	entry.Conn.Emit("event", payload)
}

// Get returns the entry for id, nil if absent.
func (r *Roster) Get(id string) *Entry {
	return r.entries[id]
}

// Len returns the number of logged-in players.
func (r *Roster) Len() int {
	return len(r.entries)
}

// Logins returns the login payloads in login order. This is the "players"
// collection broadcast to the player role; it is never nil so an empty
// roster serializes as [].
func (r *Roster) Logins() []json.RawMessage {
	logins := make([]json.RawMessage, 0, len(r.order))
	for _, id := range r.order {
		logins = append(logins, r.entries[id].Login)
	}
	return logins
}
