package hub

import (
	"encoding/json"
	"log"
)

// Conn is the slice of a transport connection the hub works with.
// *websocket.Conn from transport/websocket satisfies it.
type Conn interface {
	ID() string
	Emit(event string, v interface{}) error
	On(event string, fn func(data json.RawMessage))
	OnBinary(fn func(data []byte))
	OnDisconnect(fn func())
}

// Role is one of the four connection categories tracked by the registry.
type Role string

const (
	RoleServer Role = "server"
	RoleAdmin  Role = "admin"
	RoleStream Role = "stream"
	RolePlayer Role = "player"
)

// Registry maps each role to its ordered collection of open connections.
// A connection lives in at most one role's collection, from accept until
// its disconnect notification. Not safe for concurrent use; the hub
// serializes access.
type Registry struct {
	conns map[Role][]Conn
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[Role][]Conn),
	}
}

// Add appends a connection to the role's collection. The caller must not
// add the same connection twice.
func (r *Registry) Add(role Role, c Conn) {
	r.conns[role] = append(r.conns[role], c)
}

// Remove drops the first connection in the role's collection whose
// identifier matches. Matching is by id, not by reference, to tolerate
// handle churn. Unknown ids are a no-op.
func (r *Registry) Remove(role Role, connID string) {
	conns := r.conns[role]
	for i, c := range conns {
		if c.ID() == connID {
			r.conns[role] = append(conns[:i], conns[i+1:]...)
			return
		}
	}
}

// Count returns the number of open connections for the role.
func (r *Registry) Count(role Role) int {
	return len(r.conns[role])
}

// Connections returns the role's current collection.
func (r *Registry) Connections(role Role) []Conn {
	return r.conns[role]
}

// Broadcast sends the event to every connection currently in the role's
// collection, in collection order. Delivery is best-effort: a failed send
// on one connection never aborts the rest.
func (r *Registry) Broadcast(role Role, event string, v interface{}) {
	BroadcastTo(r.conns[role], event, v)
}

// BroadcastTo is Broadcast over an explicit connection list, for targets
// that are not a whole role set.
func BroadcastTo(conns []Conn, event string, v interface{}) {
	for _, c := range conns {
		if err := c.Emit(event, v); err != nil {
			log.Printf("Dropped %q to %s: %v", event, c.ID(), err)
		}
	}
}
