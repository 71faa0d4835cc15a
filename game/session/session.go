package session

import "encoding/json"

// Status is the lifecycle state of the active game session.
type Status string

const (
	// StatusNone means no game has been created since process start.
	StatusNone Status = ""

	// StatusCreated means a game exists but has not been started, or has
	// been ended after a start.
	StatusCreated Status = "created"

	// StatusStarted means the game is live; players logging in now receive
	// an immediate start signal.
	StatusStarted Status = "started"
)

// State holds the active game's configuration and lifecycle status. Not
// safe for concurrent use; the relay hub owns it and serializes access.
type State struct {
	config json.RawMessage
	status Status
}

// New returns a session with no config and StatusNone.
func New() *State {
	return &State{}
}

// CreateFromServer replaces the stored config wholesale and moves the
// session to StatusCreated. The caller is responsible for resetting the
// roster and propagating the new state to the other roles.
func (s *State) CreateFromServer(config json.RawMessage) {
	s.config = config
	s.status = StatusCreated
}

// CreateFromAdmin moves the session to StatusCreated. The stored config is
// deliberately left untouched: an admin create only carries a payload to
// forward, not a config replacement.
func (s *State) CreateFromAdmin() {
	s.status = StatusCreated
}

// Start moves the session to StatusStarted.
func (s *State) Start() {
	s.status = StatusStarted
}

// End returns the session to StatusCreated.
func (s *State) End() {
	s.status = StatusCreated
}

// Config returns the stored configuration blob, nil if none was created.
func (s *State) Config() json.RawMessage {
	return s.config
}

// Status returns the current lifecycle status.
func (s *State) Status() Status {
	return s.status
}

// Started reports whether the game is currently live.
func (s *State) Started() bool {
	return s.status == StatusStarted
}
