// Package session holds the single process-wide game session for the
// Cosmic Orbiters relay hub.
//
// A session is the active game's configuration blob plus a lifecycle
// status. Exactly one exists per process; it is replaced wholesale, never
// merged.
//
// Lifecycle:
//
//	NONE ──server/admin create──▶ CREATED ──admin start──▶ STARTED
//	                                 ▲                        │
//	                                 └──────admin end─────────┘
//
// An admin end deliberately returns the session to CREATED rather than a
// distinct terminal state; the production protocol relies on that.
//
// Only a server-originated create replaces the stored configuration. An
// admin create bumps the status and forwards its payload to the other
// roles, but the stored config is left untouched.
//
// Concurrency:
//
// State is not safe for concurrent use on its own. All mutation goes
// through the relay hub, which serializes every handler body; see
// game/hub.
package session
