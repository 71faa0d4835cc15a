// Package roster tracks the logged-in players of the active game session.
//
// Each entry binds three things as one atomic unit: the player's
// normalized id (the connection identifier with its channel prefix
// stripped), the opaque login payload the player supplied, and a reference
// to the player's connection. Entries are keyed by normalized id and
// iterated in login order.
//
// A second login under an id already present replaces the earlier entry
// rather than shadowing it, so lookups always reach the most recent
// connection after a rapid reconnect.
//
// Lookups for ids that are absent (already disconnected, never logged in)
// are benign no-ops throughout; the next roster broadcast self-heals any
// observer that missed an update.
//
// Concurrency:
//
// Roster is not safe for concurrent use on its own. The relay hub owns it
// and serializes all access; see game/hub.
package roster
