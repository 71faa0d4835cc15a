// Package hub implements the relay core of Cosmic Orbiters: the
// role-indexed connection registry, the fan-out router, and the five role
// handlers that route messages between the presentation server, players,
// handheld controllers, stream viewers, and the admin console.
//
// Roles and Channels:
//
// Connections arrive on five channels: /server, /player, /controls,
// /stream, and /secure (admin). The registry tracks the server, admin,
// stream, and player role sets; controller connections are fire-and-forget
// and are never pooled.
//
// Routing:
//
// Every handler expresses its effect as "send X to role set Y". The
// routing rules, per role:
//
//	server:  disconnect → re-sync game to players
//	         screen (binary) → wrapped frame to stream viewers
//	         event → addressed delivery to one player
//	         create → new session config, roster reset, snapshots out
//	player:  accept → snapshot (game + roster) to the new connection
//	         login → roster add, forwarded to server, roster to players
//	         disconnect → notify server, roster to players
//	controls: button → augmented with the player id, forwarded to server
//	stream:  accept/disconnect → registry bookkeeping
//	admin:   accept → server count + game snapshot to the new connection
//	         create/start/end → session transition, forwarded to
//	         server and players
//	         kick → forwarded verbatim to server
//
// Identifier Normalization:
//
// Transport ids embed the channel name ("/player#<uuid>"). The hub strips
// that prefix once, at the attach boundary, and every downstream consumer
// (roster keys, forwarded payloads, disconnect notices) holds the
// normalized id.
//
// Concurrency:
//
// A single hub mutex serializes every handler body, so the registry,
// roster, and session state mutate as one unit and never need their own
// locks. Message delivery is an enqueue onto each connection's buffered
// send channel; no network I/O happens while the lock is held, and a
// stalled connection cannot delay a fan-out to the rest.
package hub
