// Package api exposes the HTTP surface of the Cosmic Orbiters relay hub.
//
// The api package mounts three kinds of routes:
//
// Channel endpoints — one WebSocket endpoint per role channel. Each
// upgrades the request and attaches the accepted connection to the
// matching role handler on the hub:
//
//	/server    presentation/display server
//	/player    individual players
//	/controls  handheld controllers
//	/stream    stream viewers
//	/secure    admin console
//
// REST admin surface — a thin mirror of the secure channel, so external
// tooling (the MCP endpoint, dashboards, scripts) can drive the same hub
// operations without holding a WebSocket open:
//
//	GET  /api/status          session status, config, roster, counts
//	POST /api/game            admin create (verbatim body or config_id)
//	POST /api/game/start      admin start
//	POST /api/game/end        admin end
//	POST /api/kick            forward a kick to the server role
//	GET  /api/configs         list presets
//	POST /api/configs         save a preset
//	GET  /api/configs/{id}    fetch one preset
//
// The REST handlers call the exact same hub methods as the secure channel;
// there is no second mutation path into session state.
//
// Static files — everything else is served from the static directory, for
// the browser clients of the four roles.
package api
