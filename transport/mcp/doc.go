// Package mcp exposes the relay hub's admin surface as MCP tools.
//
// The package is a thin client: every tool call is proxied to the REST API
// over HTTP, so the MCP surface and the secure admin channel drive exactly
// the same hub operations and can never diverge.
//
// Tools:
//
//	hub_status   current session status, config, roster, connection counts
//	create_game  admin create (inline config or a stored preset by id)
//	start_game   start the current game
//	end_game     end the current game
//	kick_player  ask the presentation server to kick one player
//	list_configs list stored configuration presets
//
// The MCP server is served two ways by the main command: mounted on
// POST /mcp of the HTTP server, and over stdio in mcp mode for local
// tooling.
package mcp
