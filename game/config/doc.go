// Package config stores named game-configuration presets for the Cosmic
// Orbiters relay hub.
//
// A preset is an opaque JSON object with a required "name" field; the hub
// never interprets anything else in it. Presets live as *.json files in a
// configs directory and are cached in memory after first load.
//
// Presets feed the admin tooling: an admin create may reference a preset
// by id instead of carrying a literal payload. Note that the session's
// stored config is still only ever replaced by a server-originated create;
// presets only supply the payload an admin create forwards.
//
// The manager is safe for concurrent use.
package config
