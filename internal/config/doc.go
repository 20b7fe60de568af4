// Package config loads, normalizes, and validates clamdscan configuration.
//
// It supplies defaults matching the clamd protocol client (localhost:3310,
// plain TCP, 20 second timeout), reads an optional TOML file, and applies
// CLAMD_* environment overrides. ClientOptions turns the result into
// options for clamd.NewClient.
package config
