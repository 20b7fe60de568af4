// Command clamdscan scans files, directories, and standard input with a
// remote or local ClamAV daemon.
//
// Usage:
//
//	clamdscan [--host H] [--port P] [--tls] scan PATH...
//	clamdscan ping
//	clamdscan version
//	clamdscan config show
//
// Settings come from ~/.config/clamdscan/config.toml (or --config), CLAMD_*
// environment variables, and flags, in increasing order of precedence.
package main
