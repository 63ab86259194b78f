// Package daemon runs the long-lived subgrab HTTP service.
//
// It wires configuration, the subtitle pipeline, and the HTTP API into a
// single lifecycle with flock-based locking to prevent two instances from
// sharing a work directory. Holding the lock is also what makes the startup
// sweep of abandoned request workspaces safe.
//
// Keep request handling thin here: the pipeline itself lives in
// internal/subtitles and the daemon only maps its outcomes onto HTTP.
package daemon
