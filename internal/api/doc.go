// Package api defines the wire-format types of the subgrab HTTP API and a
// small client for talking to a running daemon.
//
// # Key Types
//
// SubtitleRequest/SubtitleResponse: the POST /get-subtitles exchange, keyed
// "url", "lang", "format" and "subtitles".
//
// ErrorResponse: every non-2xx body. Details carries a sanitized summary of
// the tool diagnostics, never raw stderr.
//
// DaemonStatus: runtime information for GET /api/status including external
// dependency availability.
//
// Client: used by the CLI to fetch through a daemon and to query its status.
package api
