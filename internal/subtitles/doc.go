// Package subtitles turns a video URL into subtitle text by driving yt-dlp.
//
// A fetch runs as a fixed sequence over a per-request workspace: provision
// optional cookie material, invoke yt-dlp for auto-generated tracks, locate
// whichever candidate file the tool produced, normalize it into the requested
// representation, and release every temporary file on the way out. Nothing is
// shared between requests; each workspace lives under its own req-<uuid>
// directory so concurrent fetches never touch the same paths.
//
// Errors carry the markers from the services package; use services.Classify
// to map them to an outcome.
package subtitles
