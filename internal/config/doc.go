// Package config loads, normalizes, and validates subgrab configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PORT, YTDLP_BINARY, and YTDLP_COOKIES. The Config type centralizes every
// knob the daemon and CLI need so the work directory, the yt-dlp invocation
// settings, and the HTTP bind address are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
