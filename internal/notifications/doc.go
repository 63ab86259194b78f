// Package notifications delivers operator alerts via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic URL from
// config.toml and degrades to a no-op when notifications are disabled.
// Events cover conditions an operator has to act on: a daemon that failed
// to start, a yt-dlp binary that went missing, and a run of consecutive
// tool failures together with its recovery.
package notifications
