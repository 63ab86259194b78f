// Package main hosts the subgrab CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the subtitle pipeline locally, talks to a
// running daemon over HTTP, reports environment health, and scaffolds
// configuration. It centralizes configuration resolution and logger setup so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: new behavior belongs in the internal packages first
// and is surfaced here through dedicated commands or flags.
package main
