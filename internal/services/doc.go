// Package services defines shared utilities consumed by the subtitle pipeline,
// the HTTP daemon, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp request identifiers and stage names for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper, and Classify, which
//     folds any pipeline error into exactly one Outcome so callers handle
//     every failure kind explicitly.
//   - SanitizeDetail, which turns raw tool diagnostics into a short summary
//     that is safe to hand to untrusted callers.
package services
