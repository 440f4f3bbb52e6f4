// Package services defines shared error markers and context helpers used by
// the resolution pipeline and its integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and media kinds so log lines
//     from concurrent workers can be correlated.
//   - Structured error markers plus the Wrap helper. FailureKind maps a
//     wrapped error to the bucket reported in the run summary.
package services
