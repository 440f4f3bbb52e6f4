// Package logging assembles structured slog loggers and formatting helpers used
// across the classifier.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline workers can tag log
// lines with run identifiers, media kinds, and batch group ids. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
package logging
