// Package main hosts the vodsieve CLI entrypoint and command graph.
//
// The Cobra command tree reads playlist entries, runs them through the
// classification pipeline, and exposes maintenance commands for the lookup
// cache and the configuration file. Configuration is resolved once per
// invocation and shared by every subcommand.
//
// Keep this package lean: behavior belongs in the internal packages and is
// surfaced here through flags and output formatting.
package main
