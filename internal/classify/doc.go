// Package classify partitions content entries into allowed and excluded sets
// by origin country.
//
// Run screens malformed, ignored and pre-filtered entries, groups the rest
// with the batcher, and resolves each entry through a worker pool. An entry
// whose full resolution chain (search, no-year fallback search, details) is
// already cached is decided without touching its group; otherwise the first
// worker to reach the group resolves the group representative once and every
// other member reuses that outcome. Lookup failures fall back to the
// configured default policy and never abort the run. RunStats accounts for
// every received entry exactly once.
package classify
