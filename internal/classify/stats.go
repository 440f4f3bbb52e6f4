package classify

import (
	"fmt"
	"maps"
	"sync"

	"vodsieve/internal/services"
)

// RunStats summarizes a run. Every received entry lands in exactly one of
// TotalEntries, Malformed, PreFiltered, Ignored or Unresolved, and every
// entry in TotalEntries has exactly one of the sources counted by CacheHits,
// CallsIssued and BatchReuses.
type RunStats struct {
	Received     int `json:"received"`
	TotalEntries int `json:"total_entries"`
	Groups       int `json:"groups"`

	CacheHits   int `json:"cache_hits"`
	CacheMisses int `json:"cache_misses"`
	CallsIssued int `json:"calls_issued"`
	BatchReuses int `json:"batch_reuses"`
	// CallsSaved is TotalEntries - CallsIssued, that is CacheHits +
	// BatchReuses: every resolved entry that did not trigger its own lookup,
	// whether the cache or a group representative answered it.
	CallsSaved int `json:"calls_saved"`

	APIRequests int64 `json:"api_requests"`
	Retries     int64 `json:"retries"`

	PermanentFailures int   `json:"permanent_failures"`
	LookupFailures    int   `json:"lookup_failures"`
	CacheUnavailable  int64 `json:"cache_unavailable"`

	Malformed   int `json:"malformed"`
	PreFiltered int `json:"pre_filtered"`
	Ignored     int `json:"ignored"`
	Unresolved  int `json:"unresolved"`

	Allowed       int `json:"allowed"`
	Excluded      int `json:"excluded"`
	DefaultPolicy int `json:"default_policy"`

	PreFilterByDetector map[string]int `json:"pre_filter_by_detector,omitempty"`
}

// Reconciles reports whether the accounting identities hold.
func (s RunStats) Reconciles() bool {
	return s.CacheHits+s.CallsIssued+s.BatchReuses == s.TotalEntries &&
		s.TotalEntries+s.Malformed+s.PreFiltered+s.Ignored+s.Unresolved == s.Received &&
		s.Allowed+s.Excluded+s.Unresolved == s.Received
}

// Check returns an error describing the first violated identity.
func (s RunStats) Check() error {
	if got := s.CacheHits + s.CallsIssued + s.BatchReuses; got != s.TotalEntries {
		return fmt.Errorf("cache_hits+calls_issued+batch_reuses = %d, total_entries = %d", got, s.TotalEntries)
	}
	if got := s.TotalEntries + s.Malformed + s.PreFiltered + s.Ignored + s.Unresolved; got != s.Received {
		return fmt.Errorf("resolved+screened+unresolved = %d, received = %d", got, s.Received)
	}
	if got := s.Allowed + s.Excluded + s.Unresolved; got != s.Received {
		return fmt.Errorf("allowed+excluded+unresolved = %d, received = %d", got, s.Received)
	}
	return nil
}

// Failures returns counts keyed by failure kind.
func (s RunStats) Failures() map[string]int64 {
	return map[string]int64{
		services.FailureCacheUnavailable: s.CacheUnavailable,
		services.FailureLookupFailed:     int64(s.LookupFailures),
		services.FailurePermanentLookup:  int64(s.PermanentFailures),
		services.FailureMalformedEntry:   int64(s.Malformed),
	}
}

type statsCollector struct {
	mu sync.Mutex
	s  RunStats
}

func (c *statsCollector) update(fn func(*RunStats)) {
	c.mu.Lock()
	fn(&c.s)
	c.mu.Unlock()
}

func (c *statsCollector) record(res Result) {
	c.update(func(s *RunStats) {
		switch res.Decision {
		case DecisionAllowed:
			s.Allowed++
		case DecisionExcluded:
			s.Excluded++
		case DecisionUnresolved:
			s.Unresolved++
		}
		if res.ByDefaultPolicy {
			s.DefaultPolicy++
		}
		switch res.Source {
		case SourceCacheHit:
			s.TotalEntries++
			s.CacheHits++
		case SourceAPICall:
			s.TotalEntries++
			s.CallsIssued++
		case SourceBatchMember:
			s.TotalEntries++
			s.BatchReuses++
		}
	})
}

func (c *statsCollector) snapshot() RunStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.s
	out.CallsSaved = out.TotalEntries - out.CallsIssued
	if c.s.PreFilterByDetector != nil {
		out.PreFilterByDetector = maps.Clone(c.s.PreFilterByDetector)
	}
	return out
}
