package classify

import (
	"time"

	"vodsieve/internal/media"
)

// Decision is the classification outcome of one entry.
type Decision string

const (
	DecisionAllowed    Decision = "allowed"
	DecisionExcluded   Decision = "excluded"
	DecisionUnresolved Decision = "unresolved"
)

// Source records how an entry's decision was obtained.
type Source string

const (
	SourceCacheHit    Source = "cache-hit"
	SourceAPICall     Source = "api-call"
	SourceBatchMember Source = "batch-member"
	SourceSkipped     Source = "skipped"
)

// Reasons shared by several code paths.
const (
	ReasonMalformed     = "malformed entry: missing title"
	ReasonNoMatch       = "no metadata match"
	ReasonDefaultPolicy = "lookup failed: default policy applied"
	ReasonCancelled     = "run cancelled before resolution"
)

// Result is the classification of one input entry.
type Result struct {
	Entry           media.Entry `json:"entry"`
	Decision        Decision    `json:"decision"`
	Reason          string      `json:"reason"`
	Source          Source      `json:"source"`
	GroupID         int         `json:"group_id,omitempty"`
	TMDBID          int64       `json:"tmdb_id,omitempty"`
	ByDefaultPolicy bool        `json:"by_default_policy,omitempty"`
}

// Report is the output of one run. Results are in input order.
type Report struct {
	RunID    string
	Results  []Result
	Stats    RunStats
	Duration time.Duration
}

// Allowed returns the entries that passed the policy.
func (r *Report) Allowed() []media.Entry {
	return r.filter(DecisionAllowed)
}

// Excluded returns the entries rejected by the policy or screening.
func (r *Report) Excluded() []media.Entry {
	return r.filter(DecisionExcluded)
}

func (r *Report) filter(decision Decision) []media.Entry {
	var out []media.Entry
	for _, res := range r.Results {
		if res.Decision == decision {
			out = append(out, res.Entry)
		}
	}
	return out
}
