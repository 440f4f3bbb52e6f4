package textutil

import (
	"fmt"
	"strings"
)

// Metric names a similarity function in [0,1]. Bound, when set, returns a
// cheap upper bound on Score that callers may use to skip comparisons.
type Metric struct {
	Name  string
	Score func(a, b string) float64
	Bound func(a, b string) float64
}

const (
	MetricSequence = "sequence"
	MetricTokenSet = "token_set"
	MetricCosine   = "cosine"
)

// MetricByName resolves a configured metric name.
func MetricByName(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", MetricSequence:
		return Metric{Name: MetricSequence, Score: SequenceRatio, Bound: SequenceRatioBound}, nil
	case MetricTokenSet:
		return Metric{Name: MetricTokenSet, Score: TokenSetRatio}, nil
	case MetricCosine:
		return Metric{Name: MetricCosine, Score: cosineScore}, nil
	default:
		return Metric{}, fmt.Errorf("unknown similarity metric %q", name)
	}
}

func cosineScore(a, b string) float64 {
	if a == b && a != "" {
		return 1
	}
	return CosineSimilarity(NewFingerprint(a), NewFingerprint(b))
}
