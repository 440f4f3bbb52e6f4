package batching

import (
	"fmt"

	"vodsieve/internal/textutil"
)

// Comparator decides whether two normalized titles describe the same work.
type Comparator interface {
	Similar(a, b string) bool
}

// ThresholdComparator accepts pairs whose metric score reaches Threshold.
type ThresholdComparator struct {
	Metric    textutil.Metric
	Threshold float64
}

// NewComparator resolves the metric by name.
func NewComparator(algorithm string, threshold float64) (ThresholdComparator, error) {
	if threshold < 0 || threshold > 1 {
		return ThresholdComparator{}, fmt.Errorf("similarity threshold %v outside [0,1]", threshold)
	}
	metric, err := textutil.MetricByName(algorithm)
	if err != nil {
		return ThresholdComparator{}, err
	}
	return ThresholdComparator{Metric: metric, Threshold: threshold}, nil
}

// Similar implements Comparator.
func (c ThresholdComparator) Similar(a, b string) bool {
	if a == b {
		return true
	}
	if c.Metric.Bound != nil && c.Metric.Bound(a, b) < c.Threshold {
		return false
	}
	return c.Metric.Score(a, b) >= c.Threshold
}

// ExactComparator only groups identical normalized titles.
type ExactComparator struct{}

// Similar implements Comparator.
func (ExactComparator) Similar(a, b string) bool { return a == b }
