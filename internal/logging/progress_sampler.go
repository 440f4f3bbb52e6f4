package logging

import "sync/atomic"

// ProgressSampler rate-limits progress logs to one line per percentage
// bucket. It may be shared between workers.
type ProgressSampler struct {
	step    int
	emitted atomic.Int64
}

// NewProgressSampler emits every step percent; a non-positive step means 10.
func NewProgressSampler(step int) *ProgressSampler {
	if step <= 0 {
		step = 10
	}
	s := &ProgressSampler{step: step}
	s.emitted.Store(-1)
	return s
}

// ShouldLog reports whether done of total starts a bucket nobody has logged yet.
func (s *ProgressSampler) ShouldLog(done, total int) bool {
	if s == nil {
		return true
	}
	if total <= 0 {
		return false
	}
	done = min(done, total)
	bucket := int64(done * 100 / total / s.step)
	for {
		last := s.emitted.Load()
		if bucket <= last {
			return false
		}
		if s.emitted.CompareAndSwap(last, bucket) {
			return true
		}
	}
}
