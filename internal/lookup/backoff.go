package lookup

import (
	"math"
	"time"

	"vodsieve/internal/config"
)

// Backoff is the retry policy for transient failures.
type Backoff struct {
	MaxAttempts int
	Base        time.Duration
	Factor      float64
	Max         time.Duration
}

// BackoffFromConfig reads the retry policy from the lookup section.
func BackoffFromConfig(cfg config.Lookup) Backoff {
	return Backoff{
		MaxAttempts: cfg.MaxAttempts,
		Base:        cfg.BaseDelay(),
		Factor:      cfg.BackoffFactor,
		Max:         cfg.MaxDelay(),
	}
}

func (b Backoff) attempts() int {
	if b.MaxAttempts <= 0 {
		return 1
	}
	return b.MaxAttempts
}

// Delay returns the wait after the n-th failed attempt (1-based):
// base * factor^(n-1), capped at Max. A Retry-After hint larger than the
// computed delay raises it, still subject to the cap.
func (b Backoff) Delay(failures int, hint time.Duration) time.Duration {
	if failures < 1 {
		failures = 1
	}
	factor := b.Factor
	if factor < 1 {
		factor = 1
	}
	raw := float64(b.Base) * math.Pow(factor, float64(failures-1))
	var delay time.Duration
	switch {
	case b.Max > 0 && raw >= float64(b.Max):
		delay = b.Max
	case raw >= math.MaxInt64:
		delay = time.Duration(math.MaxInt64)
	default:
		delay = time.Duration(raw)
	}
	if hint > delay {
		delay = hint
	}
	if b.Max > 0 && delay > b.Max {
		delay = b.Max
	}
	if delay < 0 {
		return 0
	}
	return delay
}
