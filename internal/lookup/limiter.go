package lookup

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter spaces requests with a token bucket and bounds how many are in
// flight at once. It is safe for concurrent use.
type Limiter struct {
	bucket   *rate.Limiter
	inflight *semaphore.Weighted
}

// NewLimiter allows one request per spacing with the given burst, and at most
// maxInFlight concurrent requests. A non-positive spacing disables the token
// bucket.
func NewLimiter(spacing time.Duration, burst, maxInFlight int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	limit := rate.Inf
	if spacing > 0 {
		limit = rate.Every(spacing)
	}
	return &Limiter{
		bucket:   rate.NewLimiter(limit, burst),
		inflight: semaphore.NewWeighted(int64(maxInFlight)),
	}
}

// Acquire blocks until a request may start. The returned release must be
// called when the request finishes; calling it more than once is harmless.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := l.inflight.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := l.bucket.Wait(ctx); err != nil {
		l.inflight.Release(1)
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() { l.inflight.Release(1) })
	}, nil
}
