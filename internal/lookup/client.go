package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"vodsieve/internal/config"
	"vodsieve/internal/logging"
	"vodsieve/internal/media"
	"vodsieve/internal/tmdb"
)

// RetryEvent describes a scheduled retry.
type RetryEvent struct {
	Op      string
	Attempt int
	Delay   time.Duration
	Err     error
}

// Options configures a Client.
type Options struct {
	MinSpacing  time.Duration
	Burst       int
	MaxInFlight int
	Backoff     Backoff
	Logger      *slog.Logger
	// Sleep waits between attempts. Defaults to SleepWithContext.
	Sleep func(ctx context.Context, d time.Duration) error
	// Observer is called before every retry wait.
	Observer func(RetryEvent)
	// Classify overrides tmdb.Classify.
	Classify func(error) tmdb.Class
}

// OptionsFromConfig maps the lookup section to client options.
func OptionsFromConfig(cfg config.Lookup) Options {
	return Options{
		MinSpacing:  cfg.MinSpacing(),
		Burst:       cfg.Burst,
		MaxInFlight: cfg.MaxInFlight,
		Backoff:     BackoffFromConfig(cfg),
	}
}

// Stats counts external traffic issued by a Client.
type Stats struct {
	Requests          int64
	Retries           int64
	TransientFailures int64
	PermanentFailures int64
	Exhausted         int64
}

// Client wraps a Service with rate limiting and retries.
type Client struct {
	svc      Service
	limiter  *Limiter
	backoff  Backoff
	logger   *slog.Logger
	sleep    func(context.Context, time.Duration) error
	observer func(RetryEvent)
	classify func(error) tmdb.Class

	requests  atomic.Int64
	retries   atomic.Int64
	transient atomic.Int64
	permanent atomic.Int64
	exhausted atomic.Int64
}

// NewClient builds a client around svc.
func NewClient(svc Service, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = SleepWithContext
	}
	classify := opts.Classify
	if classify == nil {
		classify = tmdb.Classify
	}
	return &Client{
		svc:      svc,
		limiter:  NewLimiter(opts.MinSpacing, opts.Burst, opts.MaxInFlight),
		backoff:  opts.Backoff,
		logger:   logger,
		sleep:    sleep,
		observer: opts.Observer,
		classify: classify,
	}
}

// Resolve runs a search for req and returns the raw payload.
func (c *Client) Resolve(ctx context.Context, req Request) ([]byte, error) {
	op := fmt.Sprintf("search %s %q", req.Kind, req.Query)
	return c.do(ctx, op, func(ctx context.Context) ([]byte, error) {
		return c.svc.Search(ctx, req.Kind, req.Query, req.Year)
	})
}

// ResolveDetail fetches the detail payload for a TMDB id.
func (c *Client) ResolveDetail(ctx context.Context, kind media.Kind, id int64) ([]byte, error) {
	op := fmt.Sprintf("details %s %d", kind, id)
	return c.do(ctx, op, func(ctx context.Context) ([]byte, error) {
		return c.svc.Details(ctx, kind, id)
	})
}

// Stats returns a snapshot of the traffic counters.
func (c *Client) Stats() Stats {
	return Stats{
		Requests:          c.requests.Load(),
		Retries:           c.retries.Load(),
		TransientFailures: c.transient.Load(),
		PermanentFailures: c.permanent.Load(),
		Exhausted:         c.exhausted.Load(),
	}
}

func (c *Client) do(ctx context.Context, op string, call func(context.Context) ([]byte, error)) ([]byte, error) {
	machine := newRetryMachine(c.backoff)
	for {
		release, err := c.limiter.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		machine.begin()
		c.requests.Add(1)
		payload, err := call(ctx)
		release()

		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		}
		class := tmdb.Permanent
		if err != nil {
			class = c.classify(err)
			if class == tmdb.Transient {
				c.transient.Add(1)
			}
		}
		machine.record(err, class, tmdb.RetryAfter(err))

		if machine.finished() {
			switch machine.state {
			case stateSucceeded:
				return payload, nil
			case statePermanentFailure:
				c.permanent.Add(1)
			case stateExhausted:
				c.exhausted.Add(1)
			}
			return nil, machine.failure(op)
		}

		delay := machine.wait()
		c.retries.Add(1)
		c.logger.Debug("tmdb request retry scheduled",
			logging.String("op", op),
			logging.Int("attempt", machine.attempts),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		if c.observer != nil {
			c.observer(RetryEvent{Op: op, Attempt: machine.attempts, Delay: delay, Err: err})
		}
		if err := c.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
}

// SleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
