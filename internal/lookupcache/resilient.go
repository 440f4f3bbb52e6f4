package lookupcache

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"vodsieve/internal/logging"
	"vodsieve/internal/lookupkey"
	"vodsieve/internal/media"
	"vodsieve/internal/services"
)

// Resilient wraps a Store so that Get, Put and Sweep failures degrade to a
// miss or a no-op. The first failure is logged as a warning and later ones at
// debug level. Invalidate and Stats return backend errors unchanged.
type Resilient struct {
	inner       Store
	logger      *slog.Logger
	unavailable atomic.Int64
	warned      atomic.Bool
}

var _ Store = (*Resilient)(nil)

// NewResilient wraps inner. A nil inner behaves as Disabled.
func NewResilient(inner Store, logger *slog.Logger) *Resilient {
	if inner == nil {
		inner = Disabled{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resilient{inner: inner, logger: logger}
}

// Unavailable reports how many backend failures were absorbed.
func (r *Resilient) Unavailable() int64 {
	return r.unavailable.Load()
}

// Inner returns the wrapped backend.
func (r *Resilient) Inner() Store {
	return r.inner
}

func (r *Resilient) absorb(op string, table Table, err error) {
	r.unavailable.Add(1)
	wrapped := services.Wrap(services.ErrCacheUnavailable, "cache", op, "backend failure treated as a miss", err)
	attrs := []logging.Attr{
		logging.String("op", op),
		logging.Error(wrapped),
	}
	if table != "" {
		attrs = append(attrs, logging.String("table", string(table)))
	}
	if r.warned.CompareAndSwap(false, true) {
		attrs = append(attrs,
			logging.String(logging.FieldErrorHint, "check cache.path permissions or cache.redis_addr"),
			logging.String(logging.FieldImpact, "lookups bypass the cache; results are unchanged"),
		)
		logging.WarnWithContext(r.logger, "lookup cache unavailable", services.FailureCacheUnavailable, attrs...)
		return
	}
	r.logger.Debug("lookup cache unavailable", logging.Args(attrs...)...)
}

func (r *Resilient) Get(ctx context.Context, table Table, key lookupkey.Key) ([]byte, bool, error) {
	payload, ok, err := r.inner.Get(ctx, table, key)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, nil
		}
		r.absorb("get", table, err)
		return nil, false, nil
	}
	return payload, ok, nil
}

func (r *Resilient) Put(ctx context.Context, table Table, kind media.Kind, key lookupkey.Key, payload []byte, ttl time.Duration) error {
	if err := r.inner.Put(ctx, table, kind, key, payload, ttl); err != nil && ctx.Err() == nil {
		r.absorb("put", table, err)
	}
	return nil
}

func (r *Resilient) Sweep(ctx context.Context) (int64, error) {
	removed, err := r.inner.Sweep(ctx)
	if err != nil && ctx.Err() == nil {
		r.absorb("sweep", "", err)
	}
	return removed, nil
}

func (r *Resilient) Invalidate(ctx context.Context, kind media.Kind) (int64, error) {
	return r.inner.Invalidate(ctx, kind)
}

func (r *Resilient) Stats(ctx context.Context) (Stats, error) {
	return r.inner.Stats(ctx)
}

func (r *Resilient) Close() error {
	return r.inner.Close()
}
