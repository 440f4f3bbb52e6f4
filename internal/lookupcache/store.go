package lookupcache

import (
	"context"
	"fmt"
	"time"

	"vodsieve/internal/lookupkey"
	"vodsieve/internal/media"
)

// Table selects one of the two logical cache tables.
type Table string

const (
	TableSearch Table = "search"
	TableDetail Table = "detail"
)

// Tables lists both tables in a stable order.
var Tables = []Table{TableSearch, TableDetail}

func (t Table) valid() bool {
	return t == TableSearch || t == TableDetail
}

// Store is a key/value cache with per-entry expiry.
type Store interface {
	// Get returns the payload stored under key, or ok=false when the key is
	// absent or expired.
	Get(ctx context.Context, table Table, key lookupkey.Key) (payload []byte, ok bool, err error)
	// Put stores payload under key. A non-positive ttl uses the store default.
	Put(ctx context.Context, table Table, kind media.Kind, key lookupkey.Key, payload []byte, ttl time.Duration) error
	// Invalidate removes every entry of kind from both tables, or every entry
	// when kind is empty. It returns the number of entries removed.
	Invalidate(ctx context.Context, kind media.Kind) (int64, error)
	// Sweep deletes expired entries and returns how many were removed.
	Sweep(ctx context.Context) (int64, error)
	// Stats summarizes the store contents.
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Stats describes cache contents per table.
type Stats struct {
	Backend string
	Search  TableStats
	Detail  TableStats
}

// TableStats counts entries in one table. Expired counts rows that are still
// stored but no longer readable.
type TableStats struct {
	Live    int64
	Expired int64
	ByKind  map[media.Kind]int64
}

// DefaultTTL applies when Put is called without a ttl.
const DefaultTTL = 7 * 24 * time.Hour

type options struct {
	now        func() time.Time
	defaultTTL time.Duration
}

// Option configures a backend.
type Option func(*options)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithDefaultTTL sets the ttl used when Put receives a non-positive ttl.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.defaultTTL = ttl
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, defaultTTL: DefaultTTL}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) ttl(ttl time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return o.defaultTTL
}

func checkTable(table Table) error {
	if !table.valid() {
		return fmt.Errorf("unknown cache table %q", table)
	}
	return nil
}
