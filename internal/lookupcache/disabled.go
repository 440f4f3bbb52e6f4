package lookupcache

import (
	"context"
	"time"

	"vodsieve/internal/lookupkey"
	"vodsieve/internal/media"
)

// Disabled is the Store used when caching is turned off. Every read misses
// and every write is discarded.
type Disabled struct{}

var _ Store = Disabled{}

func (Disabled) Get(context.Context, Table, lookupkey.Key) ([]byte, bool, error) {
	return nil, false, nil
}

func (Disabled) Put(context.Context, Table, media.Kind, lookupkey.Key, []byte, time.Duration) error {
	return nil
}

func (Disabled) Invalidate(context.Context, media.Kind) (int64, error) { return 0, nil }

func (Disabled) Sweep(context.Context) (int64, error) { return 0, nil }

func (Disabled) Stats(context.Context) (Stats, error) {
	return Stats{Backend: "none"}, nil
}

func (Disabled) Close() error { return nil }
