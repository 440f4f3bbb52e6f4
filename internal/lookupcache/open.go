package lookupcache

import (
	"context"
	"fmt"
	"log/slog"

	"vodsieve/internal/config"
	"vodsieve/internal/services"
)

// Open builds the backend selected by cfg. A disabled cache returns Disabled.
func Open(ctx context.Context, cfg config.Cache, opts ...Option) (Store, error) {
	opts = append([]Option{WithDefaultTTL(cfg.TTL())}, opts...)
	if !cfg.Enabled {
		return Disabled{}, nil
	}
	switch cfg.Backend {
	case config.BackendNone:
		return Disabled{}, nil
	case config.BackendMemory:
		return NewMemory(opts...), nil
	case config.BackendSQLite, "":
		store, err := OpenSQLite(ctx, cfg.Path, opts...)
		if err != nil {
			return nil, services.Wrap(services.ErrCacheUnavailable, "cache", "open sqlite", cfg.Path, err)
		}
		return store, nil
	case config.BackendRedis:
		store, err := OpenRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		}, opts...)
		if err != nil {
			return nil, services.Wrap(services.ErrCacheUnavailable, "cache", "open redis", cfg.RedisAddr, err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown cache backend %q", services.ErrConfiguration, cfg.Backend)
	}
}

// OpenResilient opens the configured backend wrapped in Resilient. When the
// backend cannot be opened the run continues uncached.
func OpenResilient(ctx context.Context, cfg config.Cache, logger *slog.Logger, opts ...Option) *Resilient {
	store, err := Open(ctx, cfg, opts...)
	if err != nil {
		r := NewResilient(Disabled{}, logger)
		r.absorb("open", "", err)
		return r
	}
	return NewResilient(store, logger)
}

// Describe returns a short human-readable location for the configured backend.
func Describe(cfg config.Cache) string {
	if !cfg.Enabled || cfg.Backend == config.BackendNone {
		return "disabled"
	}
	switch cfg.Backend {
	case config.BackendRedis:
		return fmt.Sprintf("redis://%s/%d (prefix %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisPrefix)
	case config.BackendMemory:
		return "memory"
	default:
		return "sqlite " + cfg.Path
	}
}

