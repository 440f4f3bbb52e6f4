package config

import (
	"errors"
	"fmt"

	"vodsieve/internal/services"
)

// Validate ensures the configuration is usable. Every returned error carries
// the services.ErrConfiguration marker.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validateCache,
		c.validateLookup,
		c.validateBatching,
		c.validateClassify,
		c.validatePreFilter,
		c.validateLogging,
	} {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %w", services.ErrConfiguration, err)
		}
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case BackendSQLite, BackendMemory, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend: unsupported value %q (use sqlite, redis, memory, or none)", c.Cache.Backend)
	}
	if c.Cache.TTLDays <= 0 {
		return errors.New("cache.ttl_days must be positive")
	}
	if c.Cache.SweepIntervalMinutes < 0 {
		return errors.New("cache.sweep_interval_minutes must not be negative")
	}
	if c.Cache.RedisDB < 0 {
		return errors.New("cache.redis_db must not be negative")
	}
	return nil
}

func (c *Config) validateLookup() error {
	l := c.Lookup
	if l.MinSpacingMS <= 0 {
		return errors.New("lookup.min_spacing_ms must be positive")
	}
	if l.Burst <= 0 {
		return errors.New("lookup.burst must be positive")
	}
	if l.MaxInFlight <= 0 {
		return errors.New("lookup.max_in_flight must be positive")
	}
	if l.MaxAttempts <= 0 {
		return errors.New("lookup.max_attempts must be positive")
	}
	if l.BaseDelayMS <= 0 {
		return errors.New("lookup.base_delay_ms must be positive")
	}
	if l.BackoffFactor < 1 {
		return errors.New("lookup.backoff_factor must be at least 1")
	}
	if l.MaxDelayMS < l.BaseDelayMS {
		return errors.New("lookup.max_delay_ms must be at least lookup.base_delay_ms")
	}
	return nil
}

func (c *Config) validateBatching() error {
	if c.Batching.SimilarityThreshold < 0 || c.Batching.SimilarityThreshold > 1 {
		return errors.New("batching.similarity_threshold must be between 0 and 1")
	}
	switch c.Batching.Algorithm {
	case "sequence", "token_set", "cosine":
		return nil
	default:
		return fmt.Errorf("batching.algorithm: unsupported value %q (use sequence, token_set, or cosine)", c.Batching.Algorithm)
	}
}

func (c *Config) validateClassify() error {
	if c.Classify.Workers <= 0 {
		return errors.New("classify.workers must be positive")
	}
	switch c.Classify.OnFailure {
	case OnFailureAllow, OnFailureExclude:
	default:
		return fmt.Errorf("classify.on_failure: unsupported value %q (use allow or exclude)", c.Classify.OnFailure)
	}
	for _, code := range append(append([]string{}, c.Classify.AllowedMovieCountries...), c.Classify.AllowedTVCountries...) {
		if len(code) != 2 {
			return fmt.Errorf("classify allowed countries: %q is not an ISO 3166-1 alpha-2 code", code)
		}
	}
	return nil
}

func (c *Config) validatePreFilter() error {
	if c.PreFilter.MinConfidence < 0 || c.PreFilter.MinConfidence > 1 {
		return errors.New("prefilter.min_confidence must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
