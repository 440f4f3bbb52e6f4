package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeTMDB()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizeBatching()
	c.normalizeClassify()
	c.normalizeIgnore()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.RequestTimeoutSeconds <= 0 {
		c.TMDB.RequestTimeoutSeconds = defaultTMDBRequestTimeout
	}
}

func (c *Config) normalizeCache() error {
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = defaultCacheBackend
	}
	if !c.Cache.Enabled {
		c.Cache.Backend = BackendNone
	}
	if strings.TrimSpace(c.Cache.Path) == "" {
		c.Cache.Path = defaultCachePath()
	}
	var err error
	if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	c.Cache.RedisAddr = strings.TrimSpace(c.Cache.RedisAddr)
	if c.Cache.RedisAddr == "" {
		if value, ok := os.LookupEnv("VODSIEVE_REDIS_ADDR"); ok {
			c.Cache.RedisAddr = strings.TrimSpace(value)
		}
	}
	if c.Cache.RedisPassword == "" {
		if value, ok := os.LookupEnv("VODSIEVE_REDIS_PASSWORD"); ok {
			c.Cache.RedisPassword = value
		}
	}
	if value, ok := os.LookupEnv("VODSIEVE_REDIS_DB"); ok && c.Cache.RedisDB == 0 {
		if db, convErr := strconv.Atoi(strings.TrimSpace(value)); convErr == nil {
			c.Cache.RedisDB = db
		}
	}
	c.Cache.RedisPrefix = strings.Trim(strings.TrimSpace(c.Cache.RedisPrefix), ":")
	if c.Cache.RedisPrefix == "" {
		c.Cache.RedisPrefix = defaultRedisPrefix
	}
	return nil
}

func (c *Config) normalizeBatching() {
	c.Batching.Algorithm = strings.ToLower(strings.TrimSpace(c.Batching.Algorithm))
	if c.Batching.Algorithm == "" {
		c.Batching.Algorithm = defaultSimilarityAlgorithm
	}
}

func (c *Config) normalizeClassify() {
	c.Classify.OnFailure = strings.ToLower(strings.TrimSpace(c.Classify.OnFailure))
	if c.Classify.OnFailure == "" {
		c.Classify.OnFailure = OnFailureExclude
	}
	c.Classify.AllowedMovieCountries = normalizeCodes(c.Classify.AllowedMovieCountries, strings.ToUpper)
	c.Classify.AllowedTVCountries = normalizeCodes(c.Classify.AllowedTVCountries, strings.ToUpper)
	c.Classify.ExcludedLanguages = normalizeCodes(c.Classify.ExcludedLanguages, strings.ToLower)
	c.Classify.FallbackLanguages = normalizeCodes(c.Classify.FallbackLanguages, strings.ToLower)
}

func (c *Config) normalizeIgnore() {
	c.Ignore.Movies = normalizeCodes(c.Ignore.Movies, strings.ToLower)
	c.Ignore.TVShows = normalizeCodes(c.Ignore.TVShows, strings.ToLower)
	c.Ignore.Documentaries = normalizeCodes(c.Ignore.Documentaries, strings.ToLower)
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Dir) == "" {
		c.Logging.Dir = ""
		return nil
	}
	var err error
	if c.Logging.Dir, err = expandPath(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}

// normalizeCodes trims, case-maps, and de-duplicates a list while keeping order.
func normalizeCodes(values []string, mapper func(string) string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := mapper(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
