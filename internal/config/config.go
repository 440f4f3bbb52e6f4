package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"vodsieve/internal/media"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains auxiliary file locations.
type Paths struct {
	EnvFile string `toml:"env_file"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey                string `toml:"api_key"`
	BaseURL               string `toml:"base_url"`
	Language              string `toml:"language"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Cache contains configuration for the lookup result cache.
type Cache struct {
	Enabled              bool   `toml:"enabled"`
	Backend              string `toml:"backend"` // sqlite, redis, memory, none
	Path                 string `toml:"path"`
	TTLDays              int    `toml:"ttl_days"`
	SweepOnStart         bool   `toml:"sweep_on_start"`
	SweepIntervalMinutes int    `toml:"sweep_interval_minutes"`
	RedisAddr            string `toml:"redis_addr"`
	RedisPassword        string `toml:"redis_password"`
	RedisDB              int    `toml:"redis_db"`
	RedisPrefix          string `toml:"redis_prefix"`
}

// Lookup contains rate limit and retry settings for TMDB calls.
type Lookup struct {
	MinSpacingMS  int     `toml:"min_spacing_ms"`
	Burst         int     `toml:"burst"`
	MaxInFlight   int     `toml:"max_in_flight"`
	MaxAttempts   int     `toml:"max_attempts"`
	BaseDelayMS   int     `toml:"base_delay_ms"`
	BackoffFactor float64 `toml:"backoff_factor"`
	MaxDelayMS    int     `toml:"max_delay_ms"`
}

// Batching contains fuzzy title grouping settings.
type Batching struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	Algorithm           string  `toml:"algorithm"` // sequence, token_set, cosine
}

// Classify contains worker and allow/exclude policy settings.
type Classify struct {
	Workers               int      `toml:"workers"`
	OnFailure             string   `toml:"on_failure"` // allow or exclude
	AllowedMovieCountries []string `toml:"allowed_movie_countries"`
	AllowedTVCountries    []string `toml:"allowed_tv_countries"`
	ExcludedLanguages     []string `toml:"excluded_languages"`
	FallbackLanguages     []string `toml:"fallback_languages"`
}

// Ignore lists title keywords that exclude an entry without a lookup.
type Ignore struct {
	Movies        []string `toml:"movies"`
	TVShows       []string `toml:"tvshows"`
	Documentaries []string `toml:"documentaries"`
}

// PreFilter contains settings for the script and keyword pre-filter.
type PreFilter struct {
	Enabled       bool    `toml:"enabled"`
	MinConfidence float64 `toml:"min_confidence"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for vodsieve.
//
// Configuration sections by subsystem:
//   - Paths: auxiliary files such as the .env file
//   - TMDB: metadata lookups
//   - Cache: lookup result cache backend and TTL
//   - Lookup: rate limit, in-flight ceiling, and retry policy
//   - Batching: fuzzy title grouping
//   - Classify: workers and origin-country policy
//   - Ignore: per-kind keyword exclusions
//   - PreFilter: lookup-free exclusion of obvious non-US titles
//   - Logging: log format, level, and directory
type Config struct {
	Paths     Paths     `toml:"paths"`
	TMDB      TMDB      `toml:"tmdb"`
	Cache     Cache     `toml:"cache"`
	Lookup    Lookup    `toml:"lookup"`
	Batching  Batching  `toml:"batching"`
	Classify  Classify  `toml:"classify"`
	Ignore    Ignore    `toml:"ignore"`
	PreFilter PreFilter `toml:"prefilter"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vodsieve/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.loadEnvFile(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vodsieve.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// loadEnvFile populates unset environment variables from paths.env_file. An
// explicitly configured file must exist; the default location is optional.
func (c *Config) loadEnvFile() error {
	explicit := strings.TrimSpace(c.Paths.EnvFile) != ""
	target := c.Paths.EnvFile
	if !explicit {
		target = defaultEnvFile
	}
	expanded, err := expandPath(target)
	if err != nil {
		return fmt.Errorf("paths.env_file: %w", err)
	}
	c.Paths.EnvFile = expanded
	if _, err := os.Stat(expanded); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("paths.env_file: %w", err)
	}
	if err := godotenv.Load(expanded); err != nil {
		return fmt.Errorf("load env file %s: %w", expanded, err)
	}
	return nil
}

// RequireTMDB reports an error when no TMDB credentials are configured.
// Commands that never reach the lookup service skip this check.
func (c *Config) RequireTMDB() error {
	if strings.TrimSpace(c.TMDB.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/vodsieve/config.toml"
	}
	return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'vodsieve config init')", defaultPath)
}

// TTL returns the configured cache time-to-live.
func (c Cache) TTL() time.Duration {
	return time.Duration(c.TTLDays) * 24 * time.Hour
}

// SweepInterval returns the periodic sweep interval, or 0 when disabled.
func (c Cache) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// MinSpacing returns the steady-state spacing between lookup calls.
func (l Lookup) MinSpacing() time.Duration {
	return time.Duration(l.MinSpacingMS) * time.Millisecond
}

// BaseDelay returns the delay before the first retry.
func (l Lookup) BaseDelay() time.Duration {
	return time.Duration(l.BaseDelayMS) * time.Millisecond
}

// MaxDelay returns the cap applied to retry delays.
func (l Lookup) MaxDelay() time.Duration {
	return time.Duration(l.MaxDelayMS) * time.Millisecond
}

// RequestTimeout returns the per-request HTTP timeout.
func (t TMDB) RequestTimeout() time.Duration {
	return time.Duration(t.RequestTimeoutSeconds) * time.Second
}

// DefaultAllow reports whether failed lookups default to allowed.
func (c Classify) DefaultAllow() bool {
	return c.OnFailure == OnFailureAllow
}

// Keywords returns the ignore keywords configured for kind.
func (i Ignore) Keywords(kind media.Kind) []string {
	switch kind {
	case media.KindMovie:
		return i.Movies
	case media.KindTV:
		return i.TVShows
	case media.KindDocumentary:
		return i.Documentaries
	default:
		return nil
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCachePath() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "vodsieve", "tmdb_cache.db")
	}
	return "~/.cache/vodsieve/tmdb_cache.db"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EncodeRedacted renders the effective configuration as TOML with secrets masked.
func (c Config) EncodeRedacted() ([]byte, error) {
	if c.TMDB.APIKey != "" {
		c.TMDB.APIKey = "<redacted>"
	}
	if c.Cache.RedisPassword != "" {
		c.Cache.RedisPassword = "<redacted>"
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
