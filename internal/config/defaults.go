package config

const (
	defaultEnvFile              = "~/.config/vodsieve/.env"
	defaultTMDBLanguage         = "en-US"
	defaultTMDBBaseURL          = "https://api.themoviedb.org/3"
	defaultTMDBRequestTimeout   = 10
	defaultCacheBackend         = BackendSQLite
	defaultCacheTTLDays         = 7
	defaultRedisPrefix          = "vodsieve"
	defaultLookupMinSpacingMS   = 250
	defaultLookupBurst          = 4
	defaultLookupMaxInFlight    = 4
	defaultLookupMaxAttempts    = 5
	defaultLookupBaseDelayMS    = 1000
	defaultLookupBackoffFactor  = 2.0
	defaultLookupMaxDelayMS     = 30000
	defaultSimilarityThreshold  = 0.85
	defaultSimilarityAlgorithm  = "sequence"
	defaultClassifyWorkers      = 10
	defaultPreFilterConfidence  = 0.9
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Cache backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// Failure policies.
const (
	OnFailureAllow   = "allow"
	OnFailureExclude = "exclude"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		TMDB: TMDB{
			Language:              defaultTMDBLanguage,
			BaseURL:               defaultTMDBBaseURL,
			RequestTimeoutSeconds: defaultTMDBRequestTimeout,
		},
		Cache: Cache{
			Enabled:      true,
			Backend:      defaultCacheBackend,
			Path:         defaultCachePath(),
			TTLDays:      defaultCacheTTLDays,
			SweepOnStart: true,
			RedisPrefix:  defaultRedisPrefix,
		},
		Lookup: Lookup{
			MinSpacingMS:  defaultLookupMinSpacingMS,
			Burst:         defaultLookupBurst,
			MaxInFlight:   defaultLookupMaxInFlight,
			MaxAttempts:   defaultLookupMaxAttempts,
			BaseDelayMS:   defaultLookupBaseDelayMS,
			BackoffFactor: defaultLookupBackoffFactor,
			MaxDelayMS:    defaultLookupMaxDelayMS,
		},
		Batching: Batching{
			SimilarityThreshold: defaultSimilarityThreshold,
			Algorithm:           defaultSimilarityAlgorithm,
		},
		Classify: Classify{
			Workers:               defaultClassifyWorkers,
			OnFailure:             OnFailureExclude,
			AllowedMovieCountries: []string{"US"},
			AllowedTVCountries:    []string{"US"},
			ExcludedLanguages:     []string{"ja"},
			FallbackLanguages:     []string{"en"},
		},
		PreFilter: PreFilter{
			MinConfidence: defaultPreFilterConfidence,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
