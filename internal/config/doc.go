// Package config loads, normalizes, and validates vodsieve configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file, and honours
// environment fallbacks such as TMDB_API_KEY. The Config type centralizes the
// cache, rate limit, batching, and policy knobs consumed by the classifier.
//
// Configuration errors are the only fatal conditions of a run, so Validate is
// strict and reports the offending key by its TOML name.
package config
