// Package lookupcache persists TMDB search and detail payloads with a TTL.
//
// Store is implemented by a SQLite file (the default deployment), a Redis
// server shared between hosts, an in-process map, and a disabled no-op store.
// Every backend guarantees that a read never returns an expired payload and
// that writing a key twice replaces the payload and refreshes its expiry.
//
// Callers in the pipeline wrap the backend with Resilient, which converts
// backend failures into cache misses so that caching never affects
// classification results.
package lookupcache
