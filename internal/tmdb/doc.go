// Package tmdb provides the minimal TMDB API client used for origin-country
// classification.
//
// Search and Details return raw JSON payloads so callers can cache them
// verbatim; the Decode helpers turn cached or fresh payloads into typed
// values. Non-200 responses surface as *StatusError carrying the status code,
// any Retry-After hint, and the request latency, and Classify sorts errors
// into transient and permanent failures for the retry layer.
package tmdb
