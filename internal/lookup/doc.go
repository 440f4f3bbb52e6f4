// Package lookup issues rate-limited, retried TMDB requests.
//
// A Client owns one Limiter, which combines a token bucket for request
// spacing with a semaphore bounding in-flight requests, and drives each
// request through a small retry state machine. Transient failures (rate
// limits, server errors, timeouts) are retried with capped exponential
// backoff up to the configured attempt count; permanent failures return at
// once. Every failure surfaces as a *LookupError that matches the
// services.ErrTransient / services.ErrPermanent markers, plus
// services.ErrLookupFailed once retries are exhausted.
package lookup
