package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vodsieve/internal/media"
)

// DefaultBaseURL is the public TMDB v3 API root.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// maxPayloadBytes bounds a single response body.
const maxPayloadBytes = 8 << 20

// Client provides access to the TMDB API for searches and detail lookups.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Search queries /search/movie (movies and documentaries) or /search/tv and
// returns the raw response body.
func (c *Client) Search(ctx context.Context, kind media.Kind, query string, year media.Year) ([]byte, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	path := "/search/tv"
	yearParam := "first_air_date_year"
	if kind.UsesMovieEndpoints() {
		path = "/search/movie"
		yearParam = "year"
	}
	if year.Known() {
		params.Set(yearParam, strconv.Itoa(year.Int()))
	}
	return c.get(ctx, "search "+string(kind), path, params)
}

// Details fetches /movie/{id} with release dates appended, or /tv/{id}.
func (c *Client) Details(ctx context.Context, kind media.Kind, id int64) ([]byte, error) {
	if id <= 0 {
		return nil, errors.New("tmdb id must be positive")
	}
	params := url.Values{}
	path := fmt.Sprintf("/tv/%d", id)
	if kind.UsesMovieEndpoints() {
		path = fmt.Sprintf("/movie/%d", id)
		params.Set("append_to_response", "release_dates")
	}
	return c.get(ctx, "details "+string(kind), path, params)
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("tmdb %s: execute request (latency=%v): %w", op, latency, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("tmdb %s: read response (latency=%v): %w", op, latency, err)
	}
	if resp.StatusCode != http.StatusOK {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &StatusError{
			Op:         op,
			StatusCode: resp.StatusCode,
			RetryAfter: retryAfter,
			Latency:    latency,
			Body:       snippet(body),
		}
	}
	return body, nil
}

func snippet(body []byte) string {
	const limit = 200
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
