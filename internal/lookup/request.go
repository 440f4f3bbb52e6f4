package lookup

import (
	"context"
	"strings"

	"vodsieve/internal/lookupkey"
	"vodsieve/internal/media"
	"vodsieve/internal/textutil"
)

// Service is the external metadata API. *tmdb.Client implements it.
type Service interface {
	Search(ctx context.Context, kind media.Kind, query string, year media.Year) ([]byte, error)
	Details(ctx context.Context, kind media.Kind, id int64) ([]byte, error)
}

// Request identifies one search. Two requests are cache-equivalent when kind,
// normalized title and year are equal; Query is only the text sent upstream.
type Request struct {
	Kind  media.Kind
	Title string
	Year  media.Year
	Query string
}

// NewRequest builds a request for a raw title.
func NewRequest(kind media.Kind, rawTitle string, year media.Year) Request {
	return Request{
		Kind:  kind,
		Title: textutil.NormalizeTitle(rawTitle),
		Year:  year,
		Query: strings.Join(strings.Fields(rawTitle), " "),
	}
}

// RequestFor builds the request for an entry.
func RequestFor(entry media.Entry) Request {
	return NewRequest(entry.Kind, entry.Title, entry.Year)
}

// SearchKey returns the cache key of the request.
func (r Request) SearchKey() lookupkey.Key {
	return lookupkey.BuildNormalizedSearchKey(r.Kind, r.Title, r.Year)
}

// WithoutYear returns the request with the year removed.
func (r Request) WithoutYear() Request {
	r.Year = media.NoYear
	return r
}

// Equivalent reports whether both requests share a cache key.
func (r Request) Equivalent(other Request) bool {
	return r.Kind == other.Kind && r.Title == other.Title && r.Year.Equal(other.Year)
}
