package media

import (
	"fmt"
	"strings"
)

// Kind identifies the media category of an entry.
type Kind string

const (
	KindMovie       Kind = "movie"
	KindTV          Kind = "tv"
	KindDocumentary Kind = "documentary"
)

// Kinds lists every supported kind in a stable order.
var Kinds = []Kind{KindMovie, KindTV, KindDocumentary}

// ParseKind maps user-facing names (including common plural aliases) to a Kind.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "movie", "movies", "film":
		return KindMovie, nil
	case "tv", "series", "show", "tvshow", "tvshows":
		return KindTV, nil
	case "documentary", "documentaries", "doc":
		return KindDocumentary, nil
	default:
		return "", fmt.Errorf("unknown media kind %q", value)
	}
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindMovie, KindTV, KindDocumentary:
		return true
	}
	return false
}

// UsesMovieEndpoints reports whether lookups for k go through the movie API.
func (k Kind) UsesMovieEndpoints() bool {
	return k == KindMovie || k == KindDocumentary
}

func (k Kind) String() string { return string(k) }
