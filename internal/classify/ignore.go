package classify

import (
	"strings"

	"vodsieve/internal/config"
	"vodsieve/internal/media"
)

// IgnoreList holds per-kind keywords that exclude an entry without a
// lookup. Matching is a case-insensitive substring test on the raw title.
type IgnoreList map[media.Kind][]string

// IgnoreListFromConfig reads the ignore section.
func IgnoreListFromConfig(cfg config.Ignore) IgnoreList {
	out := make(IgnoreList, len(media.Kinds))
	for _, kind := range media.Kinds {
		var keywords []string
		for _, kw := range cfg.Keywords(kind) {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				keywords = append(keywords, kw)
			}
		}
		if len(keywords) > 0 {
			out[kind] = keywords
		}
	}
	return out
}

// Match returns the first keyword contained in title.
func (l IgnoreList) Match(kind media.Kind, title string) (string, bool) {
	lowered := strings.ToLower(title)
	for _, kw := range l[kind] {
		kw = strings.ToLower(kw)
		if kw != "" && strings.Contains(lowered, kw) {
			return kw, true
		}
	}
	return "", false
}
