package classify

import (
	"fmt"
	"slices"
	"strings"

	"vodsieve/internal/config"
	"vodsieve/internal/media"
	"vodsieve/internal/tmdb"
)

// Policy holds the origin-country rules.
type Policy struct {
	AllowedMovieCountries []string
	AllowedTVCountries    []string
	ExcludedLanguages     []string
	FallbackLanguages     []string
}

// PolicyFromConfig copies the classify section.
func PolicyFromConfig(cfg config.Classify) Policy {
	return Policy{
		AllowedMovieCountries: slices.Clone(cfg.AllowedMovieCountries),
		AllowedTVCountries:    slices.Clone(cfg.AllowedTVCountries),
		ExcludedLanguages:     slices.Clone(cfg.ExcludedLanguages),
		FallbackLanguages:     slices.Clone(cfg.FallbackLanguages),
	}
}

func (p Policy) allowedCountries(kind media.Kind) []string {
	if kind == media.KindTV {
		return p.AllowedTVCountries
	}
	return p.AllowedMovieCountries
}

// outcome is a resolved decision before it is attached to entries.
type outcome struct {
	decision Decision
	reason   string
	tmdbID   int64
}

func noMatch() outcome {
	return outcome{decision: DecisionExcluded, reason: ReasonNoMatch}
}

// pick chooses the search result the policy is applied to. Movies and
// documentaries use the first result. TV prefers results from the requested
// first-air year, then results whose origin country is allowed, then the
// highest popularity.
func (p Policy) pick(kind media.Kind, year media.Year, results []tmdb.SearchResult) (tmdb.SearchResult, bool) {
	if len(results) == 0 {
		return tmdb.SearchResult{}, false
	}
	if kind.UsesMovieEndpoints() {
		return results[0], true
	}

	candidates := results
	if year.Known() {
		var sameYear []tmdb.SearchResult
		for _, r := range results {
			if r.Year().Equal(year) {
				sameYear = append(sameYear, r)
			}
		}
		if len(sameYear) > 0 {
			candidates = sameYear
		}
	}
	allowed := p.allowedCountries(kind)
	var preferred []tmdb.SearchResult
	for _, r := range candidates {
		if intersects(r.OriginCountry, allowed) {
			preferred = append(preferred, r)
		}
	}
	if len(preferred) > 0 {
		candidates = preferred
	}
	best := candidates[0]
	for _, r := range candidates[1:] {
		if r.Popularity > best.Popularity {
			best = r
		}
	}
	return best, true
}

// preliminary decides from the search result alone. ok=false means details
// are required.
func (p Policy) preliminary(kind media.Kind, best tmdb.SearchResult) (outcome, bool) {
	if best.ID <= 0 {
		return noMatch(), true
	}
	lang := best.Language()
	if containsFold(p.ExcludedLanguages, lang) {
		return outcome{
			decision: DecisionExcluded,
			reason:   fmt.Sprintf("original language %s excluded", lang),
			tmdbID:   best.ID,
		}, true
	}
	if containsFold(p.FallbackLanguages, lang) && len(p.allowedCountries(kind)) == 0 {
		return outcome{
			decision: DecisionAllowed,
			reason:   fmt.Sprintf("original language %s with no country filter", lang),
			tmdbID:   best.ID,
		}, true
	}
	return outcome{}, false
}

// decideMovie applies the release-country rule, then the language fallback.
func (p Policy) decideMovie(kind media.Kind, best tmdb.SearchResult, details *tmdb.MovieDetails) outcome {
	allowed := p.allowedCountries(kind)
	if match := firstCommon(details.ReleaseCountries(), allowed); match != "" {
		return outcome{decision: DecisionAllowed, reason: "release country " + match, tmdbID: best.ID}
	}
	if lang := best.Language(); containsFold(p.FallbackLanguages, lang) {
		return outcome{decision: DecisionAllowed, reason: fmt.Sprintf("original language %s fallback", lang), tmdbID: best.ID}
	}
	return outcome{decision: DecisionExcluded, reason: "country not in allow-list", tmdbID: best.ID}
}

// decideTV checks network, production and origin countries in that order.
func (p Policy) decideTV(best tmdb.SearchResult, details *tmdb.TVDetails) outcome {
	allowed := p.AllowedTVCountries
	if match := firstCommon(details.NetworkCountries(), allowed); match != "" {
		return outcome{decision: DecisionAllowed, reason: "network country " + match, tmdbID: best.ID}
	}
	if match := firstCommon(details.ProductionCountryCodes(), allowed); match != "" {
		return outcome{decision: DecisionAllowed, reason: "production country " + match, tmdbID: best.ID}
	}
	if match := firstCommon(details.OriginCountry, allowed); match != "" {
		return outcome{decision: DecisionAllowed, reason: "origin country " + match, tmdbID: best.ID}
	}
	return outcome{decision: DecisionExcluded, reason: "country not in allow-list", tmdbID: best.ID}
}

// decideDetails decodes a detail payload and applies the kind's rule.
func (p Policy) decideDetails(kind media.Kind, best tmdb.SearchResult, payload []byte) (outcome, error) {
	if kind.UsesMovieEndpoints() {
		details, err := tmdb.DecodeMovieDetails(payload)
		if err != nil {
			return outcome{}, err
		}
		return p.decideMovie(kind, best, details), nil
	}
	details, err := tmdb.DecodeTVDetails(payload)
	if err != nil {
		return outcome{}, err
	}
	return p.decideTV(best, details), nil
}

func intersects(values, allowed []string) bool {
	return firstCommon(values, allowed) != ""
}

func firstCommon(values, allowed []string) string {
	for _, v := range values {
		if containsFold(allowed, v) {
			return strings.ToUpper(strings.TrimSpace(v))
		}
	}
	return ""
}

func containsFold(list []string, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), value) {
			return true
		}
	}
	return false
}
