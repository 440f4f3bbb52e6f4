package classify

import (
	"encoding/json"
	"testing"

	"vodsieve/internal/config"
	"vodsieve/internal/media"
	"vodsieve/internal/tmdb"
)

func defaultPolicy() Policy {
	return PolicyFromConfig(config.Default().Classify)
}

func TestPickMovieUsesFirstResult(t *testing.T) {
	results := []tmdb.SearchResult{{ID: 1, Popularity: 1}, {ID: 2, Popularity: 90}}
	best, ok := defaultPolicy().pick(media.KindMovie, media.NoYear, results)
	if !ok || best.ID != 1 {
		t.Fatalf("expected first result, got %+v", best)
	}
	if _, ok := defaultPolicy().pick(media.KindMovie, media.NoYear, nil); ok {
		t.Fatal("expected no pick from empty results")
	}
}

func TestPickTVPrefersYearThenCountryThenPopularity(t *testing.T) {
	results := []tmdb.SearchResult{
		{ID: 1, Name: "The Office", FirstAirDate: "2001-07-09", OriginCountry: []string{"GB"}, Popularity: 80},
		{ID: 2, Name: "The Office", FirstAirDate: "2005-03-24", OriginCountry: []string{"US"}, Popularity: 50},
		{ID: 3, Name: "The Office", FirstAirDate: "2005-01-01", OriginCountry: []string{"US"}, Popularity: 70},
		{ID: 4, Name: "The Office", FirstAirDate: "2005-02-01", OriginCountry: []string{"CL"}, Popularity: 99},
	}
	p := defaultPolicy()
	tests := []struct {
		name string
		year media.Year
		want int64
	}{
		{"year then country then popularity", media.YearOf(2005), 3},
		{"no year prefers allowed country", media.NoYear, 3},
		{"unmatched year keeps all", media.YearOf(1990), 3},
		{"year with only foreign", media.YearOf(2001), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best, ok := p.pick(media.KindTV, tt.year, results)
			if !ok || best.ID != tt.want {
				t.Fatalf("expected id %d, got %+v", tt.want, best)
			}
		})
	}
}

func TestPickTVKeepsFirstOnPopularityTie(t *testing.T) {
	results := []tmdb.SearchResult{
		{ID: 7, OriginCountry: []string{"US"}, Popularity: 10},
		{ID: 8, OriginCountry: []string{"US"}, Popularity: 10},
	}
	best, _ := defaultPolicy().pick(media.KindTV, media.NoYear, results)
	if best.ID != 7 {
		t.Fatalf("expected earlier result on tie, got %d", best.ID)
	}
}

func TestPreliminary(t *testing.T) {
	p := defaultPolicy()
	if out, ok := p.preliminary(media.KindMovie, tmdb.SearchResult{ID: 5, OriginalLanguage: "JA"}); !ok || out.decision != DecisionExcluded {
		t.Fatalf("expected excluded language to decide, got %+v ok=%v", out, ok)
	}
	if _, ok := p.preliminary(media.KindMovie, tmdb.SearchResult{ID: 5, OriginalLanguage: "en"}); ok {
		t.Fatal("expected details to be required with a country filter")
	}
	if out, ok := p.preliminary(media.KindMovie, tmdb.SearchResult{}); !ok || out.reason != ReasonNoMatch {
		t.Fatalf("expected missing id to be no match, got %+v", out)
	}

	open := p
	open.AllowedMovieCountries = nil
	if out, ok := open.preliminary(media.KindMovie, tmdb.SearchResult{ID: 5, OriginalLanguage: "en"}); !ok || out.decision != DecisionAllowed {
		t.Fatalf("expected fallback language to allow without a country filter, got %+v", out)
	}
}

func movieDetails(t *testing.T, countries ...string) []byte {
	t.Helper()
	var body struct {
		ReleaseDates struct {
			Results []map[string]string `json:"results"`
		} `json:"release_dates"`
	}
	for _, c := range countries {
		body.ReleaseDates.Results = append(body.ReleaseDates.Results, map[string]string{"iso_3166_1": c})
	}
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return payload
}

func TestDecideMovie(t *testing.T) {
	p := defaultPolicy()
	tests := []struct {
		name      string
		lang      string
		countries []string
		want      Decision
		reason    string
	}{
		{"us release", "fr", []string{"FR", "us"}, DecisionAllowed, "release country US"},
		{"english fallback", "en", []string{"GB"}, DecisionAllowed, "original language en fallback"},
		{"foreign only", "fr", []string{"FR"}, DecisionExcluded, "country not in allow-list"},
		{"no releases", "de", nil, DecisionExcluded, "country not in allow-list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best := tmdb.SearchResult{ID: 42, OriginalLanguage: tt.lang}
			out, err := p.decideDetails(media.KindMovie, best, movieDetails(t, tt.countries...))
			if err != nil {
				t.Fatalf("decideDetails: %v", err)
			}
			if out.decision != tt.want || out.reason != tt.reason || out.tmdbID != 42 {
				t.Fatalf("unexpected outcome %+v", out)
			}
		})
	}
}

func TestDecideTV(t *testing.T) {
	p := defaultPolicy()
	tests := []struct {
		name    string
		payload string
		want    Decision
		reason  string
	}{
		{"network", `{"networks":[{"name":"NBC","origin_country":"US"}],"origin_country":["GB"]}`, DecisionAllowed, "network country US"},
		{"production", `{"networks":[{"name":"BBC","origin_country":"GB"}],"production_countries":[{"iso_3166_1":"US"}]}`, DecisionAllowed, "production country US"},
		{"origin", `{"origin_country":["us"]}`, DecisionAllowed, "origin country US"},
		{"none", `{"networks":[{"name":"BBC","origin_country":["GB"]}],"origin_country":["GB"]}`, DecisionExcluded, "country not in allow-list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := p.decideDetails(media.KindTV, tmdb.SearchResult{ID: 9}, []byte(tt.payload))
			if err != nil {
				t.Fatalf("decideDetails: %v", err)
			}
			if out.decision != tt.want || out.reason != tt.reason {
				t.Fatalf("unexpected outcome %+v", out)
			}
		})
	}
}

func TestDecideDetailsRejectsBadPayload(t *testing.T) {
	if _, err := defaultPolicy().decideDetails(media.KindTV, tmdb.SearchResult{ID: 1}, []byte("{")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestIgnoreList(t *testing.T) {
	list := IgnoreListFromConfig(config.Ignore{Movies: []string{" Trailer ", ""}, TVShows: []string{"recap"}})
	if kw, ok := list.Match(media.KindMovie, "Dune TRAILER 2"); !ok || kw != "trailer" {
		t.Fatalf("expected trailer match, got %q %v", kw, ok)
	}
	if _, ok := list.Match(media.KindTV, "Dune Trailer"); ok {
		t.Fatal("keywords must not cross kinds")
	}
	if _, ok := list.Match(media.KindDocumentary, "anything"); ok {
		t.Fatal("expected no documentary keywords")
	}
}
