package tmdb

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"vodsieve/internal/media"
)

// SearchResult is a single movie or TV search match.
type SearchResult struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Name             string   `json:"name"`
	OriginalLanguage string   `json:"original_language"`
	OriginCountry    []string `json:"origin_country"`
	Popularity       float64  `json:"popularity"`
	ReleaseDate      string   `json:"release_date"`
	FirstAirDate     string   `json:"first_air_date"`
}

// DisplayTitle returns the movie title or TV name.
func (r SearchResult) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Year returns the release or first-air year when the date is present.
func (r SearchResult) Year() media.Year {
	date := r.ReleaseDate
	if date == "" {
		date = r.FirstAirDate
	}
	if len(date) < 4 {
		return media.NoYear
	}
	v, err := strconv.Atoi(date[:4])
	if err != nil {
		return media.NoYear
	}
	return media.YearOf(v)
}

// Language returns the lower-cased original language.
func (r SearchResult) Language() string {
	return strings.ToLower(strings.TrimSpace(r.OriginalLanguage))
}

// SearchResponse models the paginated search response.
type SearchResponse struct {
	Page         int            `json:"page"`
	Results      []SearchResult `json:"results"`
	TotalResults int            `json:"total_results"`
}

// Country is a production country entry.
type Country struct {
	Code string `json:"iso_3166_1"`
	Name string `json:"name"`
}

// Network is a TV network entry.
type Network struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	OriginCountry CountryCodes `json:"origin_country"`
}

// CountryCodes accepts either a single code string or an array of codes.
// Network entries use the string form; older payloads use the array.
type CountryCodes []string

// UnmarshalJSON implements json.Unmarshaler.
func (c *CountryCodes) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single = strings.TrimSpace(single); single != "" {
			*c = CountryCodes{single}
		} else {
			*c = nil
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("origin_country: %w", err)
	}
	*c = many
	return nil
}

// MovieDetails is the /movie/{id} payload with release_dates appended.
type MovieDetails struct {
	ID                  int64     `json:"id"`
	Title               string    `json:"title"`
	OriginalLanguage    string    `json:"original_language"`
	ProductionCountries []Country `json:"production_countries"`
	ReleaseDates        struct {
		Results []struct {
			Country string `json:"iso_3166_1"`
		} `json:"results"`
	} `json:"release_dates"`
}

// ReleaseCountries lists countries with at least one release date.
func (d MovieDetails) ReleaseCountries() []string {
	out := make([]string, 0, len(d.ReleaseDates.Results))
	for _, r := range d.ReleaseDates.Results {
		if code := strings.TrimSpace(r.Country); code != "" {
			out = append(out, strings.ToUpper(code))
		}
	}
	return out
}

// TVDetails is the /tv/{id} payload.
type TVDetails struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	OriginalLanguage    string    `json:"original_language"`
	OriginCountry       []string  `json:"origin_country"`
	ProductionCountries []Country `json:"production_countries"`
	Networks            []Network `json:"networks"`
}

// NetworkCountries lists the origin countries of the show's networks.
func (d TVDetails) NetworkCountries() []string {
	out := make([]string, 0, len(d.Networks))
	for _, n := range d.Networks {
		for _, code := range n.OriginCountry {
			if code = strings.TrimSpace(code); code != "" {
				out = append(out, strings.ToUpper(code))
			}
		}
	}
	return out
}

// ProductionCountryCodes lists the production country codes.
func (d TVDetails) ProductionCountryCodes() []string {
	out := make([]string, 0, len(d.ProductionCountries))
	for _, c := range d.ProductionCountries {
		if code := strings.TrimSpace(c.Code); code != "" {
			out = append(out, strings.ToUpper(code))
		}
	}
	return out
}

// DecodeSearch parses a search payload.
func DecodeSearch(payload []byte) (*SearchResponse, error) {
	var resp SearchResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("decode tmdb search: %w", err)
	}
	return &resp, nil
}

// DecodeMovieDetails parses a movie detail payload.
func DecodeMovieDetails(payload []byte) (*MovieDetails, error) {
	var details MovieDetails
	if err := json.Unmarshal(payload, &details); err != nil {
		return nil, fmt.Errorf("decode movie details: %w", err)
	}
	return &details, nil
}

// DecodeTVDetails parses a tv detail payload.
func DecodeTVDetails(payload []byte) (*TVDetails, error) {
	var details TVDetails
	if err := json.Unmarshal(payload, &details); err != nil {
		return nil, fmt.Errorf("decode tv details: %w", err)
	}
	return &details, nil
}
