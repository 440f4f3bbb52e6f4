package classify

import (
	"regexp"
	"strings"
	"sync"
)

// Detector flags titles that are obviously not from an allowed market.
type Detector struct {
	Name        string
	Description string
	Confidence  float64
	pattern     *regexp.Regexp
}

// Detection is a detector match.
type Detection struct {
	Detector   string
	Reason     string
	Confidence float64
}

// DefaultDetectors returns the built-in script and keyword detectors.
func DefaultDetectors() []Detector {
	return []Detector{
		newDetector("japanese_characters", "Japanese script", 0.95, `[\p{Hiragana}\p{Katakana}]`),
		newDetector("han_characters", "Chinese or Japanese ideographs", 0.95, `\p{Han}`),
		newDetector("korean_characters", "Korean script", 0.95, `\p{Hangul}`),
		newDetector("devanagari_characters", "Devanagari script", 0.95, `\p{Devanagari}`),
		newDetector("anime_content", "anime title", 0.95,
			`\b(?:naruto|one piece|bleach|dragon ball|attack on titan|fullmetal alchemist|death note|my hero academia|demon slayer|jujutsu kaisen|cowboy bebop|neon genesis evangelion|code geass|sword art online|hunter x hunter|one punch man|spirited away|princess mononoke|my neighbor totoro)\b`),
		newDetector("cyrillic_characters", "Cyrillic script", 0.90, `\p{Cyrillic}`),
		newDetector("greek_characters", "Greek script", 0.90, `\p{Greek}`),
		newDetector("hebrew_arabic_characters", "Hebrew or Arabic script", 0.90, `[\p{Hebrew}\p{Arabic}]`),
		newDetector("indian_content", "Indian film industry", 0.90, `\b(?:bollywood|tollywood|kollywood)\b`),
		newDetector("korean_content", "Korean drama", 0.85, `\b(?:k-drama|korean drama)\b`),
		newDetector("chinese_content", "Chinese drama", 0.85, `\b(?:c-drama|chinese drama)\b`),
		newDetector("european_language", "European language tag", 0.80,
			`\b(?:fran[cç]ais|deutsch|espa[nñ]ol|italiano|portugu[eê]s|t[uü]rk[cç]e)\b`),
	}
}

func newDetector(name, description string, confidence float64, pattern string) Detector {
	return Detector{
		Name:        name,
		Description: description,
		Confidence:  confidence,
		pattern:     regexp.MustCompile(`(?i)` + pattern),
	}
}

// Match reports whether the detector fires on title.
func (d Detector) Match(title string) bool {
	return d.pattern != nil && d.pattern.MatchString(title)
}

// PreFilter excludes entries whose strongest detection reaches MinConfidence.
type PreFilter struct {
	detectors     []Detector
	minConfidence float64

	mu    sync.Mutex
	stats map[string]int
}

// NewPreFilter builds a pre-filter. Nil detectors selects DefaultDetectors.
func NewPreFilter(minConfidence float64, detectors []Detector) *PreFilter {
	if detectors == nil {
		detectors = DefaultDetectors()
	}
	return &PreFilter{
		detectors:     detectors,
		minConfidence: minConfidence,
		stats:         make(map[string]int),
	}
}

// Check returns the strongest detection at or above the threshold.
func (f *PreFilter) Check(title string) (Detection, bool) {
	if f == nil {
		return Detection{}, false
	}
	title = strings.TrimSpace(title)
	var best *Detector
	for i := range f.detectors {
		d := &f.detectors[i]
		if d.Confidence < f.minConfidence {
			continue
		}
		if best != nil && d.Confidence <= best.Confidence {
			continue
		}
		if d.Match(title) {
			best = d
		}
	}
	if best == nil {
		return Detection{}, false
	}
	f.mu.Lock()
	f.stats[best.Name]++
	f.mu.Unlock()
	return Detection{
		Detector:   best.Name,
		Reason:     "pre-filter: " + best.Description,
		Confidence: best.Confidence,
	}, true
}

// Stats returns match counts by detector name.
func (f *PreFilter) Stats() map[string]int {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int, len(f.stats))
	for k, v := range f.stats {
		out[k] = v
	}
	return out
}
