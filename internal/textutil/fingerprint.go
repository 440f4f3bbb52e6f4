package textutil

import (
	"math"
	"strings"
)

// Fingerprint is a bag-of-words view of a title used by the cosine metric.
type Fingerprint struct {
	counts    map[string]int
	magnitude float64
}

// NewFingerprint counts the words of the normalized title. It is nil when the
// title has no words left after normalization.
func NewFingerprint(title string) *Fingerprint {
	words := Tokenize(title)
	if len(words) == 0 {
		return nil
	}
	fp := &Fingerprint{counts: make(map[string]int, len(words))}
	for _, w := range words {
		fp.counts[w]++
	}
	var sum int
	for _, n := range fp.counts {
		sum += n * n
	}
	fp.magnitude = math.Sqrt(float64(sum))
	return fp
}

// Tokenize returns the words of a normalized title.
func Tokenize(title string) []string {
	return strings.Fields(NormalizeTitle(title))
}

// TokenCount is the number of distinct words.
func (f *Fingerprint) TokenCount() int {
	if f == nil {
		return 0
	}
	return len(f.counts)
}

// CosineSimilarity is the cosine of the angle between two word-count
// vectors, 0 when either side is empty.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.magnitude == 0 || b.magnitude == 0 {
		return 0
	}
	small, large := a, b
	if len(small.counts) > len(large.counts) {
		small, large = large, small
	}
	var dot int
	for w, n := range small.counts {
		dot += n * large.counts[w]
	}
	return float64(dot) / (a.magnitude * b.magnitude)
}
