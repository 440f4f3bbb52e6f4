package textutil

import (
	"sort"
	"strings"
)

// TokenSetRatio compares the sorted token intersection of a and b against
// each side's remainder and returns the best SequenceRatio. Word order and
// repeated words do not affect the score. A side without tokens scores 0.
func TokenSetRatio(a, b string) float64 {
	setA, setB := tokenSet(a), tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for token := range setA {
		if _, ok := setB[token]; ok {
			common = append(common, token)
		} else {
			onlyA = append(onlyA, token)
		}
	}
	for token := range setB {
		if _, ok := setA[token]; !ok {
			onlyB = append(onlyB, token)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(common, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := SequenceRatio(withA, withB)
	if base != "" {
		best = max(best, SequenceRatio(base, withA), SequenceRatio(base, withB))
	}
	return best
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
