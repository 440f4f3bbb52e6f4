package textutil

// SequenceRatio returns the Ratcliff/Obershelp similarity of a and b:
// 2*M/T where M is the number of runes in matching blocks and T the total
// rune count. Two empty strings score 1.
func SequenceRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingRunes(ra, rb)) / float64(total)
}

// SequenceRatioBound is an upper bound on SequenceRatio computed from lengths
// alone.
func SequenceRatioBound(a, b string) float64 {
	la, lb := runeCount(a), runeCount(b)
	total := la + lb
	if total == 0 {
		return 1
	}
	return 2 * float64(min(la, lb)) / float64(total)
}

func matchingRunes(a, b []rune) int {
	i, j, k := longestMatch(a, b)
	if k == 0 {
		return 0
	}
	return k + matchingRunes(a[:i], b[:j]) + matchingRunes(a[i+k:], b[j+k:])
}

// longestMatch finds the longest common block. Ties resolve to the block
// starting earliest in a, then earliest in b.
func longestMatch(a, b []rune) (int, int, int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	bestI, bestJ, bestK := 0, 0, 0
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := range a {
		for j := range b {
			if a[i] == b[j] {
				curr[j+1] = prev[j] + 1
				if curr[j+1] > bestK {
					bestK = curr[j+1]
					bestI = i - bestK + 1
					bestJ = j - bestK + 1
				}
			} else {
				curr[j+1] = 0
			}
		}
		prev, curr = curr, prev
	}
	return bestI, bestJ, bestK
}

func runeCount(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
