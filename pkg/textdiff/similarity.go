// Package textdiff provides similarity scoring and line-oriented structural
// diffing for regenerated rule documents. All functions are pure and safe for
// concurrent use.
package textdiff

import "strings"

// DefaultSizeThreshold is the input length above which Similarity switches
// from edit distance to line-set overlap.
const DefaultSizeThreshold = 10000

// Similarity returns a normalized similarity score in [0,1] between a and b
// using DefaultSizeThreshold.
func Similarity(a, b string) float64 {
	return SimilarityN(a, b, DefaultSizeThreshold)
}

// SimilarityN computes similarity with an explicit size threshold.
//
// The score is 1.0 only when the inputs are identical after normalization
// (surrounding whitespace trimmed, CRLF unified to LF) and 0.0 only when
// exactly one normalized input is empty. Inputs longer than sizeThreshold
// are compared by line-set overlap (Jaccard); smaller inputs use normalized
// Levenshtein edit distance.
func SimilarityN(a, b string, sizeThreshold int) float64 {
	if a == b {
		return 1.0
	}

	na := normalize(a)
	nb := normalize(b)
	if na == nb {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0.0
	}

	if len(na) > sizeThreshold || len(nb) > sizeThreshold {
		return lineOverlap(na, nb)
	}

	longer := len(na)
	if len(nb) > longer {
		longer = len(nb)
	}
	dist := levenshtein(na, nb)
	return float64(longer-dist) / float64(longer)
}

func normalize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}

// lineOverlap is the large-input fallback: Jaccard similarity over the sets
// of distinct lines. An empty union means both inputs were empty, which
// counts as identical.
func lineOverlap(a, b string) float64 {
	setA := make(map[string]struct{})
	for _, line := range strings.Split(a, "\n") {
		setA[line] = struct{}{}
	}
	setB := make(map[string]struct{})
	for _, line := range strings.Split(b, "\n") {
		setB[line] = struct{}{}
	}

	intersection := 0
	for line := range setA {
		if _, ok := setB[line]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 1.0
	}
	return float64(intersection) / float64(union)
}

// levenshtein computes edit distance with the classic two-row dynamic
// program: O(n*m) time, O(min(n,m)) space.
func levenshtein(a, b string) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
