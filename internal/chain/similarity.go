package chain

import "strings"

// Fold normalizes an entity name for comparison: lowercase, punctuation
// removed, whitespace collapsed
func Fold(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity returns the normalized edit-distance similarity of two
// names after folding, in [0,1]. It tolerates OCR noise and minor
// legal-name variance while still separating genuinely different
// entities.
func Similarity(a, b string) float64 {
	fa, fb := Fold(a), Fold(b)
	if fa == fb {
		return 1
	}
	if fa == "" || fb == "" {
		return 0
	}

	dist := levenshtein(fa, fb)
	longest := len(fa)
	if len(fb) > longest {
		longest = len(fb)
	}
	return 1 - float64(dist)/float64(longest)
}

// levenshtein computes edit distance with two rolling rows
func levenshtein(a, b string) int {
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
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
