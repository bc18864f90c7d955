package fingerprint

// Similarity returns the normalized Levenshtein similarity of a and b:
// 1 - distance/max(len(a), len(b)), measured in runes. It is symmetric and
// returns 1 for identical strings.
//
// Two empty strings also score 1. Extraction never produces empty
// fingerprints, so this case is latent rather than intended.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ar := []rune(a)
	br := []rune(b)
	longest := len(ar)
	if len(br) > longest {
		longest = len(br)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ar, br))/float64(longest)
}

// Distance returns the Levenshtein edit distance between a and b in runes.
func Distance(a, b string) int {
	return levenshtein([]rune(a), []rune(b))
}

// levenshtein computes edit distance with two rolling rows.
func levenshtein(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i, ca := range a {
		curr[0] = i + 1
		for j, cb := range b {
			cost := 1
			if ca == cb {
				cost = 0
			}
			curr[j+1] = min(curr[j]+1, prev[j+1]+1, prev[j]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
