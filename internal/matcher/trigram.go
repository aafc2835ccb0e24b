package matcher

// trigramJaccard computes the Jaccard similarity of the character trigram
// sets of two strings: |A ∩ B| / |A ∪ B|. Strings shorter than three
// characters contribute themselves as a single gram so that very short
// terms still compare sensibly. Returns a value in [0, 1].
func trigramJaccard(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	gramsA := trigrams(a)
	gramsB := trigrams(b)

	var intersection int
	for g := range gramsA {
		if _, ok := gramsB[g]; ok {
			intersection++
		}
	}

	union := len(gramsA) + len(gramsB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// trigrams returns the set of character 3-grams of s. Operates on bytes,
// which is sufficient for normalized (lowercased ASCII-dominant) terms.
func trigrams(s string) map[string]struct{} {
	grams := make(map[string]struct{})
	if len(s) < 3 {
		grams[s] = struct{}{}
		return grams
	}
	for i := 0; i+3 <= len(s); i++ {
		grams[s[i:i+3]] = struct{}{}
	}
	return grams
}
