// Package normalize provides the pure text-cleaning functions applied to
// candidate terms and entity names before matching. Normalization is
// deterministic and side-effect free so that identical inputs always produce
// identical resolution records.
package normalize

import (
	"errors"
	"strings"
	"unicode"
)

// ErrEmptyTerm indicates a term reduced to nothing after normalization.
// This is a candidate-level error: the candidate is skipped and recorded
// unmatched, the batch continues.
var ErrEmptyTerm = errors.New("term is empty after normalization")

// stopWords is the fixed set of filler words stripped during normalization.
// These carry no product-topic signal in search terms.
var stopWords = map[string]struct{}{
	"the":   {},
	"a":     {},
	"an":    {},
	"for":   {},
	"and":   {},
	"or":    {},
	"of":    {},
	"to":    {},
	"in":    {},
	"on":    {},
	"with":  {},
	"best":  {},
	"top":   {},
	"new":   {},
	"cheap": {},
}

// Normalize lowercases the term, strips punctuation and stop words, and
// collapses whitespace. It returns ErrEmptyTerm when nothing survives.
func Normalize(term string) (string, error) {
	lowered := strings.ToLower(term)

	// Replace punctuation with spaces so "cold-plunge,tub" splits cleanly.
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	kept := words[:0]
	for _, w := range words {
		if _, skip := stopWords[w]; !skip {
			kept = append(kept, w)
		}
	}

	result := strings.Join(kept, " ")
	if result == "" {
		return "", ErrEmptyTerm
	}
	return result, nil
}

// Slugify converts a name into a URL-safe slug: lowercase, with runs of
// non-alphanumeric characters collapsed into single hyphens.
func Slugify(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	b.Grow(len(lowered))
	lastHyphen := true // suppress a leading hyphen
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteRune('-')
			lastHyphen = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
