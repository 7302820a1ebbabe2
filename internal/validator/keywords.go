// Package validator classifies candidate businesses as automotive agencies
// from their name, website, place types, and review corpus.
package validator

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalize lowercases and strips diacritics so that keyword lists match
// reviews written with or without accents ("depósito" vs "deposito").
func normalize(s string) string {
	folded, _, err := transform.String(foldAccents, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// matchTerms returns the keywords found as substrings of text. Both sides
// are normalized before comparison.
func matchTerms(text string, keywords []string) []string {
	text = normalize(text)
	var hits []string
	for _, kw := range keywords {
		nkw := normalize(kw)
		if nkw == "" {
			continue
		}
		if strings.Contains(text, nkw) {
			hits = append(hits, kw)
		}
	}
	return hits
}

// MatchesAny reports whether text contains at least one of the keywords.
// Shared with the trust scorer, which reuses the review keyword lists.
func MatchesAny(text string, keywords []string) bool {
	return len(matchTerms(text, keywords)) > 0
}

// wordSet tokenizes text into a set of normalized words.
func wordSet(text string) map[string]struct{} {
	words := strings.FieldsFunc(normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// matchWholeWords returns the keywords that appear as whole words in text.
// Multi-word keywords fall back to substring matching.
func matchWholeWords(text string, keywords []string) []string {
	words := wordSet(text)
	ntext := normalize(text)

	var hits []string
	for _, kw := range keywords {
		nkw := normalize(kw)
		if nkw == "" {
			continue
		}
		if strings.ContainsAny(nkw, " -") {
			if strings.Contains(ntext, nkw) {
				hits = append(hits, kw)
			}
			continue
		}
		if _, ok := words[nkw]; ok {
			hits = append(hits, kw)
		}
	}
	return hits
}
