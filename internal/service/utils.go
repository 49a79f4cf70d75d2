package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeText lowercases text and collapses runs of whitespace. Normalized
// question text is the canonical form for hashing and deduplication.
func NormalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ContentHash returns the hex SHA-256 of the normalized text. It keys the
// embedding cache and detects question edits.
func ContentHash(s string) string {
	sum := sha256.Sum256([]byte(NormalizeText(s)))
	return hex.EncodeToString(sum[:])
}

// stopWords are skipped when extracting keywords for overlap scoring.
var stopWords = map[string]struct{}{
	"the": {}, "is": {}, "are": {}, "a": {}, "an": {}, "and": {}, "or": {},
	"but": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {}, "what": {}, "should": {}, "can": {}, "my": {},
	"i": {}, "me": {}, "how": {}, "why": {}, "when": {}, "where": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"may": {}, "might": {},
}

// Keywords extracts meaningful tokens from text: lowercase words longer than
// two characters that are not stop words. Punctuation is stripped.
func Keywords(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var words []string
	for _, w := range fields {
		if len(w) <= 2 {
			continue
		}
		if _, skip := stopWords[w]; skip {
			continue
		}
		words = append(words, w)
	}
	return words
}

// sanitizeUTF8 removes invalid UTF-8 sequences from string
// This prevents PostgreSQL encoding errors when saving text
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	var result strings.Builder
	result.Grow(len(s))

	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			s = s[1:]
			continue
		}
		result.WriteRune(r)
		s = s[size:]
	}

	return result.String()
}
