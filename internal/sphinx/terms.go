package sphinx

import (
	"strings"
	"unicode"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
)

// Stop words the documentation builder never indexes. Query words matching
// these would always produce empty postings, so they are dropped up front.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "but": {}, "by": {}, "for": {}, "if": {}, "in": {},
	"into": {}, "is": {}, "it": {}, "near": {}, "no": {}, "not": {},
	"of": {}, "on": {}, "or": {}, "such": {}, "that": {}, "the": {},
	"their": {}, "then": {}, "there": {}, "these": {}, "they": {},
	"this": {}, "to": {}, "was": {}, "will": {}, "with": {},
}

// NormalizeTerm lowercases and stems a single word the same way the
// documentation builder does when it writes the terms table, so lookups for
// "hydrophones" and "hydrophone" land on the same posting.
func NormalizeTerm(word string) string {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return ""
	}
	return porterstemmer.StemString(word)
}

// QueryTerms splits free-form query text into normalized lookup terms.
// Words are split on non-alphanumeric boundaries (keeping dots and
// underscores so dotted API names survive), stop words are dropped, and
// each surviving word is stemmed.
func QueryTerms(query string) []string {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_'
	})

	terms := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, word := range words {
		word = strings.Trim(word, "._")
		if word == "" {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		term := NormalizeTerm(word)
		if term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}
