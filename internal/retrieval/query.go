package retrieval

import (
	"strings"
	"unicode"
)

// placeholderTerm is substituted when term extraction yields nothing, so
// scoring never runs against an empty term set.
const placeholderTerm = "information"

// stopWords are dropped during query term extraction: articles, auxiliary
// verbs, wh-words, and common prepositions carry no retrieval signal.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"do": {}, "does": {}, "did": {}, "can": {}, "could": {}, "will": {}, "would": {},
	"shall": {}, "should": {}, "may": {}, "might": {}, "must": {}, "have": {}, "has": {}, "had": {},
	"what": {}, "which": {}, "who": {}, "whom": {}, "whose": {}, "when": {}, "where": {}, "why": {}, "how": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "of": {}, "for": {}, "from": {}, "with": {},
	"about": {}, "into": {}, "over": {}, "under": {}, "between": {}, "through": {},
	"and": {}, "or": {}, "not": {}, "this": {}, "that": {}, "these": {}, "those": {}, "it": {}, "its": {},
}

// ExtractTerms lowercases the query, strips punctuation, drops stop words and
// tokens of length <= 2, and caps the result at max terms (non-positive max
// selects the default of 10). An empty result is replaced by a single
// placeholder term.
func ExtractTerms(query string, max int) []string {
	if max <= 0 {
		max = 10
	}
	var terms []string
	for _, token := range strings.Fields(strings.ToLower(query)) {
		token = strings.TrimFunc(token, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(token) <= 2 {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		terms = append(terms, token)
		if len(terms) == max {
			break
		}
	}
	if len(terms) == 0 {
		return []string{placeholderTerm}
	}
	return terms
}

// fallbackPrefixLen is the prefix length terms are cut to on the fallback
// search path.
const fallbackPrefixLen = 5

// relaxTerms cuts terms longer than fallbackPrefixLen to their prefix so a
// fallback search can match morphological variants of the query words.
func relaxTerms(terms []string) []string {
	relaxed := make([]string, 0, len(terms))
	for _, term := range terms {
		if len(term) > fallbackPrefixLen {
			term = term[:fallbackPrefixLen]
		}
		relaxed = append(relaxed, term)
	}
	return relaxed
}

// containsWord reports whether term appears in text at word boundaries, not
// merely as a substring of a longer word. Both inputs must be lowercase.
func containsWord(text, term string) bool {
	start := 0
	for {
		i := strings.Index(text[start:], term)
		if i == -1 {
			return false
		}
		i += start
		end := i + len(term)
		leftOK := i == 0 || !isWordChar(rune(text[i-1]))
		rightOK := end == len(text) || !isWordChar(rune(text[end]))
		if leftOK && rightOK {
			return true
		}
		start = i + 1
	}
}

func isWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
