package search

import "strings"

// Stop words to filter out when checking for verbatim matches. Includes
// list fillers common in ingredient declarations.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "at": true, "this": true, "but": true, "by": true,
	"from": true, "contains": true, "may": true, "or": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation,
// and removes stop words. Commas and semicolons also separate words, since
// ingredient lists rarely use spaces consistently.
func tokenizeAndFilter(text string) []string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ',' || r == ';'
	})
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}%"))
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// containsAllQueryWords checks if all query words (after filtering) appear in
// the document
func containsAllQueryWords(document, query string) bool {
	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return false
	}

	docWords := tokenizeAndFilter(document)
	docWordSet := make(map[string]bool, len(docWords))
	for _, word := range docWords {
		docWordSet[word] = true
	}

	for _, qWord := range queryWords {
		if !docWordSet[qWord] {
			return false
		}
	}

	return true
}
