package core

import "strings"

// Stop words to filter out when building and querying the term index
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// Terms splits text into words, lowercases, trims punctuation, and removes stop words.
// Duplicates are kept so callers can count term frequency.
func Terms(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// TermFrequencies counts each term of text.
func TermFrequencies(text string) map[string]int {
	freqs := make(map[string]int)
	for _, term := range Terms(text) {
		freqs[term]++
	}
	return freqs
}

// UniqueTerms returns the distinct terms of text in first-seen order.
func UniqueTerms(text string) []string {
	seen := make(map[string]bool)
	var unique []string
	for _, term := range Terms(text) {
		if !seen[term] {
			seen[term] = true
			unique = append(unique, term)
		}
	}
	return unique
}
