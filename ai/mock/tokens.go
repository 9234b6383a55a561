package mock

import "unicode/utf8"

// MockTokenCounter counts one token per four characters, rounding up.
type MockTokenCounter struct{}

// CountTokens approximates a token count from text length.
func (MockTokenCounter) CountTokens(model, text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
