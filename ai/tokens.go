package ai

import "github.com/tmc/langchaingo/llms"

// TiktokenCounter counts tokens with the tiktoken encoding of the model,
// falling back to an approximation for models tiktoken doesn't know.
type TiktokenCounter struct{}

var _ TokenCounter = TiktokenCounter{}

// CountTokens returns the number of tokens text uses under model.
func (TiktokenCounter) CountTokens(model, text string) int {
	return llms.CountTokens(model, text)
}
