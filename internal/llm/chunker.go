package llm

// EstimateTokens estimates the number of tokens in the given text.
// Uses a simple heuristic of approximately 4 characters per token,
// which is a reasonable approximation for English text with GPT-style tokenizers.
func EstimateTokens(text string) int {
	chars := len(text)
	// Use ceiling division: (chars + 3) / 4 rounds up
	return (chars + 3) / 4
}
