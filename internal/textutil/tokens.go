package textutil

import "unicode/utf8"

// EstimateTokens returns a conservative token estimate for LLM accounting.
// English prose averages roughly four characters per token; dividing by three
// deliberately overcounts so admission control errs on the safe side of the
// provider's own accounting.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := utf8.RuneCountInString(text)
	return (n + 2) / 3
}
