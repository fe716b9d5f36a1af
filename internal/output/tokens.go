package output

import (
	"fmt"
	"unicode/utf8"
)

// CharsPerToken is the approximate character-to-token ratio for code.
// Code runs around 4 chars/token because of syntax and identifiers.
const CharsPerToken = 4.0

// EstimateTokens returns an approximate token count for the given text.
// This uses a simple character-based heuristic suitable for code context.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}

	runeCount := utf8.RuneCountInString(text)
	tokens := float64(runeCount) / CharsPerToken

	return int(tokens + 0.5)
}

// FormatTokenCount formats a token count for display.
// Counts >= 1000 are formatted as "X.Xk".
func FormatTokenCount(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("%d", tokens)
	}
	return fmt.Sprintf("%.1fk", float64(tokens)/1000)
}
