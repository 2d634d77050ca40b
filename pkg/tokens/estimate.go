// Package tokens estimates token counts for conversation budgeting.
//
// The estimate is a character heuristic, not a tokenizer: it divides the
// number of Unicode code points by CharsPerToken and rounds up. Real
// provider tokenizers will disagree, sometimes by a wide margin for code,
// non-latin scripts or heavy whitespace. Treat the value as a budget hint.
package tokens

import (
	"strings"
	"unicode/utf8"
)

// CharsPerToken is the fixed divisor used by Estimate.
const CharsPerToken = 4

// Estimate returns ceil(characters / CharsPerToken) for text.
func Estimate(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}

// EstimateAll estimates the token count of the concatenation of parts.
func EstimateAll(parts ...string) int {
	switch len(parts) {
	case 0:
		return 0
	case 1:
		return Estimate(parts[0])
	}
	return Estimate(strings.Join(parts, ""))
}
