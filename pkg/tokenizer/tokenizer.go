// Package tokenizer estimates token counts without a model vocabulary.
package tokenizer

import (
	"strings"
	"unicode"
)

// CountTokens provides a rough token count estimate. Han, Hiragana, Katakana
// and Hangul characters count as one token each; the remaining text is
// estimated at about four words per three tokens.
func CountTokens(text string) int {
	cjk := 0
	var rest strings.Builder
	for _, r := range text {
		if isCJK(r) {
			cjk++
			rest.WriteByte(' ')
			continue
		}
		rest.WriteRune(r)
	}
	words := len(strings.Fields(rest.String()))
	return max(cjk+words*4/3, 1)
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}
