package measure

import (
	"strings"
	"unicode"
)

// ApproxTokenCounter estimates LLM tokens without loading a vocabulary.
// Uses a simple heuristic: an average word is about 1.3 tokens.
type ApproxTokenCounter struct{}

func (ApproxTokenCounter) Measure(text string) (int, error) {
	words := splitWords(text)
	if len(words) == 0 {
		return 0, nil
	}
	return int(float64(len(words)) * 1.3), nil
}

// splitWords splits text into runs of letters, digits and underscores.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}
