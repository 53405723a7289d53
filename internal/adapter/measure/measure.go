// Package measure provides the length functions the splitter compares
// against the chunk size: codepoints, bytes, grapheme clusters, words and
// model tokens.
package measure

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/graphemes"
	"github.com/clipperhouse/uax29/words"
	"github.com/pkoukk/tiktoken-go"

	"textsplit/internal/port"
)

// Measurer names accepted by New.
const (
	Chars        = "chars"
	Bytes        = "bytes"
	Graphemes    = "graphemes"
	Words        = "words"
	ApproxTokens = "approx-tokens"
	Tokens       = "tokens"
)

// DefaultEncoding is the tiktoken encoding used when none is configured.
const DefaultEncoding = "cl100k_base"

var ErrUnknownMeasurer = errors.New("unknown measurer")

// Func adapts an ordinary function to port.LengthMeasurer.
type Func func(text string) (int, error)

func (f Func) Measure(text string) (int, error) {
	return f(text)
}

var _ port.LengthMeasurer = Func(nil)

// New returns the measurer registered under name. encoding is only
// consulted by the "tokens" measurer.
func New(name, encoding string) (port.LengthMeasurer, error) {
	switch strings.ToLower(name) {
	case "", Chars, "characters", "runes":
		return CodepointCounter{}, nil
	case Bytes:
		return ByteCounter{}, nil
	case Graphemes:
		return GraphemeCounter{}, nil
	case Words:
		return WordCounter{}, nil
	case ApproxTokens:
		return ApproxTokenCounter{}, nil
	case Tokens, "tiktoken":
		return NewTikTokenCounter(encoding)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMeasurer, name)
	}
}

// Names lists the measurers New understands.
func Names() []string {
	return []string{Chars, Bytes, Graphemes, Words, ApproxTokens, Tokens}
}

// CodepointCounter counts Unicode codepoints.
type CodepointCounter struct{}

func (CodepointCounter) Measure(text string) (int, error) {
	return utf8.RuneCountInString(text), nil
}

// ByteCounter counts UTF-8 bytes.
type ByteCounter struct{}

func (ByteCounter) Measure(text string) (int, error) {
	return len(text), nil
}

// GraphemeCounter counts user-perceived characters (UAX #29 grapheme clusters).
type GraphemeCounter struct{}

func (GraphemeCounter) Measure(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	return len(graphemes.SegmentAll([]byte(text))), nil
}

// WordCounter counts UAX #29 word segments that carry a letter or digit;
// whitespace and punctuation segments are not counted.
type WordCounter struct{}

func (WordCounter) Measure(text string) (int, error) {
	n := 0
	for _, seg := range words.SegmentAll([]byte(text)) {
		if isWordLike(seg) {
			n++
		}
	}
	return n, nil
}

func isWordLike(seg []byte) bool {
	for len(seg) > 0 {
		r, size := utf8.DecodeRune(seg)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
		seg = seg[size:]
	}
	return false
}

// TikTokenCounter counts BPE tokens for an OpenAI encoding such as
// "cl100k_base" or "o200k_base".
type TikTokenCounter struct {
	tke *tiktoken.Tiktoken
}

// NewTikTokenCounter loads the named encoding. The ranks file is fetched
// and cached by tiktoken-go on first use.
func NewTikTokenCounter(encoding string) (*TikTokenCounter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding %s: %w", encoding, err)
	}
	return &TikTokenCounter{tke: tke}, nil
}

// Measure treats special-token text as ordinary text, so user input
// containing "<|endoftext|>" is counted rather than rejected.
func (c *TikTokenCounter) Measure(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	return len(c.tke.EncodeOrdinary(text)), nil
}
