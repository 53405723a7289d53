package splitter

import (
	"errors"
	"fmt"

	"textsplit/internal/adapter/measure"
	"textsplit/internal/port"
)

var ErrInvalidConfig = errors.New("invalid chunk configuration")

// MeasureError reports a length function failure. The split that hit it
// is abandoned rather than continuing with a guessed length.
type MeasureError struct {
	Fragment string
	Err      error
}

func (e *MeasureError) Error() string {
	return fmt.Sprintf("failed to measure fragment (%d bytes): %v", len(e.Fragment), e.Err)
}

func (e *MeasureError) Unwrap() error {
	return e.Err
}

// ChunkConfig is the immutable chunking configuration.
type ChunkConfig struct {
	ChunkSize    int
	ChunkOverlap int
	Measurer     port.LengthMeasurer
}

// NewChunkConfig builds a validated configuration. A nil measurer counts
// codepoints.
func NewChunkConfig(chunkSize, chunkOverlap int, measurer port.LengthMeasurer) (ChunkConfig, error) {
	if measurer == nil {
		measurer = measure.CodepointCounter{}
	}
	cfg := ChunkConfig{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Measurer:     measurer,
	}
	if err := cfg.Validate(); err != nil {
		return ChunkConfig{}, err
	}
	return cfg, nil
}

func (c ChunkConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrInvalidConfig, c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap (%d) must be smaller than chunk size (%d)", ErrInvalidConfig, c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}

// DefaultSeparators returns paragraph, line, word and unit separators, in
// that order. The trailing "" splits into grapheme clusters.
func DefaultSeparators() []string {
	return []string{"\n\n", "\n", " ", ""}
}
