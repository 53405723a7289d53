// Package splitter implements recursive, separator-driven text chunking.
package splitter

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/clipperhouse/uax29/graphemes"

	"textsplit/internal/domain"
	"textsplit/internal/port"
)

// RecursiveSplitter splits text on the coarsest separator that occurs in
// it, merges the pieces back up to the chunk size and recurses into pieces
// that are still too large with the finer separators that follow.
//
// A RecursiveSplitter holds no mutable state and is safe for concurrent use.
type RecursiveSplitter struct {
	size       int
	overlap    int
	measurer   port.LengthMeasurer
	separators []string
}

var (
	_ port.TextSplitter = (*RecursiveSplitter)(nil)
	_ port.Chunker      = (*RecursiveSplitter)(nil)
)

// NewRecursiveSplitter creates a splitter. An empty separator list selects
// DefaultSeparators. A hierarchy without "" gets it appended so oversized
// fragments always fall back to grapheme clusters.
func NewRecursiveSplitter(cfg ChunkConfig, separators []string) (*RecursiveSplitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Measurer == nil {
		return nil, fmt.Errorf("%w: measurer is required", ErrInvalidConfig)
	}
	if len(separators) == 0 {
		separators = DefaultSeparators()
	}
	separators = append([]string(nil), separators...)
	if !slices.Contains(separators, "") {
		separators = append(separators, "")
	}
	return &RecursiveSplitter{
		size:       cfg.ChunkSize,
		overlap:    cfg.ChunkOverlap,
		measurer:   cfg.Measurer,
		separators: separators,
	}, nil
}

// SplitText splits text into trimmed, non-empty chunks in document order.
// Empty or whitespace-only text yields an empty slice.
func (s *RecursiveSplitter) SplitText(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}
	chunks, err := s.split(text, s.separators)
	if err != nil {
		return nil, err
	}
	if chunks == nil {
		chunks = []string{}
	}
	return chunks, nil
}

// SplitTexts splits every text independently and concatenates the results.
// Chunks never span two input texts.
func (s *RecursiveSplitter) SplitTexts(texts []string) ([]string, error) {
	all := []string{}
	for i, text := range texts {
		chunks, err := s.SplitText(text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		all = append(all, chunks...)
	}
	return all, nil
}

// Chunk splits a document's content into domain chunks with stable IDs.
func (s *RecursiveSplitter) Chunk(doc domain.Document, content string) ([]domain.Chunk, error) {
	texts, err := s.SplitText(content)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		n, err := s.Measure(text)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, domain.Chunk{
			ID:      generateChunkID(doc.ID, i),
			DocID:   doc.ID,
			Ordinal: i,
			Length:  n,
			Text:    text,
		})
	}
	return chunks, nil
}

// Measure applies the configured length function.
func (s *RecursiveSplitter) Measure(text string) (int, error) {
	n, err := s.measurer.Measure(text)
	if err != nil {
		return 0, &MeasureError{Fragment: text, Err: err}
	}
	if n < 0 {
		return 0, &MeasureError{Fragment: text, Err: fmt.Errorf("negative length %d", n)}
	}
	return n, nil
}

// ChunkSize returns the configured maximum chunk length.
func (s *RecursiveSplitter) ChunkSize() int {
	return s.size
}

// ChunkOverlap returns the configured overlap.
func (s *RecursiveSplitter) ChunkOverlap() int {
	return s.overlap
}

// Separators returns a copy of the separator hierarchy.
func (s *RecursiveSplitter) Separators() []string {
	return append([]string(nil), s.separators...)
}

func (s *RecursiveSplitter) split(text string, separators []string) ([]string, error) {
	sep, finer := pickSeparator(text, separators)
	fragments := splitOn(text, sep)

	var chunks []string
	var pending []string

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		merged, err := s.merge(pending, sep)
		if err != nil {
			return err
		}
		chunks = append(chunks, merged...)
		pending = nil
		return nil
	}

	for _, frag := range fragments {
		n, err := s.Measure(frag)
		if err != nil {
			return nil, err
		}
		if n <= s.size {
			pending = append(pending, frag)
			continue
		}

		if err := flush(); err != nil {
			return nil, err
		}

		// Nothing finer to try: the fragment is an atomic oversized chunk.
		if sep == "" || len(finer) == 0 {
			chunks = appendTrimmed(chunks, frag)
			continue
		}

		sub, err := s.split(frag, finer)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, sub...)
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// merge greedily joins fragments with sep into chunks no longer than the
// chunk size, seeding each new chunk with a fragment-aligned overlap tail
// of the previous one.
func (s *RecursiveSplitter) merge(fragments []string, sep string) ([]string, error) {
	overlap := s.overlap
	if overlap >= s.size {
		overlap = s.size - 1
	}
	if overlap < 0 {
		overlap = 0
	}

	var chunks []string
	var current []string

	for _, frag := range fragments {
		if len(current) > 0 {
			n, err := s.Measure(joinWith(current, frag, sep))
			if err != nil {
				return nil, err
			}
			if n > s.size {
				chunks = appendTrimmed(chunks, strings.Join(current, sep))
				current, err = s.overlapTail(current, frag, sep, overlap)
				if err != nil {
					return nil, err
				}
			}
		}
		current = append(current, frag)
	}

	if len(current) > 0 {
		chunks = appendTrimmed(chunks, strings.Join(current, sep))
	}
	return chunks, nil
}

// overlapTail returns the longest suffix of emitted whose length is at most
// overlap and which still leaves room for next within the chunk size.
// Fragments are never cut to build the tail.
func (s *RecursiveSplitter) overlapTail(emitted []string, next, sep string, overlap int) ([]string, error) {
	if overlap == 0 {
		return nil, nil
	}
	for i := 0; i < len(emitted); i++ {
		tail := emitted[i:]
		n, err := s.Measure(strings.Join(tail, sep))
		if err != nil {
			return nil, err
		}
		if n > overlap {
			continue
		}
		n, err = s.Measure(joinWith(tail, next, sep))
		if err != nil {
			return nil, err
		}
		if n <= s.size {
			return append([]string(nil), tail...), nil
		}
	}
	return nil, nil
}

// pickSeparator returns the first separator that is empty or occurs in
// text, together with the finer separators after it.
func pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

// splitOn splits text on sep, or into grapheme clusters when sep is empty.
// Leading and trailing empty fragments are dropped. Interior ones are kept
// so that joining with sep restores runs of repeated separators.
func splitOn(text, sep string) []string {
	if sep == "" {
		return graphemeClusters(text)
	}
	parts := strings.Split(text, sep)
	start, end := 0, len(parts)
	for start < end && parts[start] == "" {
		start++
	}
	for end > start && parts[end-1] == "" {
		end--
	}
	return parts[start:end]
}

func graphemeClusters(text string) []string {
	segs := graphemes.SegmentAll([]byte(text))
	clusters := make([]string, len(segs))
	for i, seg := range segs {
		clusters[i] = string(seg)
	}
	return clusters
}

func joinWith(parts []string, next, sep string) string {
	if len(parts) == 0 {
		return next
	}
	return strings.Join(parts, sep) + sep + next
}

func appendTrimmed(chunks []string, chunk string) []string {
	chunk = strings.TrimSpace(chunk)
	if chunk == "" {
		return chunks
	}
	return append(chunks, chunk)
}

func generateChunkID(docID string, ordinal int) string {
	data := fmt.Sprintf("%s:%d", docID, ordinal)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
