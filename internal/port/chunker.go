package port

import "textsplit/internal/domain"

// Chunker turns a document's content into stored chunks.
type Chunker interface {
	Chunk(doc domain.Document, content string) ([]domain.Chunk, error)
}

// TextSplitter splits raw text into ordered chunk strings.
type TextSplitter interface {
	SplitText(text string) ([]string, error)

	// SplitTexts splits each text on its own; no chunk spans two texts.
	SplitTexts(texts []string) ([]string, error)
}
