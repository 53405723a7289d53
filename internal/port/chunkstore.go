package port

import (
	"errors"

	"textsplit/internal/domain"
)

// ErrNotFound is returned by ChunkStore lookups for unknown IDs.
var ErrNotFound = errors.New("not found")

type ChunkStore interface {
	PutDoc(doc domain.Document) error

	GetDoc(id string) (domain.Document, error)

	DeleteDoc(id string) error

	ListDocs() ([]domain.Document, error)

	// PutChunks replaces every chunk stored for docID.
	PutChunks(docID string, chunks []domain.Chunk) error

	GetChunksByDoc(docID string) ([]domain.Chunk, error)

	DeleteChunksByDoc(docID string) error

	GetStats() (domain.Stats, error)

	UpdateStats(stats domain.Stats) error

	Close() error
}
