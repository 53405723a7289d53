package domain

import "time"

type Document struct {
	ID      string
	Path    string
	ModTime time.Time
}

type Chunk struct {
	ID      string
	DocID   string
	Ordinal int
	Length  int
	Text    string
}

type Stats struct {
	TotalDocs   int     `json:"total_docs"`
	TotalChunks int     `json:"total_chunks"`
	AvgChunkLen float64 `json:"avg_chunk_len"`
}
