package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"textsplit/internal/domain"
	"textsplit/internal/logging"
	"textsplit/internal/port"
)

// ProgressFunc is called after each file that had to be split.
type ProgressFunc func(processed, total int, currentFile string)

// IndexUseCase splits the text files under a directory and keeps their
// chunks in a ChunkStore, re-splitting only files modified since the last run.
type IndexUseCase struct {
	store   port.ChunkStore
	walker  port.FileWalker
	reader  port.FileReader
	chunker port.Chunker
	workers int
}

func NewIndexUseCase(
	store port.ChunkStore,
	walker port.FileWalker,
	reader port.FileReader,
	chunker port.Chunker,
	workers int,
) *IndexUseCase {
	if workers <= 0 {
		workers = 1
	}
	return &IndexUseCase{
		store:   store,
		walker:  walker,
		reader:  reader,
		chunker: chunker,
		workers: workers,
	}
}

type IndexResult struct {
	FilesIndexed  int
	FilesSkipped  int
	FilesDeleted  int
	ChunksCreated int
	Errors        []string
	Duration      time.Duration
}

// Index walks root and brings the store up to date with it. Failures on
// individual files are collected in the result and do not stop the run.
func (u *IndexUseCase) Index(ctx context.Context, root string, progress ProgressFunc) (*IndexResult, error) {
	start := time.Now()
	result := &IndexResult{}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	existingDocs, err := u.store.ListDocs()
	if err != nil {
		return nil, fmt.Errorf("failed to list existing docs: %w", err)
	}
	existing := make(map[string]domain.Document, len(existingDocs))
	for _, doc := range existingDocs {
		existing[doc.Path] = doc
	}

	seen := make(map[string]bool, len(files))
	var pending []port.FileInfo
	for _, file := range files {
		seen[file.Path] = true
		if doc, ok := existing[file.Path]; ok && doc.ModTime.Unix() >= file.ModTime {
			result.FilesSkipped++
			continue
		}
		pending = append(pending, file)
	}

	var mu sync.Mutex
	processed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.workers)
	for _, file := range pending {
		file := file
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := u.indexFile(file)

			mu.Lock()
			defer mu.Unlock()
			processed++
			if err != nil {
				logging.Warnf("index: %s: %v", file.Path, err)
				result.Errors = append(result.Errors, fmt.Sprintf("failed to index %s: %v", file.Path, err))
			} else {
				result.FilesIndexed++
				result.ChunksCreated += n
			}
			if progress != nil {
				progress(processed, len(pending), file.Path)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for path, doc := range existing {
		if seen[path] {
			continue
		}
		if err := u.deleteDocument(doc.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to delete %s: %v", path, err))
			continue
		}
		result.FilesDeleted++
	}

	if err := u.refreshStats(); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (u *IndexUseCase) indexFile(file port.FileInfo) (int, error) {
	content, err := u.reader.ReadFile(file.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}

	doc := domain.Document{
		ID:      DocID(file.Path),
		Path:    file.Path,
		ModTime: time.Unix(file.ModTime, 0),
	}

	chunks, err := u.chunker.Chunk(doc, content)
	if err != nil {
		return 0, fmt.Errorf("failed to split content: %w", err)
	}

	// Chunks go first so a document is only recorded once its chunks are.
	if err := u.store.PutChunks(doc.ID, chunks); err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}
	if err := u.store.PutDoc(doc); err != nil {
		return 0, fmt.Errorf("failed to store document: %w", err)
	}
	return len(chunks), nil
}

func (u *IndexUseCase) deleteDocument(docID string) error {
	if err := u.store.DeleteChunksByDoc(docID); err != nil {
		return err
	}
	return u.store.DeleteDoc(docID)
}

// refreshStats recomputes corpus statistics from what is stored.
func (u *IndexUseCase) refreshStats() error {
	docs, err := u.store.ListDocs()
	if err != nil {
		return fmt.Errorf("failed to list docs: %w", err)
	}

	stats := domain.Stats{TotalDocs: len(docs)}
	totalLen := 0
	for _, doc := range docs {
		chunks, err := u.store.GetChunksByDoc(doc.ID)
		if err != nil {
			return fmt.Errorf("failed to load chunks of %s: %w", doc.Path, err)
		}
		stats.TotalChunks += len(chunks)
		for _, c := range chunks {
			totalLen += c.Length
		}
	}
	if stats.TotalChunks > 0 {
		stats.AvgChunkLen = float64(totalLen) / float64(stats.TotalChunks)
	}

	if err := u.store.UpdateStats(stats); err != nil {
		return fmt.Errorf("failed to update stats: %w", err)
	}
	return nil
}

// DocID derives a document ID from its absolute path.
func DocID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}
