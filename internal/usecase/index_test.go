package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"textsplit/internal/adapter/fs"
	"textsplit/internal/adapter/memstore"
	"textsplit/internal/adapter/splitter"
)

func newIndexUseCase(t *testing.T) (*IndexUseCase, *memstore.MemoryStore) {
	t.Helper()
	cfg, err := splitter.NewChunkConfig(20, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	s, err := splitter.NewRecursiveSplitter(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	walker, err := fs.NewWalker([]string{"**/*.txt"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	store := memstore.NewMemoryStore()
	return NewIndexUseCase(store, walker, fs.TextReader{}, s, 2), store
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestIndex_Incremental(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.txt")
	b := filepath.Join(root, "b.txt")
	write(t, a, "alpha beta gamma delta epsilon zeta")
	write(t, b, "short")
	write(t, filepath.Join(root, "ignored.md"), "not included")

	uc, store := newIndexUseCase(t)
	ctx := context.Background()

	var calls int
	result, err := uc.Index(ctx, root, func(processed, total int, file string) {
		calls++
		if total != 2 || processed > total {
			t.Errorf("progress %d/%d for %s", processed, total, file)
		}
	})
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if result.FilesIndexed != 2 || result.FilesSkipped != 0 || len(result.Errors) != 0 {
		t.Errorf("first run: %+v", result)
	}
	if calls != 2 {
		t.Errorf("expected 2 progress calls, got %d", calls)
	}

	chunks, err := store.GetChunksByDoc(DocID(a))
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected a.txt to be split, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if c.Ordinal != i || c.Length > 20 {
			t.Errorf("chunk %d: %+v", i, c)
		}
	}

	// unchanged files are skipped
	result, err = uc.Index(ctx, root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesIndexed != 0 || result.FilesSkipped != 2 {
		t.Errorf("second run: %+v", result)
	}

	// a modified file is split again, a removed one is dropped
	write(t, a, "replaced")
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(a, future, future); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(b); err != nil {
		t.Fatal(err)
	}

	result, err = uc.Index(ctx, root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesIndexed != 1 || result.FilesDeleted != 1 {
		t.Errorf("third run: %+v", result)
	}

	chunks, _ = store.GetChunksByDoc(DocID(a))
	if len(chunks) != 1 || chunks[0].Text != "replaced" {
		t.Errorf("expected replaced chunk, got %+v", chunks)
	}
	if chunks, _ := store.GetChunksByDoc(DocID(b)); len(chunks) != 0 {
		t.Errorf("chunks of removed file remain: %+v", chunks)
	}

	stats, _ := store.GetStats()
	if stats.TotalDocs != 1 || stats.TotalChunks != 1 || stats.AvgChunkLen != float64(len("replaced")) {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestIndex_CollectsFileErrors(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "good.txt"), "fine text")
	write(t, filepath.Join(root, "bad.txt"), "bin\x00ary")

	uc, store := newIndexUseCase(t)
	result, err := uc.Index(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if result.FilesIndexed != 1 || len(result.Errors) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if !strings.Contains(result.Errors[0], "bad.txt") {
		t.Errorf("error does not name the file: %s", result.Errors[0])
	}

	docs, _ := store.ListDocs()
	if len(docs) != 1 {
		t.Errorf("expected only the good file recorded, got %d docs", len(docs))
	}
}

func TestIndex_Cancelled(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.txt"), "text")

	uc, _ := newIndexUseCase(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := uc.Index(ctx, root, nil); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestDocID(t *testing.T) {
	if DocID("/a") == DocID("/b") {
		t.Error("distinct paths share an ID")
	}
	if len(DocID("/a")) != 16 {
		t.Errorf("unexpected ID length %d", len(DocID("/a")))
	}
}
