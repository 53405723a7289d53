package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.etcd.io/bbolt"

	"textsplit/config"
	"textsplit/internal/domain"
	"textsplit/internal/port"
)

func openStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "chunks.db"))
	if err != nil {
		t.Fatalf("NewBoltStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeChunks(docID string, texts ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			ID:      docID + "#" + string(rune('a'+i)),
			DocID:   docID,
			Ordinal: i,
			Length:  len(text),
			Text:    text,
		}
	}
	return chunks
}

func TestBoltStore_Docs(t *testing.T) {
	s := openStore(t)

	mod := time.Unix(1700000000, 0)
	for _, id := range []string{"b.txt", "a.txt"} {
		if err := s.PutDoc(domain.Document{ID: id, Path: "/root/" + id, ModTime: mod}); err != nil {
			t.Fatalf("PutDoc failed: %v", err)
		}
	}

	doc, err := s.GetDoc("a.txt")
	if err != nil {
		t.Fatalf("GetDoc failed: %v", err)
	}
	if doc.Path != "/root/a.txt" || !doc.ModTime.Equal(mod) {
		t.Errorf("unexpected doc %+v", doc)
	}

	docs, err := s.ListDocs()
	if err != nil {
		t.Fatalf("ListDocs failed: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "a.txt" || docs[1].ID != "b.txt" {
		t.Errorf("unexpected docs %+v", docs)
	}

	if err := s.DeleteDoc("a.txt"); err != nil {
		t.Fatalf("DeleteDoc failed: %v", err)
	}
	if _, err := s.GetDoc("a.txt"); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBoltStore_PutChunksReplaces(t *testing.T) {
	s := openStore(t)

	if err := s.PutChunks("doc", makeChunks("doc", "one", "two", "three")); err != nil {
		t.Fatalf("PutChunks failed: %v", err)
	}
	if err := s.PutChunks("doc", makeChunks("doc", "uno", "dos")); err != nil {
		t.Fatalf("PutChunks failed: %v", err)
	}

	chunks, err := s.GetChunksByDoc("doc")
	if err != nil {
		t.Fatalf("GetChunksByDoc failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, want := range []string{"uno", "dos"} {
		if chunks[i].Text != want || chunks[i].Ordinal != i || chunks[i].DocID != "doc" {
			t.Errorf("chunk %d = %+v", i, chunks[i])
		}
	}

	// chunks from the first write must not linger in the buckets
	err = s.db.View(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketChunks, bucketBlobs} {
			if n := tx.Bucket(name).Stats().KeyN; n != 2 {
				t.Errorf("bucket %s has %d keys, want 2", name, n)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestBoltStore_DeleteChunksByDoc(t *testing.T) {
	s := openStore(t)

	s.PutChunks("keep", makeChunks("keep", "k"))
	s.PutChunks("drop", makeChunks("drop", "d1", "d2"))

	if err := s.DeleteChunksByDoc("drop"); err != nil {
		t.Fatalf("DeleteChunksByDoc failed: %v", err)
	}
	if err := s.DeleteChunksByDoc("never-stored"); err != nil {
		t.Fatalf("DeleteChunksByDoc on unknown doc failed: %v", err)
	}

	if chunks, _ := s.GetChunksByDoc("drop"); len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
	if chunks, _ := s.GetChunksByDoc("keep"); len(chunks) != 1 {
		t.Errorf("expected 1 chunk, got %d", len(chunks))
	}
}

func TestBoltStore_Stats(t *testing.T) {
	s := openStore(t)

	stats, err := s.GetStats()
	if err != nil || stats != (domain.Stats{}) {
		t.Fatalf("expected empty stats, got %+v, %v", stats, err)
	}

	want := domain.Stats{TotalDocs: 2, TotalChunks: 5, AvgChunkLen: 42.5}
	if err := s.UpdateStats(want); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.GetStats(); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestBoltStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.db")
	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatal(err)
	}
	s.PutDoc(domain.Document{ID: "a", Path: "a", ModTime: time.Unix(1, 0)})
	s.PutChunks("a", makeChunks("a", "persisted"))
	s.Close()

	s, err = NewBoltStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	chunks, err := s.GetChunksByDoc("a")
	if err != nil || len(chunks) != 1 || chunks[0].Text != "persisted" {
		t.Errorf("unexpected chunks after reopen: %+v, %v", chunks, err)
	}
}

func TestCheckMigration(t *testing.T) {
	s := openStore(t)
	cfg := config.DefaultConfig()

	result, err := s.CheckMigration(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !result.NeedsMigration || result.NeedsRebuild {
		t.Errorf("fresh db: %+v", result)
	}

	if err := s.Migrate(cfg); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	result, _ = s.CheckMigration(cfg)
	if result.NeedsMigration || result.NeedsRebuild {
		t.Errorf("after migrate: %+v", result)
	}

	changed := config.DefaultConfig()
	changed.Splitter.ChunkSize = 500
	result, _ = s.CheckMigration(changed)
	if !result.NeedsRebuild {
		t.Error("expected rebuild after chunk size change")
	}

	// encoding is irrelevant unless the token measurer is selected
	other := config.DefaultConfig()
	other.Splitter.Encoding = "o200k_base"
	result, _ = s.CheckMigration(other)
	if result.NeedsRebuild {
		t.Error("encoding change should not force a rebuild for the chars measurer")
	}
}

func TestComputeConfigHash(t *testing.T) {
	a := config.DefaultConfig()
	b := config.DefaultConfig()
	if ComputeConfigHash(a) != ComputeConfigHash(b) {
		t.Error("hash is not deterministic")
	}

	b.Splitter.Separators = []string{"\n", ""}
	if ComputeConfigHash(a) == ComputeConfigHash(b) {
		t.Error("separator change not reflected in hash")
	}

	b = config.DefaultConfig()
	b.Splitter.Measurer = "tokens"
	c := config.DefaultConfig()
	c.Splitter.Measurer = "tokens"
	c.Splitter.Encoding = "o200k_base"
	if ComputeConfigHash(b) == ComputeConfigHash(c) {
		t.Error("encoding change not reflected in hash for the token measurer")
	}
}

func TestClear(t *testing.T) {
	s := openStore(t)
	cfg := config.DefaultConfig()
	s.Migrate(cfg)
	s.PutDoc(domain.Document{ID: "a", Path: "a"})
	s.PutChunks("a", makeChunks("a", "x"))
	s.UpdateStats(domain.Stats{TotalDocs: 1})

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if docs, _ := s.ListDocs(); len(docs) != 0 {
		t.Errorf("expected no docs, got %d", len(docs))
	}
	if chunks, _ := s.GetChunksByDoc("a"); len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
	if stats, _ := s.GetStats(); stats.TotalDocs != 0 {
		t.Errorf("stats not cleared: %+v", stats)
	}
	info, _ := s.GetSchemaInfo()
	if info.Version != CurrentSchemaVersion || info.ConfigHash != ComputeConfigHash(cfg) {
		t.Errorf("schema info lost: %+v", info)
	}
}
