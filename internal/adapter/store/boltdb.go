package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"textsplit/internal/domain"
	"textsplit/internal/port"
)

var (
	bucketDocs      = []byte("docs")
	bucketChunks    = []byte("chunks")
	bucketBlobs     = []byte("blobs")
	bucketStats     = []byte("stats")
	bucketDocChunks = []byte("doc_chunks")
	keyStats        = []byte("corpus_stats")
)

// BoltStore persists documents and their chunks. Chunk metadata and chunk
// text live in separate buckets so listing never loads text.
type BoltStore struct {
	db *bbolt.DB
}

var _ port.ChunkStore = (*BoltStore)(nil)

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocs, bucketChunks, bucketBlobs, bucketStats, bucketDocChunks} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

type docMeta struct {
	Path    string `json:"path"`
	ModTime int64  `json:"mod_time"`
}

type chunkMeta struct {
	DocID   string `json:"doc_id"`
	Ordinal int    `json:"ordinal"`
	Length  int    `json:"length"`
}

func (s *BoltStore) PutDoc(doc domain.Document) error {
	data, err := json.Marshal(docMeta{Path: doc.Path, ModTime: doc.ModTime.Unix()})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).Put([]byte(doc.ID), data)
	})
}

func (s *BoltStore) GetDoc(id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("document %s: %w", id, port.ErrNotFound)
		}
		var err error
		doc, err = decodeDoc(id, data)
		return err
	})
	return doc, err
}

func (s *BoltStore) DeleteDoc(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).Delete([]byte(id))
	})
}

// ListDocs returns documents ordered by ID.
func (s *BoltStore) ListDocs() ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			doc, err := decodeDoc(string(k), v)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
			return nil
		})
	})
	return docs, err
}

func decodeDoc(id string, data []byte) (domain.Document, error) {
	var meta docMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return domain.Document{}, fmt.Errorf("corrupt document %s: %w", id, err)
	}
	return domain.Document{
		ID:      id,
		Path:    meta.Path,
		ModTime: time.Unix(meta.ModTime, 0),
	}, nil
}

// PutChunks replaces the chunks of docID in a single transaction.
func (s *BoltStore) PutChunks(docID string, chunks []domain.Chunk) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := deleteChunks(tx, docID); err != nil {
			return err
		}

		chunkBucket := tx.Bucket(bucketChunks)
		blobBucket := tx.Bucket(bucketBlobs)
		ids := make([]string, 0, len(chunks))
		for _, c := range chunks {
			data, err := json.Marshal(chunkMeta{DocID: docID, Ordinal: c.Ordinal, Length: c.Length})
			if err != nil {
				return err
			}
			if err := chunkBucket.Put([]byte(c.ID), data); err != nil {
				return err
			}
			if err := blobBucket.Put([]byte(c.ID), []byte(c.Text)); err != nil {
				return err
			}
			ids = append(ids, c.ID)
		}

		data, err := json.Marshal(ids)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketDocChunks).Put([]byte(docID), data)
	})
}

// GetChunksByDoc returns the chunks of docID in ordinal order.
func (s *BoltStore) GetChunksByDoc(docID string) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocChunks).Get([]byte(docID))
		if data == nil {
			return nil
		}
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}

		chunkBucket := tx.Bucket(bucketChunks)
		blobBucket := tx.Bucket(bucketBlobs)
		for _, id := range ids {
			raw := chunkBucket.Get([]byte(id))
			if raw == nil {
				return fmt.Errorf("chunk %s of %s: %w", id, docID, port.ErrNotFound)
			}
			var meta chunkMeta
			if err := json.Unmarshal(raw, &meta); err != nil {
				return fmt.Errorf("corrupt chunk %s: %w", id, err)
			}
			chunks = append(chunks, domain.Chunk{
				ID:      id,
				DocID:   meta.DocID,
				Ordinal: meta.Ordinal,
				Length:  meta.Length,
				Text:    string(blobBucket.Get([]byte(id))),
			})
		}
		return nil
	})
	return chunks, err
}

func (s *BoltStore) DeleteChunksByDoc(docID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return deleteChunks(tx, docID)
	})
}

func deleteChunks(tx *bbolt.Tx, docID string) error {
	docChunks := tx.Bucket(bucketDocChunks)
	data := docChunks.Get([]byte(docID))
	if data == nil {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	chunkBucket := tx.Bucket(bucketChunks)
	blobBucket := tx.Bucket(bucketBlobs)
	for _, id := range ids {
		if err := chunkBucket.Delete([]byte(id)); err != nil {
			return err
		}
		if err := blobBucket.Delete([]byte(id)); err != nil {
			return err
		}
	}
	return docChunks.Delete([]byte(docID))
}

func (s *BoltStore) GetStats() (domain.Stats, error) {
	var stats domain.Stats
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketStats).Get(keyStats)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &stats)
	})
	return stats, err
}

func (s *BoltStore) UpdateStats(stats domain.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketStats).Put(keyStats, data)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
