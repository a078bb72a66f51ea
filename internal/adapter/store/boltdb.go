package store

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.etcd.io/bbolt"

	"pharmarag/internal/domain"
	"pharmarag/internal/port"
)

var (
	bucketChunks  = []byte("chunks")
	bucketVectors = []byte("vectors")
)

// BoltStore is a bbolt-backed document backend. Chunks and their embedding
// vectors live in separate buckets keyed by chunk ID; vectors are mirrored
// in memory for brute-force similarity search.
type BoltStore struct {
	db       *bbolt.DB
	path     string
	embedder port.Embedder

	mu      sync.RWMutex
	vectors map[string][]float32
}

type chunkRecord struct {
	Name    string `json:"name"`
	Section string `json:"section,omitempty"`
	Index   int    `json:"index"`
	Source  string `json:"source,omitempty"`
	Content string `json:"content"`
}

// NewBoltStore opens (or creates) the store at path. The embedder is used to
// embed query text for similarity search; it may be nil if only chunk
// lookups are needed.
func NewBoltStore(path string, embedder port.Embedder) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketChunks, bucketVectors} {
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

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	s := &BoltStore{
		db:       db,
		path:     abs,
		embedder: embedder,
		vectors:  make(map[string][]float32),
	}
	if err := s.loadVectors(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}
	return s, nil
}

// Identity returns the absolute path of the database file.
func (s *BoltStore) Identity() string {
	return s.path
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) loadVectors() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var vec []float32
			if err := json.Unmarshal(v, &vec); err != nil {
				return nil // skip corrupted entries
			}
			s.vectors[string(k)] = vec
			return nil
		})
	})
}

// PutChunks stores chunks and, when vectors is non-nil, their embeddings.
// len(vectors) must equal len(chunks) when provided.
func (s *BoltStore) PutChunks(chunks []domain.Chunk, vectors [][]float32) error {
	if vectors != nil && len(vectors) != len(chunks) {
		return fmt.Errorf("vector count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bbolt.Tx) error {
		cb := tx.Bucket(bucketChunks)
		vb := tx.Bucket(bucketVectors)

		for i, c := range chunks {
			rec := chunkRecord{
				Name:    c.Name,
				Section: c.Section,
				Index:   c.Index,
				Source:  c.Source,
				Content: c.Content,
			}
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := cb.Put([]byte(c.ID), data); err != nil {
				return err
			}

			if vectors != nil {
				vdata, err := json.Marshal(vectors[i])
				if err != nil {
					return err
				}
				if err := vb.Put([]byte(c.ID), vdata); err != nil {
					return err
				}
				s.vectors[c.ID] = vectors[i]
			}
		}
		return nil
	})
}

// Clear removes all chunks and vectors.
func (s *BoltStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketChunks, bucketVectors} {
			if err := tx.DeleteBucket(b); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.vectors = make(map[string][]float32)
	return nil
}

// Count returns the number of stored chunks.
func (s *BoltStore) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketChunks).Stats().KeyN
		return nil
	})
	return n, err
}

// GetAll returns chunks matching the filter.
func (s *BoltStore) GetAll(filter port.ChunkFilter) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	contains := strings.ToLower(filter.NameContains)

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		return b.ForEach(func(k, v []byte) error {
			if filter.Limit > 0 && len(chunks) >= filter.Limit {
				return nil
			}
			var rec chunkRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil // skip corrupted entries
			}
			if filter.Name != "" && rec.Name != filter.Name {
				return nil
			}
			if contains != "" && !strings.Contains(strings.ToLower(rec.Name), contains) {
				return nil
			}
			chunks = append(chunks, domain.Chunk{
				ID:      string(k),
				Name:    rec.Name,
				Section: rec.Section,
				Index:   rec.Index,
				Source:  rec.Source,
				Content: rec.Content,
			})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("chunk scan failed: %w", err)
	}
	return chunks, nil
}

// DistinctNames returns the sorted set of distinct chunk names.
func (s *BoltStore) DistinctNames() ([]string, error) {
	seen := make(map[string]struct{})
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		return b.ForEach(func(k, v []byte) error {
			var rec chunkRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil
			}
			name := strings.TrimSpace(rec.Name)
			if name != "" {
				seen[name] = struct{}{}
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("name scan failed: %w", err)
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// SimilaritySearch embeds the query and ranks stored chunks by cosine
// similarity, mapped to a relevance score in [0,1].
func (s *BoltStore) SimilaritySearch(query string, k int) ([]domain.ScoredPassage, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("similarity search requires an embedder")
	}

	embeddings, err := s.embedder.Embed([]string{query})
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}
	qvec := embeddings[0]

	s.mu.RLock()
	type scored struct {
		id    string
		score float64
	}
	scores := make([]scored, 0, len(s.vectors))
	for id, vec := range s.vectors {
		scores = append(scores, scored{id, relevance(qvec, vec)})
	}
	s.mu.RUnlock()

	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if k > len(scores) {
		k = len(scores)
	}
	scores = scores[:k]

	results := make([]domain.ScoredPassage, 0, len(scores))
	err = s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		for _, sc := range scores {
			data := b.Get([]byte(sc.id))
			if data == nil {
				continue
			}
			var rec chunkRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				continue
			}
			results = append(results, domain.ScoredPassage{
				Chunk: domain.Chunk{
					ID:      sc.id,
					Name:    rec.Name,
					Section: rec.Section,
					Index:   rec.Index,
					Source:  rec.Source,
					Content: rec.Content,
				},
				Score: sc.score,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// relevance maps cosine similarity from [-1,1] onto [0,1].
func relevance(a, b []float32) float64 {
	cos := cosineSimilarity(a, b)
	r := (cos + 1) / 2
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	return r
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
