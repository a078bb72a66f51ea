// Package memstore provides an in-memory document backend with the same
// behavior as the bbolt-backed store. It serves environments without a
// filesystem, such as the wasm build, and throwaway setups in examples.
package memstore

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"pharmarag/internal/domain"
	"pharmarag/internal/port"
)

type MemoryStore struct {
	mu       sync.RWMutex
	chunks   map[string]domain.Chunk
	vectors  map[string][]float32
	embedder port.Embedder
}

func NewMemoryStore(embedder port.Embedder) *MemoryStore {
	return &MemoryStore{
		chunks:   make(map[string]domain.Chunk),
		vectors:  make(map[string][]float32),
		embedder: embedder,
	}
}

func (s *MemoryStore) Identity() string { return "memory" }

func (s *MemoryStore) Close() error { return nil }

// PutChunks stores chunks with their embedding vectors. vectors may be nil
// when similarity search is not needed.
func (s *MemoryStore) PutChunks(chunks []domain.Chunk, vectors [][]float32) error {
	if vectors != nil && len(vectors) != len(chunks) {
		return fmt.Errorf("vector count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range chunks {
		s.chunks[c.ID] = c
		if vectors != nil {
			s.vectors[c.ID] = vectors[i]
		}
	}
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = make(map[string]domain.Chunk)
	s.vectors = make(map[string][]float32)
	return nil
}

func (s *MemoryStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

func (s *MemoryStore) GetAll(filter port.ChunkFilter) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contains := strings.ToLower(filter.NameContains)
	out := make([]domain.Chunk, 0)
	for _, c := range s.chunks {
		if filter.Name != "" && c.Name != filter.Name {
			continue
		}
		if contains != "" && !strings.Contains(strings.ToLower(c.Name), contains) {
			continue
		}
		out = append(out, c)
	}

	// Map iteration order is random; callers expect stable results.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) DistinctNames() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, c := range s.chunks {
		if c.Name != "" {
			seen[c.Name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// SimilaritySearch embeds the query and ranks stored chunks by cosine
// similarity, mapped to a relevance score in [0,1].
func (s *MemoryStore) SimilaritySearch(query string, k int) ([]domain.ScoredPassage, error) {
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
	defer s.mu.RUnlock()

	results := make([]domain.ScoredPassage, 0, len(s.vectors))
	for id, vec := range s.vectors {
		c, ok := s.chunks[id]
		if !ok {
			continue
		}
		results = append(results, domain.ScoredPassage{
			Chunk: c,
			Score: relevance(qvec, vec),
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

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
