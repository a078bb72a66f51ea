package memstore

import (
	"testing"

	"pharmarag/internal/domain"
	"pharmarag/internal/port"
)

// axisEmbedder maps each known text to a distinct unit axis so similarity
// scores are exact: 1.0 for the same text, 0.5 for different ones.
type axisEmbedder struct {
	axes map[string]int
}

func newAxisEmbedder(texts ...string) *axisEmbedder {
	axes := make(map[string]int, len(texts))
	for i, t := range texts {
		axes[t] = i
	}
	return &axisEmbedder{axes: axes}
}

func (e *axisEmbedder) Embed(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, len(e.axes))
		if axis, ok := e.axes[t]; ok {
			vec[axis] = 1
		} else {
			vec[0] = 1
		}
		out[i] = vec
	}
	return out, nil
}

func (e *axisEmbedder) Dimension() int    { return len(e.axes) }
func (e *axisEmbedder) ModelName() string { return "axis" }

func seed(t *testing.T, s *MemoryStore, embedder port.Embedder, chunks []domain.Chunk) {
	t.Helper()
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := embedder.Embed(texts)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if err := s.PutChunks(chunks, vectors); err != nil {
		t.Fatalf("PutChunks: %v", err)
	}
}

func TestGetAllFilters(t *testing.T) {
	s := NewMemoryStore(nil)
	chunks := []domain.Chunk{
		{ID: "a1", Name: "Aspirin", Content: "x"},
		{ID: "a2", Name: "Aspirin", Content: "y"},
		{ID: "b1", Name: "Ibuprofen", Content: "z"},
	}
	if err := s.PutChunks(chunks, nil); err != nil {
		t.Fatalf("PutChunks: %v", err)
	}

	exact, err := s.GetAll(port.ChunkFilter{Name: "Aspirin"})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(exact) != 2 {
		t.Errorf("exact filter returned %d chunks, want 2", len(exact))
	}

	fuzzy, err := s.GetAll(port.ChunkFilter{NameContains: "profen"})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(fuzzy) != 1 || fuzzy[0].Name != "Ibuprofen" {
		t.Errorf("contains filter = %v, want the Ibuprofen chunk", fuzzy)
	}

	limited, err := s.GetAll(port.ChunkFilter{Limit: 1})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit 1 returned %d chunks", len(limited))
	}
}

func TestDistinctNames(t *testing.T) {
	s := NewMemoryStore(nil)
	chunks := []domain.Chunk{
		{ID: "a1", Name: "Ibuprofen", Content: "x"},
		{ID: "a2", Name: "Aspirin", Content: "y"},
		{ID: "a3", Name: "Aspirin", Content: "z"},
	}
	if err := s.PutChunks(chunks, nil); err != nil {
		t.Fatalf("PutChunks: %v", err)
	}

	names, err := s.DistinctNames()
	if err != nil {
		t.Fatalf("DistinctNames: %v", err)
	}
	if len(names) != 2 || names[0] != "Aspirin" || names[1] != "Ibuprofen" {
		t.Errorf("DistinctNames = %v, want sorted [Aspirin Ibuprofen]", names)
	}
}

func TestSimilaritySearchRanking(t *testing.T) {
	embedder := newAxisEmbedder("dawkowanie", "skutki uboczne")
	s := NewMemoryStore(embedder)
	seed(t, s, embedder, []domain.Chunk{
		{ID: "c1", Name: "Aspirin", Content: "dawkowanie"},
		{ID: "c2", Name: "Aspirin", Content: "skutki uboczne"},
	})

	results, err := s.SimilaritySearch("dawkowanie", 2)
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Chunk.ID != "c1" {
		t.Errorf("best match = %s, want c1", results[0].Chunk.ID)
	}
	if results[0].Score != 1.0 {
		t.Errorf("identical text score = %v, want 1.0", results[0].Score)
	}
	if results[1].Score != 0.5 {
		t.Errorf("orthogonal text score = %v, want 0.5", results[1].Score)
	}
}

func TestSimilaritySearchWithoutEmbedder(t *testing.T) {
	s := NewMemoryStore(nil)
	if _, err := s.SimilaritySearch("q", 3); err == nil {
		t.Fatal("search without an embedder should fail")
	}
}

func TestClear(t *testing.T) {
	s := NewMemoryStore(nil)
	if err := s.PutChunks([]domain.Chunk{{ID: "c1", Name: "Aspirin", Content: "x"}}, nil); err != nil {
		t.Fatalf("PutChunks: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	count, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("Count after clear = %d, want 0", count)
	}
}
