package usecase

import (
	"strings"
	"sync"
	"sync/atomic"

	"pharmarag/internal/domain"
	"pharmarag/internal/port"
)

// fakeBackend implements port.DocumentBackend over an in-memory chunk slice
// and counts store round trips.
type fakeBackend struct {
	mu       sync.Mutex
	chunks   []domain.Chunk
	passages []domain.ScoredPassage
	names    []string

	getAllCalls     int
	similarityCalls int

	getAllErr     error
	similarityErr error
	namesErr      error
}

func (f *fakeBackend) GetAll(filter port.ChunkFilter) ([]domain.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getAllCalls++
	if f.getAllErr != nil {
		return nil, f.getAllErr
	}

	contains := strings.ToLower(filter.NameContains)
	var out []domain.Chunk
	for _, c := range f.chunks {
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
		if filter.Name != "" && c.Name != filter.Name {
			continue
		}
		if contains != "" && !strings.Contains(strings.ToLower(c.Name), contains) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeBackend) SimilaritySearch(query string, k int) ([]domain.ScoredPassage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.similarityCalls++
	if f.similarityErr != nil {
		return nil, f.similarityErr
	}
	if k > len(f.passages) {
		k = len(f.passages)
	}
	return f.passages[:k], nil
}

func (f *fakeBackend) DistinctNames() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.namesErr != nil {
		return nil, f.namesErr
	}
	return f.names, nil
}

func (f *fakeBackend) Identity() string { return "fake-store" }
func (f *fakeBackend) Close() error     { return nil }

func (f *fakeBackend) calls() (getAll, similarity int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getAllCalls, f.similarityCalls
}

// fakeNameSource counts catalog loads.
type fakeNameSource struct {
	names []string
	loads atomic.Int32
	err   error
}

func (s *fakeNameSource) Load() ([]string, error) {
	s.loads.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.names, nil
}

// fakeGenerator records prompts and echoes a fixed response.
type fakeGenerator struct {
	mu       sync.Mutex
	prompts  []string
	response string
	err      error
}

func (g *fakeGenerator) Generate(prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	g.prompts = append(g.prompts, prompt)
	return g.response, nil
}

func (g *fakeGenerator) ModelName() string { return "fake" }

func (g *fakeGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}
