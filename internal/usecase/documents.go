package usecase

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"pharmarag/internal/adapter/cache"
	"pharmarag/internal/adapter/monitor"
	"pharmarag/internal/domain"
	"pharmarag/internal/port"
)

const (
	memoryCacheCap  = 100
	queryCacheCap   = 50
	fuzzyScanLimit  = 100
	queryCacheTTL   = time.Minute
)

// DocumentStore resolves full leaflet documents by medicine name through
// three cache tiers: a bounded in-process map, the shared TTL cache, and a
// short-lived raw-query cache in front of the backing store. A backing-store
// hit reassembles all chunks for the name into one document.
type DocumentStore struct {
	backend port.DocumentBackend
	shared  *cache.TTLCache[domain.Document]
	queries *cache.TTLCache[[]domain.Chunk]
	keys    *cache.KeyBuilder
	monitor *monitor.Monitor
	logger  *slog.Logger

	mu     sync.Mutex
	memory map[string]domain.Document
	order  []string // FIFO eviction order for the memory tier
}

// NewDocumentStore creates a DocumentStore. shared may be nil to disable the
// TTL tier.
func NewDocumentStore(backend port.DocumentBackend, shared *cache.TTLCache[domain.Document], keys *cache.KeyBuilder, mon *monitor.Monitor, logger *slog.Logger) *DocumentStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentStore{
		backend: backend,
		shared:  shared,
		queries: cache.New[[]domain.Chunk](queryCacheTTL, queryCacheCap),
		keys:    keys,
		monitor: mon,
		logger:  logger,
	}
}

// GetByName returns the reassembled document for name. The boolean reports
// whether a document was found; absence is not an error. forceRefresh skips
// the cache tiers and repopulates them.
func (s *DocumentStore) GetByName(name string, forceRefresh bool) (domain.Document, bool, error) {
	if s.monitor != nil {
		defer s.monitor.Track("get_document")()
	}

	sharedKey := ""
	if s.shared != nil {
		sharedKey = s.keys.Build("document", []any{name}, nil)
	}

	if !forceRefresh {
		s.mu.Lock()
		if doc, ok := s.memory[name]; ok {
			s.mu.Unlock()
			return doc, true, nil
		}
		s.mu.Unlock()

		if s.shared != nil {
			if doc, ok := s.shared.Get(sharedKey); ok {
				s.remember(name, doc)
				return doc, true, nil
			}
		}
	}

	start := time.Now()
	chunks, err := s.fetchChunks(name, forceRefresh)
	if err != nil {
		// A still-cached document beats failing the whole lookup.
		if s.shared != nil {
			if doc, ok := s.shared.Get(sharedKey); ok {
				s.logger.Warn("backing store failed, serving cached document",
					"name", name, "error", err)
				return doc, true, nil
			}
		}
		return domain.Document{}, false, domain.NewUpstreamError("get_document", "store", time.Since(start), err)
	}

	matching := exactMatches(chunks, name)
	if len(matching) == 0 {
		return domain.Document{}, false, nil
	}

	doc := assemble(matching)

	if s.shared != nil {
		s.shared.Set(sharedKey, doc)
	}
	s.remember(name, doc)
	return doc, true, nil
}

// fetchChunks queries the backend for chunks matching name: an exact pass
// first, then a case-insensitive contains pass. Both raw results are
// memoized so a repeated lookup skips the store round trip; forceRefresh
// skips the memo reads but still repopulates them.
func (s *DocumentStore) fetchChunks(name string, forceRefresh bool) ([]domain.Chunk, error) {
	exactKey := "exact_" + name
	var chunks []domain.Chunk
	ok := false
	if !forceRefresh {
		chunks, ok = s.queries.Get(exactKey)
	}
	if !ok {
		var err error
		chunks, err = s.trackedGetAll("store_exact_query", port.ChunkFilter{Name: name})
		if err != nil {
			return nil, err
		}
		s.queries.Set(exactKey, chunks)
	}
	if len(chunks) > 0 {
		return chunks, nil
	}

	fuzzyKey := "fuzzy_" + strings.ToLower(name)
	ok = false
	if !forceRefresh {
		chunks, ok = s.queries.Get(fuzzyKey)
	}
	if !ok {
		var err error
		chunks, err = s.trackedGetAll("store_fuzzy_query", port.ChunkFilter{
			NameContains: strings.ToLower(name),
			Limit:        fuzzyScanLimit,
		})
		if err != nil {
			return nil, err
		}
		s.queries.Set(fuzzyKey, chunks)
	}
	return chunks, nil
}

// trackedGetAll runs one backend query and records its duration alone, so
// the exact and fuzzy metrics do not absorb each other.
func (s *DocumentStore) trackedGetAll(op string, filter port.ChunkFilter) ([]domain.Chunk, error) {
	stop := func() {}
	if s.monitor != nil {
		stop = s.monitor.Track(op)
	}
	chunks, err := s.backend.GetAll(filter)
	stop()
	return chunks, err
}

// exactMatches keeps chunks whose name equals the lookup name ignoring case.
func exactMatches(chunks []domain.Chunk, name string) []domain.Chunk {
	lower := strings.ToLower(name)
	var matching []domain.Chunk
	for _, c := range chunks {
		if strings.ToLower(c.Name) == lower {
			matching = append(matching, c)
		}
	}
	return matching
}

// assemble orders chunks by (section, index) and concatenates them, opening
// a markdown section heading whenever the section title changes.
func assemble(chunks []domain.Chunk) domain.Document {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Section != chunks[j].Section {
			return chunks[i].Section < chunks[j].Section
		}
		return chunks[i].Index < chunks[j].Index
	})

	var parts []string
	currentSection := ""
	sectionOpen := false
	for _, c := range chunks {
		if c.Section != "" && (!sectionOpen || c.Section != currentSection) {
			parts = append(parts, "## "+c.Section)
			currentSection = c.Section
			sectionOpen = true
		}
		if body := strings.TrimSpace(c.Content); body != "" {
			parts = append(parts, body)
		}
	}

	name := chunks[0].Name
	source := chunks[0].Source
	filename := name + ".md"
	if source != "" {
		filename = filepath.Base(source)
	}

	return domain.Document{
		Name:     name,
		Filename: filename,
		Source:   source,
		Content:  strings.Join(parts, "\n\n"),
	}
}

// remember inserts doc into the bounded memory tier, evicting the oldest
// entry past the cap.
func (s *DocumentStore) remember(name string, doc domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.memory[name]; !exists {
		s.order = append(s.order, name)
	}
	if s.memory == nil {
		s.memory = make(map[string]domain.Document)
	}
	s.memory[name] = doc

	for len(s.memory) > memoryCacheCap {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.memory, oldest)
	}
}

// ListAll returns one entry per stored chunk, ordered by name, section and
// index, mirroring the raw contents of the backing store.
func (s *DocumentStore) ListAll() ([]domain.Document, error) {
	if s.monitor != nil {
		defer s.monitor.Track("list_documents")()
	}

	start := time.Now()
	chunks, err := s.backend.GetAll(port.ChunkFilter{})
	if err != nil {
		return nil, domain.NewUpstreamError("list_documents", "store", time.Since(start), err)
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Name != chunks[j].Name {
			return chunks[i].Name < chunks[j].Name
		}
		if chunks[i].Section != chunks[j].Section {
			return chunks[i].Section < chunks[j].Section
		}
		return chunks[i].Index < chunks[j].Index
	})

	docs := make([]domain.Document, 0, len(chunks))
	for _, c := range chunks {
		filename := c.Name + ".md"
		if c.Source != "" {
			filename = filepath.Base(c.Source)
		}
		docs = append(docs, domain.Document{
			Name:     c.Name,
			Filename: filename,
			Source:   c.Source,
			Content:  c.Content,
		})
	}
	return docs, nil
}

// InvalidateMemory drops the in-process tier; used after a force refresh of
// the shared cache.
func (s *DocumentStore) InvalidateMemory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory = make(map[string]domain.Document)
	s.order = nil
}
