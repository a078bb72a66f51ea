package usecase

import (
	"log/slog"
	"time"

	"pharmarag/internal/adapter/cache"
	"pharmarag/internal/adapter/monitor"
	"pharmarag/internal/domain"
	"pharmarag/internal/port"
)

// Service wires the query core together: one backend, one key builder, the
// shared caches, and the use cases built on them. It is constructed once at
// startup and passed to the boundary layer, so no component relies on
// package-level state.
type Service struct {
	Names     *NameIndex
	Documents *DocumentStore
	Ask       *AskUseCase
	Monitor   *monitor.Monitor

	backend    port.DocumentBackend
	keys       *cache.KeyBuilder
	namePages  *cache.TTLCache[domain.NamePage]
	documents  *cache.TTLCache[domain.Document]
	storeNames *cache.TTLCache[[]string]
	logger     *slog.Logger
}

// ServiceOptions carries the tunables for NewService.
type ServiceOptions struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	CacheMaxSize int
	TopK         int
	MinRelevance float64
}

// NewService builds the full query core from its collaborators.
func NewService(backend port.DocumentBackend, generator port.Generator, nameSource port.NameSource, mon *monitor.Monitor, opts ServiceOptions, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	keys := cache.NewKeyBuilder(backend.Identity())

	var namePages *cache.TTLCache[domain.NamePage]
	var documents *cache.TTLCache[domain.Document]
	var storeNames *cache.TTLCache[[]string]
	if opts.CacheEnabled {
		namePages = cache.New[domain.NamePage](opts.CacheTTL, opts.CacheMaxSize)
		documents = cache.New[domain.Document](opts.CacheTTL, opts.CacheMaxSize)
		storeNames = cache.New[[]string](opts.CacheTTL, opts.CacheMaxSize)
	}

	s := &Service{
		Monitor:    mon,
		backend:    backend,
		keys:       keys,
		namePages:  namePages,
		documents:  documents,
		storeNames: storeNames,
		logger:     logger,
	}
	s.Names = NewNameIndex(nameSource, namePages, keys, mon, logger)
	s.Documents = NewDocumentStore(backend, documents, keys, mon, logger)
	s.Ask = NewAskUseCase(backend, generator, opts.TopK, opts.MinRelevance, mon, logger)
	return s
}

// NamesFromStore returns the distinct names present in the backing store,
// memoized in the shared cache. On a store failure a still-cached result is
// served instead.
func (s *Service) NamesFromStore(forceRefresh bool) ([]string, error) {
	if s.Monitor != nil {
		defer s.Monitor.Track("store_names")()
	}

	key := ""
	if s.storeNames != nil {
		key = s.keys.Build("store_names", nil, nil)
		if !forceRefresh {
			if cached, ok := s.storeNames.Get(key); ok {
				return cached, nil
			}
		}
	}

	start := time.Now()
	names, err := s.backend.DistinctNames()
	if err != nil {
		if s.storeNames != nil {
			if cached, ok := s.storeNames.Get(key); ok {
				s.logger.Warn("backing store failed, serving cached name list", "error", err)
				return cached, nil
			}
		}
		return nil, domain.NewUpstreamError("store_names", "store", time.Since(start), err)
	}

	if s.storeNames != nil {
		s.storeNames.Set(key, names)
	}
	return names, nil
}

// CacheStats reports a snapshot per cache tier. Disabled caches are absent
// from the map.
func (s *Service) CacheStats() map[string]domain.CacheStats {
	stats := make(map[string]domain.CacheStats)
	if s.namePages != nil {
		stats["name_pages"] = s.namePages.Stats()
	}
	if s.documents != nil {
		stats["documents"] = s.documents.Stats()
	}
	if s.storeNames != nil {
		stats["store_names"] = s.storeNames.Stats()
	}
	return stats
}

// InvalidateStoreNames drops the memoized store name list.
func (s *Service) InvalidateStoreNames() {
	if s.storeNames == nil {
		return
	}
	s.storeNames.Invalidate(s.keys.Build("store_names", nil, nil))
}

// RefreshStoreNames re-reads the distinct name list from the backing store
// and returns its size.
func (s *Service) RefreshStoreNames() (int, error) {
	names, err := s.NamesFromStore(true)
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// ClearCaches empties every cache tier, including the in-process document
// map.
func (s *Service) ClearCaches() {
	if s.namePages != nil {
		s.namePages.Clear()
	}
	if s.documents != nil {
		s.documents.Clear()
	}
	if s.storeNames != nil {
		s.storeNames.Clear()
	}
	s.Documents.InvalidateMemory()
}

// PerformanceReport is the admin view of the monitor.
type PerformanceReport struct {
	UptimeSeconds   float64                 `json:"uptime_seconds"`
	TotalOperations uint64                  `json:"total_operations"`
	Operations      []domain.OperationStats `json:"operations"`
}

// Performance summarizes all recorded operation metrics.
func (s *Service) Performance() PerformanceReport {
	report := PerformanceReport{}
	if s.Monitor == nil {
		return report
	}
	report.UptimeSeconds = s.Monitor.Uptime().Seconds()
	report.Operations = s.Monitor.AllStats()
	for _, op := range report.Operations {
		report.TotalOperations += op.Count
	}
	return report
}

// ResetPerformance discards all recorded metrics.
func (s *Service) ResetPerformance() {
	if s.Monitor != nil {
		s.Monitor.Reset()
	}
}
