package usecase

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"pharmarag/internal/adapter/cache"
	"pharmarag/internal/adapter/monitor"
	"pharmarag/internal/domain"
	"pharmarag/internal/port"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NameIndex serves the medicine name catalog: paginated listing and tiered
// substring/prefix search. The catalog is loaded from its source exactly
// once; page and search results are memoized in the shared TTL cache.
type NameIndex struct {
	source  port.NameSource
	cache   *cache.TTLCache[domain.NamePage]
	keys    *cache.KeyBuilder
	monitor *monitor.Monitor
	logger  *slog.Logger

	mu     sync.RWMutex
	names  []string
	loaded bool
	group  singleflight.Group
}

// NewNameIndex creates a NameIndex. The cache may be nil to disable
// memoization.
func NewNameIndex(source port.NameSource, c *cache.TTLCache[domain.NamePage], keys *cache.KeyBuilder, mon *monitor.Monitor, logger *slog.Logger) *NameIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &NameIndex{
		source:  source,
		cache:   c,
		keys:    keys,
		monitor: mon,
		logger:  logger,
	}
}

// Load returns the full catalog, reading the source at most once even under
// concurrent first calls.
func (i *NameIndex) Load() ([]string, error) {
	i.mu.RLock()
	if i.loaded {
		names := i.names
		i.mu.RUnlock()
		return names, nil
	}
	i.mu.RUnlock()

	v, err, _ := i.group.Do("catalog", func() (any, error) {
		i.mu.RLock()
		if i.loaded {
			names := i.names
			i.mu.RUnlock()
			return names, nil
		}
		i.mu.RUnlock()

		names, err := i.source.Load()
		if err != nil {
			return nil, fmt.Errorf("catalog load failed: %w", err)
		}

		i.mu.Lock()
		i.names = names
		i.loaded = true
		i.mu.Unlock()

		i.logger.Info("name catalog loaded", "count", len(names))
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// Page returns one page of the catalog. forceRefresh bypasses the memoized
// result and repopulates it.
func (i *NameIndex) Page(page, pageSize int, forceRefresh bool) (domain.NamePage, error) {
	if i.monitor != nil {
		defer i.monitor.Track("paginated_names")()
	}

	page, pageSize = clampPaging(page, pageSize)

	var key string
	if i.cache != nil {
		key = i.keys.Build("paginated_names", nil, map[string]any{
			"page":      page,
			"page_size": pageSize,
		})
		if !forceRefresh {
			if cached, ok := i.cache.Get(key); ok {
				return cached, nil
			}
		}
	}

	names, err := i.Load()
	if err != nil {
		return domain.NamePage{}, err
	}

	result := paginate(names, page, pageSize)
	if i.cache != nil {
		i.cache.Set(key, result)
	}
	return result, nil
}

// Search returns one page of catalog names matching query. Queries of one
// or two characters match name prefixes; longer queries match anywhere in
// the name. Both sides are compared lower-cased.
func (i *NameIndex) Search(query string, page, pageSize int, forceRefresh bool) (domain.NamePage, error) {
	if i.monitor != nil {
		defer i.monitor.Track("search_names")()
	}

	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return domain.NamePage{}, domain.ErrEmptyQuery
	}

	page, pageSize = clampPaging(page, pageSize)

	var key string
	if i.cache != nil {
		key = i.keys.Build("search_names", nil, map[string]any{
			"query":     normalized,
			"page":      page,
			"page_size": pageSize,
		})
		if !forceRefresh {
			if cached, ok := i.cache.Get(key); ok {
				return cached, nil
			}
		}
	}

	names, err := i.Load()
	if err != nil {
		return domain.NamePage{}, err
	}

	// Short queries use prefix matching: substring search on one or two
	// characters would match nearly the whole catalog.
	prefixOnly := len([]rune(normalized)) <= 2

	filtered := make([]string, 0)
	for _, name := range names {
		lower := strings.ToLower(name)
		if prefixOnly {
			if strings.HasPrefix(lower, normalized) {
				filtered = append(filtered, name)
			}
		} else if strings.Contains(lower, normalized) {
			filtered = append(filtered, name)
		}
	}

	result := paginate(filtered, page, pageSize)
	if i.cache != nil {
		i.cache.Set(key, result)
	}
	return result, nil
}

// clampPaging forces page and pageSize into sane bounds.
func clampPaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// paginate slices names into the requested page, clamping an out-of-range
// page down to the last valid one.
func paginate(names []string, page, pageSize int) domain.NamePage {
	total := len(names)
	totalPages := (total + pageSize - 1) / pageSize

	if totalPages == 0 {
		return domain.NamePage{
			Names:      []string{},
			TotalCount: 0,
			Page:       1,
			PageSize:   pageSize,
		}
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}

	return domain.NamePage{
		Names:       names[start:end],
		TotalCount:  total,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}
