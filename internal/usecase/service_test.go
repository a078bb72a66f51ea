package usecase

import (
	"errors"
	"testing"
	"time"

	"pharmarag/internal/adapter/monitor"
)

func newTestService(backend *fakeBackend) *Service {
	source := &fakeNameSource{names: catalog(45)}
	gen := &fakeGenerator{response: "odp"}
	mon := monitor.New(time.Second, nil)
	return NewService(backend, gen, source, mon, ServiceOptions{
		CacheEnabled: true,
		CacheTTL:     time.Minute,
		CacheMaxSize: 100,
		TopK:         3,
		MinRelevance: 0.7,
	}, nil)
}

func TestNamesFromStoreMemoized(t *testing.T) {
	backend := &fakeBackend{names: []string{"Apap", "Aspirin"}}
	svc := newTestService(backend)

	first, err := svc.NamesFromStore(false)
	if err != nil {
		t.Fatalf("NamesFromStore: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("NamesFromStore = %v, want 2 names", first)
	}

	// The memoized list survives a backend outage.
	backend.mu.Lock()
	backend.namesErr = errors.New("store offline")
	backend.mu.Unlock()

	second, err := svc.NamesFromStore(false)
	if err != nil {
		t.Fatalf("memoized NamesFromStore: %v", err)
	}
	if len(second) != 2 {
		t.Errorf("memoized NamesFromStore = %v, want 2 names", second)
	}

	// Even a forced refresh falls back to the stale list when the store
	// keeps failing.
	stale, err := svc.NamesFromStore(true)
	if err != nil {
		t.Fatalf("stale NamesFromStore: %v", err)
	}
	if len(stale) != 2 {
		t.Errorf("stale NamesFromStore = %v, want 2 names", stale)
	}
}

func TestNamesFromStoreColdError(t *testing.T) {
	backend := &fakeBackend{namesErr: errors.New("store offline")}
	svc := newTestService(backend)

	if _, err := svc.NamesFromStore(false); err == nil {
		t.Fatal("cold NamesFromStore should surface the store failure")
	}
}

func TestInvalidateStoreNames(t *testing.T) {
	backend := &fakeBackend{names: []string{"Apap", "Aspirin"}}
	svc := newTestService(backend)

	if _, err := svc.NamesFromStore(false); err != nil {
		t.Fatalf("NamesFromStore: %v", err)
	}

	backend.mu.Lock()
	backend.names = append(backend.names, "Ibuprofen")
	backend.mu.Unlock()

	// Still memoized: the new name is not visible yet.
	cached, err := svc.NamesFromStore(false)
	if err != nil {
		t.Fatalf("NamesFromStore: %v", err)
	}
	if len(cached) != 2 {
		t.Fatalf("memoized NamesFromStore = %v, want the original 2 names", cached)
	}

	svc.InvalidateStoreNames()

	fresh, err := svc.NamesFromStore(false)
	if err != nil {
		t.Fatalf("NamesFromStore after invalidate: %v", err)
	}
	if len(fresh) != 3 {
		t.Errorf("NamesFromStore after invalidate = %v, want 3 names", fresh)
	}
}

func TestRefreshStoreNames(t *testing.T) {
	backend := &fakeBackend{names: []string{"Apap", "Aspirin", "Ibuprofen"}}
	svc := newTestService(backend)

	count, err := svc.RefreshStoreNames()
	if err != nil {
		t.Fatalf("RefreshStoreNames: %v", err)
	}
	if count != 3 {
		t.Errorf("RefreshStoreNames = %d, want 3", count)
	}
}

func TestCacheStatsTiers(t *testing.T) {
	backend := &fakeBackend{names: []string{"Apap"}, chunks: aspirinChunks()}
	svc := newTestService(backend)

	if _, err := svc.Names.Page(1, 20, false); err != nil {
		t.Fatalf("Page: %v", err)
	}
	if _, _, err := svc.Documents.GetByName("Aspirin", false); err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if _, err := svc.NamesFromStore(false); err != nil {
		t.Fatalf("NamesFromStore: %v", err)
	}

	stats := svc.CacheStats()
	for _, tier := range []string{"name_pages", "documents", "store_names"} {
		s, ok := stats[tier]
		if !ok {
			t.Errorf("missing %s tier in stats", tier)
			continue
		}
		if s.CurrentSize != 1 {
			t.Errorf("%s CurrentSize = %d, want 1", tier, s.CurrentSize)
		}
	}
}

func TestCacheStatsDisabled(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewService(backend, &fakeGenerator{response: "odp"}, &fakeNameSource{}, nil, ServiceOptions{}, nil)

	if stats := svc.CacheStats(); len(stats) != 0 {
		t.Errorf("disabled caches should report no tiers, got %v", stats)
	}
}

func TestClearCaches(t *testing.T) {
	backend := &fakeBackend{names: []string{"Apap"}, chunks: aspirinChunks()}
	svc := newTestService(backend)

	if _, err := svc.Names.Page(1, 20, false); err != nil {
		t.Fatalf("Page: %v", err)
	}
	if _, _, err := svc.Documents.GetByName("Aspirin", false); err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if _, err := svc.NamesFromStore(false); err != nil {
		t.Fatalf("NamesFromStore: %v", err)
	}

	svc.ClearCaches()

	for tier, s := range svc.CacheStats() {
		if s.CurrentSize != 0 {
			t.Errorf("%s CurrentSize = %d after clear, want 0", tier, s.CurrentSize)
		}
	}
}

func TestPerformanceReport(t *testing.T) {
	backend := &fakeBackend{names: []string{"Apap"}}
	svc := newTestService(backend)

	if _, err := svc.Names.Page(1, 20, false); err != nil {
		t.Fatalf("Page: %v", err)
	}
	if _, err := svc.NamesFromStore(false); err != nil {
		t.Fatalf("NamesFromStore: %v", err)
	}

	report := svc.Performance()
	if report.TotalOperations < 2 {
		t.Errorf("TotalOperations = %d, want at least 2", report.TotalOperations)
	}
	if len(report.Operations) == 0 {
		t.Error("report has no operations")
	}
	if report.UptimeSeconds < 0 {
		t.Errorf("UptimeSeconds = %v, want non-negative", report.UptimeSeconds)
	}

	svc.ResetPerformance()
	if got := svc.Performance().TotalOperations; got != 0 {
		t.Errorf("TotalOperations after reset = %d, want 0", got)
	}
}
