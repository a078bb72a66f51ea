package usecase

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"pharmarag/internal/adapter/cache"
	"pharmarag/internal/domain"
)

func catalog(n int) []string {
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		names = append(names, fmt.Sprintf("Medicine %03d", i))
	}
	return names
}

func newTestIndex(names []string) (*NameIndex, *fakeNameSource) {
	source := &fakeNameSource{names: names}
	c := cache.New[domain.NamePage](time.Minute, 100)
	keys := cache.NewKeyBuilder("fake-store")
	return NewNameIndex(source, c, keys, nil, nil), source
}

func TestPageShape(t *testing.T) {
	idx, _ := newTestIndex(catalog(45))

	page, err := idx.Page(1, 20, false)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if len(page.Names) != 20 {
		t.Errorf("page 1 has %d names, want 20", len(page.Names))
	}
	if page.TotalCount != 45 {
		t.Errorf("TotalCount = %d, want 45", page.TotalCount)
	}
	if page.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", page.TotalPages)
	}
	if !page.HasNext {
		t.Error("page 1 of 3 should have a next page")
	}
	if page.HasPrevious {
		t.Error("page 1 should not have a previous page")
	}

	last, err := idx.Page(3, 20, false)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if len(last.Names) != 5 {
		t.Errorf("last page has %d names, want 5", len(last.Names))
	}
	if last.HasNext {
		t.Error("last page should not have a next page")
	}
	if !last.HasPrevious {
		t.Error("last page should have a previous page")
	}
}

func TestPageClamping(t *testing.T) {
	idx, _ := newTestIndex(catalog(45))

	tests := []struct {
		name         string
		page, size   int
		wantPage     int
		wantPageSize int
		wantLen      int
	}{
		{"zero page", 0, 20, 1, 20, 20},
		{"negative page", -3, 20, 1, 20, 20},
		{"past the end", 99, 20, 3, 20, 5},
		{"zero page size", 1, 0, 1, defaultPageSize, 20},
		{"oversized page size", 1, 500, 1, maxPageSize, 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := idx.Page(tt.page, tt.size, false)
			if err != nil {
				t.Fatalf("Page: %v", err)
			}
			if page.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", page.Page, tt.wantPage)
			}
			if page.PageSize != tt.wantPageSize {
				t.Errorf("PageSize = %d, want %d", page.PageSize, tt.wantPageSize)
			}
			if len(page.Names) != tt.wantLen {
				t.Errorf("len(Names) = %d, want %d", len(page.Names), tt.wantLen)
			}
		})
	}
}

func TestPageEmptyCatalog(t *testing.T) {
	idx, _ := newTestIndex(nil)

	page, err := idx.Page(5, 20, false)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if page.Names == nil || len(page.Names) != 0 {
		t.Errorf("Names = %v, want empty slice", page.Names)
	}
	if page.Page != 1 {
		t.Errorf("Page = %d, want 1", page.Page)
	}
	if page.TotalPages != 0 {
		t.Errorf("TotalPages = %d, want 0", page.TotalPages)
	}
	if page.HasNext || page.HasPrevious {
		t.Error("empty catalog should have no neighboring pages")
	}
}

func TestSearchTiering(t *testing.T) {
	names := []string{"Aspirin", "Apap", "Diaspirinyl", "Ibuprofen", "Paracetamol"}
	idx, _ := newTestIndex(names)

	// One or two characters match prefixes only.
	page, err := idx.Search("a", 1, 20, false)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{"Aspirin", "Apap"}
	if len(page.Names) != len(want) {
		t.Fatalf("Search(%q) = %v, want %v", "a", page.Names, want)
	}
	for i, name := range want {
		if page.Names[i] != name {
			t.Errorf("Search(%q)[%d] = %q, want %q", "a", i, page.Names[i], name)
		}
	}

	// Three or more characters match anywhere in the name.
	page, err = idx.Search("asp", 1, 20, false)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want = []string{"Aspirin", "Diaspirinyl"}
	if len(page.Names) != len(want) {
		t.Fatalf("Search(%q) = %v, want %v", "asp", page.Names, want)
	}
	for i, name := range want {
		if page.Names[i] != name {
			t.Errorf("Search(%q)[%d] = %q, want %q", "asp", i, page.Names[i], name)
		}
	}
}

func TestSearchNormalizesQuery(t *testing.T) {
	idx, _ := newTestIndex([]string{"Aspirin", "Ibuprofen"})

	page, err := idx.Search("  ASPIRIN  ", 1, 20, false)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(page.Names) != 1 || page.Names[0] != "Aspirin" {
		t.Errorf("Search = %v, want [Aspirin]", page.Names)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	idx, _ := newTestIndex([]string{"Aspirin"})

	for _, q := range []string{"", "   ", "\t\n"} {
		if _, err := idx.Search(q, 1, 20, false); !errors.Is(err, domain.ErrEmptyQuery) {
			t.Errorf("Search(%q) error = %v, want ErrEmptyQuery", q, err)
		}
	}
}

func TestSearchNoMatches(t *testing.T) {
	idx, _ := newTestIndex([]string{"Aspirin"})

	page, err := idx.Search("xyz", 1, 20, false)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(page.Names) != 0 || page.TotalCount != 0 {
		t.Errorf("Search = %+v, want empty page", page)
	}
}

func TestCatalogLoadedOnce(t *testing.T) {
	idx, source := newTestIndex(catalog(45))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := idx.Load(); err != nil {
				t.Errorf("Load: %v", err)
			}
		}()
	}
	wg.Wait()

	if _, err := idx.Page(2, 20, false); err != nil {
		t.Fatalf("Page: %v", err)
	}

	if got := source.loads.Load(); got != 1 {
		t.Errorf("catalog loaded %d times, want 1", got)
	}
}

func TestPageMemoized(t *testing.T) {
	source := &fakeNameSource{names: catalog(45)}
	c := cache.New[domain.NamePage](time.Minute, 100)
	keys := cache.NewKeyBuilder("fake-store")
	idx := NewNameIndex(source, c, keys, nil, nil)

	if _, err := idx.Page(1, 20, false); err != nil {
		t.Fatalf("Page: %v", err)
	}
	if _, err := idx.Page(1, 20, false); err != nil {
		t.Fatalf("Page: %v", err)
	}

	stats := c.Stats()
	if stats.Hits != 1 {
		t.Errorf("cache hits = %d, want 1", stats.Hits)
	}

	// A force refresh bypasses the memoized page.
	if _, err := idx.Page(1, 20, true); err != nil {
		t.Fatalf("Page: %v", err)
	}
	if got := c.Stats().Hits; got != 1 {
		t.Errorf("cache hits after refresh = %d, want 1", got)
	}
}

func TestLoadError(t *testing.T) {
	source := &fakeNameSource{err: errors.New("file missing")}
	idx := NewNameIndex(source, nil, cache.NewKeyBuilder("fake-store"), nil, nil)

	if _, err := idx.Page(1, 20, false); err == nil {
		t.Fatal("Page should fail when the catalog cannot be loaded")
	}
}
