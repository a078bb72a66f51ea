package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pharmarag/config"
	"pharmarag/internal/adapter/embedding"
	"pharmarag/internal/adapter/store"
	"pharmarag/internal/port"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding the store and config")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir ./tmp -q \"query\"")
		fmt.Println("\nTests:")
		fmt.Println("  1. Embedding infrastructure (model connection, stored vectors)")
		fmt.Println("  2. Semantic similarity (query vs leaflet chunks)")
		fmt.Println("  3. Threshold fit (how many results clear the relevance cutoff)")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder init failed: %v\n", err)
		os.Exit(1)
	}

	dbPath := cfg.Store.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(*dir, dbPath)
	}
	st, err := store.NewBoltStore(dbPath, embedder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	count, _ := st.Count()
	if count == 0 {
		fmt.Fprintln(os.Stderr, "Store is empty - run 'pharmarag ingest' first")
		os.Exit(1)
	}

	fmt.Println("SEMANTIC SEARCH BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Chunks indexed: %d\n", count)
	fmt.Printf("Model: %s (%s)\n", cfg.Embedding.Model, cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", embedder.Dimension())
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	results, err := st.SimilaritySearch(*query, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		os.Exit(1)
	}

	fmt.Printf("Top %d semantic matches:\n\n", len(results))

	totalScore := 0.0
	relevantCount := 0
	for i, r := range results {
		preview := strings.ReplaceAll(r.Chunk.Content, "\n", " ")
		if len(preview) > 150 {
			preview = preview[:150] + "..."
		}

		totalScore += r.Score
		if r.Score >= cfg.Query.MinRelevance {
			relevantCount++
		}

		rating := "LOW"
		if r.Score >= cfg.Query.MinRelevance {
			rating = "HIGH"
		} else if r.Score > 0.5 {
			rating = "GOOD"
		}

		title := r.Chunk.Name
		if r.Chunk.Section != "" {
			title += " > " + r.Chunk.Section
		}

		fmt.Printf("%d. [%s %.3f] %s\n", i+1, rating, r.Score, title)
		fmt.Printf("   %s\n\n", preview)
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)
	fmt.Printf("  Above threshold:    %d of %d (cutoff %.2f)\n", relevantCount, len(results), cfg.Query.MinRelevance)

	if results[0].Score >= cfg.Query.MinRelevance {
		fmt.Println("  Status: GOOD - query would be answered from the corpus")
	} else if avgScore > 0.5 {
		fmt.Println("  Status: OK - related content found, but below the answer cutoff")
	} else {
		fmt.Println("  Status: POOR - may need better embeddings or re-ingestion")
	}
}

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	e := cfg.Embedding
	switch e.Provider {
	case "mock":
		return embedding.NewMockEmbedder(e.Dimension), nil
	default:
		return embedding.NewOpenAIEmbedder(e.APIKeyEnv, e.Model, e.BaseURL, e.Dimension, e.BatchSize)
	}
}
