package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pharmarag/config"
	"pharmarag/internal/adapter/embedding"
	"pharmarag/internal/adapter/llm"
	"pharmarag/internal/adapter/monitor"
	"pharmarag/internal/adapter/names"
	"pharmarag/internal/adapter/store"
	"pharmarag/internal/port"
	"pharmarag/internal/usecase"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pharmarag",
	Short: "PharmaRAG - question answering over medicine leaflets",
	Long: `PharmaRAG answers questions about medicines using retrieval-augmented
generation over an ingested corpus of leaflet markdown files.

Example usage:
  pharmarag ingest ./leaflets          # Load leaflet files into the store
  pharmarag ask "Jak dawkować apap?"   # Ask a question
  pharmarag names --page 2             # Browse the medicine name catalog
  pharmarag doc Aspirin                # Show one reassembled leaflet`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		// API keys commonly live in a local .env; a missing file is fine.
		_ = godotenv.Load()

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger = newLogger(cfg.Logging.Level)
		slog.SetDefault(logger)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./pharmarag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// newEmbedder builds the configured embedding client.
func newEmbedder() (port.Embedder, error) {
	e := cfg.Embedding
	switch e.Provider {
	case "mock":
		return embedding.NewMockEmbedder(e.Dimension), nil
	default:
		return embedding.NewOpenAIEmbedder(e.APIKeyEnv, e.Model, e.BaseURL, e.Dimension, e.BatchSize)
	}
}

// newGenerator builds the configured answer generator.
func newGenerator() (port.Generator, error) {
	g := cfg.Generation
	switch g.Provider {
	case "mock":
		return llm.NewMockGenerator("mock response"), nil
	default:
		return llm.NewOpenAIGenerator(g.APIKeyEnv, g.Model, g.BaseURL, g.Temperature)
	}
}

// openStore opens the backing document store at its configured path,
// resolved against the root directory.
func openStore() (*store.BoltStore, error) {
	embedder, err := newEmbedder()
	if err != nil {
		return nil, err
	}
	path := cfg.Store.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(rootDir, path)
	}
	st, err := store.NewBoltStore(path, embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

// newService assembles the full query core. The caller must Close the
// returned store.
func newService() (*usecase.Service, *store.BoltStore, error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}

	generator, err := newGenerator()
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	var mon *monitor.Monitor
	if cfg.Performance.Enabled {
		mon = monitor.New(time.Duration(cfg.Performance.SlowThresholdMS)*time.Millisecond, logger)
	}

	catalogPath := cfg.Names.CatalogPath
	if !filepath.IsAbs(catalogPath) {
		catalogPath = filepath.Join(rootDir, catalogPath)
	}
	source := names.NewJSONSource(catalogPath)

	svc := usecase.NewService(st, generator, source, mon, usecase.ServiceOptions{
		CacheEnabled: cfg.Cache.Enabled,
		CacheTTL:     time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
		CacheMaxSize: cfg.Cache.MaxSize,
		TopK:         cfg.Query.TopK,
		MinRelevance: cfg.Query.MinRelevance,
	}, logger)
	return svc, st, nil
}
