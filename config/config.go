package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the PharmaRAG service.
type Config struct {
	Store       StoreConfig       `yaml:"store"`
	Cache       CacheConfig       `yaml:"cache"`
	Performance PerformanceConfig `yaml:"performance"`
	Query       QueryConfig       `yaml:"query"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Generation  GenerationConfig  `yaml:"generation"`
	Names       NamesConfig       `yaml:"names"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// StoreConfig locates the backing document store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig controls the shared TTL cache.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	TTLMinutes int  `yaml:"ttl_minutes"`
	MaxSize    int  `yaml:"max_size"`
}

// PerformanceConfig controls operation timing collection.
type PerformanceConfig struct {
	Enabled         bool `yaml:"enabled"`
	SlowThresholdMS int  `yaml:"slow_threshold_ms"`
}

// QueryConfig holds retrieval parameters for question answering.
type QueryConfig struct {
	TopK         int     `yaml:"top_k"`
	MinRelevance float64 `yaml:"min_relevance"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "openai", "ollama", "mock"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// GenerationConfig holds answer generation configuration.
type GenerationConfig struct {
	Provider    string  `yaml:"provider"` // "openai", "mock"
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
}

// NamesConfig locates the static medicine name catalog.
type NamesConfig struct {
	CatalogPath string `yaml:"catalog_path"`
}

// IngestConfig holds markdown ingestion configuration.
type IngestConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: "pharmarag.db",
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLMinutes: 10,
			MaxSize:    1000,
		},
		Performance: PerformanceConfig{
			Enabled:         true,
			SlowThresholdMS: 1000,
		},
		Query: QueryConfig{
			TopK:         3,
			MinRelevance: 0.7,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
		},
		Generation: GenerationConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.2,
		},
		Names: NamesConfig{
			CatalogPath: "medicine_names.json",
		},
		Ingest: IngestConfig{
			Includes: []string{"**/*.md"},
			Excludes: []string{"**/.git/**", "**/node_modules/**"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for pharmarag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "pharmarag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".pharmarag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
