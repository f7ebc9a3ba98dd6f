// Package config provides configuration loading for repoquery.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment variable overrides,
// e.g. REPOQUERY_CHUNKING_CHUNK_SIZE -> chunking.chunk_size.
const EnvPrefix = "REPOQUERY_"

// Config is the full configuration surface consumed by the pipeline.
type Config struct {
	Scanner   ScannerConfig   `koanf:"scanner"`
	Chunking  ChunkingConfig  `koanf:"chunking"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Retrieval RetrievalConfig `koanf:"retrieval"`
	Storage   StorageConfig   `koanf:"storage"`
	LLM       LLMConfig       `koanf:"llm"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ScannerConfig controls repository traversal and file filtering.
type ScannerConfig struct {
	Extensions  []string `koanf:"extensions"`
	IgnoreDirs  []string `koanf:"ignore_dirs"`
	MaxFileSize int64    `koanf:"max_file_size"`
}

// ChunkingConfig controls chunk sizing for the fixed-size fallback.
type ChunkingConfig struct {
	ChunkSize    int `koanf:"chunk_size"`    // target size in characters
	ChunkOverlap int `koanf:"chunk_overlap"` // overlap budget in characters
}

// EmbeddingConfig selects and tunes the embedding backend.
type EmbeddingConfig struct {
	Provider  string `koanf:"provider"` // openai or local
	Model     string `koanf:"model"`
	APIKey    string `koanf:"api_key"`
	BatchSize int    `koanf:"batch_size"`
	CacheSize int    `koanf:"cache_size"`
}

// RetrievalConfig holds default retrieval parameters.
type RetrievalConfig struct {
	TopK      int `koanf:"top_k"`
	MaxTokens int `koanf:"max_tokens"`
}

// StorageConfig locates persisted vector stores.
type StorageConfig struct {
	Root string `koanf:"root"`
}

// LLMConfig selects the generation backend.
type LLMConfig struct {
	Provider string `koanf:"provider"` // openai or groq
	Model    string `koanf:"model"`
	APIKey   string `koanf:"api_key"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // console or json
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Scanner: ScannerConfig{
			Extensions: []string{
				".py", ".ts", ".js", ".jsx", ".tsx",
				".java", ".go", ".rs", ".cpp", ".c", ".h",
			},
			IgnoreDirs: []string{
				".git", "node_modules", "venv", ".venv", "__pycache__",
				".pytest_cache", "dist", "build", ".next", "target",
				".idea", ".vscode",
			},
			MaxFileSize: 100 * 1024,
		},
		Chunking: ChunkingConfig{
			ChunkSize:    1500,
			ChunkOverlap: 200,
		},
		Embedding: EmbeddingConfig{
			Provider:  "",
			Model:     "text-embedding-3-small",
			BatchSize: 50,
			CacheSize: 10000,
		},
		Retrieval: RetrievalConfig{
			TopK:      10,
			MaxTokens: 8000,
		},
		Storage: StorageConfig{
			Root: defaultStorageRoot(),
		},
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from an optional YAML file, then overrides with
// REPOQUERY_* environment variables. A missing file is not an error; the
// defaults apply.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
		}
	}

	// REPOQUERY_EMBEDDING_API_KEY -> embedding.api_key
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		parts := strings.SplitN(s, "_", 2)
		if len(parts) == 2 {
			return parts[0] + "." + parts[1]
		}
		return s
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment overrides: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants the pipeline depends on.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.ChunkOverlap < 0 {
		return fmt.Errorf("chunking.chunk_overlap cannot be negative, got %d", c.Chunking.ChunkOverlap)
	}
	if c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.Chunking.ChunkOverlap, c.Chunking.ChunkSize)
	}
	if c.Scanner.MaxFileSize <= 0 {
		return fmt.Errorf("scanner.max_file_size must be positive, got %d", c.Scanner.MaxFileSize)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Retrieval.MaxTokens <= 0 {
		return fmt.Errorf("retrieval.max_tokens must be positive, got %d", c.Retrieval.MaxTokens)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	}
	return nil
}

// ExtensionSet returns the supported extensions as a lowercase lookup set.
func (c *ScannerConfig) ExtensionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Extensions))
	for _, ext := range c.Extensions {
		set[strings.ToLower(ext)] = struct{}{}
	}
	return set
}

// IgnoreSet returns the ignored directory names as a lookup set.
func (c *ScannerConfig) IgnoreSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.IgnoreDirs))
	for _, dir := range c.IgnoreDirs {
		set[dir] = struct{}{}
	}
	return set
}

func defaultStorageRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".repoquery/stores"
	}
	return filepath.Join(home, ".repoquery", "stores")
}
