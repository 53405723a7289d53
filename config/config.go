package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"textsplit/internal/adapter/splitter"
	"textsplit/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. TEXTSPLIT_SPLITTER_CHUNK_SIZE.
const EnvPrefix = "TEXTSPLIT_"

// Config holds all configuration for the text splitter.
type Config struct {
	Splitter SplitterConfig `yaml:"splitter" envPrefix:"SPLITTER_"`
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Index    IndexConfig    `yaml:"index" envPrefix:"INDEX_"`
	Logging  LoggingConfig  `yaml:"logging" envPrefix:"LOG_"`
}

// SplitterConfig holds chunking configuration.
type SplitterConfig struct {
	ChunkSize    int      `yaml:"chunk_size" env:"CHUNK_SIZE"`
	ChunkOverlap int      `yaml:"chunk_overlap" env:"CHUNK_OVERLAP"`
	Measurer     string   `yaml:"measurer" env:"MEASURER"` // "chars", "bytes", "graphemes", "words", "approx-tokens", "tokens"
	Encoding     string   `yaml:"encoding" env:"ENCODING"` // tiktoken encoding, only used by "tokens"
	Separators   []string `yaml:"separators"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" env:"HOST"`
	Port         int           `yaml:"port" env:"PORT"`
	CacheSize    int           `yaml:"cache_size" env:"CACHE_SIZE"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`
}

// IndexConfig holds directory indexing configuration.
type IndexConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
	Workers  int      `yaml:"workers" env:"WORKERS"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Splitter: SplitterConfig{
			ChunkSize:    100,
			ChunkOverlap: 0,
			Measurer:     "chars",
			Encoding:     "cl100k_base",
			Separators:   splitter.DefaultSeparators(),
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         9000,
			CacheSize:    256,
			CacheTTL:     5 * time.Minute,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodyBytes: 10 << 20,
		},
		Index: IndexConfig{
			Includes: []string{"**/*.txt", "**/*.md", "**/*.rst", "**/*.text"},
			Excludes: []string{"**/node_modules/**", "**/vendor/**", "**/.git/**", "**/.textsplit/**", "**/dist/**", "**/build/**"},
			Workers:  4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for textsplit.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "textsplit.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".textsplit", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// ApplyEnv overrides scalar settings from TEXTSPLIT_* environment variables.
// A .env file in the working directory is loaded first when present.
func ApplyEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix})
}

// Validate checks the configuration for values the splitter cannot run with.
func (c *Config) Validate() error {
	s := c.Splitter
	if s.ChunkSize <= 0 {
		return fmt.Errorf("splitter.chunk_size must be positive, got %d", s.ChunkSize)
	}
	if s.ChunkOverlap < 0 || s.ChunkOverlap >= s.ChunkSize {
		return fmt.Errorf("splitter.chunk_overlap must be in [0, %d), got %d", s.ChunkSize, s.ChunkOverlap)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the chunk database.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, ".textsplit", "chunks.db")
}

// EnsureDataDir ensures the .textsplit directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".textsplit"), 0755)
}
