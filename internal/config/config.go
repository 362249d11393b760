package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the talktoearn core configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Provider ProviderConfig `yaml:"provider"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// StorageConfig holds ledger/registry storage settings.
type StorageConfig struct {
	Driver        string   `yaml:"driver"` // sqlite, redis (default: sqlite)
	SQLitePath    string   `yaml:"sqlite_path"`
	RedisAddrs    []string `yaml:"redis_addrs"`
	RedisPassword string   `yaml:"redis_password"`
	KeyPrefix     string   `yaml:"key_prefix"`
	IndexPath     string   `yaml:"index_path"` // chromem persistence directory
}

// ProviderConfig holds the embedding/completion provider settings.
type ProviderConfig struct {
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Dimensions     int     `yaml:"dimensions"`
	ChatModel      string  `yaml:"chat_model"`
	Temperature    float64 `yaml:"temperature"`
}

// PipelineConfig holds question pipeline settings.
type PipelineConfig struct {
	QuestionFee          float64 `yaml:"question_fee"`
	RetrievalK           int     `yaml:"retrieval_k"`
	GenerationTimeoutSec int     `yaml:"generation_timeout_sec"`
	EmbedRetryAttempts   int     `yaml:"embed_retry_attempts"`
	EmbedRetryDelaySec   int     `yaml:"embed_retry_delay_sec"`
}

// IngestConfig holds document ingestion settings.
type IngestConfig struct {
	ChunkWords   int `yaml:"chunk_words"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	Workers      int `yaml:"workers"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "talktoearn.db"
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "tte:"
	}
	if c.Storage.IndexPath == "" {
		c.Storage.IndexPath = "index_db"
	}
	if c.Pipeline.QuestionFee <= 0 {
		c.Pipeline.QuestionFee = 0.000001
	}
	if c.Pipeline.RetrievalK <= 0 {
		c.Pipeline.RetrievalK = 10
	}
	if c.Pipeline.GenerationTimeoutSec <= 0 {
		c.Pipeline.GenerationTimeoutSec = 60
	}
	if c.Pipeline.EmbedRetryAttempts <= 0 {
		c.Pipeline.EmbedRetryAttempts = 5
	}
	if c.Pipeline.EmbedRetryDelaySec <= 0 {
		c.Pipeline.EmbedRetryDelaySec = 5
	}
	if c.Ingest.ChunkWords <= 0 {
		c.Ingest.ChunkWords = 500
	}
	if c.Ingest.ChunkOverlap <= 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkWords {
		c.Ingest.ChunkOverlap = c.Ingest.ChunkWords / 5
	}
	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = 4
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	case "redis":
		if len(c.Storage.RedisAddrs) == 0 {
			return fmt.Errorf("storage.redis_addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("storage.driver must be \"sqlite\" or \"redis\", got %q", c.Storage.Driver)
	}
	if c.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required")
	}
	if c.Provider.EmbeddingModel == "" {
		return fmt.Errorf("provider.embedding_model is required")
	}
	if c.Provider.ChatModel == "" {
		return fmt.Errorf("provider.chat_model is required")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
