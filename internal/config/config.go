package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/b2bsearch/internal/domain/search/mode"
)

// Config holds the b2bsearch service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Cache     CacheConfig     `yaml:"cache"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Flags     FlagsConfig     `yaml:"flags"`
	Profiles  ProfilesConfig  `yaml:"profiles"`
	Search    SearchConfig    `yaml:"search"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// RetrievalConfig holds the Elasticsearch connection.
type RetrievalConfig struct {
	Addresses        []string `yaml:"addresses"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	APIKey           string   `yaml:"api_key"`
	Index            string   `yaml:"index"`
	RequestTimeoutMS int      `yaml:"request_timeout_ms"`
	SortField        string   `yaml:"sort_field"`
}

// CacheConfig holds the Valkey/Redis connection used for the embedding
// cache and published profile snapshots. Empty addrs disables both.
type CacheConfig struct {
	Addrs               []string `yaml:"addrs"`
	Password            string   `yaml:"password"`
	ReadinessTimeoutSec int      `yaml:"readiness_timeout_sec"`
	KeyPrefix           string   `yaml:"key_prefix"`
	EmbeddingTTLSec     int      `yaml:"embedding_ttl_sec"`
	ProfileRetainSec    int      `yaml:"profile_retain_sec"`
}

// EmbeddingConfig holds the query/document embedding settings.
type EmbeddingConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Provider       string  `yaml:"provider"`
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	Dimensions     int     `yaml:"dimensions"`
	MaxInputChars  int     `yaml:"max_input_chars"`
	QueryPrefix    *string `yaml:"query_prefix"`
	BatchSize      int     `yaml:"batch_size"`
	Concurrency    int     `yaml:"concurrency"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

// FlagsConfig holds the process-wide feature flags in env-style string form.
type FlagsConfig struct {
	SearchEnabled          string `yaml:"search_enabled"`
	Strategy               string `yaml:"strategy"`
	HybridEnabled          string `yaml:"hybrid_enabled"`
	PersonalizationEnabled string `yaml:"personalization_enabled"`
	FuzzyEnabled           string `yaml:"fuzzy_enabled"`
	SynonymEnabled         string `yaml:"synonym_enabled"`
}

// Profile snapshot sources.
const (
	ProfileSourceFiles = "files"
	ProfileSourceStore = "store"
)

// ProfilesConfig controls where profile snapshots come from.
type ProfilesConfig struct {
	OrdersPath         string `yaml:"orders_path"`
	ProductsPath       string `yaml:"products_path"`
	Source             string `yaml:"source"`
	RefreshIntervalSec int    `yaml:"refresh_interval_sec"`
}

// SearchConfig holds request size limits.
type SearchConfig struct {
	DefaultSize        int `yaml:"default_size"`
	MaxSize            int `yaml:"max_size"`
	SuggestDefaultSize int `yaml:"suggest_default_size"`
	SuggestMaxSize     int `yaml:"suggest_max_size"`
}

// TracingConfig toggles span recording.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates one config file.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 70
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Retrieval.Index == "" {
		c.Retrieval.Index = "products"
	}
	if c.Retrieval.RequestTimeoutMS <= 0 {
		c.Retrieval.RequestTimeoutMS = 60000
	}
	if c.Retrieval.SortField == "" {
		c.Retrieval.SortField = "title.keyword"
	}

	if c.Cache.ReadinessTimeoutSec <= 0 {
		c.Cache.ReadinessTimeoutSec = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "b2bsearch:"
	}
	if c.Cache.ProfileRetainSec <= 0 {
		c.Cache.ProfileRetainSec = 3600
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "BAAI/bge-small-en-v1.5"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Embedding.MaxInputChars <= 0 {
		c.Embedding.MaxInputChars = 2048
	}
	if c.Embedding.QueryPrefix == nil {
		p := "query: "
		c.Embedding.QueryPrefix = &p
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 32
	}
	if c.Embedding.Concurrency <= 0 {
		c.Embedding.Concurrency = 4
	}

	if c.Profiles.Source == "" {
		c.Profiles.Source = ProfileSourceFiles
	}

	if c.Search.DefaultSize == 0 {
		c.Search.DefaultSize = 20
	}
	if c.Search.MaxSize == 0 {
		c.Search.MaxSize = 100
	}
	if c.Search.SuggestDefaultSize == 0 {
		c.Search.SuggestDefaultSize = 5
	}
	if c.Search.SuggestMaxSize == 0 {
		c.Search.SuggestMaxSize = 20
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Retrieval.Addresses) == 0 {
		return errors.New("retrieval.addresses is required")
	}
	if strings.TrimSpace(c.Flags.Strategy) != "" {
		if _, err := mode.Parse(c.Flags.Strategy); err != nil {
			return fmt.Errorf("flags.strategy: %w", err)
		}
	}
	switch c.Profiles.Source {
	case ProfileSourceFiles:
	case ProfileSourceStore:
		if len(c.Cache.Addrs) == 0 {
			return errors.New("profiles.source \"store\" requires cache.addrs")
		}
	default:
		return fmt.Errorf("profiles.source must be %q or %q, got %q",
			ProfileSourceFiles, ProfileSourceStore, c.Profiles.Source)
	}
	if c.Search.DefaultSize <= 0 || c.Search.MaxSize <= 0 || c.Search.DefaultSize > c.Search.MaxSize {
		return fmt.Errorf("search sizes must be positive with default <= max, got %d/%d",
			c.Search.DefaultSize, c.Search.MaxSize)
	}
	if c.Search.SuggestDefaultSize <= 0 || c.Search.SuggestMaxSize <= 0 ||
		c.Search.SuggestDefaultSize > c.Search.SuggestMaxSize {
		return fmt.Errorf("suggest sizes must be positive with default <= max, got %d/%d",
			c.Search.SuggestDefaultSize, c.Search.SuggestMaxSize)
	}
	if c.Embedding.Enabled && c.Embedding.BaseURL == "" && c.Embedding.APIKey == "" {
		return errors.New("embedding.enabled requires base_url or api_key")
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
