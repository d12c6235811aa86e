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

	"github.com/kailas-cloud/refdex/internal/usecase/classify"
)

// Config holds the refdex API configuration.
type Config struct {
	HTTP           HTTPConfig           `yaml:"http"`
	Catalog        CatalogConfig        `yaml:"catalog"`
	Model          ModelConfig          `yaml:"model"`
	Classifier     ClassifierConfig     `yaml:"classifier"`
	Cache          CacheConfig          `yaml:"cache"`
	EmbeddingCache EmbeddingCacheConfig `yaml:"embedding_cache"`
	Query          QueryConfig          `yaml:"query"`
	Pagination     PaginationConfig     `yaml:"pagination"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	MaxUploadBytes  int64    `yaml:"max_upload_bytes"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// CatalogConfig selects where reference data is loaded from.
type CatalogConfig struct {
	Source         string `yaml:"source"` // file, postgres (default: file)
	Path           string `yaml:"path"`
	DSN            string `yaml:"dsn"`
	LoadTimeoutSec int    `yaml:"load_timeout_sec"`
}

// ModelConfig holds the image embedding provider settings.
type ModelConfig struct {
	Provider   string `yaml:"provider"` // openai, hash (default: hash)
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// ClassifierConfig holds scoring settings.
type ClassifierConfig struct {
	Metric     string `yaml:"metric"`     // cosine, euclidean
	Aggregator string `yaml:"aggregator"` // min, max, mean, median
	Workers    int    `yaml:"workers"`
	ChunkSize  int    `yaml:"chunk_size"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Capacity int `yaml:"capacity"` // 0 = unbounded
}

// EmbeddingCacheConfig holds the optional embedding cache backend settings.
type EmbeddingCacheConfig struct {
	Driver           string   `yaml:"driver"` // none, valkey, redis, badger (default: none)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Path             string   `yaml:"path"` // badger directory, empty = in-memory
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// QueryConfig holds query validation settings.
type QueryConfig struct {
	MaxTextChars      int      `yaml:"max_text_chars"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
	AllowEmpty        bool     `yaml:"allow_empty"` // browse the whole catalog without image or text
}

// PaginationConfig holds page sizes.
type PaginationConfig struct {
	ResultsPerPage   int `yaml:"results_per_page"`
	CategoryPageSize int `yaml:"category_page_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references, then applies
// defaults and validates.
func Parse(data []byte) (Config, error) {
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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		c.HTTP.MaxUploadBytes = 16 << 20
	}
	if c.Catalog.Source == "" {
		c.Catalog.Source = "file"
	}
	if c.Catalog.LoadTimeoutSec <= 0 {
		c.Catalog.LoadTimeoutSec = 60
	}
	if c.Model.Provider == "" {
		c.Model.Provider = "hash"
	}
	if c.Classifier.Metric == "" {
		c.Classifier.Metric = string(classify.Cosine)
	}
	if c.Classifier.Aggregator == "" {
		c.Classifier.Aggregator = string(classify.Min)
	}
	if c.Classifier.ChunkSize <= 0 {
		c.Classifier.ChunkSize = classify.DefaultChunkSize
	}
	if c.EmbeddingCache.Driver == "" {
		c.EmbeddingCache.Driver = "none"
	}
	if c.EmbeddingCache.ReadinessTimeout <= 0 {
		c.EmbeddingCache.ReadinessTimeout = 10
	}
	if c.Query.MaxTextChars <= 0 {
		c.Query.MaxTextChars = 500
	}
	if len(c.Query.AllowedExtensions) == 0 {
		c.Query.AllowedExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}
	}
	if c.Pagination.ResultsPerPage <= 0 {
		c.Pagination.ResultsPerPage = 5
	}
	if c.Pagination.CategoryPageSize <= 0 {
		c.Pagination.CategoryPageSize = 5
	}
}

// Validate checks the configuration for correctness. Every problem is reported.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	switch c.Catalog.Source {
	case "file":
		if c.Catalog.Path == "" {
			errs = append(errs, errors.New("catalog.path is required for source \"file\""))
		}
	case "postgres":
		if c.Catalog.DSN == "" {
			errs = append(errs, errors.New("catalog.dsn is required for source \"postgres\""))
		}
	default:
		errs = append(errs, fmt.Errorf("catalog.source must be \"file\" or \"postgres\", got %q", c.Catalog.Source))
	}

	switch c.Model.Provider {
	case "hash":
	case "openai":
		if c.Model.Model == "" {
			errs = append(errs, errors.New("model.model is required for provider \"openai\""))
		}
	default:
		errs = append(errs, fmt.Errorf("model.provider must be \"openai\" or \"hash\", got %q", c.Model.Provider))
	}

	if _, err := classify.ParseMetric(c.Classifier.Metric); err != nil {
		errs = append(errs, fmt.Errorf("classifier.metric: %w", err))
	}
	if _, err := classify.ParseAggregator(c.Classifier.Aggregator); err != nil {
		errs = append(errs, fmt.Errorf("classifier.aggregator: %w", err))
	}

	if c.Cache.Capacity < 0 {
		errs = append(errs, fmt.Errorf("cache.capacity must be >= 0, got %d", c.Cache.Capacity))
	}

	switch c.EmbeddingCache.Driver {
	case "none", "badger":
	case "valkey", "redis":
		if len(c.EmbeddingCache.Addrs) == 0 {
			errs = append(errs, fmt.Errorf("embedding_cache.addrs is required for driver %q", c.EmbeddingCache.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf(
			"embedding_cache.driver must be one of none, valkey, redis, badger, got %q", c.EmbeddingCache.Driver))
	}

	return errors.Join(errs...)
}

// Metric returns the resolved classifier metric. Validate guarantees it parses.
func (c *Config) Metric() classify.Metric {
	m, _ := classify.ParseMetric(c.Classifier.Metric)
	return m
}

// Aggregator returns the resolved classifier aggregator. Validate guarantees it parses.
func (c *Config) Aggregator() classify.Aggregator {
	a, _ := classify.ParseAggregator(c.Classifier.Aggregator)
	return a
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
