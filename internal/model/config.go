package model

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config is the complete runtime configuration.
type Config struct {
	Endpoint      EndpointConfig      `yaml:"endpoint" mapstructure:"endpoint"`
	Recognition   RecognitionConfig   `yaml:"recognition" mapstructure:"recognition"`
	Ontology      OntologyConfig      `yaml:"ontology" mapstructure:"ontology"`
	KnowledgeBase KnowledgeBaseConfig `yaml:"knowledge_base" mapstructure:"knowledge_base"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	RateLimiting  RateLimitingConfig  `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency   ConcurrencyConfig   `yaml:"concurrency" mapstructure:"concurrency"`
	Timeouts      TimeoutsConfig      `yaml:"timeouts" mapstructure:"timeouts"`
	Output        OutputConfig        `yaml:"output" mapstructure:"output"`
}

// EndpointConfig describes the remote knowledge-graph service.
type EndpointConfig struct {
	URL           string        `yaml:"url" mapstructure:"url"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries    int           `yaml:"max_retries" mapstructure:"max_retries"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// RecognitionConfig tunes entity recognition.
type RecognitionConfig struct {
	Language          string   `yaml:"language" mapstructure:"language"`
	ResourceNamespace string   `yaml:"resource_namespace" mapstructure:"resource_namespace"`
	ExactLimit        int      `yaml:"exact_limit" mapstructure:"exact_limit"`
	SubstringLimit    int      `yaml:"substring_limit" mapstructure:"substring_limit"`
	MaxFragmentWords  int      `yaml:"max_fragment_words" mapstructure:"max_fragment_words"`
	ExtraStopWords    []string `yaml:"extra_stop_words,omitempty" mapstructure:"extra_stop_words"`
}

// OntologyConfig locates the domain ontology.
type OntologyConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// KnowledgeBaseConfig locates the solved-clue store.
type KnowledgeBaseConfig struct {
	Path           string `yaml:"path" mapstructure:"path"`
	PersistOnClose bool   `yaml:"persist_on_close" mapstructure:"persist_on_close"`
	QueueSize      int    `yaml:"queue_size" mapstructure:"queue_size"`
}

// CacheConfig controls the remote response cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
}

// RateLimitingConfig bounds request rate against the endpoint.
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig sizes the worker pools.
type ConcurrencyConfig struct {
	ScoringWorkers int `yaml:"scoring_workers" mapstructure:"scoring_workers"`
	BatchWorkers   int `yaml:"batch_workers" mapstructure:"batch_workers"`
}

// TimeoutsConfig bounds each blocking phase. Zero disables the bound.
type TimeoutsConfig struct {
	Recognition time.Duration `yaml:"recognition" mapstructure:"recognition"`
	Extraction  time.Duration `yaml:"extraction" mapstructure:"extraction"`
	Scoring     time.Duration `yaml:"scoring" mapstructure:"scoring"`
}

// OutputConfig controls reporting.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	cacheDir := ".semsolver-cache"
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".semsolver", "cache")
	}

	return &Config{
		Endpoint: EndpointConfig{
			URL:          "https://dbpedia.org/sparql",
			UserAgent:    "semsolver/0.3 (+https://github.com/ppiankov/semsolver)",
			Timeout:      30 * time.Second,
			MaxRetries:   3,
			MaxBodyBytes: 8_000_000,
		},
		Recognition: RecognitionConfig{
			Language:          "en",
			ResourceNamespace: "http://dbpedia.org/resource/",
			ExactLimit:        200,
			SubstringLimit:    100,
			MaxFragmentWords:  DefaultMaxFragmentWords,
		},
		Ontology: OntologyConfig{
			Path: "data/pop.ttl",
		},
		KnowledgeBase: KnowledgeBaseConfig{
			Path:           "data/crossword-kb.nt",
			PersistOnClose: true,
			QueueSize:      16,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: time.Hour,
			DiskTTL:   24 * time.Hour,
			Dir:       cacheDir,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Concurrency: ConcurrencyConfig{
			ScoringWorkers: 4,
			BatchWorkers:   runtime.NumCPU(),
		},
		Timeouts: TimeoutsConfig{
			Recognition: 2 * time.Minute,
			Extraction:  5 * time.Minute,
			Scoring:     5 * time.Minute,
		},
	}
}
