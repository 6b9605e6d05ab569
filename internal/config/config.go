// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Qdrant configuration
	Qdrant QdrantConfig `yaml:"qdrant"`

	// LLM configuration (intent classification, query rewriting)
	LLM LLMConfig `yaml:"llm"`

	// Embedding configuration
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Rerank configuration
	Rerank RerankConfig `yaml:"rerank"`

	// Retrieval configuration
	Retrieval RetrievalConfig `yaml:"retrieval"`

	// Rewrite configuration
	Rewrite RewriteConfig `yaml:"rewrite"`

	// Cache configuration
	Cache CacheConfig `yaml:"cache"`

	// Bus configuration (chunk ingestion)
	Bus BusConfig `yaml:"bus"`

	// Logging configuration
	Log LogConfig `yaml:"log"`
}

// QdrantConfig holds Qdrant connection settings.
type QdrantConfig struct {
	Host       string `envconfig:"HYDRA_QDRANT_HOST" yaml:"host"`
	Port       int    `envconfig:"HYDRA_QDRANT_PORT" yaml:"port"`
	APIKey     string `envconfig:"HYDRA_QDRANT_API_KEY" yaml:"api_key"`
	UseTLS     bool   `envconfig:"HYDRA_QDRANT_TLS" yaml:"use_tls"`
	Collection string `envconfig:"HYDRA_QDRANT_COLLECTION" yaml:"collection"`
	TimeoutSec int    `envconfig:"HYDRA_QDRANT_TIMEOUT" yaml:"timeout_sec"`
}

// LLMConfig holds settings for the chat model used by the query rewriter.
type LLMConfig struct {
	BaseURL     string  `envconfig:"HYDRA_LLM_URL" yaml:"base_url"`
	APIKey      string  `envconfig:"HYDRA_LLM_API_KEY" yaml:"api_key"`
	Model       string  `envconfig:"HYDRA_LLM_MODEL" yaml:"model"`
	Temperature float64 `envconfig:"HYDRA_LLM_TEMPERATURE" yaml:"temperature"`
	TimeoutSec  int     `envconfig:"HYDRA_LLM_TIMEOUT" yaml:"timeout_sec"`
	RPS         float64 `envconfig:"HYDRA_LLM_RPS" yaml:"rps"`
}

// EmbeddingConfig holds settings for the embedding model.
type EmbeddingConfig struct {
	BaseURL    string `envconfig:"HYDRA_EMBED_URL" yaml:"base_url"`
	APIKey     string `envconfig:"HYDRA_EMBED_API_KEY" yaml:"api_key"`
	Model      string `envconfig:"HYDRA_EMBED_MODEL" yaml:"model"`
	Dimensions int    `envconfig:"HYDRA_EMBED_DIM" yaml:"dimensions"`
	TimeoutSec int    `envconfig:"HYDRA_EMBED_TIMEOUT" yaml:"timeout_sec"`
}

// RerankConfig holds settings for the remote cross-encoder.
type RerankConfig struct {
	Enabled    bool   `envconfig:"HYDRA_RERANK_ENABLED" yaml:"enabled"`
	URL        string `envconfig:"HYDRA_RERANK_URL" yaml:"url"`
	Model      string `envconfig:"HYDRA_RERANK_MODEL" yaml:"model"`
	TimeoutSec int    `envconfig:"HYDRA_RERANK_TIMEOUT" yaml:"timeout_sec"`
}

// RetrievalConfig holds per-query retrieval defaults.
type RetrievalConfig struct {
	MaxChunks            int     `envconfig:"HYDRA_MAX_CHUNKS" yaml:"max_chunks"`
	SimilarityThreshold  float64 `envconfig:"HYDRA_SIMILARITY_THRESHOLD" yaml:"similarity_threshold"`
	MaxChunksPerDocument int     `envconfig:"HYDRA_MAX_CHUNKS_PER_DOC" yaml:"max_chunks_per_document"`
	EntityContentBoost   float64 `envconfig:"HYDRA_ENTITY_CONTENT_BOOST" yaml:"entity_content_boost"`
	EntityTitleBoost     float64 `envconfig:"HYDRA_ENTITY_TITLE_BOOST" yaml:"entity_title_boost"`
	DenseTopK            int     `envconfig:"HYDRA_DENSE_TOP_K" yaml:"dense_top_k"`
	SparseTopK           int     `envconfig:"HYDRA_SPARSE_TOP_K" yaml:"sparse_top_k"`
	FusionTopK           int     `envconfig:"HYDRA_FUSION_TOP_K" yaml:"fusion_top_k"`
	FinalTopK            int     `envconfig:"HYDRA_FINAL_TOP_K" yaml:"final_top_k"`
	RRFK                 int     `envconfig:"HYDRA_RRF_K" yaml:"rrf_k"`
	DiversifyStrategy    string  `envconfig:"HYDRA_DIVERSIFY_STRATEGY" yaml:"diversify_strategy"`
	ProviderTimeoutSec   int     `envconfig:"HYDRA_PROVIDER_TIMEOUT" yaml:"provider_timeout_sec"`
}

// RewriteConfig holds query rewriting settings.
type RewriteConfig struct {
	Enabled        bool `envconfig:"HYDRA_REWRITE_ENABLED" yaml:"enabled"`
	HistoryTurns   int  `envconfig:"HYDRA_REWRITE_HISTORY_TURNS" yaml:"history_turns"`
	LLMTimeoutSec  int  `envconfig:"HYDRA_REWRITE_TIMEOUT" yaml:"llm_timeout_sec"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Type     string `envconfig:"HYDRA_CACHE_TYPE" yaml:"type"` // memory, redis
	Size     int    `envconfig:"HYDRA_CACHE_SIZE" yaml:"size"`
	TTLSec   int    `envconfig:"HYDRA_CACHE_TTL" yaml:"ttl_sec"` // 0 = no expiry
	RedisURL string `envconfig:"HYDRA_REDIS_URL" yaml:"redis_url"`
}

// BusConfig holds event bus settings for chunk ingestion.
type BusConfig struct {
	Type          string `envconfig:"HYDRA_BUS_TYPE" yaml:"type"` // memory, kafka
	KafkaBrokers  string `envconfig:"HYDRA_KAFKA_BROKERS" yaml:"kafka_brokers"`
	ConsumerGroup string `envconfig:"HYDRA_KAFKA_GROUP" yaml:"consumer_group"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"HYDRA_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"HYDRA_LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from environment variables and optional config file.
// Precedence: defaults < config file < environment.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	setDefaults(cfg)

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Qdrant = QdrantConfig{
		Host:       "localhost",
		Port:       6334,
		Collection: "chunks",
		TimeoutSec: 30,
	}
	cfg.LLM = LLMConfig{
		Model:      "gpt-4o-mini",
		TimeoutSec: 15,
		RPS:        10,
	}
	cfg.Embedding = EmbeddingConfig{
		Model:      "text-embedding-3-small",
		Dimensions: 1536,
		TimeoutSec: 20,
	}
	cfg.Rerank = RerankConfig{
		Enabled:    false,
		TimeoutSec: 10,
	}
	cfg.Retrieval = RetrievalConfig{
		MaxChunks:            10,
		SimilarityThreshold:  0.3,
		MaxChunksPerDocument: 3,
		EntityContentBoost:   0.05,
		EntityTitleBoost:     0.1,
		DenseTopK:            30,
		SparseTopK:           30,
		FusionTopK:           40,
		FinalTopK:            10,
		RRFK:                 60,
		DiversifyStrategy:    "smart",
		ProviderTimeoutSec:   30,
	}
	cfg.Rewrite = RewriteConfig{
		Enabled:       true,
		HistoryTurns:  3,
		LLMTimeoutSec: 10,
	}
	cfg.Cache = CacheConfig{
		Type: "memory",
		Size: 10000,
	}
	cfg.Bus = BusConfig{
		Type:          "memory",
		ConsumerGroup: "hydra-ingest",
	}
	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	return nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	var problems []string

	if c.Qdrant.Host == "" {
		problems = append(problems, "qdrant host is required")
	}
	if c.Qdrant.Port <= 0 || c.Qdrant.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid qdrant port: %d", c.Qdrant.Port))
	}
	if c.Qdrant.Collection == "" {
		problems = append(problems, "qdrant collection is required")
	}
	if c.Embedding.Dimensions <= 0 {
		problems = append(problems, "embedding dimensions must be positive")
	}
	if c.Retrieval.SimilarityThreshold < 0 || c.Retrieval.SimilarityThreshold > 1 {
		problems = append(problems, fmt.Sprintf("similarity threshold must be in [0,1]: %f", c.Retrieval.SimilarityThreshold))
	}
	if c.Retrieval.RRFK <= 0 {
		problems = append(problems, fmt.Sprintf("rrf_k must be positive: %d", c.Retrieval.RRFK))
	}
	if c.Retrieval.MaxChunks <= 0 {
		problems = append(problems, "max_chunks must be positive")
	}
	if c.Rerank.Enabled && c.Rerank.URL == "" {
		problems = append(problems, "rerank url is required when reranking is enabled")
	}
	switch c.Cache.Type {
	case "memory", "redis", "":
	default:
		problems = append(problems, fmt.Sprintf("unknown cache type: %s", c.Cache.Type))
	}
	if c.Cache.Type == "redis" && c.Cache.RedisURL == "" {
		problems = append(problems, "redis url is required for redis cache")
	}
	switch c.Bus.Type {
	case "memory", "kafka", "":
	default:
		problems = append(problems, fmt.Sprintf("unknown bus type: %s", c.Bus.Type))
	}
	if c.Bus.Type == "kafka" && c.Bus.KafkaBrokers == "" {
		problems = append(problems, "kafka brokers are required for kafka bus")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}

// KafkaBrokerList splits the broker string into addresses.
func (c *BusConfig) KafkaBrokerList() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if b := strings.TrimSpace(p); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
