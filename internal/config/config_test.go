package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Qdrant.Host != "localhost" {
		t.Errorf("default qdrant host = %s", cfg.Qdrant.Host)
	}
	if cfg.Retrieval.RRFK != 60 {
		t.Errorf("default rrf_k = %d, want 60", cfg.Retrieval.RRFK)
	}
	if cfg.Retrieval.DiversifyStrategy != "smart" {
		t.Errorf("default diversify strategy = %s, want smart", cfg.Retrieval.DiversifyStrategy)
	}
	if cfg.Rerank.Enabled {
		t.Error("reranking should be disabled by default")
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
qdrant:
  host: qdrant.internal
  port: 6334
  collection: kb
retrieval:
  max_chunks: 5
  rrf_k: 30
rerank:
  enabled: true
  url: http://rerank.internal/score
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Qdrant.Host != "qdrant.internal" {
		t.Errorf("qdrant host = %s", cfg.Qdrant.Host)
	}
	if cfg.Retrieval.MaxChunks != 5 {
		t.Errorf("max_chunks = %d, want 5", cfg.Retrieval.MaxChunks)
	}
	if cfg.Retrieval.RRFK != 30 {
		t.Errorf("rrf_k = %d, want 30", cfg.Retrieval.RRFK)
	}
	// Untouched values keep defaults
	if cfg.Retrieval.DenseTopK != 30 {
		t.Errorf("dense_top_k = %d, want default 30", cfg.Retrieval.DenseTopK)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("retrieval:\n  max_chunks: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("HYDRA_MAX_CHUNKS", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Retrieval.MaxChunks != 7 {
		t.Errorf("max_chunks = %d, want env override 7", cfg.Retrieval.MaxChunks)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "missing qdrant host",
			mutate:  func(c *Config) { c.Qdrant.Host = "" },
			wantErr: "qdrant host",
		},
		{
			name:    "bad threshold",
			mutate:  func(c *Config) { c.Retrieval.SimilarityThreshold = 1.5 },
			wantErr: "similarity threshold",
		},
		{
			name:    "rerank enabled without url",
			mutate:  func(c *Config) { c.Rerank.Enabled = true },
			wantErr: "rerank url",
		},
		{
			name:    "redis cache without url",
			mutate:  func(c *Config) { c.Cache.Type = "redis" },
			wantErr: "redis url",
		},
		{
			name:    "kafka bus without brokers",
			mutate:  func(c *Config) { c.Bus.Type = "kafka" },
			wantErr: "kafka brokers",
		},
		{
			name:    "unknown bus type",
			mutate:  func(c *Config) { c.Bus.Type = "nats" },
			wantErr: "unknown bus type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			setDefaults(cfg)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestKafkaBrokerList(t *testing.T) {
	b := BusConfig{KafkaBrokers: "k1:9092, k2:9092 ,"}
	got := b.KafkaBrokerList()
	if len(got) != 2 || got[0] != "k1:9092" || got[1] != "k2:9092" {
		t.Errorf("KafkaBrokerList() = %v", got)
	}

	if got := (&BusConfig{}).KafkaBrokerList(); got != nil {
		t.Errorf("empty brokers should return nil, got %v", got)
	}
}
