package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/T-rav/hydra/internal/config"
	"github.com/T-rav/hydra/internal/embed"
	"github.com/T-rav/hydra/internal/llm"
	"github.com/T-rav/hydra/internal/pkg/logger"
	"github.com/T-rav/hydra/internal/provider"
	"github.com/T-rav/hydra/internal/qdrant"
	"github.com/T-rav/hydra/internal/retrieval"
	"github.com/T-rav/hydra/internal/retrieval/rerank"
	"github.com/T-rav/hydra/internal/rewrite"
	"github.com/T-rav/hydra/internal/search"
	"github.com/T-rav/hydra/internal/sparse"
)

// sparseMaxTerms caps the sparse vector length per text.
const sparseMaxTerms = 256

// app holds the wired components shared by the subcommands.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	store    *qdrant.Client
	embedder embed.Embedder
	encoder  *sparse.Encoder
}

// newApp loads configuration and connects the shared backends.
func newApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	store, err := qdrant.NewClient(qdrant.ClientConfig{
		Host:    cfg.Qdrant.Host,
		Port:    cfg.Qdrant.Port,
		APIKey:  cfg.Qdrant.APIKey,
		UseTLS:  cfg.Qdrant.UseTLS,
		Timeout: time.Duration(cfg.Qdrant.TimeoutSec) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(cfg, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		embedder: embedder,
		encoder:  sparse.NewEncoder(sparseMaxTerms),
	}, nil
}

func (a *app) Close() {
	a.store.Close()
}

// newEmbedder builds the embedding client with the configured cache in
// front of it.
func newEmbedder(cfg *config.Config, log *logger.Logger) (embed.Embedder, error) {
	base, err := embed.NewOpenAIEmbedder(cfg.Embedding, log)
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Type == "redis" {
		cache, err := embed.NewRedisCache(cfg.Cache.RedisURL, time.Duration(cfg.Cache.TTLSec)*time.Second, log)
		if err != nil {
			return nil, err
		}
		return embed.WithCache(base, cache), nil
	}
	return embed.WithCache(base, embed.NewMemoryCache(cfg.Cache.Size)), nil
}

// newSearchService wires the full retrieval pipeline.
func (a *app) newSearchService() (*search.Service, error) {
	var rewriter search.QueryRewriter
	if a.cfg.Rewrite.Enabled {
		chat, err := llm.NewOpenAIClient(a.cfg.LLM, a.log)
		if err != nil {
			return nil, err
		}
		rewriter = rewrite.New(chat, a.cfg.Rewrite, a.log)
	}

	collection := a.cfg.Qdrant.Collection
	providers := []provider.SearchProvider{
		provider.NewDenseProvider(a.store, collection, a.log),
		provider.NewSparseProvider(a.store, collection, a.encoder, a.log),
	}

	var reranker *rerank.Reranker
	if a.cfg.Rerank.Enabled && a.cfg.Rerank.URL != "" {
		timeout := time.Duration(a.cfg.Rerank.TimeoutSec) * time.Second
		encoder := rerank.NewRemoteEncoder(a.cfg.Rerank.URL, a.cfg.Rerank.Model, timeout)
		reranker = rerank.New(encoder, timeout, a.log)
	}

	return search.NewService(rewriter, a.embedder, providers, reranker, a.searchDefaults(), a.log), nil
}

// searchDefaults maps service configuration onto per-query defaults.
func (a *app) searchDefaults() retrieval.SearchConfig {
	r := a.cfg.Retrieval
	return retrieval.SearchConfig{
		MaxChunks:            r.MaxChunks,
		SimilarityThreshold:  float32(r.SimilarityThreshold),
		MaxChunksPerDocument: r.MaxChunksPerDocument,
		EntityContentBoost:   float32(r.EntityContentBoost),
		EntityTitleBoost:     float32(r.EntityTitleBoost),
		DenseTopK:            r.DenseTopK,
		SparseTopK:           r.SparseTopK,
		FusionTopK:           r.FusionTopK,
		FinalTopK:            r.FinalTopK,
		RRFK:                 r.RRFK,
		DiversifyStrategy:    r.DiversifyStrategy,
	}
}
