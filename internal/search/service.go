// Package search orchestrates the retrieval pipeline: query rewriting,
// parallel dense and sparse search, rank fusion, entity boosting,
// threshold filtering, reranking, and diversification.
package search

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/T-rav/hydra/internal/embed"
	"github.com/T-rav/hydra/internal/pkg/errors"
	"github.com/T-rav/hydra/internal/pkg/logger"
	"github.com/T-rav/hydra/internal/provider"
	"github.com/T-rav/hydra/internal/retrieval"
	"github.com/T-rav/hydra/internal/retrieval/boost"
	"github.com/T-rav/hydra/internal/retrieval/diversify"
	"github.com/T-rav/hydra/internal/retrieval/fusion"
	"github.com/T-rav/hydra/internal/retrieval/rerank"
	"github.com/T-rav/hydra/internal/rewrite"
)

// QueryRewriter rewrites a query ahead of retrieval.
type QueryRewriter interface {
	Rewrite(ctx context.Context, query string, history []retrieval.Message) rewrite.Result
}

// Service runs the retrieval pipeline. Stages execute in a fixed order;
// every chunk list is call-scoped so concurrent calls share nothing but
// the backend connections.
type Service struct {
	rewriter  QueryRewriter
	embedder  embed.Embedder
	providers []provider.SearchProvider
	reranker  *rerank.Reranker
	defaults  retrieval.SearchConfig
	log       *logger.Logger
}

// NewService assembles the pipeline. rewriter and reranker may be nil;
// the corresponding stages are skipped.
func NewService(rewriter QueryRewriter, embedder embed.Embedder, providers []provider.SearchProvider, reranker *rerank.Reranker, defaults retrieval.SearchConfig, log *logger.Logger) *Service {
	if defaults.MaxChunks == 0 {
		defaults = retrieval.DefaultSearchConfig()
	}
	return &Service{
		rewriter:  rewriter,
		embedder:  embedder,
		providers: providers,
		reranker:  reranker,
		defaults:  defaults,
		log:       log,
	}
}

// Request is one retrieval call.
type Request struct {
	// Query is the user's question.
	Query string `json:"query"`

	// History is recent conversation context for the rewriter.
	History []retrieval.Message `json:"history,omitempty"`

	// Config overrides the service defaults when non-nil.
	Config *retrieval.SearchConfig `json:"config,omitempty"`
}

// Response is the pipeline output. Chunks is never nil: an empty slice
// means "nothing matched", while a returned error means the pipeline
// could not run at all.
type Response struct {
	// Query is the original query.
	Query string `json:"query"`

	// RewrittenQuery is the query the search phase actually used.
	RewrittenQuery string `json:"rewritten_query"`

	// Strategy is the rewrite strategy that was applied.
	Strategy rewrite.Strategy `json:"strategy"`

	// Chunks are the final ranked chunks.
	Chunks []retrieval.Chunk `json:"chunks"`

	// Total is the candidate count before the final cut.
	Total int `json:"total"`

	// Degraded lists pipeline stages that failed soft and were skipped
	// or partially applied.
	Degraded []string `json:"degraded,omitempty"`

	// Metadata describes how the search was performed.
	Metadata Metadata `json:"metadata"`
}

// Metadata contains per-stage timings.
type Metadata struct {
	TotalTimeMs      int64 `json:"total_time_ms"`
	RewriteTimeMs    int64 `json:"rewrite_time_ms"`
	EmbedTimeMs      int64 `json:"embed_time_ms"`
	RetrievalTimeMs  int64 `json:"retrieval_time_ms"`
	RerankTimeMs     int64 `json:"rerank_time_ms,omitempty"`
	RerankingApplied bool  `json:"reranking_applied"`
}

// Retrieve runs the full pipeline for one query.
func (s *Service) Retrieve(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	if req.Query == "" {
		return nil, errors.ValidationError("query is required")
	}
	cfg := s.defaults
	if req.Config != nil {
		cfg = *req.Config
	}

	resp := &Response{
		Query:          req.Query,
		RewrittenQuery: req.Query,
		Strategy:       rewrite.StrategyDisabled,
		Chunks:         []retrieval.Chunk{},
	}

	// Rewrite. Never fails; a fallback strategy marks the stage degraded.
	rewriteStart := time.Now()
	searchQuery := req.Query
	var filters map[string]string
	if s.rewriter != nil {
		rw := s.rewriter.Rewrite(ctx, req.Query, req.History)
		searchQuery = rw.Query
		filters = rw.Filters
		resp.RewrittenQuery = rw.Query
		resp.Strategy = rw.Strategy
		if rw.Strategy == rewrite.StrategyErrorFallback {
			resp.Degraded = append(resp.Degraded, "rewrite")
		}
	}
	resp.Metadata.RewriteTimeMs = time.Since(rewriteStart).Milliseconds()

	// Embed the search query. Without an embedding no dense search can
	// run, so this failure propagates.
	embedStart := time.Now()
	denseVec, err := s.embedder.Embed(ctx, searchQuery)
	if err != nil {
		return nil, errors.EmbeddingError(err)
	}
	resp.Metadata.EmbedTimeMs = time.Since(embedStart).Milliseconds()

	// Search all providers concurrently. A single provider failing is
	// tolerated; all of them failing means retrieval is unavailable.
	retrievalStart := time.Now()
	lists, failed := s.searchProviders(ctx, searchQuery, denseVec, filters, cfg)
	resp.Metadata.RetrievalTimeMs = time.Since(retrievalStart).Milliseconds()
	resp.Degraded = append(resp.Degraded, failed...)
	if len(lists) == 0 && len(failed) == len(s.providers) && len(s.providers) > 0 {
		return nil, errors.UnavailableError("search providers")
	}

	chunks := s.fuse(lists, cfg)
	resp.Total = len(chunks)
	if len(chunks) == 0 {
		resp.Metadata.TotalTimeMs = time.Since(start).Milliseconds()
		return resp, nil
	}

	chunks = boost.Apply(req.Query, chunks, boost.Config{
		ContentBoost: cfg.EntityContentBoost,
		TitleBoost:   cfg.EntityTitleBoost,
	})
	chunks = filterByThreshold(chunks, cfg.SimilarityThreshold)

	if s.reranker != nil && s.reranker.Enabled() && len(chunks) > 0 {
		rerankStart := time.Now()
		reranked := s.reranker.Rerank(ctx, searchQuery, chunks)
		resp.Metadata.RerankTimeMs = time.Since(rerankStart).Milliseconds()
		resp.Metadata.RerankingApplied = true
		chunks = reranked
	}

	maxResults := cfg.FinalTopK
	if cfg.MaxChunks > 0 && cfg.MaxChunks < maxResults {
		maxResults = cfg.MaxChunks
	}
	chunks = diversify.ForStrategy(cfg.DiversifyStrategy)(chunks, maxResults, cfg.MaxChunksPerDocument)

	resp.Chunks = chunks
	resp.Metadata.TotalTimeMs = time.Since(start).Milliseconds()

	s.log.WithStage("search").Info("retrieval complete",
		"query_len", len(req.Query),
		"strategy", string(resp.Strategy),
		"candidates", resp.Total,
		"returned", len(chunks),
		"degraded", resp.Degraded,
		"total_ms", resp.Metadata.TotalTimeMs)
	return resp, nil
}

// searchProviders fans the query out to every provider and waits for all
// of them. Failed providers are reported by name, not as errors.
func (s *Service) searchProviders(ctx context.Context, query string, denseVec []float32, filters map[string]string, cfg retrieval.SearchConfig) ([]fusion.List, []string) {
	results := make([][]retrieval.Chunk, len(s.providers))
	errs := make([]error, len(s.providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range s.providers {
		i, p := i, p
		g.Go(func() error {
			results[i], errs[i] = p.Search(gctx, provider.Query{
				Text:        query,
				DenseVector: denseVec,
				Filters:     filters,
				DenseTopK:   cfg.DenseTopK,
				SparseTopK:  cfg.SparseTopK,
				Threshold:   cfg.SimilarityThreshold,
			})
			// Provider errors are absorbed here so one backend cannot
			// cancel the other's search.
			return nil
		})
	}
	// Every goroutine returns nil; errors surface through errs.
	_ = g.Wait()

	var lists []fusion.List
	var failed []string
	for i, p := range s.providers {
		if errs[i] != nil {
			s.log.WithProvider(p.Name()).Warn("provider search failed", "error", errs[i])
			failed = append(failed, p.Name())
			continue
		}
		lists = append(lists, fusion.List{Provider: p.Name(), Chunks: results[i]})
	}
	return lists, failed
}

// fuse merges the provider lists and flattens the fused results back to
// chunks, capped at the fusion candidate pool size.
func (s *Service) fuse(lists []fusion.List, cfg retrieval.SearchConfig) []retrieval.Chunk {
	fused := fusion.Fuse(lists, fusion.Config{K: cfg.RRFK})
	if cfg.FusionTopK > 0 && len(fused) > cfg.FusionTopK {
		fused = fused[:cfg.FusionTopK]
	}
	chunks := make([]retrieval.Chunk, len(fused))
	for i, f := range fused {
		chunks[i] = f.Result.Chunk
	}
	return chunks
}

// filterByThreshold drops chunks below the post-boost similarity cut.
func filterByThreshold(chunks []retrieval.Chunk, threshold float32) []retrieval.Chunk {
	if threshold <= 0 {
		return chunks
	}
	kept := chunks[:0:0]
	for _, c := range chunks {
		if c.Similarity >= threshold {
			kept = append(kept, c)
		}
	}
	return kept
}
