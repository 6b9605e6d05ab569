// Package rerank refines a fused result list with a remote cross-encoder.
package rerank

import (
	"context"
	"sort"
	"time"

	"github.com/T-rav/hydra/internal/pkg/logger"
	"github.com/T-rav/hydra/internal/retrieval"
)

// CrossEncoder scores (query, passage) pairs for relevance. Scores are
// aligned by index to the input documents.
type CrossEncoder interface {
	Score(ctx context.Context, query string, documents []string) ([]float32, error)
}

// Reranker reorders chunks by cross-encoder score. It is fail-open: any
// remote failure returns the input unchanged so reranking can never
// abort a query.
type Reranker struct {
	encoder CrossEncoder
	timeout time.Duration
	log     *logger.Logger
}

// New creates a reranker. encoder may be nil, in which case Rerank is a
// no-op (the component is unconfigured).
func New(encoder CrossEncoder, timeout time.Duration, log *logger.Logger) *Reranker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Reranker{
		encoder: encoder,
		timeout: timeout,
		log:     log,
	}
}

// Enabled reports whether a cross-encoder is configured.
func (r *Reranker) Enabled() bool {
	return r != nil && r.encoder != nil
}

// Rerank scores the chunks against the query and reorders them by the
// cross-encoder score, which fully replaces the prior ordering. Boosted
// similarity values on the chunks are left intact as a fallback signal.
// On any failure the input is returned unchanged.
func (r *Reranker) Rerank(ctx context.Context, query string, chunks []retrieval.Chunk) []retrieval.Chunk {
	if !r.Enabled() || len(chunks) == 0 {
		return chunks
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	documents := make([]string, len(chunks))
	for i, c := range chunks {
		documents[i] = c.Content
	}

	scores, err := r.encoder.Score(ctx, query, documents)
	if err != nil {
		r.log.Warn("reranking failed, keeping boosted order", "error", err)
		return chunks
	}
	if len(scores) != len(chunks) {
		r.log.Warn("reranker returned misaligned scores, keeping boosted order",
			"expected", len(chunks), "got", len(scores))
		return chunks
	}

	type scored struct {
		chunk retrieval.Chunk
		score float32
	}

	ranked := make([]scored, len(chunks))
	for i, c := range chunks {
		ranked[i] = scored{chunk: c, score: scores[i]}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]retrieval.Chunk, len(ranked))
	for i, s := range ranked {
		out[i] = s.chunk
	}
	return out
}
