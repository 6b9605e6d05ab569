package provider

import (
	"context"
	"time"

	"github.com/T-rav/hydra/internal/pkg/errors"
	"github.com/T-rav/hydra/internal/pkg/logger"
	"github.com/T-rav/hydra/internal/qdrant"
	"github.com/T-rav/hydra/internal/retrieval"
	"github.com/T-rav/hydra/internal/sparse"
)

// SparseProvider searches the keyword (BM25-style) index.
type SparseProvider struct {
	client     *qdrant.Client
	collection string
	encoder    *sparse.Encoder
	log        *logger.Logger
}

// NewSparseProvider creates a sparse adapter over the given collection.
func NewSparseProvider(client *qdrant.Client, collection string, encoder *sparse.Encoder, log *logger.Logger) *SparseProvider {
	return &SparseProvider{
		client:     client,
		collection: collection,
		encoder:    encoder,
		log:        log.WithProvider("sparse"),
	}
}

// Name implements SearchProvider.
func (p *SparseProvider) Name() string {
	return "sparse"
}

// Search implements SearchProvider. The query text is encoded locally;
// lexical scores are unbounded above, so no backend threshold is
// applied and scores are squashed into [0,1) for the pipeline.
func (p *SparseProvider) Search(ctx context.Context, q Query) ([]retrieval.Chunk, error) {
	vec := p.encoder.Encode(q.Text)
	if len(vec.Indices) == 0 {
		p.log.Debug("query produced no sparse terms", "query", q.Text)
		return []retrieval.Chunk{}, nil
	}

	limit := q.SparseTopK
	if limit <= 0 {
		limit = 30
	}

	start := time.Now()
	results, err := p.client.SparseSearch(ctx, p.collection, qdrant.SearchRequest{
		SparseIndices: vec.Indices,
		SparseValues:  vec.Values,
		Limit:         uint64(limit),
		Filter:        buildFilter(q.Filters),
	})
	if err != nil {
		p.log.Error("sparse search failed", "error", err)
		return nil, errors.ProviderError(p.Name(), err)
	}

	chunks := make([]retrieval.Chunk, len(results))
	for i, r := range results {
		chunks[i] = resultToChunk(r, squash(r.Score))
	}

	p.log.Debug("sparse search complete",
		"results", len(chunks),
		"limit", limit,
		"terms", len(vec.Indices),
		"latency_ms", time.Since(start).Milliseconds())

	return chunks, nil
}

// squash maps an unbounded non-negative lexical score into [0,1),
// monotonically, so it is comparable with cosine similarities.
func squash(score float32) float32 {
	if score <= 0 {
		return 0
	}
	return score / (score + 1)
}
