package provider

import (
	"context"
	"time"

	"github.com/T-rav/hydra/internal/pkg/errors"
	"github.com/T-rav/hydra/internal/pkg/logger"
	"github.com/T-rav/hydra/internal/qdrant"
	"github.com/T-rav/hydra/internal/retrieval"
)

// DenseProvider searches the embedding-similarity index.
type DenseProvider struct {
	client     *qdrant.Client
	collection string
	log        *logger.Logger
}

// NewDenseProvider creates a dense adapter over the given collection.
func NewDenseProvider(client *qdrant.Client, collection string, log *logger.Logger) *DenseProvider {
	return &DenseProvider{
		client:     client,
		collection: collection,
		log:        log.WithProvider("dense"),
	}
}

// Name implements SearchProvider.
func (p *DenseProvider) Name() string {
	return "dense"
}

// Search implements SearchProvider.
func (p *DenseProvider) Search(ctx context.Context, q Query) ([]retrieval.Chunk, error) {
	if len(q.DenseVector) == 0 {
		return nil, errors.New(errors.CodeValidation, "dense search requires a query embedding")
	}

	limit := q.DenseTopK
	if limit <= 0 {
		limit = 30
	}
	threshold := loweredThreshold(q.Threshold)

	start := time.Now()
	results, err := p.client.DenseSearch(ctx, p.collection, qdrant.SearchRequest{
		DenseVector:    q.DenseVector,
		Limit:          uint64(limit),
		Filter:         buildFilter(q.Filters),
		ScoreThreshold: &threshold,
	})
	if err != nil {
		p.log.Error("dense search failed", "error", err)
		return nil, errors.ProviderError(p.Name(), err)
	}

	chunks := make([]retrieval.Chunk, len(results))
	for i, r := range results {
		// Cosine similarity is already in [0,1] for normalized vectors.
		chunks[i] = resultToChunk(r, clamp01(r.Score))
	}

	p.log.Debug("dense search complete",
		"results", len(chunks),
		"limit", limit,
		"threshold", threshold,
		"latency_ms", time.Since(start).Milliseconds())

	return chunks, nil
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
