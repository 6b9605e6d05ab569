// Package provider contains the per-backend search adapters.
package provider

import (
	"context"
	"time"

	"github.com/T-rav/hydra/internal/qdrant"
	"github.com/T-rav/hydra/internal/retrieval"
)

// Filter keys understood by the adapters. Values come from the query
// rewriter's structured filters.
const (
	FilterSource        = "source"
	FilterFileName      = "file_name"
	FilterDocumentID    = "document_id"
	FilterIngestedAfter = "ingested_after"  // RFC3339
	FilterIngestedUntil = "ingested_before" // RFC3339
)

// Query is the adapter input: the rewritten query text plus its dense
// embedding and structured filters.
type Query struct {
	// Text is the (possibly rewritten) query text.
	Text string

	// DenseVector is the query embedding. Only the dense adapter uses it.
	DenseVector []float32

	// Filters are structured metadata filters from the rewriter.
	Filters map[string]string

	// DenseTopK and SparseTopK are the per-adapter over-fetch limits;
	// each adapter reads its own.
	DenseTopK  int
	SparseTopK int

	// Threshold is the caller's similarity threshold. Adapters lower it
	// by a fixed margin so downstream boosting and fusion see a larger
	// candidate pool; the final cut happens after boosting.
	Threshold float32
}

// SearchProvider is one search backend.
type SearchProvider interface {
	// Name identifies the provider in fused results and logs.
	Name() string

	// Search returns candidate chunks ordered best-first.
	Search(ctx context.Context, q Query) ([]retrieval.Chunk, error)
}

const (
	// thresholdMargin is subtracted from the caller's threshold for the
	// backend query.
	thresholdMargin = 0.1

	// thresholdFloor is the minimum backend threshold.
	thresholdFloor = 0.05
)

// loweredThreshold widens the candidate pool for downstream stages.
func loweredThreshold(threshold float32) float32 {
	lowered := threshold - thresholdMargin
	if lowered < thresholdFloor {
		lowered = thresholdFloor
	}
	return lowered
}

// buildFilter converts rewriter filters into a backend filter.
func buildFilter(filters map[string]string) *qdrant.SearchFilter {
	if len(filters) == 0 {
		return nil
	}

	f := &qdrant.SearchFilter{
		Source:     filters[FilterSource],
		FileName:   filters[FilterFileName],
		DocumentID: filters[FilterDocumentID],
	}

	if v := filters[FilterIngestedAfter]; v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.IngestedAfter = &t
		}
	}
	if v := filters[FilterIngestedUntil]; v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.IngestedBefore = &t
		}
	}

	if f.Source == "" && f.FileName == "" && f.DocumentID == "" &&
		f.IngestedAfter == nil && f.IngestedBefore == nil {
		return nil
	}

	return f
}

// resultToChunk converts a backend result into a pipeline chunk.
func resultToChunk(r qdrant.SearchResult, similarity float32) retrieval.Chunk {
	return retrieval.Chunk{
		Content:    r.Payload.Content,
		Similarity: similarity,
		Metadata: retrieval.Metadata{
			FileName:    r.Payload.FileName,
			Title:       r.Payload.Title,
			Source:      r.Payload.Source,
			WebViewLink: r.Payload.WebViewLink,
			DocumentID:  r.Payload.DocumentID,
			Extra: map[string]string{
				"point_id": r.ID,
			},
		},
	}
}
