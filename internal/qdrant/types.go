// Package qdrant wraps the Qdrant Go client with the operations the
// retrieval pipeline needs: collection lifecycle, chunk upserts, and
// dense/sparse similarity search.
package qdrant

import (
	"time"
)

// CollectionPrefix is prepended to all collection names.
const CollectionPrefix = "hydra_"

// CollectionConfig defines the configuration for creating a collection.
type CollectionConfig struct {
	// Name is the collection name (will be prefixed with "hydra_").
	Name string

	// DenseVectorSize is the dimension of dense vectors.
	DenseVectorSize uint64

	// OnDiskPayload stores payload on disk to save RAM.
	OnDiskPayload bool
}

// DefaultCollectionConfig returns sensible defaults for a document
// chunk collection.
func DefaultCollectionConfig(name string) CollectionConfig {
	return CollectionConfig{
		Name:            name,
		DenseVectorSize: 1536,
		OnDiskPayload:   true,
	}
}

// Point represents a chunk to upsert.
type Point struct {
	// ID is the unique point identifier (UUID).
	ID string

	// DenseVector is the semantic embedding of the title-injected copy.
	DenseVector []float32

	// SparseIndices are the term ids of the sparse copy.
	SparseIndices []uint32

	// SparseValues are the term weights of the sparse copy.
	SparseValues []float32

	// Payload is the chunk metadata.
	Payload PointPayload
}

// PointPayload contains the searchable metadata for a chunk.
type PointPayload struct {
	Content     string    `json:"content"`
	FileName    string    `json:"file_name"`
	Title       string    `json:"title,omitempty"`
	Source      string    `json:"source,omitempty"`
	WebViewLink string    `json:"web_view_link,omitempty"`
	DocumentID  string    `json:"document_id,omitempty"`
	IngestedAt  time.Time `json:"ingested_at"`
}

// SearchRequest defines parameters for a single-vector search.
type SearchRequest struct {
	// DenseVector for dense search.
	DenseVector []float32

	// SparseIndices for sparse search.
	SparseIndices []uint32

	// SparseValues for sparse search.
	SparseValues []float32

	// Limit is the maximum number of results to return.
	Limit uint64

	// Filter constrains the search to matching chunks.
	Filter *SearchFilter

	// ScoreThreshold filters results below this score.
	ScoreThreshold *float32
}

// SearchFilter defines filter conditions for search.
type SearchFilter struct {
	// Source filters by originating system.
	Source string

	// FileName filters by exact file name.
	FileName string

	// DocumentID filters by logical document.
	DocumentID string

	// IngestedAfter and IngestedBefore bound the ingestion time.
	IngestedAfter  *time.Time
	IngestedBefore *time.Time
}

// SearchResult represents a single search result.
type SearchResult struct {
	// ID is the point identifier.
	ID string

	// Score is the provider-native similarity score.
	Score float32

	// Payload is the stored chunk metadata.
	Payload PointPayload
}
