// Package retrieval implements the hybrid retrieval and reranking pipeline.
package retrieval

import (
	"github.com/T-rav/hydra/internal/pkg/hash"
)

// Metadata carries the well-known chunk metadata fields plus a generic
// extension map for provider-specific values.
type Metadata struct {
	// FileName is the name of the source file, if the chunk came from one.
	FileName string `json:"file_name,omitempty"`

	// Title is the document title, when distinct from the file name.
	Title string `json:"title,omitempty"`

	// Source identifies the originating system (e.g. "drive", "confluence").
	Source string `json:"source,omitempty"`

	// WebViewLink points at the source document in its native UI.
	WebViewLink string `json:"web_view_link,omitempty"`

	// DocumentID identifies the logical document the chunk belongs to.
	// Chunks without a document identifier (structured records, metrics)
	// are exempt from per-document diversification caps.
	DocumentID string `json:"document_id,omitempty"`

	// Extra holds provider-specific metadata not modeled above.
	Extra map[string]string `json:"extra,omitempty"`
}

// Boost is the scoring trace attached by the entity booster.
type Boost struct {
	// EntityBoost is the total boost added to the similarity.
	EntityBoost float32 `json:"entity_boost"`

	// MatchingEntities lists the query entities that matched.
	MatchingEntities []string `json:"matching_entities"`

	// OriginalSimilarity is the similarity before boosting.
	OriginalSimilarity float32 `json:"original_similarity"`
}

// Chunk is the retrieved unit of content. Chunks are created fresh per
// query by a provider adapter and live for a single retrieval call.
type Chunk struct {
	// Content is the chunk text.
	Content string `json:"content"`

	// Similarity is the relevance score in [0,1], provider-native or
	// fusion-derived.
	Similarity float32 `json:"similarity"`

	// Metadata describes the chunk's origin.
	Metadata Metadata `json:"metadata"`

	// Boost is set once by the entity booster; nil until then.
	Boost *Boost `json:"boost,omitempty"`
}

// DocumentKey returns the identifier used to group chunks by document.
// Empty means the chunk has no document identity.
func (c Chunk) DocumentKey() string {
	if c.Metadata.DocumentID != "" {
		return c.Metadata.DocumentID
	}
	return c.Metadata.FileName
}

// IdentityKey returns the fusion identity of the chunk: the same
// normalized text from the same logical document is one item even when
// retrieved via different providers.
func (c Chunk) IdentityKey() string {
	return hash.ChunkKey(c.Content, c.DocumentKey())
}

// Result is a fused retrieval result: a chunk plus the provider that
// contributed the winning copy and its 1-based fused rank.
type Result struct {
	Chunk

	// Provider names the backend that contributed the winning copy.
	Provider string `json:"provider"`

	// Rank is the fused rank, 1-based, strictly increasing and unique
	// within one fused list.
	Rank int `json:"rank"`
}

// SearchConfig holds the per-query retrieval parameters. It is immutable
// for the duration of one query.
type SearchConfig struct {
	// MaxChunks is the number of chunks the caller wants back.
	MaxChunks int

	// SimilarityThreshold is the final post-boost score cut.
	SimilarityThreshold float32

	// MaxChunksPerDocument caps per-document representation.
	MaxChunksPerDocument int

	// EntityContentBoost is added per entity found in chunk content.
	EntityContentBoost float32

	// EntityTitleBoost is added per entity found in title or file name.
	EntityTitleBoost float32

	// DenseTopK is the dense provider over-fetch limit.
	DenseTopK int

	// SparseTopK is the sparse provider over-fetch limit.
	SparseTopK int

	// FusionTopK caps the fused candidate pool.
	FusionTopK int

	// FinalTopK caps the diversified output.
	FinalTopK int

	// RRFK is the reciprocal rank fusion smoothing constant.
	RRFK int

	// DiversifyStrategy selects the diversification algorithm
	// ("smart", "docfirst", "roundrobin").
	DiversifyStrategy string
}

// DefaultSearchConfig returns sensible retrieval defaults.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
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
	}
}

// Message is one turn of conversation history consumed by the rewriter.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
