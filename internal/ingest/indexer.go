package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/T-rav/hydra/internal/bus"
	"github.com/T-rav/hydra/internal/embed"
	"github.com/T-rav/hydra/internal/pkg/errors"
	"github.com/T-rav/hydra/internal/pkg/logger"
	"github.com/T-rav/hydra/internal/qdrant"
	"github.com/T-rav/hydra/internal/retrieval"
	"github.com/T-rav/hydra/internal/sparse"
)

// ChunkEvent is the bus payload for one chunk to index.
type ChunkEvent struct {
	Content  string             `json:"content"`
	Metadata retrieval.Metadata `json:"metadata"`
}

// DeleteEvent is the bus payload for removing a logical document.
type DeleteEvent struct {
	DocumentID string `json:"document_id"`
}

// Indexer consumes ingestion events and writes points to the store.
type Indexer struct {
	store      *qdrant.Client
	collection string
	embedder   embed.Embedder
	encoder    *sparse.Encoder
	log        *logger.Logger
}

// NewIndexer creates an indexer writing to the given collection.
func NewIndexer(store *qdrant.Client, collection string, embedder embed.Embedder, encoder *sparse.Encoder, log *logger.Logger) *Indexer {
	return &Indexer{
		store:      store,
		collection: collection,
		embedder:   embedder,
		encoder:    encoder,
		log:        log.WithStage("ingest"),
	}
}

// Start subscribes the indexer to the ingestion topics.
func (ix *Indexer) Start(ctx context.Context, b bus.Bus) error {
	if err := b.Subscribe(ctx, bus.TopicChunkIngest, ix.handleChunk); err != nil {
		return err
	}
	return b.Subscribe(ctx, bus.TopicDocumentDelete, ix.handleDelete)
}

func (ix *Indexer) handleChunk(ctx context.Context, event bus.Event) error {
	var ce ChunkEvent
	if err := event.DecodePayload(&ce); err != nil {
		return err
	}
	if ce.Content == "" {
		ix.log.Warn("dropping empty chunk", "event_id", event.ID)
		return nil
	}
	return ix.IndexChunk(ctx, ce)
}

// IndexChunk embeds and upserts one chunk. The point ID is derived from
// the chunk identity key so re-ingesting the same content updates the
// existing point instead of duplicating it.
func (ix *Indexer) IndexChunk(ctx context.Context, ce ChunkEvent) error {
	prepared := Prepare(ce.Content, ce.Metadata)

	denseVec, err := ix.embedder.Embed(ctx, prepared.DenseText)
	if err != nil {
		return errors.Wrap(errors.CodeIngest, "embedding chunk", err)
	}
	sparseVec := ix.encoder.Encode(prepared.SparseText)

	chunk := retrieval.Chunk{Content: ce.Content, Metadata: ce.Metadata}
	point := qdrant.Point{
		ID:            pointID(chunk.IdentityKey()),
		DenseVector:   denseVec,
		SparseIndices: sparseVec.Indices,
		SparseValues:  sparseVec.Values,
		Payload: qdrant.PointPayload{
			Content:     ce.Content,
			FileName:    ce.Metadata.FileName,
			Title:       ce.Metadata.Title,
			Source:      ce.Metadata.Source,
			WebViewLink: ce.Metadata.WebViewLink,
			DocumentID:  ce.Metadata.DocumentID,
			IngestedAt:  time.Now().UTC(),
		},
	}

	if err := ix.store.UpsertPoints(ctx, ix.collection, []qdrant.Point{point}); err != nil {
		return errors.Wrap(errors.CodeIngest, "upserting chunk", err)
	}

	ix.log.Debug("chunk indexed",
		"point_id", point.ID,
		"document_id", ce.Metadata.DocumentID,
		"sparse_terms", len(sparseVec.Indices))
	return nil
}

func (ix *Indexer) handleDelete(ctx context.Context, event bus.Event) error {
	var de DeleteEvent
	if err := event.DecodePayload(&de); err != nil {
		return err
	}
	if de.DocumentID == "" {
		ix.log.Warn("dropping delete event without document id", "event_id", event.ID)
		return nil
	}
	if err := ix.store.DeleteByDocument(ctx, ix.collection, de.DocumentID); err != nil {
		return errors.Wrap(errors.CodeIngest, "deleting document", err)
	}
	ix.log.Info("document deleted", "document_id", de.DocumentID)
	return nil
}

// pointID maps a chunk identity key onto a stable UUID, as required by
// the store's point ID format.
func pointID(identityKey string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(identityKey)).String()
}

// Producer publishes ingestion events.
type Producer struct {
	bus    bus.Bus
	source string
}

// NewProducer creates a producer that stamps events with the given
// source name.
func NewProducer(b bus.Bus, source string) *Producer {
	return &Producer{bus: b, source: source}
}

// PublishChunk emits one chunk for indexing.
func (p *Producer) PublishChunk(ctx context.Context, ce ChunkEvent) error {
	event, err := bus.NewEvent("chunk.ingest", p.source, ce)
	if err != nil {
		return err
	}
	return p.bus.Publish(ctx, bus.TopicChunkIngest, event)
}

// PublishDelete emits a document removal request.
func (p *Producer) PublishDelete(ctx context.Context, documentID string) error {
	event, err := bus.NewEvent("document.delete", p.source, DeleteEvent{DocumentID: documentID})
	if err != nil {
		return err
	}
	return p.bus.Publish(ctx, bus.TopicDocumentDelete, event)
}
