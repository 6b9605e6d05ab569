package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
)

// UpsertPoints inserts or updates points in a collection.
func (c *Client) UpsertPoints(ctx context.Context, collection string, points []Point) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}

	if len(points) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	qdrantPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		qdrantPoints = append(qdrantPoints, pointToQdrant(p))
	}

	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName(collection),
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}

	return nil
}

// pointToQdrant converts a Point to a Qdrant PointStruct with named
// dense and sparse vectors.
func pointToQdrant(p Point) *qdrant.PointStruct {
	payload := map[string]any{
		"content":   p.Payload.Content,
		"file_name": p.Payload.FileName,
	}
	if p.Payload.Title != "" {
		payload["title"] = p.Payload.Title
	}
	if p.Payload.Source != "" {
		payload["source"] = p.Payload.Source
	}
	if p.Payload.WebViewLink != "" {
		payload["web_view_link"] = p.Payload.WebViewLink
	}
	if p.Payload.DocumentID != "" {
		payload["document_id"] = p.Payload.DocumentID
	}
	if !p.Payload.IngestedAt.IsZero() {
		payload["ingested_at"] = p.Payload.IngestedAt.Format(time.RFC3339)
	}

	vectors := &qdrant.Vectors{
		VectorsOptions: &qdrant.Vectors_Vectors{
			Vectors: &qdrant.NamedVectors{
				Vectors: map[string]*qdrant.Vector{
					"dense": {
						Data: p.DenseVector,
					},
					"sparse": {
						Data:    p.SparseValues,
						Indices: &qdrant.SparseIndices{Data: p.SparseIndices},
					},
				},
			},
		},
	}

	return &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(p.ID),
		Vectors: vectors,
		Payload: qdrant.NewValueMap(payload),
	}
}

// DeleteByDocument removes every chunk of a logical document, used when
// a source document is re-ingested.
func (c *Client) DeleteByDocument(ctx context.Context, collection, documentID string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}
	if documentID == "" {
		return fmt.Errorf("document id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	_, err := c.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collectionName(collection),
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{
						keywordCondition("document_id", documentID),
					},
				},
			},
		},
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}

	return nil
}
