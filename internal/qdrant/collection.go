package qdrant

import (
	"context"
	"fmt"
	"strings"

	"github.com/qdrant/go-client/qdrant"
)

// CreateCollection creates a collection with named dense and sparse
// vectors. It is a no-op if the collection already exists.
func (c *Client) CreateCollection(ctx context.Context, cfg CollectionConfig) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	name := collectionName(cfg.Name)

	exists, err := c.collectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = c.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			"dense": {
				Size:     cfg.DenseVectorSize,
				Distance: qdrant.Distance_Cosine,
			},
		}),
		SparseVectorsConfig: &qdrant.SparseVectorConfig{
			Map: map[string]*qdrant.SparseVectorParams{
				"sparse": {
					Index: &qdrant.SparseIndexConfig{
						OnDisk: qdrant.PtrOf(false),
					},
				},
			},
		},
		OnDiskPayload: qdrant.PtrOf(cfg.OnDiskPayload),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	if err := c.createPayloadIndexes(ctx, name); err != nil {
		return fmt.Errorf("failed to create payload indexes: %w", err)
	}

	return nil
}

// createPayloadIndexes creates indexes on payload fields used by filters.
func (c *Client) createPayloadIndexes(ctx context.Context, collectionName string) error {
	indexes := []struct {
		field  string
		schema qdrant.FieldType
	}{
		{"file_name", qdrant.FieldType_FieldTypeKeyword},
		{"source", qdrant.FieldType_FieldTypeKeyword},
		{"document_id", qdrant.FieldType_FieldTypeKeyword},
		{"ingested_at", qdrant.FieldType_FieldTypeDatetime},
	}

	for _, idx := range indexes {
		_, err := c.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: collectionName,
			FieldName:      idx.field,
			FieldType:      qdrant.PtrOf(idx.schema),
		})
		if err != nil {
			// Index might already exist, which is fine
			if !strings.Contains(err.Error(), "already exists") {
				return fmt.Errorf("failed to create index on %s: %w", idx.field, err)
			}
		}
	}

	return nil
}

// CollectionExists reports whether the named collection exists.
func (c *Client) CollectionExists(ctx context.Context, name string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false, fmt.Errorf("client is closed")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	return c.collectionExists(ctx, collectionName(name))
}

func (c *Client) collectionExists(ctx context.Context, fullName string) (bool, error) {
	exists, err := c.client.CollectionExists(ctx, fullName)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// DeleteCollection deletes a collection.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	if err := c.client.DeleteCollection(ctx, collectionName(name)); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}

	return nil
}
