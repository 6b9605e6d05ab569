package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// DenseSearch performs a dense-only vector search.
func (c *Client) DenseSearch(ctx context.Context, collection string, req SearchRequest) ([]SearchResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("client is closed")
	}

	if len(req.DenseVector) == 0 {
		return nil, fmt.Errorf("dense vector is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	limit := req.Limit
	if limit == 0 {
		limit = 20
	}

	queryPoints := &qdrant.QueryPoints{
		CollectionName: collectionName(collection),
		Query:          qdrant.NewQueryDense(req.DenseVector),
		Using:          qdrant.PtrOf("dense"),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
	}

	if req.Filter != nil {
		queryPoints.Filter = buildSearchFilter(req.Filter)
	}

	if req.ScoreThreshold != nil {
		queryPoints.ScoreThreshold = req.ScoreThreshold
	}

	results, err := c.client.Query(ctx, queryPoints)
	if err != nil {
		return nil, fmt.Errorf("dense search failed: %w", err)
	}

	return scoredPointsToResults(results), nil
}

// SparseSearch performs a sparse-only vector search.
func (c *Client) SparseSearch(ctx context.Context, collection string, req SearchRequest) ([]SearchResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("client is closed")
	}

	if len(req.SparseIndices) == 0 || len(req.SparseValues) == 0 {
		return nil, fmt.Errorf("sparse indices and values are required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	limit := req.Limit
	if limit == 0 {
		limit = 20
	}

	queryPoints := &qdrant.QueryPoints{
		CollectionName: collectionName(collection),
		Query:          qdrant.NewQuerySparse(req.SparseIndices, req.SparseValues),
		Using:          qdrant.PtrOf("sparse"),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
	}

	if req.Filter != nil {
		queryPoints.Filter = buildSearchFilter(req.Filter)
	}

	if req.ScoreThreshold != nil {
		queryPoints.ScoreThreshold = req.ScoreThreshold
	}

	results, err := c.client.Query(ctx, queryPoints)
	if err != nil {
		return nil, fmt.Errorf("sparse search failed: %w", err)
	}

	return scoredPointsToResults(results), nil
}

// buildSearchFilter builds a Qdrant filter from SearchFilter.
func buildSearchFilter(f *SearchFilter) *qdrant.Filter {
	if f == nil {
		return nil
	}

	var conditions []*qdrant.Condition

	if f.Source != "" {
		conditions = append(conditions, keywordCondition("source", f.Source))
	}
	if f.FileName != "" {
		conditions = append(conditions, keywordCondition("file_name", f.FileName))
	}
	if f.DocumentID != "" {
		conditions = append(conditions, keywordCondition("document_id", f.DocumentID))
	}

	if f.IngestedAfter != nil || f.IngestedBefore != nil {
		rng := &qdrant.DatetimeRange{}
		if f.IngestedAfter != nil {
			rng.Gte = timestamppb.New(*f.IngestedAfter)
		}
		if f.IngestedBefore != nil {
			rng.Lte = timestamppb.New(*f.IngestedBefore)
		}
		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key:           "ingested_at",
					DatetimeRange: rng,
				},
			},
		})
	}

	if len(conditions) == 0 {
		return nil
	}

	return &qdrant.Filter{
		Must: conditions,
	}
}

// keywordCondition builds an exact-match condition on a keyword field.
func keywordCondition(key, value string) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key: key,
				Match: &qdrant.Match{
					MatchValue: &qdrant.Match_Keyword{
						Keyword: value,
					},
				},
			},
		},
	}
}

// scoredPointsToResults converts Qdrant scored points to SearchResults.
func scoredPointsToResults(points []*qdrant.ScoredPoint) []SearchResult {
	results := make([]SearchResult, 0, len(points))
	for _, p := range points {
		results = append(results, scoredPointToResult(p))
	}
	return results
}

// scoredPointToResult converts a single scored point.
func scoredPointToResult(p *qdrant.ScoredPoint) SearchResult {
	var id string
	switch v := p.Id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		id = v.Uuid
	case *qdrant.PointId_Num:
		id = fmt.Sprintf("%d", v.Num)
	}

	return SearchResult{
		ID:      id,
		Score:   p.Score,
		Payload: extractPayload(p.Payload),
	}
}

// extractPayload extracts PointPayload from the Qdrant payload map.
func extractPayload(payload map[string]*qdrant.Value) PointPayload {
	result := PointPayload{
		Content:     getStringValue(payload, "content"),
		FileName:    getStringValue(payload, "file_name"),
		Title:       getStringValue(payload, "title"),
		Source:      getStringValue(payload, "source"),
		WebViewLink: getStringValue(payload, "web_view_link"),
		DocumentID:  getStringValue(payload, "document_id"),
	}

	if v := getStringValue(payload, "ingested_at"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			result.IngestedAt = t
		}
	}

	return result
}

func getStringValue(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		if sv, ok := v.Kind.(*qdrant.Value_StringValue); ok {
			return sv.StringValue
		}
	}
	return ""
}
