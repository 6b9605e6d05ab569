// Package embed provides the embedding provider and its cache.
package embed

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/T-rav/hydra/internal/config"
	"github.com/T-rav/hydra/internal/pkg/errors"
	"github.com/T-rav/hydra/internal/pkg/logger"
)

// Embedder returns a fixed-length vector for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder is an Embedder backed by an OpenAI-compatible API.
type OpenAIEmbedder struct {
	embedder embeddings.Embedder
	timeout  time.Duration
	log      *logger.Logger
}

// NewOpenAIEmbedder creates an embedder from configuration.
func NewOpenAIEmbedder(cfg config.EmbeddingConfig, log *logger.Logger) (*OpenAIEmbedder, error) {
	opts := []openai.Option{
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}
	opts = append(opts, openai.WithToken(token))

	client, err := openai.New(opts...)
	if err != nil {
		return nil, errors.Wrap(errors.CodeEmbedding, "creating embedding client", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, errors.Wrap(errors.CodeEmbedding, "creating embedder", err)
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &OpenAIEmbedder{
		embedder: embedder,
		timeout:  timeout,
		log:      log,
	}, nil
}

// Embed implements Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, errors.EmbeddingError(err)
	}
	if len(vectors) == 0 {
		return nil, errors.New(errors.CodeEmbedding, "embedding provider returned no vectors")
	}

	return vectors[0], nil
}
