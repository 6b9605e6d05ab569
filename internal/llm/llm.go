// Package llm provides the chat-model client used for query intent
// classification and hypothetical-document generation.
package llm

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/T-rav/hydra/internal/config"
	"github.com/T-rav/hydra/internal/pkg/errors"
	"github.com/T-rav/hydra/internal/pkg/logger"
	"github.com/T-rav/hydra/internal/pkg/ratelimit"
)

// Client completes prompts against a chat model.
type Client interface {
	// Complete returns free-form text for a prompt.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteJSON returns a response constrained to a single JSON object.
	CompleteJSON(ctx context.Context, prompt string) (string, error)
}

// OpenAIClient is a Client backed by an OpenAI-compatible chat API.
type OpenAIClient struct {
	model       llms.Model
	temperature float64
	timeout     time.Duration
	limiter     *ratelimit.Limiter
	log         *logger.Logger
}

// NewOpenAIClient creates a client from configuration. A "none" token is
// used for local OpenAI-compatible services without authentication.
func NewOpenAIClient(cfg config.LLMConfig, log *logger.Logger) (*OpenAIClient, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}
	opts = append(opts, openai.WithToken(token))

	model, err := openai.New(opts...)
	if err != nil {
		return nil, errors.Wrap(errors.CodeLLM, "creating chat client", err)
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &OpenAIClient{
		model:       model,
		temperature: cfg.Temperature,
		timeout:     timeout,
		limiter:     ratelimit.New(ratelimit.Config{RequestsPerSecond: cfg.RPS}),
		log:         log,
	}, nil
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, false)
}

// CompleteJSON implements Client.
func (c *OpenAIClient) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, true)
}

func (c *OpenAIClient) generate(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	if err := c.limiter.Wait(ctx, "llm"); err != nil {
		return "", errors.Wrap(errors.CodeLLM, "rate limit wait", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	callOpts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if jsonMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", errors.Wrap(errors.CodeLLM, "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.CodeLLM, "chat model returned no choices")
	}

	c.log.Debug("chat completion",
		"json_mode", jsonMode,
		"latency_ms", time.Since(start).Milliseconds(),
		"prompt_len", len(prompt))

	return resp.Choices[0].Content, nil
}
