package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/T-rav/hydra/internal/pkg/errors"
)

// RemoteEncoder calls a remote cross-encoder scoring service over HTTP.
type RemoteEncoder struct {
	url    string
	model  string
	client *http.Client
}

// NewRemoteEncoder creates a client for the given scoring endpoint.
func NewRemoteEncoder(url, model string, timeout time.Duration) *RemoteEncoder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteEncoder{
		url:   url,
		model: model,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type scoreRequest struct {
	Model     string   `json:"model,omitempty"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type scoreResponse struct {
	Scores []float32 `json:"scores"`
}

// Score implements CrossEncoder.
func (e *RemoteEncoder) Score(ctx context.Context, query string, documents []string) ([]float32, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(scoreRequest{
		Model:     e.model,
		Query:     query,
		Documents: documents,
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeRerank, "encoding score request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(errors.CodeRerank, "building score request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.CodeRerank, "calling rerank service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.New(errors.CodeRerank,
			fmt.Sprintf("rerank service returned %d: %s", resp.StatusCode, string(data)))
	}

	var parsed scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(errors.CodeRerank, "decoding score response", err)
	}

	if len(parsed.Scores) != len(documents) {
		return nil, errors.New(errors.CodeRerank,
			fmt.Sprintf("score count mismatch: sent %d documents, got %d scores",
				len(documents), len(parsed.Scores)))
	}

	return parsed.Scores, nil
}
