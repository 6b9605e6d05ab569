package rerank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/T-rav/hydra/internal/pkg/logger"
	"github.com/T-rav/hydra/internal/retrieval"
)

type fakeEncoder struct {
	scores []float32
	err    error
	calls  int
}

func (f *fakeEncoder) Score(ctx context.Context, query string, docs []string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.scores, nil
}

func chunks(contents ...string) []retrieval.Chunk {
	out := make([]retrieval.Chunk, len(contents))
	for i, c := range contents {
		out[i] = retrieval.Chunk{Content: c, Similarity: float32(len(contents)-i) * 0.1}
	}
	return out
}

func contents(chunks []retrieval.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}

func TestRerank_ReordersByScore(t *testing.T) {
	enc := &fakeEncoder{scores: []float32{0.1, 0.9, 0.5}}
	r := New(enc, time.Second, logger.Default())

	in := chunks("a", "b", "c")
	got := r.Rerank(context.Background(), "q", in)

	if want := []string{"b", "c", "a"}; !reflect.DeepEqual(contents(got), want) {
		t.Errorf("order = %v, want %v", contents(got), want)
	}

	// Boosted similarities are retained untouched as fallback.
	for _, c := range got {
		for _, orig := range in {
			if c.Content == orig.Content && c.Similarity != orig.Similarity {
				t.Errorf("similarity for %s changed: %f -> %f", c.Content, orig.Similarity, c.Similarity)
			}
		}
	}
}

func TestRerank_FailOpen(t *testing.T) {
	tests := []struct {
		name string
		enc  *fakeEncoder
	}{
		{"remote error", &fakeEncoder{err: fmt.Errorf("connection refused")}},
		{"misaligned scores", &fakeEncoder{scores: []float32{0.5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.enc, time.Second, logger.Default())
			in := chunks("a", "b", "c")

			got := r.Rerank(context.Background(), "q", in)

			if !reflect.DeepEqual(contents(got), contents(in)) {
				t.Errorf("fail-open must preserve input order: got %v", contents(got))
			}
		})
	}
}

func TestRerank_DisabledWhenUnconfigured(t *testing.T) {
	r := New(nil, time.Second, logger.Default())

	if r.Enabled() {
		t.Error("reranker without encoder should report disabled")
	}

	in := chunks("a", "b")
	got := r.Rerank(context.Background(), "q", in)
	if !reflect.DeepEqual(contents(got), contents(in)) {
		t.Error("disabled reranker must pass input through")
	}
}

func TestRerank_EmptyInput(t *testing.T) {
	enc := &fakeEncoder{scores: nil}
	r := New(enc, time.Second, logger.Default())

	got := r.Rerank(context.Background(), "q", nil)
	if len(got) != 0 {
		t.Errorf("expected empty output, got %d", len(got))
	}
	if enc.calls != 0 {
		t.Error("encoder should not be called for empty input")
	}
}

func TestRemoteEncoder_Score(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req scoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Query != "q" || len(req.Documents) != 2 {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(scoreResponse{Scores: []float32{0.2, 0.8}})
	}))
	defer srv.Close()

	enc := NewRemoteEncoder(srv.URL, "cross-encoder-v1", time.Second)
	scores, err := enc.Score(context.Background(), "q", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Score() failed: %v", err)
	}
	if len(scores) != 2 || scores[1] != 0.8 {
		t.Errorf("scores = %v", scores)
	}
}

func TestRemoteEncoder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model overloaded", http.StatusInternalServerError)
			},
		},
		{
			name: "score count mismatch",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(scoreResponse{Scores: []float32{0.1}})
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "not json")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			enc := NewRemoteEncoder(srv.URL, "", time.Second)
			if _, err := enc.Score(context.Background(), "q", []string{"a", "b"}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
