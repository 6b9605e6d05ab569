package rewrite

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/T-rav/hydra/internal/config"
	"github.com/T-rav/hydra/internal/pkg/logger"
	"github.com/T-rav/hydra/internal/retrieval"
)

type fakeLLM struct {
	jsonResp string
	jsonErr  error
	textResp string
	textErr  error
	calls    int
}

func (f *fakeLLM) Complete(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.textResp, f.textErr
}

func (f *fakeLLM) CompleteJSON(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.jsonResp, f.jsonErr
}

func testConfig() config.RewriteConfig {
	return config.RewriteConfig{Enabled: true, HistoryTurns: 3, LLMTimeoutSec: 5}
}

func TestRewriteDisabled(t *testing.T) {
	r := New(&fakeLLM{}, config.RewriteConfig{Enabled: false}, logger.Default())
	res := r.Rewrite(context.Background(), "who is on project atlas", nil)
	if res.Strategy != StrategyDisabled {
		t.Fatalf("strategy = %q, want %q", res.Strategy, StrategyDisabled)
	}
	if res.Query != "who is on project atlas" {
		t.Errorf("query changed while disabled: %q", res.Query)
	}
	if res.Filters == nil {
		t.Error("filters must not be nil")
	}
}

func TestRewriteNilClientDisables(t *testing.T) {
	r := New(nil, testConfig(), logger.Default())
	res := r.Rewrite(context.Background(), "anything", nil)
	if res.Strategy != StrategyDisabled {
		t.Fatalf("strategy = %q, want %q", res.Strategy, StrategyDisabled)
	}
}

func TestRewriteErrorFallback(t *testing.T) {
	queries := []string{"who is free next week", "", "budget for atlas?"}
	cases := []struct {
		name string
		llm  *fakeLLM
	}{
		{"llm error", &fakeLLM{jsonErr: errors.New("connection refused")}},
		{"invalid json", &fakeLLM{jsonResp: "I think this is a general question."}},
		{"truncated json", &fakeLLM{jsonResp: `{"type": "general",`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := New(tc.llm, testConfig(), logger.Default())
			for _, q := range queries {
				res := r.Rewrite(context.Background(), q, nil)
				if res.Strategy != StrategyErrorFallback {
					t.Errorf("q=%q: strategy = %q, want %q", q, res.Strategy, StrategyErrorFallback)
				}
				if res.Query != q {
					t.Errorf("q=%q: query = %q, want original", q, res.Query)
				}
				if len(res.Filters) != 0 {
					t.Errorf("q=%q: filters = %v, want empty", q, res.Filters)
				}
			}
		})
	}
}

func TestRewriteHyDE(t *testing.T) {
	llm := &fakeLLM{
		jsonResp: `{"type": "team_allocation", "entities": ["atlas"], "confidence": 0.9}`,
		textResp: "Dana Reyes is allocated 80% to project Atlas through Q3.",
	}
	r := New(llm, testConfig(), logger.Default())
	res := r.Rewrite(context.Background(), "who is on atlas", nil)

	if res.Strategy != StrategyHyDE {
		t.Fatalf("strategy = %q, want %q", res.Strategy, StrategyHyDE)
	}
	if res.Query != llm.textResp {
		t.Errorf("query = %q, want hypothetical document", res.Query)
	}
	if res.OriginalQuery != "who is on atlas" {
		t.Errorf("original query = %q", res.OriginalQuery)
	}
	if llm.calls != 2 {
		t.Errorf("llm calls = %d, want 2 (classify + hyde)", llm.calls)
	}
}

func TestRewriteHyDELowConfidence(t *testing.T) {
	llm := &fakeLLM{
		jsonResp: `{"type": "team_allocation", "confidence": 0.5}`,
	}
	r := New(llm, testConfig(), logger.Default())
	res := r.Rewrite(context.Background(), "who is on atlas", nil)

	if res.Strategy != StrategyPassthrough {
		t.Fatalf("strategy = %q, want passthrough below confidence gate", res.Strategy)
	}
	if llm.calls != 1 {
		t.Errorf("llm calls = %d, want 1 (no hyde call)", llm.calls)
	}
}

func TestRewriteHyDEFailureFallsBack(t *testing.T) {
	llm := &fakeLLM{
		jsonResp: `{"type": "team_allocation", "confidence": 0.95}`,
		textErr:  errors.New("model timeout"),
	}
	r := New(llm, testConfig(), logger.Default())
	res := r.Rewrite(context.Background(), "who is on atlas", nil)

	if res.Strategy != StrategyErrorFallback {
		t.Fatalf("strategy = %q, want %q", res.Strategy, StrategyErrorFallback)
	}
	if res.Query != "who is on atlas" {
		t.Errorf("query = %q, want original", res.Query)
	}
}

func TestRewriteSemantic(t *testing.T) {
	cases := []struct {
		name      string
		intent    string
		query     string
		wantTerms []string
	}{
		{
			name:      "project info expands synonyms",
			intent:    `{"type": "project_info", "confidence": 0.8}`,
			query:     "what is the budget for atlas",
			wantTerms: []string{"cost", "spend"},
		},
		{
			name:      "client info expands synonyms",
			intent:    `{"type": "client_info", "confidence": 0.8}`,
			query:     "client contract renewal",
			wantTerms: []string{"customer", "account", "agreement", "sow"},
		},
		{
			name:      "entity synonyms appended",
			intent:    `{"type": "project_info", "entities": ["timeline"], "confidence": 0.8}`,
			query:     "atlas dates",
			wantTerms: []string{"schedule", "deadline"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := New(&fakeLLM{jsonResp: tc.intent}, testConfig(), logger.Default())
			res := r.Rewrite(context.Background(), tc.query, nil)
			if res.Strategy != StrategySemantic {
				t.Fatalf("strategy = %q, want %q", res.Strategy, StrategySemantic)
			}
			for _, term := range tc.wantTerms {
				if !strings.Contains(res.Query, term) {
					t.Errorf("query %q missing expansion term %q", res.Query, term)
				}
			}
			if !strings.HasPrefix(res.Query, tc.query) {
				t.Errorf("query %q does not start with original", res.Query)
			}
		})
	}
}

func TestRewriteSemanticTimeFilters(t *testing.T) {
	llm := &fakeLLM{
		jsonResp: `{"type": "project_info", "time_range": {"start": "2026-01-01", "end": "2026-03-31"}, "confidence": 0.8}`,
	}
	r := New(llm, testConfig(), logger.Default())
	res := r.Rewrite(context.Background(), "atlas status last quarter", nil)

	if res.Filters["ingested_after"] == "" {
		t.Error("missing ingested_after filter")
	}
	if res.Filters["ingested_before"] == "" {
		t.Error("missing ingested_before filter")
	}
}

func TestRewriteExpansion(t *testing.T) {
	llm := &fakeLLM{jsonResp: `{"type": "document_search", "confidence": 0.8}`}
	r := New(llm, testConfig(), logger.Default())
	res := r.Rewrite(context.Background(), "atlas kickoff deck", nil)

	if res.Strategy != StrategyExpansion {
		t.Fatalf("strategy = %q, want %q", res.Strategy, StrategyExpansion)
	}
	for _, term := range documentTerms {
		if !strings.Contains(res.Query, term) {
			t.Errorf("query %q missing term %q", res.Query, term)
		}
	}
}

func TestRewritePassthrough(t *testing.T) {
	llm := &fakeLLM{jsonResp: `{"type": "general", "confidence": 0.9}`}
	r := New(llm, testConfig(), logger.Default())
	res := r.Rewrite(context.Background(), "hello there", nil)

	if res.Strategy != StrategyPassthrough {
		t.Fatalf("strategy = %q, want %q", res.Strategy, StrategyPassthrough)
	}
	if res.Query != "hello there" {
		t.Errorf("query = %q, want unchanged", res.Query)
	}
}

func TestParseIntent(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    IntentType
		wantErr bool
	}{
		{"clean object", `{"type": "project_info", "confidence": 0.8}`, IntentProjectInfo, false},
		{"prose around object", "Sure! ```json\n{\"type\": \"general\", \"confidence\": 0.6}\n```", IntentGeneral, false},
		{"unknown type coerced", `{"type": "weather", "confidence": 0.9}`, IntentGeneral, false},
		{"out of range confidence", `{"type": "general", "confidence": 7}`, IntentGeneral, false},
		{"empty", "", IntentGeneral, true},
		{"not json", "no structured output here", IntentGeneral, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			intent, err := parseIntent(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if intent.Type != tc.want {
				t.Errorf("type = %q, want %q", intent.Type, tc.want)
			}
			if intent.Confidence < 0 || intent.Confidence > 1 {
				t.Errorf("confidence %v out of range", intent.Confidence)
			}
		})
	}
}

func TestBuildClassifyPromptHistoryWindow(t *testing.T) {
	history := []retrieval.Message{
		{Role: "user", Content: "turn one"},
		{Role: "assistant", Content: "turn two"},
		{Role: "user", Content: "turn three"},
		{Role: "assistant", Content: "turn four"},
	}
	prompt := buildClassifyPrompt("and who approved it", history, 3)
	if strings.Contains(prompt, "turn one") {
		t.Error("prompt includes turn beyond the history window")
	}
	for _, want := range []string{"turn two", "turn three", "turn four"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
