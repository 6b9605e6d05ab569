package rewrite

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/T-rav/hydra/internal/config"
	"github.com/T-rav/hydra/internal/llm"
	"github.com/T-rav/hydra/internal/pkg/errors"
	"github.com/T-rav/hydra/internal/pkg/logger"
	"github.com/T-rav/hydra/internal/retrieval"
)

// Rewriter rewrites queries ahead of retrieval. It never returns an
// error: every failure path degrades to the original query so a broken
// or unreachable LLM cannot take search down.
type Rewriter struct {
	llm          llm.Client
	enabled      bool
	historyTurns int
	timeout      time.Duration
	log          *logger.Logger
}

// New creates a Rewriter. A nil client disables rewriting regardless of
// configuration.
func New(client llm.Client, cfg config.RewriteConfig, log *logger.Logger) *Rewriter {
	timeout := time.Duration(cfg.LLMTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	turns := cfg.HistoryTurns
	if turns <= 0 {
		turns = 3
	}
	return &Rewriter{
		llm:          client,
		enabled:      cfg.Enabled && client != nil,
		historyTurns: turns,
		timeout:      timeout,
		log:          log,
	}
}

// Rewrite classifies the query and applies the matching strategy. The
// returned Result always carries the original query and a non-nil
// Filters map.
func (r *Rewriter) Rewrite(ctx context.Context, query string, history []retrieval.Message) Result {
	res := Result{
		Query:         query,
		OriginalQuery: query,
		Filters:       map[string]string{},
		Strategy:      StrategyPassthrough,
		Intent:        Intent{Type: IntentGeneral, Confidence: 0.5},
	}
	if !r.enabled {
		res.Strategy = StrategyDisabled
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	intent, err := r.classify(ctx, query, history)
	if err != nil {
		r.log.WithStage("rewrite").Warn("classification failed, using original query", "error", err)
		res.Strategy = StrategyErrorFallback
		return res
	}
	res.Intent = intent

	rewritten, filters, strategy, err := selectStrategy(intent)(ctx, r, query, intent)
	if err != nil {
		r.log.WithStage("rewrite").Warn("strategy failed, using original query",
			"strategy", string(strategy), "error", err)
		res.Strategy = StrategyErrorFallback
		return res
	}

	res.Query = rewritten
	res.Strategy = strategy
	for k, v := range filters {
		res.Filters[k] = v
	}
	for k, v := range timeFilters(intent.TimeRange) {
		res.Filters[k] = v
	}

	r.log.WithStage("rewrite").Debug("query rewritten",
		"intent", string(intent.Type),
		"confidence", intent.Confidence,
		"strategy", string(strategy),
		"filters", len(res.Filters))
	return res
}

// classify runs the single intent-classification call. Transport errors
// and unparseable responses both surface as errors so the caller can
// fall back to the original query.
func (r *Rewriter) classify(ctx context.Context, query string, history []retrieval.Message) (Intent, error) {
	raw, err := r.llm.CompleteJSON(ctx, buildClassifyPrompt(query, history, r.historyTurns))
	if err != nil {
		return Intent{}, err
	}
	return parseIntent(raw)
}

// parseIntent decodes the classifier response, tolerating prose around
// the JSON object. A decodable object with an unknown type or an
// out-of-range confidence is coerced to a low-confidence general intent
// rather than rejected.
func parseIntent(raw string) (Intent, error) {
	raw = strings.TrimSpace(raw)
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}

	var intent Intent
	if err := json.Unmarshal([]byte(raw), &intent); err != nil {
		return Intent{}, errors.Wrap(errors.CodeRewrite, "unparseable classification", err)
	}
	switch intent.Type {
	case IntentTeamAllocation, IntentProjectInfo, IntentClientInfo, IntentDocumentSearch, IntentGeneral:
	default:
		intent.Type = IntentGeneral
		intent.Confidence = 0.5
	}
	if intent.Confidence < 0 || intent.Confidence > 1 {
		intent.Confidence = 0.5
	}
	return intent, nil
}
