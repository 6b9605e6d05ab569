package rewrite

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// strategyFunc rewrites a query for one intent. It returns the rewritten
// query and any strategy-specific filters; time-range filters from the
// intent are merged in by the caller.
type strategyFunc func(ctx context.Context, r *Rewriter, query string, intent Intent) (string, map[string]string, Strategy, error)

// hydeConfidence gates HyDE: below this the classification is too
// uncertain to justify synthesizing a hypothetical document.
const hydeConfidence = 0.7

// strategies maps intent type to rewrite behavior. Unknown types fall
// through to passthrough in selectStrategy.
var strategies = map[IntentType]strategyFunc{
	IntentTeamAllocation: rewriteHyDE,
	IntentProjectInfo:    rewriteSemantic,
	IntentClientInfo:     rewriteSemantic,
	IntentDocumentSearch: rewriteExpansion,
	IntentGeneral:        rewritePassthrough,
}

// synonyms expands common workspace vocabulary so lexical retrieval
// matches records that phrase the same concept differently.
var synonyms = map[string][]string{
	"project":    {"initiative", "engagement"},
	"client":     {"customer", "account"},
	"budget":     {"cost", "spend"},
	"timeline":   {"schedule", "deadline"},
	"status":     {"progress", "update"},
	"team":       {"staff", "squad"},
	"allocation": {"assignment", "staffing"},
	"contract":   {"agreement", "sow"},
	"meeting":    {"call", "sync"},
	"revenue":    {"billing", "invoice"},
}

// documentTerms are appended for document_search intents so chunks from
// file-like records rank above conversational ones.
var documentTerms = []string{"document", "file", "report", "attachment"}

func selectStrategy(intent Intent) strategyFunc {
	fn, ok := strategies[intent.Type]
	if !ok {
		return rewritePassthrough
	}
	// HyDE costs an extra LLM call; require a confident classification.
	if intent.Type == IntentTeamAllocation && intent.Confidence <= hydeConfidence {
		return rewritePassthrough
	}
	return fn
}

func rewriteHyDE(ctx context.Context, r *Rewriter, query string, _ Intent) (string, map[string]string, Strategy, error) {
	doc, err := r.llm.Complete(ctx, fmt.Sprintf(hydePrompt, query))
	if err != nil {
		return "", nil, StrategyHyDE, err
	}
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return query, nil, StrategyPassthrough, nil
	}
	return doc, nil, StrategyHyDE, nil
}

func rewriteSemantic(_ context.Context, _ *Rewriter, query string, intent Intent) (string, map[string]string, Strategy, error) {
	expanded := expandSynonyms(query)
	for _, e := range intent.Entities {
		for _, syn := range synonyms[strings.ToLower(e)] {
			if !strings.Contains(strings.ToLower(expanded), syn) {
				expanded += " " + syn
			}
		}
	}
	return expanded, nil, StrategySemantic, nil
}

func rewriteExpansion(_ context.Context, _ *Rewriter, query string, _ Intent) (string, map[string]string, Strategy, error) {
	expanded := query
	lower := strings.ToLower(query)
	for _, term := range documentTerms {
		if !strings.Contains(lower, term) {
			expanded += " " + term
		}
	}
	return expanded, nil, StrategyExpansion, nil
}

func rewritePassthrough(_ context.Context, _ *Rewriter, query string, _ Intent) (string, map[string]string, Strategy, error) {
	return query, nil, StrategyPassthrough, nil
}

// expandSynonyms appends synonyms for any table word present in the
// query, each at most once. Iteration over the table is sorted so the
// expanded query is deterministic for a given input.
func expandSynonyms(query string) string {
	lower := strings.ToLower(query)
	expanded := query
	words := make([]string, 0, len(synonyms))
	for w := range synonyms {
		words = append(words, w)
	}
	sort.Strings(words)
	for _, word := range words {
		if !strings.Contains(lower, word) {
			continue
		}
		for _, syn := range synonyms[word] {
			if !strings.Contains(strings.ToLower(expanded), syn) {
				expanded += " " + syn
			}
		}
	}
	return expanded
}

// timeFilters converts a classifier time range into adapter filter keys.
// Unparseable bounds are dropped rather than surfaced.
func timeFilters(tr *TimeRange) map[string]string {
	if tr == nil {
		return nil
	}
	out := map[string]string{}
	if t, ok := parseTime(tr.Start); ok {
		out["ingested_after"] = t.Format(time.RFC3339)
	}
	if t, ok := parseTime(tr.End); ok {
		out["ingested_before"] = t.Format(time.RFC3339)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
