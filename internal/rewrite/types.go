// Package rewrite turns a raw user query into a search-ready query:
// one LLM call classifies intent, then an intent-keyed strategy rewrites
// the query and derives structured metadata filters.
package rewrite

// IntentType classifies what the user is asking about.
type IntentType string

// Intent types produced by classification.
const (
	IntentTeamAllocation IntentType = "team_allocation"
	IntentProjectInfo    IntentType = "project_info"
	IntentClientInfo     IntentType = "client_info"
	IntentDocumentSearch IntentType = "document_search"
	IntentGeneral        IntentType = "general"
)

// Strategy names the rewrite path that was taken.
type Strategy string

// Rewrite strategies.
const (
	// StrategyHyDE drafts a hypothetical answer document and searches
	// with that instead of the raw question, closing the lexical gap
	// between question and answer phrasing.
	StrategyHyDE Strategy = "hyde"

	// StrategySemantic expands the query with synonyms for detected
	// entities and attaches date-range filters.
	StrategySemantic Strategy = "semantic"

	// StrategyExpansion appends fixed document-search terms.
	StrategyExpansion Strategy = "expansion"

	// StrategyPassthrough returns the query unchanged.
	StrategyPassthrough Strategy = "passthrough"

	// StrategyDisabled means rewriting was turned off by configuration.
	StrategyDisabled Strategy = "disabled"

	// StrategyErrorFallback means an internal failure was absorbed and
	// the original query is used as-is.
	StrategyErrorFallback Strategy = "error_fallback"
)

// TimeRange bounds a query in time. Values are dates or RFC3339
// timestamps as returned by the classifier.
type TimeRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Intent is the classification of one query. It is produced once per
// query by a single LLM call and never mutated afterward.
type Intent struct {
	Type       IntentType `json:"type"`
	Entities   []string   `json:"entities,omitempty"`
	TimeRange  *TimeRange `json:"time_range,omitempty"`
	Confidence float64    `json:"confidence"`
}

// Result is the rewriter output. Filters is always non-nil.
type Result struct {
	// Query is the text the search phase should use.
	Query string `json:"query"`

	// OriginalQuery is the caller's untouched query.
	OriginalQuery string `json:"original_query"`

	// Filters are structured metadata filters for the adapters,
	// possibly empty but never nil.
	Filters map[string]string `json:"filters"`

	// Strategy names the rewrite path taken.
	Strategy Strategy `json:"strategy"`

	// Intent is the classification that drove strategy selection.
	Intent Intent `json:"intent"`
}
