// Package boost adjusts similarity scores by lexical overlap with query
// entities. It layers a literal-mention signal on top of vector
// similarity; it never replaces it.
package boost

import (
	"regexp"
	"sort"
	"strings"

	"github.com/T-rav/hydra/internal/retrieval"
)

var wordPattern = regexp.MustCompile(`[a-z0-9][a-z0-9_'-]*`)

// stopWords are dropped during entity extraction: articles, pronouns,
// prepositions, modal verbs, and question words.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {},
	"i": {}, "me": {}, "my": {}, "we": {}, "us": {}, "our": {},
	"you": {}, "your": {}, "he": {}, "him": {}, "his": {},
	"she": {}, "her": {}, "it": {}, "its": {}, "they": {}, "them": {}, "their": {},
	"this": {}, "that": {}, "these": {}, "those": {},
	"who": {}, "whom": {}, "whose": {}, "which": {}, "what": {},
	"when": {}, "where": {}, "why": {}, "how": {},
	"is": {}, "am": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"do": {}, "does": {}, "did": {}, "have": {}, "has": {}, "had": {},
	"can": {}, "could": {}, "will": {}, "would": {}, "shall": {}, "should": {},
	"may": {}, "might": {}, "must": {},
	"and": {}, "or": {}, "but": {}, "not": {}, "no": {},
	"of": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "from": {},
	"with": {}, "about": {}, "by": {}, "as": {}, "if": {}, "then": {}, "than": {},
	"so": {}, "any": {}, "all": {}, "some": {}, "there": {},
	"tell": {}, "show": {}, "find": {}, "give": {}, "get": {}, "please": {},
}

// ExtractEntities pulls significant terms out of a query: lower-case,
// word-boundary tokenize, drop stop words, dedupe preserving order.
func ExtractEntities(query string) []string {
	tokens := wordPattern.FindAllString(strings.ToLower(query), -1)

	seen := make(map[string]struct{}, len(tokens))
	entities := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if len(tok) < 2 {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		entities = append(entities, tok)
	}

	return entities
}

// Config holds the boost weights.
type Config struct {
	// ContentBoost is added per entity found in chunk content.
	ContentBoost float32

	// TitleBoost is added per entity found in the title or file name.
	// Typically larger than ContentBoost.
	TitleBoost float32
}

// Apply boosts chunk similarities by entity overlap with the query and
// re-sorts descending by the boosted score. It is a pure transform: the
// input slice is not modified and no chunk is removed.
//
// Boosting is one-shot: the base score is the chunk's original
// similarity, so applying Apply twice with the same query yields the
// same scores, not doubled ones.
func Apply(query string, chunks []retrieval.Chunk, cfg Config) []retrieval.Chunk {
	entities := ExtractEntities(query)

	boosted := make([]retrieval.Chunk, len(chunks))
	for i, c := range chunks {
		boosted[i] = boostChunk(c, entities, cfg)
	}

	sort.SliceStable(boosted, func(i, j int) bool {
		return boosted[i].Similarity > boosted[j].Similarity
	})

	return boosted
}

func boostChunk(c retrieval.Chunk, entities []string, cfg Config) retrieval.Chunk {
	base := c.Similarity
	if c.Boost != nil {
		base = c.Boost.OriginalSimilarity
	}

	if len(entities) == 0 {
		c.Similarity = base
		c.Boost = &retrieval.Boost{OriginalSimilarity: base}
		return c
	}

	content := strings.ToLower(c.Content)
	title := strings.ToLower(c.Metadata.Title)
	fileName := strings.ToLower(c.Metadata.FileName)

	var total float32
	var matched []string
	for _, entity := range entities {
		hit := false
		if strings.Contains(content, entity) {
			total += cfg.ContentBoost
			hit = true
		}
		if strings.Contains(title, entity) || strings.Contains(fileName, entity) {
			total += cfg.TitleBoost
			hit = true
		}
		if hit {
			matched = append(matched, entity)
		}
	}

	score := base + total
	if score > 1.0 {
		score = 1.0
	}

	c.Similarity = score
	c.Boost = &retrieval.Boost{
		EntityBoost:        total,
		MatchingEntities:   matched,
		OriginalSimilarity: base,
	}
	return c
}
