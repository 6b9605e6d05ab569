// Package diversify caps per-document representation so one document
// cannot dominate the final context window.
package diversify

import (
	"strconv"

	"github.com/T-rav/hydra/internal/retrieval"
)

// Strategy names selectable by configuration.
const (
	// StrategySmart admits chunks in similarity order under a
	// per-document cap. This is the default.
	StrategySmart = "smart"

	// StrategyDocFirst guarantees one slot per unique document before
	// filling the remainder by similarity.
	StrategyDocFirst = "docfirst"

	// StrategyRoundRobin cycles through documents taking one chunk per
	// pass.
	StrategyRoundRobin = "roundrobin"
)

// Func diversifies a similarity-ordered chunk list.
type Func func(chunks []retrieval.Chunk, maxResults, maxPerDocument int) []retrieval.Chunk

var strategies = map[string]Func{
	StrategySmart:      smart,
	StrategyDocFirst:   docFirst,
	StrategyRoundRobin: roundRobin,
}

// ForStrategy returns the diversification function for the named
// strategy, falling back to smart for unknown names.
func ForStrategy(name string) Func {
	if fn, ok := strategies[name]; ok {
		return fn
	}
	return smart
}

// smart iterates chunks in incoming (similarity) order and admits each
// unless its document has reached maxPerDocument. Chunks without a
// document identifier are never capped.
func smart(chunks []retrieval.Chunk, maxResults, maxPerDocument int) []retrieval.Chunk {
	if maxResults <= 0 {
		return []retrieval.Chunk{}
	}

	perDoc := make(map[string]int)
	out := make([]retrieval.Chunk, 0, min(maxResults, len(chunks)))

	for _, c := range chunks {
		if len(out) >= maxResults {
			break
		}

		doc := c.DocumentKey()
		if doc != "" && maxPerDocument > 0 {
			if perDoc[doc] >= maxPerDocument {
				continue
			}
			perDoc[doc]++
		}

		out = append(out, c)
	}

	return out
}

// docFirst gives every unique document one slot in similarity order,
// then fills the remainder with the best leftover chunks under the cap.
func docFirst(chunks []retrieval.Chunk, maxResults, maxPerDocument int) []retrieval.Chunk {
	if maxResults <= 0 {
		return []retrieval.Chunk{}
	}

	perDoc := make(map[string]int)
	taken := make([]bool, len(chunks))
	out := make([]retrieval.Chunk, 0, min(maxResults, len(chunks)))

	// First pass: one chunk per document.
	for i, c := range chunks {
		if len(out) >= maxResults {
			return out
		}
		doc := c.DocumentKey()
		if doc == "" {
			continue
		}
		if perDoc[doc] == 0 {
			perDoc[doc] = 1
			taken[i] = true
			out = append(out, c)
		}
	}

	// Second pass: fill with remaining chunks by similarity, still
	// honoring the cap; undocumented chunks are uncapped.
	for i, c := range chunks {
		if len(out) >= maxResults {
			break
		}
		if taken[i] {
			continue
		}
		doc := c.DocumentKey()
		if doc != "" && maxPerDocument > 0 && perDoc[doc] >= maxPerDocument {
			continue
		}
		if doc != "" {
			perDoc[doc]++
		}
		out = append(out, c)
	}

	return out
}

// roundRobin groups chunks by document (order of first appearance) and
// cycles through the groups taking one chunk per pass. Undocumented
// chunks form their own single-chunk groups so they keep similarity
// order among themselves.
func roundRobin(chunks []retrieval.Chunk, maxResults, maxPerDocument int) []retrieval.Chunk {
	if maxResults <= 0 {
		return []retrieval.Chunk{}
	}

	var groupOrder []string
	groups := make(map[string][]retrieval.Chunk)
	anonID := 0

	for _, c := range chunks {
		doc := c.DocumentKey()
		if doc == "" {
			// Synthetic singleton group; never capped, never grouped.
			doc = "\x00anon\x00" + strconv.Itoa(anonID)
			anonID++
		}
		if _, ok := groups[doc]; !ok {
			groupOrder = append(groupOrder, doc)
		}
		groups[doc] = append(groups[doc], c)
	}

	out := make([]retrieval.Chunk, 0, min(maxResults, len(chunks)))
	for pass := 0; len(out) < maxResults; pass++ {
		advanced := false
		for _, doc := range groupOrder {
			if len(out) >= maxResults {
				break
			}
			group := groups[doc]
			if pass >= len(group) {
				continue
			}
			if maxPerDocument > 0 && pass >= maxPerDocument {
				continue
			}
			out = append(out, group[pass])
			advanced = true
		}
		if !advanced {
			break
		}
	}

	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
