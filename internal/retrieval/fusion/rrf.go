// Package fusion merges ranked provider lists with Reciprocal Rank Fusion.
package fusion

import (
	"sort"

	"github.com/T-rav/hydra/internal/retrieval"
)

const (
	// DefaultK is the RRF smoothing constant. Higher values flatten the
	// difference between high and low ranks.
	DefaultK = 60
)

// Config configures Reciprocal Rank Fusion.
type Config struct {
	// K is the smoothing constant (default: 60).
	K int

	// Weights maps provider name to its contribution weight.
	// Providers without an entry contribute with weight 1.0, which
	// yields the plain unweighted RRF sum.
	Weights map[string]float32
}

// DefaultConfig returns the default RRF configuration.
func DefaultConfig() Config {
	return Config{K: DefaultK}
}

// List is one provider's ranked result list.
type List struct {
	// Provider names the backend that produced the list.
	Provider string

	// Chunks are ordered best-first; position is the 1-based rank.
	Chunks []retrieval.Chunk
}

// ScoredResult is a fused result with its RRF score and per-provider ranks.
type ScoredResult struct {
	// Result carries the winning copy of the chunk plus fused rank.
	Result retrieval.Result

	// FusedScore is the summed RRF contribution.
	FusedScore float32

	// ProviderRanks maps provider name to the chunk's 1-based rank in
	// that provider's list (absent if the provider did not return it).
	ProviderRanks map[string]int
}

// Fuse combines ranked lists using RRF.
//
// For each chunk the fused score is the sum over all lists containing it
// of weight/(k + rank), rank 1-based. Chunks are identified by their
// content+source identity key. Ties break by the chunk's best raw
// similarity. If only one list is non-empty, fusion degenerates to
// pass-through with rank equal to original position.
func Fuse(lists []List, cfg Config) []ScoredResult {
	if cfg.K <= 0 {
		cfg.K = DefaultK
	}

	nonEmpty := make([]List, 0, len(lists))
	for _, l := range lists {
		if len(l.Chunks) > 0 {
			nonEmpty = append(nonEmpty, l)
		}
	}

	if len(nonEmpty) == 0 {
		return nil
	}
	if len(nonEmpty) == 1 {
		return passthrough(nonEmpty[0], cfg)
	}

	type entry struct {
		scored ScoredResult
		seen   int // first-seen order, final tie-break for determinism
	}

	entries := make(map[string]*entry)
	order := 0

	for _, list := range nonEmpty {
		weight := float32(1.0)
		if w, ok := cfg.Weights[list.Provider]; ok && w > 0 {
			weight = w
		}

		for i, chunk := range list.Chunks {
			rank := i + 1
			key := chunk.IdentityKey()

			e, ok := entries[key]
			if !ok {
				e = &entry{
					scored: ScoredResult{
						Result:        retrieval.Result{Chunk: chunk, Provider: list.Provider},
						ProviderRanks: make(map[string]int),
					},
					seen: order,
				}
				entries[key] = e
				order++
			}

			e.scored.ProviderRanks[list.Provider] = rank
			e.scored.FusedScore += weight / float32(cfg.K+rank)

			// The winning copy is the one with the highest raw similarity.
			if chunk.Similarity > e.scored.Result.Similarity {
				e.scored.Result.Chunk = chunk
				e.scored.Result.Provider = list.Provider
			}
		}
	}

	ordered := make([]*entry, 0, len(entries))
	for _, e := range entries {
		ordered = append(ordered, e)
	}

	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.scored.FusedScore != b.scored.FusedScore {
			return a.scored.FusedScore > b.scored.FusedScore
		}
		if a.scored.Result.Similarity != b.scored.Result.Similarity {
			return a.scored.Result.Similarity > b.scored.Result.Similarity
		}
		return a.seen < b.seen
	})

	results := make([]ScoredResult, len(ordered))
	for i, e := range ordered {
		e.scored.Result.Rank = i + 1
		results[i] = e.scored
	}

	return results
}

// passthrough converts a single list without rescoring; fused rank is the
// original position and the RRF score is computed for reporting only.
func passthrough(list List, cfg Config) []ScoredResult {
	results := make([]ScoredResult, len(list.Chunks))
	for i, chunk := range list.Chunks {
		rank := i + 1
		results[i] = ScoredResult{
			Result: retrieval.Result{
				Chunk:    chunk,
				Provider: list.Provider,
				Rank:     rank,
			},
			FusedScore:    1 / float32(cfg.K+rank),
			ProviderRanks: map[string]int{list.Provider: rank},
		}
	}
	return results
}
