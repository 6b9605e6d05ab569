// Package sparse produces lexical term-weight vectors for the sparse
// (BM25-style) index. The encoding is deterministic so the query side and
// the ingestion side always agree on term identity.
package sparse

import (
	"hash/fnv"
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9][a-z0-9_'-]*`)

// Vector is a sparse term-weight vector in index/value form.
type Vector struct {
	Indices []uint32
	Values  []float32
}

// Encoder turns text into sparse vectors.
type Encoder struct {
	minTokenLen int
	maxTerms    int
}

// NewEncoder creates an encoder. maxTerms caps vector size, keeping the
// heaviest terms (0 = unlimited).
func NewEncoder(maxTerms int) *Encoder {
	return &Encoder{
		minTokenLen: 2,
		maxTerms:    maxTerms,
	}
}

// Encode produces a sparse vector: lower-case word tokens hashed to
// 32-bit term ids with log-scaled term-frequency weights.
func (e *Encoder) Encode(text string) Vector {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)

	freq := make(map[uint32]float32)
	for _, tok := range tokens {
		if len(tok) < e.minTokenLen {
			continue
		}
		freq[termID(tok)]++
	}

	if len(freq) == 0 {
		return Vector{}
	}

	type term struct {
		id     uint32
		weight float32
	}

	terms := make([]term, 0, len(freq))
	for id, tf := range freq {
		terms = append(terms, term{
			id:     id,
			weight: float32(1 + math.Log(float64(tf))),
		})
	}

	if e.maxTerms > 0 && len(terms) > e.maxTerms {
		sort.Slice(terms, func(i, j int) bool {
			if terms[i].weight != terms[j].weight {
				return terms[i].weight > terms[j].weight
			}
			return terms[i].id < terms[j].id
		})
		terms = terms[:e.maxTerms]
	}

	// Qdrant expects indices in ascending order.
	sort.Slice(terms, func(i, j int) bool {
		return terms[i].id < terms[j].id
	})

	v := Vector{
		Indices: make([]uint32, len(terms)),
		Values:  make([]float32, len(terms)),
	}
	for i, t := range terms {
		v.Indices[i] = t.id
		v.Values[i] = t.weight
	}
	return v
}

// termID hashes a token to a stable 32-bit vocabulary id.
func termID(token string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(token))
	return h.Sum32()
}
