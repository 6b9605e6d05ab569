package ingest

import (
	"strings"
	"testing"

	"github.com/T-rav/hydra/internal/retrieval"
)

func TestPrepare(t *testing.T) {
	cases := []struct {
		name      string
		content   string
		meta      retrieval.Metadata
		wantDense string
	}{
		{
			name:      "title injected into dense copy",
			content:   "Q3 staffing is at 85% utilization.",
			meta:      retrieval.Metadata{Title: "Q3 Capacity Report"},
			wantDense: "Title: Q3 Capacity Report\n\nQ3 staffing is at 85% utilization.",
		},
		{
			name:      "filename used when title empty",
			content:   "Budget line items follow.",
			meta:      retrieval.Metadata{FileName: "atlas-budget.xlsx"},
			wantDense: "Title: atlas-budget.xlsx\n\nBudget line items follow.",
		},
		{
			name:      "no title leaves content untouched",
			content:   "Standalone note.",
			meta:      retrieval.Metadata{},
			wantDense: "Standalone note.",
		},
		{
			name:      "already injected content not doubled",
			content:   "Title: Existing\n\nBody text.",
			meta:      retrieval.Metadata{Title: "Existing"},
			wantDense: "Title: Existing\n\nBody text.",
		},
		{
			name:      "whitespace title ignored",
			content:   "Body.",
			meta:      retrieval.Metadata{Title: "   "},
			wantDense: "Body.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Prepare(tc.content, tc.meta)
			if p.DenseText != tc.wantDense {
				t.Errorf("dense = %q, want %q", p.DenseText, tc.wantDense)
			}
			if p.SparseText != tc.content {
				t.Errorf("sparse = %q, want raw content", p.SparseText)
			}
		})
	}
}

func TestPointIDStable(t *testing.T) {
	chunk := retrieval.Chunk{
		Content:  "Dana is allocated to Atlas.",
		Metadata: retrieval.Metadata{DocumentID: "doc-7"},
	}
	a := pointID(chunk.IdentityKey())
	b := pointID(chunk.IdentityKey())
	if a != b {
		t.Fatalf("point id not stable: %q vs %q", a, b)
	}
	if len(strings.Split(a, "-")) != 5 {
		t.Errorf("point id %q is not a UUID", a)
	}

	other := retrieval.Chunk{
		Content:  "Dana is allocated to Atlas.",
		Metadata: retrieval.Metadata{DocumentID: "doc-8"},
	}
	if pointID(other.IdentityKey()) == a {
		t.Error("different documents must yield different point ids")
	}
}
