package boost

import (
	"math"
	"reflect"
	"testing"

	"github.com/T-rav/hydra/internal/retrieval"
)

func TestExtractEntities(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "drops stop words and question words",
			query: "Who is working on the Acme project?",
			want:  []string{"working", "acme", "project"},
		},
		{
			name:  "lowercases and dedupes",
			query: "Budget budget BUDGET report",
			want:  []string{"budget", "report"},
		},
		{
			name:  "only stop words",
			query: "what is this",
			want:  []string{},
		},
		{
			name:  "empty query",
			query: "",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractEntities(tt.query)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractEntities(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func testConfig() Config {
	return Config{ContentBoost: 0.05, TitleBoost: 0.1}
}

func TestApply_ContentAndTitleBoost(t *testing.T) {
	chunks := []retrieval.Chunk{
		{
			Content:    "The Acme quarterly report covers revenue.",
			Similarity: 0.5,
			Metadata:   retrieval.Metadata{FileName: "acme-report.pdf", DocumentID: "d1"},
		},
		{
			Content:    "Unrelated text about gardening.",
			Similarity: 0.6,
			Metadata:   retrieval.Metadata{FileName: "garden.md", DocumentID: "d2"},
		},
	}

	got := Apply("Acme report", chunks, testConfig())

	if len(got) != 2 {
		t.Fatalf("boosting must not remove chunks: got %d", len(got))
	}

	// First chunk: "acme" in content+filename (0.05+0.1), "report" in
	// content+filename (0.05+0.1) = +0.3 total.
	var acme retrieval.Chunk
	for _, c := range got {
		if c.Metadata.DocumentID == "d1" {
			acme = c
		}
	}
	if acme.Boost == nil {
		t.Fatal("boost trace not set")
	}
	if math.Abs(float64(acme.Boost.EntityBoost-0.3)) > 1e-6 {
		t.Errorf("entity boost = %f, want 0.3", acme.Boost.EntityBoost)
	}
	if math.Abs(float64(acme.Similarity-0.8)) > 1e-6 {
		t.Errorf("boosted similarity = %f, want 0.8", acme.Similarity)
	}
	if acme.Boost.OriginalSimilarity != 0.5 {
		t.Errorf("original similarity = %f, want 0.5", acme.Boost.OriginalSimilarity)
	}
	if !reflect.DeepEqual(acme.Boost.MatchingEntities, []string{"acme", "report"}) {
		t.Errorf("matching entities = %v", acme.Boost.MatchingEntities)
	}

	// Boosted chunk overtakes the previously higher-scored one.
	if got[0].Metadata.DocumentID != "d1" {
		t.Errorf("expected boosted chunk first, got %s", got[0].Metadata.DocumentID)
	}
}

func TestApply_Idempotent(t *testing.T) {
	chunks := []retrieval.Chunk{
		{
			Content:    "Acme project staffing plan",
			Similarity: 0.5,
			Metadata:   retrieval.Metadata{Title: "Acme Plan", DocumentID: "d1"},
		},
	}

	once := Apply("acme plan", chunks, testConfig())
	twice := Apply("acme plan", once, testConfig())

	if once[0].Similarity != twice[0].Similarity {
		t.Errorf("boost must not accumulate: %f vs %f", once[0].Similarity, twice[0].Similarity)
	}
	if once[0].Boost.OriginalSimilarity != twice[0].Boost.OriginalSimilarity {
		t.Errorf("original similarity must be stable: %f vs %f",
			once[0].Boost.OriginalSimilarity, twice[0].Boost.OriginalSimilarity)
	}
}

func TestApply_ClampsAtOne(t *testing.T) {
	chunks := []retrieval.Chunk{
		{
			Content:    "acme acme budget report staffing",
			Similarity: 0.95,
			Metadata:   retrieval.Metadata{Title: "acme budget report staffing", DocumentID: "d1"},
		},
	}

	got := Apply("acme budget report staffing", chunks, testConfig())

	if got[0].Similarity > 1.0 {
		t.Errorf("similarity must be clamped at 1.0, got %f", got[0].Similarity)
	}
	if got[0].Similarity != 1.0 {
		t.Errorf("expected clamp to exactly 1.0, got %f", got[0].Similarity)
	}
	// Trace still records the full boost.
	if got[0].Boost.EntityBoost <= 0.05 {
		t.Errorf("trace should record the summed boost, got %f", got[0].Boost.EntityBoost)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	chunks := []retrieval.Chunk{
		{Content: "acme notes", Similarity: 0.4, Metadata: retrieval.Metadata{DocumentID: "d1"}},
	}

	_ = Apply("acme", chunks, testConfig())

	if chunks[0].Similarity != 0.4 {
		t.Errorf("input similarity mutated to %f", chunks[0].Similarity)
	}
	if chunks[0].Boost != nil {
		t.Error("input chunk gained a boost trace")
	}
}

func TestApply_NoEntities(t *testing.T) {
	chunks := []retrieval.Chunk{
		{Content: "anything", Similarity: 0.7},
		{Content: "else", Similarity: 0.5},
	}

	got := Apply("what is this", chunks, testConfig())

	for i, c := range got {
		if c.Similarity != chunks[i].Similarity {
			t.Errorf("scores must be unchanged without entities: %f", c.Similarity)
		}
		if c.Boost == nil || c.Boost.EntityBoost != 0 {
			t.Errorf("expected zero boost trace, got %+v", c.Boost)
		}
	}
}
