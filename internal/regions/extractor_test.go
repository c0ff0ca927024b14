package regions

import (
	"testing"

	"scanstage/internal/types"
)

func TestExtractSingleGroup(t *testing.T) {
	summary := types.DocumentSummary{
		Skills: []string{"Go", "PostgreSQL", "Kubernetes"},
	}

	out := Extract(summary)

	if len(out) != 1 {
		t.Fatalf("expected 1 region, got %d", len(out))
	}
	if out[0].Kind != types.KindSkills {
		t.Errorf("kind = %s, want %s", out[0].Kind, types.KindSkills)
	}
	if out[0].Text != "Go, PostgreSQL, Kubernetes" {
		t.Errorf("text = %q, want comma-joined skills", out[0].Text)
	}
}

func TestExtractEmptySummary(t *testing.T) {
	out := Extract(types.DocumentSummary{})
	if len(out) != 0 {
		t.Fatalf("expected no regions for empty summary, got %d", len(out))
	}
}

func TestExtractPreservesFieldOrder(t *testing.T) {
	summary := types.DocumentSummary{
		Name:      "Ada Lovelace",
		Skills:    []string{"Analysis"},
		Education: []types.EducationEntry{{Degree: "Mathematics"}},
	}

	out := Extract(summary)

	want := []types.RegionKind{types.KindName, types.KindSkills, types.KindEducation}
	if len(out) != len(want) {
		t.Fatalf("expected %d regions, got %d", len(want), len(out))
	}
	for i, kind := range want {
		if out[i].Kind != kind {
			t.Errorf("region[%d].Kind = %s, want %s", i, out[i].Kind, kind)
		}
	}
}

func TestExtractLabels(t *testing.T) {
	tests := []struct {
		name     string
		summary  types.DocumentSummary
		wantKind types.RegionKind
		wantText string
	}{
		{
			name:     "contact joins email and phone",
			summary:  types.DocumentSummary{Email: "ada@example.com", Phone: "+44 20 7946 0958"},
			wantKind: types.KindContact,
			wantText: "ada@example.com +44 20 7946 0958",
		},
		{
			name:     "contact with only phone is trimmed",
			summary:  types.DocumentSummary{Phone: "+44 20 7946 0958"},
			wantKind: types.KindContact,
			wantText: "+44 20 7946 0958",
		},
		{
			name: "experience joins roles",
			summary: types.DocumentSummary{Experience: []types.ExperienceEntry{
				{Role: "Engineer", Company: "Acme"},
				{Role: "Tech Lead", Company: "Initech"},
			}},
			wantKind: types.KindExperience,
			wantText: "Engineer, Tech Lead",
		},
		{
			name: "education joins degrees",
			summary: types.DocumentSummary{Education: []types.EducationEntry{
				{Degree: "BSc Computer Science", School: "MIT"},
				{Degree: "MSc Mathematics"},
			}},
			wantKind: types.KindEducation,
			wantText: "BSc Computer Science, MSc Mathematics",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Extract(tt.summary)
			if len(out) != 1 {
				t.Fatalf("expected 1 region, got %d", len(out))
			}
			if out[0].Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", out[0].Kind, tt.wantKind)
			}
			if out[0].Text != tt.wantText {
				t.Errorf("text = %q, want %q", out[0].Text, tt.wantText)
			}
		})
	}
}

func TestExtractOmitsBlankGroups(t *testing.T) {
	summary := types.DocumentSummary{
		Name:       "   ",
		Skills:     []string{"", "  "},
		Experience: []types.ExperienceEntry{{Company: "Acme"}}, // no role
	}

	out := Extract(summary)
	if len(out) != 0 {
		t.Fatalf("expected blank groups to be omitted, got %d regions", len(out))
	}
}

func TestExtractFixedBoxesAndDescendingConfidence(t *testing.T) {
	summary := types.DocumentSummary{
		Name:       "Ada Lovelace",
		Email:      "ada@example.com",
		Skills:     []string{"Go"},
		Experience: []types.ExperienceEntry{{Role: "Engineer"}},
		Education:  []types.EducationEntry{{Degree: "BSc"}},
	}

	out := Extract(summary)
	if len(out) != 5 {
		t.Fatalf("expected 5 regions, got %d", len(out))
	}

	for i, r := range out {
		if r.Box != kindBoxes[r.Kind] {
			t.Errorf("%s box = %+v, want the fixed constant %+v", r.Kind, r.Box, kindBoxes[r.Kind])
		}
		if i > 0 && out[i-1].Confidence <= r.Confidence {
			t.Errorf("confidence not strictly descending at %s: %v then %v",
				r.Kind, out[i-1].Confidence, r.Confidence)
		}
	}

	// Boxes are constants keyed by kind: a different input must not move them.
	other := Extract(types.DocumentSummary{Skills: []string{"completely", "different", "input"}})
	if other[0].Box != out[2].Box {
		t.Errorf("skills box varies with input: %+v vs %+v", other[0].Box, out[2].Box)
	}
}
