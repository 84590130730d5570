package heuristic

import (
	"context"
	"strings"
	"testing"

	"protoval/domain/protocol"
	"protoval/domain/validation"
	"protoval/ports"
)

func TestGenerateSectionDraftsMissingFields(t *testing.T) {
	gen := NewGenerator()
	out, err := gen.GenerateSection(context.Background(), ports.SectionRequest{
		StudyType:     protocol.Phase1,
		Section:       "statistical_analysis",
		MissingFields: []string{"analysis_population", "sample_size_calculation"},
	})
	if err != nil {
		t.Fatalf("GenerateSection failed: %v", err)
	}
	if !strings.Contains(out.Content, "statistical analysis section") {
		t.Errorf("draft missing lead sentence:\n%s", out.Content)
	}
	for _, phrase := range []string{"analysis population", "sample size calculation"} {
		if !strings.Contains(out.Content, phrase) {
			t.Errorf("draft does not state %q:\n%s", phrase, out.Content)
		}
	}
	if out.Audit.GeneratorType != "heuristic" {
		t.Errorf("generator type = %q", out.Audit.GeneratorType)
	}
}

func TestGenerateSectionKeepsExistingContent(t *testing.T) {
	gen := NewGenerator()
	out, err := gen.GenerateSection(context.Background(), ports.SectionRequest{
		StudyType:      protocol.Phase2,
		Section:        "objectives",
		CurrentContent: "The primary objective is to assess response rate.",
		MissingFields:  []string{"secondary_objectives"},
	})
	if err != nil {
		t.Fatalf("GenerateSection failed: %v", err)
	}
	if !strings.HasPrefix(out.Content, "The primary objective is to assess response rate.") {
		t.Errorf("existing content should be kept first:\n%s", out.Content)
	}
	if !strings.Contains(out.Content, "secondary objectives") {
		t.Errorf("missing field not drafted:\n%s", out.Content)
	}
}

func TestGenerateSectionAppliesReplacements(t *testing.T) {
	gen := NewGenerator()
	out, err := gen.GenerateSection(context.Background(), ports.SectionRequest{
		StudyType:      protocol.Phase1,
		Section:        "procedures",
		CurrentContent: "Investigators will find out whether the dose is tolerated.",
		Issues: []validation.Issue{
			{Suggestion: `Replace "find out" with "determine"`},
		},
	})
	if err != nil {
		t.Fatalf("GenerateSection failed: %v", err)
	}
	if strings.Contains(out.Content, "find out") {
		t.Errorf("informal wording should be replaced:\n%s", out.Content)
	}
	if !strings.Contains(out.Content, "determine whether the dose is tolerated") {
		t.Errorf("replacement not applied:\n%s", out.Content)
	}
}

func TestGenerateSectionDeterministic(t *testing.T) {
	gen := NewGenerator()
	req := ports.SectionRequest{
		StudyType:     protocol.Phase3,
		Section:       "population",
		MissingFields: []string{"inclusion_criteria", "exclusion_criteria"},
	}
	first, err := gen.GenerateSection(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := gen.GenerateSection(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if first.Content != second.Content {
		t.Error("heuristic output should be deterministic")
	}
}
