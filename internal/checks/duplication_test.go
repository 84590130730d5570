package checks

import (
	"math"
	"strings"
	"testing"

	"protoval/domain/protocol"
	"protoval/domain/validation"
)

func TestSimilarityIsSymmetric(t *testing.T) {
	a := "randomized double blind placebo controlled trial of drug X"
	b := "open label extension of the randomized placebo trial"
	if got, rev := Similarity(a, b), Similarity(b, a); got != rev {
		t.Errorf("Similarity(a,b)=%f but Similarity(b,a)=%f", got, rev)
	}
}

func TestSimilarityValues(t *testing.T) {
	// Sets {a b c d}, {a b x}: 2 shared over min size 3.
	if got := Similarity("a b c d", "a b x"); math.Abs(got-2.0/3.0) > 1e-9 {
		t.Errorf("Similarity = %f, want 2/3", got)
	}
	if got := Similarity("same words same words", "same words"); got != 1.0 {
		t.Errorf("identical vocabularies should score 1.0, got %f", got)
	}
	if got := Similarity("", "anything"); got != 0 {
		t.Errorf("empty text should score 0, got %f", got)
	}
	if got := Similarity("...", "anything"); got != 0 {
		t.Errorf("punctuation-only text should score 0, got %f", got)
	}
}

func TestDuplicationFlagsIdenticalSections(t *testing.T) {
	doc := protocol.NewDocument(protocol.Phase2)
	doc.Set("procedures", "Blood samples are collected at every visit per schedule.")
	doc.Set("safety", "Blood samples are collected at every visit per schedule.")

	issues := CheckDuplication(doc)
	if len(issues) != 1 {
		t.Fatalf("issues = %d, want 1", len(issues))
	}
	is := issues[0]
	if is.Severity != validation.SeverityMajor {
		t.Errorf("severity = %q, want major", is.Severity)
	}
	if is.Type != validation.IssueDuplication {
		t.Errorf("type = %q", is.Type)
	}
	if !strings.Contains(is.Message, "100%") {
		t.Errorf("message should report full overlap: %q", is.Message)
	}
	if !strings.Contains(is.Message, `"procedures"`) || !strings.Contains(is.Message, `"safety"`) {
		t.Errorf("message should name both sections: %q", is.Message)
	}
}

func TestDuplicationSynopsisPairUsesHigherThreshold(t *testing.T) {
	// Five tokens each, four shared: similarity exactly 0.8.
	doc := protocol.NewDocument(protocol.Phase3)
	doc.Set("synopsis", "screening baseline treatment followup safety")
	doc.Set("overview", "screening baseline treatment followup efficacy")

	issues := CheckDuplication(doc)
	if len(issues) != 1 {
		t.Fatalf("issues = %d, want 1", len(issues))
	}
	if issues[0].Severity != validation.SeverityMinor {
		t.Errorf("synopsis pair severity = %q, want minor", issues[0].Severity)
	}
}

func TestDuplicationSynopsisPairBelowThreshold(t *testing.T) {
	// Four tokens each, three shared: 0.75 flags an ordinary pair but
	// not one involving the synopsis.
	doc := protocol.NewDocument(protocol.Phase3)
	doc.Set("study synopsis", "screening baseline treatment safety")
	doc.Set("overview", "screening baseline treatment efficacy")
	if issues := CheckDuplication(doc); len(issues) != 0 {
		t.Fatalf("synopsis pair at 0.75 should not be flagged, got %v", issues)
	}

	plain := protocol.NewDocument(protocol.Phase3)
	plain.Set("background", "screening baseline treatment safety")
	plain.Set("overview", "screening baseline treatment efficacy")
	if issues := CheckDuplication(plain); len(issues) != 1 {
		t.Fatalf("ordinary pair at 0.75 should be flagged, got %d issues", len(issues))
	}
}

func TestDuplicationSkipsEmptySections(t *testing.T) {
	doc := protocol.NewDocument(protocol.Phase1)
	doc.Set("objectives", "Assess safety and tolerability of escalating doses.")
	doc.Set("appendix", "")
	doc.Set("notes", "   ...   ")

	if issues := CheckDuplication(doc); len(issues) != 0 {
		t.Fatalf("empty sections must be skipped, got %v", issues)
	}
}

func TestDuplicationComparesEachPairOnce(t *testing.T) {
	doc := protocol.NewDocument(protocol.Phase2)
	doc.Set("a", "alpha beta gamma")
	doc.Set("b", "alpha beta gamma")
	doc.Set("c", "alpha beta gamma")

	issues := CheckDuplication(doc)
	if len(issues) != 3 {
		t.Fatalf("three sections form three pairs, got %d issues", len(issues))
	}
	seen := make(map[string]bool)
	for _, is := range issues {
		if seen[is.Location] {
			t.Errorf("pair %q reported twice", is.Location)
		}
		seen[is.Location] = true
	}
}
