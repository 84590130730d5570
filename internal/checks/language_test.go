package checks

import (
	"strings"
	"testing"

	"protoval/domain/protocol"
	"protoval/domain/validation"
	"protoval/internal/rules"
)

func testLanguageRules(t *testing.T) rules.LanguageRules {
	t.Helper()
	repo, err := rules.Load()
	if err != nil {
		t.Fatalf("loading rules: %v", err)
	}
	return repo.LanguageRules()
}

func TestLanguageFlagsCasualPhrasing(t *testing.T) {
	doc := protocol.NewDocument(protocol.Phase2)
	doc.Set("background", "The drug is basically a kinase inhibitor.")

	issues := CheckLanguage(doc, testLanguageRules(t))
	if len(issues) != 1 {
		t.Fatalf("issues = %d, want 1", len(issues))
	}
	is := issues[0]
	if is.Type != validation.IssueTone || is.Severity != validation.SeverityMinor {
		t.Errorf("unexpected classification: %+v", is)
	}
	if is.Location != "background" {
		t.Errorf("location = %q", is.Location)
	}
}

func TestLanguageSuggestsFormalReplacement(t *testing.T) {
	doc := protocol.NewDocument(protocol.Phase2)
	doc.Set("objectives", "We will find out whether the dose is tolerated.")

	issues := CheckLanguage(doc, testLanguageRules(t))
	if len(issues) != 1 {
		t.Fatalf("issues = %d, want 1", len(issues))
	}
	if !strings.Contains(issues[0].Suggestion, `"determine"`) {
		t.Errorf("suggestion should name the replacement: %q", issues[0].Suggestion)
	}
	if issues[0].Type != validation.IssueFormality {
		t.Errorf("type = %q", issues[0].Type)
	}
}

func TestLanguageFlagsVagueQuantifiers(t *testing.T) {
	doc := protocol.NewDocument(protocol.Phase2)
	doc.Set("population", "Several sites will enrol many subjects.")

	issues := CheckLanguage(doc, testLanguageRules(t))
	if len(issues) != 2 {
		t.Fatalf("issues = %d, want 2", len(issues))
	}
	for _, is := range issues {
		if is.Type != validation.IssueClarity {
			t.Errorf("type = %q, want clarity", is.Type)
		}
	}
}

func TestLanguageMatchesWholeWordsOnly(t *testing.T) {
	doc := protocol.NewDocument(protocol.Phase2)
	doc.Set("procedures", "Checklist completion is verified against the eligibility criteria.")

	if issues := CheckLanguage(doc, testLanguageRules(t)); len(issues) != 0 {
		t.Fatalf("\"check\" must not match inside \"Checklist\", got %v", issues)
	}
}

func TestLanguageCleanTextPasses(t *testing.T) {
	doc := protocol.NewDocument(protocol.Phase3)
	doc.Set("statistical_analysis", "The primary analysis will determine the hazard ratio in 420 subjects.")

	if issues := CheckLanguage(doc, testLanguageRules(t)); len(issues) != 0 {
		t.Fatalf("formal text should pass, got %v", issues)
	}
}
