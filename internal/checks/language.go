package checks

import (
	"fmt"

	"protoval/domain/protocol"
	"protoval/domain/validation"
	"protoval/internal/rules"
	"protoval/internal/textscan"
)

// CheckLanguage scans every section for casual phrasing, informal verbs
// and vague quantifiers, using the wording rules from the repository.
// One issue is raised per section and term, not per occurrence.
func CheckLanguage(doc *protocol.Document, lang rules.LanguageRules) []validation.Issue {
	var issues []validation.Issue
	for _, name := range doc.Names() {
		content, _ := doc.Get(name)
		if content == "" {
			continue
		}
		for _, term := range lang.CasualTerms {
			if !textscan.PresentPhrase(content, term) {
				continue
			}
			issues = append(issues, validation.Issue{
				Type:       validation.IssueTone,
				Severity:   validation.SeverityMinor,
				Message:    fmt.Sprintf("Casual phrase %q is out of place in a protocol", term),
				Location:   name,
				Suggestion: "Use formal scientific language",
			})
		}
		for _, t := range lang.InformalTerms {
			if !textscan.PresentPhrase(content, t.Term) {
				continue
			}
			issues = append(issues, validation.Issue{
				Type:       validation.IssueFormality,
				Severity:   validation.SeverityMinor,
				Message:    fmt.Sprintf("Informal wording %q", t.Term),
				Location:   name,
				Suggestion: fmt.Sprintf("Replace %q with %q", t.Term, t.Replacement),
			})
		}
		for _, t := range lang.VagueTerms {
			if !textscan.PresentPhrase(content, t.Term) {
				continue
			}
			issues = append(issues, validation.Issue{
				Type:       validation.IssueClarity,
				Severity:   validation.SeverityMinor,
				Message:    fmt.Sprintf("Vague quantifier %q", t.Term),
				Location:   name,
				Suggestion: fmt.Sprintf("Quantify instead: %s", t.Replacement),
			})
		}
	}
	return issues
}
