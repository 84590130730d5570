package checks

import (
	"fmt"
	"strings"

	"protoval/domain/protocol"
	"protoval/domain/validation"
	"protoval/internal/rules"
	"protoval/internal/textscan"
)

// CheckDesignLanguage flags design vocabulary that contradicts the
// study type, such as randomization language in an observational
// protocol. The scan is lexical: a negated mention ("no blinding is
// applied") still counts, so protocols for these types should describe
// their design in their own terms. One issue per section and term.
func CheckDesignLanguage(doc *protocol.Document, terms []string) []validation.Issue {
	var issues []validation.Issue
	for _, name := range doc.Names() {
		content, _ := doc.Get(name)
		if content == "" {
			continue
		}
		for _, term := range terms {
			if !textscan.PresentPhrase(content, term) {
				continue
			}
			issues = append(issues, validation.Issue{
				Type:       validation.IssueForbiddenTerm,
				Severity:   validation.SeverityCritical,
				Message:    fmt.Sprintf("%q is incompatible with the %s study design", term, doc.StudyType()),
				Location:   name,
				Suggestion: fmt.Sprintf("Remove the %s language or reconsider the study type", strings.ReplaceAll(term, "_", " ")),
			})
		}
	}
	return issues
}

// CheckSectionRequirements applies the drafting rules configured for
// individual sections: elements the text must state, phrases that mark
// an unfinished draft, and a minimum length.
func CheckSectionRequirements(doc *protocol.Document, repo *rules.Repository) []validation.Issue {
	st := doc.StudyType()
	var issues []validation.Issue
	for _, name := range doc.Names() {
		content, _ := doc.Get(name)
		if strings.TrimSpace(content) == "" {
			continue
		}
		req, ok := repo.SectionRequirements(name)
		if !ok {
			continue
		}

		required := append([]string{}, req.RequiredElements...)
		required = append(required, req.StudySpecific[st]...)
		for _, element := range required {
			if textscan.Present(content, element) {
				continue
			}
			label := strings.ReplaceAll(element, "_", " ")
			issues = append(issues, validation.Issue{
				Type:       validation.IssueMissingElement,
				Severity:   validation.SeverityMajor,
				Message:    fmt.Sprintf("Section %q does not state its %s", name, label),
				Location:   name,
				Suggestion: fmt.Sprintf("State the %s explicitly", label),
			})
		}

		for _, phrase := range req.ForbiddenPhrases {
			if !textscan.PresentPhrase(content, phrase) {
				continue
			}
			issues = append(issues, validation.Issue{
				Type:       validation.IssueIncomplete,
				Severity:   validation.SeverityMajor,
				Message:    fmt.Sprintf("Draft phrase %q left in section %q", phrase, name),
				Location:   name,
				Suggestion: "Replace the draft wording with final protocol text",
			})
		}

		if req.MinLength > 0 && len(strings.TrimSpace(content)) < req.MinLength {
			issues = append(issues, validation.Issue{
				Type:       validation.IssueIncomplete,
				Severity:   validation.SeverityMinor,
				Message:    fmt.Sprintf("Section %q is too brief to cover its requirements", name),
				Location:   name,
				Suggestion: fmt.Sprintf("Expand the section to at least %d characters", req.MinLength),
			})
		}
	}
	return issues
}
