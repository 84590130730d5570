// Package compliance checks a protocol's structure against the
// guideline tables: required sections, section-level ICH expectations,
// guideline element coverage and the per-phase focus areas.
package compliance

import (
	"fmt"
	"strings"

	"protoval/domain/protocol"
	"protoval/domain/validation"
	"protoval/internal/rules"
	"protoval/internal/textscan"
)

// keywordCoverageFloor is the fraction of a section's expected topic
// keywords below which the section is flagged as thin.
const keywordCoverageFloor = 0.5

// Checker runs the structural compliance checks for one rule snapshot.
type Checker struct {
	repo *rules.Repository
}

// NewChecker returns a checker bound to the given rule snapshot.
func NewChecker(repo *rules.Repository) *Checker {
	return &Checker{repo: repo}
}

// Check inspects the document and returns findings in a fixed order:
// missing required sections, per-section guideline expectations,
// guideline element coverage, then the phase focus areas.
func (c *Checker) Check(doc *protocol.Document, st protocol.StudyType) []validation.Issue {
	var issues []validation.Issue

	canonical := c.canonicalContent(doc)
	idx := docIndex(doc)
	issues = append(issues, c.missingSections(canonical, st)...)
	issues = append(issues, c.sectionExpectations(canonical)...)
	issues = append(issues, c.guidelineCoverage(idx, st)...)
	issues = append(issues, c.phaseFocus(idx, st)...)
	return issues
}

// canonicalContent maps canonical section names to their content.
// Sections that resolve to the same canonical name are concatenated.
func (c *Checker) canonicalContent(doc *protocol.Document) map[string]string {
	out := make(map[string]string, doc.Len())
	for _, name := range doc.Names() {
		content, _ := doc.Get(name)
		key := c.repo.CanonicalSection(name)
		if existing, ok := out[key]; ok && existing != "" {
			content = existing + "\n" + content
		}
		out[key] = content
	}
	return out
}

func (c *Checker) missingSections(canonical map[string]string, st protocol.StudyType) []validation.Issue {
	var issues []validation.Issue
	for _, section := range c.repo.RequiredSections(st) {
		if _, ok := canonical[section]; ok {
			continue
		}
		label := strings.ReplaceAll(section, "_", " ")
		issues = append(issues, validation.Issue{
			Type:       validation.IssueMissingSection,
			Severity:   validation.SeverityCritical,
			Message:    fmt.Sprintf("Missing required section: %s", label),
			Location:   section,
			Suggestion: fmt.Sprintf("Add a %s section", label),
		})
	}
	return issues
}

// sectionExpectations applies the per-section guideline tables. Element
// checks here are phrase matches: the element must appear as a
// connected wording, not just as scattered vocabulary.
func (c *Checker) sectionExpectations(canonical map[string]string) []validation.Issue {
	var issues []validation.Issue
	for _, sc := range c.repo.SectionCompliance() {
		content, ok := canonical[sc.Section]
		if !ok || strings.TrimSpace(content) == "" {
			continue
		}
		for _, element := range sc.Elements {
			if textscan.PresentPhrase(content, element) {
				continue
			}
			label := strings.ReplaceAll(element, "_", " ")
			issues = append(issues, validation.Issue{
				Type:     validation.IssueRegulatory,
				Severity: validation.SeverityMajor,
				Message:  fmt.Sprintf("Section %q does not state the %s", sc.Section, label),
				Location: sc.Section,
				Suggestion: fmt.Sprintf("Add the %s to the %s section to comply with %s",
					label, sc.Section, sc.Requirement),
			})
		}
		if missed := missingKeywords(content, sc.Keywords); len(sc.Keywords) > 0 &&
			float64(len(sc.Keywords)-len(missed))/float64(len(sc.Keywords)) < keywordCoverageFloor {
			issues = append(issues, validation.Issue{
				Type:       validation.IssueIncomplete,
				Severity:   validation.SeverityMinor,
				Message:    fmt.Sprintf("Section %q touches few of its expected topics", sc.Section),
				Location:   sc.Section,
				Suggestion: "Expand coverage of: " + strings.Join(missed, ", "),
			})
		}
	}
	return issues
}

func missingKeywords(content string, keywords []string) []string {
	var missed []string
	for _, kw := range keywords {
		if !textscan.PresentPhrase(content, kw) {
			missed = append(missed, kw)
		}
	}
	return missed
}

// guidelineCoverage tests every element of the study type's guideline
// sets for lexical presence anywhere in the document and reports one
// finding per guideline with gaps.
func (c *Checker) guidelineCoverage(idx *textscan.DocIndex, st protocol.StudyType) []validation.Issue {
	var issues []validation.Issue
	for _, key := range c.repo.GuidelinesFor(st) {
		var missed []string
		for _, el := range c.repo.GuidelineElements(key) {
			if !idx.Present(el.Key) {
				missed = append(missed, el.Label)
			}
		}
		if len(missed) == 0 {
			continue
		}
		label := c.repo.GuidelineLabel(key)
		issues = append(issues, validation.Issue{
			Type:     validation.IssueRegulatory,
			Severity: validation.SeverityMajor,
			Message: fmt.Sprintf("%d %s element(s) not addressed: %s",
				len(missed), label, strings.Join(missed, ", ")),
			Suggestion: fmt.Sprintf("Address the missing %s elements", label),
		})
	}
	return issues
}

// phaseFocus verifies the focus areas interventional phases are
// expected to emphasize.
func (c *Checker) phaseFocus(idx *textscan.DocIndex, st protocol.StudyType) []validation.Issue {
	focus, ok := c.repo.PhaseFocus(st)
	if !ok {
		return nil
	}
	var missed []string
	for _, el := range focus.Elements {
		if !idx.Present(el) {
			missed = append(missed, strings.ReplaceAll(el, "_", " "))
		}
	}
	if len(missed) == 0 {
		return nil
	}
	return []validation.Issue{{
		Type:     validation.IssueMethodology,
		Severity: validation.SeverityMajor,
		Message: fmt.Sprintf("%s protocol misses its %s elements: %s",
			st, focus.Label, strings.Join(missed, ", ")),
		Suggestion: focus.Suggestion,
	}}
}

func docIndex(doc *protocol.Document) *textscan.DocIndex {
	sections := make(map[string]string, doc.Len())
	for _, name := range doc.Names() {
		content, _ := doc.Get(name)
		sections[name] = content
	}
	return textscan.NewDocIndex(sections)
}
