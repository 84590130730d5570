// Package missing scans protocol sections for required fields that are
// not described and for placeholder markers left in the text.
package missing

import (
	"fmt"
	"regexp"
	"strings"

	"protoval/domain/protocol"
	"protoval/domain/validation"
	"protoval/internal/rules"
)

var (
	placeholderPattern = regexp.MustCompile(`\[PLACEHOLDER:\s*\*(.*?)\*\]`)
	recommendedPattern = regexp.MustCompile(`\[RECOMMENDED:\s*\*(.*?)\*\]`)
)

// FieldGap is one required field a section does not describe.
type FieldGap struct {
	Section string `json:"section"`
	Field   string `json:"field"`
	// Prompt tells an author or generator what to supply.
	Prompt string `json:"prompt"`
}

// Marker is a placeholder or recommendation tag found in the text.
type Marker struct {
	Section  string `json:"section"`
	Kind     string `json:"kind"`
	Hint     string `json:"hint"`
	Required bool   `json:"required"`
}

// ScanResult aggregates the field gaps and markers of one document.
type ScanResult struct {
	Gaps    []FieldGap `json:"gaps"`
	Markers []Marker   `json:"markers"`
	// FieldCompleteness is the fraction of required fields that are
	// described, over all sections that carry field requirements. A
	// document with no such sections is vacuously complete.
	FieldCompleteness float64 `json:"field_completeness"`
}

// GapsFor returns the missing field names of one section.
func (r ScanResult) GapsFor(section string) []string {
	var out []string
	for _, g := range r.Gaps {
		if g.Section == section {
			out = append(out, g.Field)
		}
	}
	return out
}

// MarkersFor returns the markers found in one section.
func (r ScanResult) MarkersFor(section string) []Marker {
	var out []Marker
	for _, m := range r.Markers {
		if m.Section == section {
			out = append(out, m)
		}
	}
	return out
}

// Scanner checks documents against the required-field tables of a rule
// snapshot.
type Scanner struct {
	repo *rules.Repository
}

// NewScanner returns a scanner bound to the given rule snapshot.
func NewScanner(repo *rules.Repository) *Scanner {
	return &Scanner{repo: repo}
}

// Scan walks the document's sections in order. A field counts as
// described when its name, with underscores read as spaces, occurs in
// the section text as a plain case-insensitive substring.
func (s *Scanner) Scan(doc *protocol.Document) ScanResult {
	var result ScanResult
	total, described := 0, 0

	for _, name := range doc.Names() {
		content, _ := doc.Get(name)
		lower := strings.ToLower(content)

		for _, field := range s.repo.RequiredFields(name) {
			total++
			if strings.Contains(lower, strings.ReplaceAll(field, "_", " ")) {
				described++
				continue
			}
			result.Gaps = append(result.Gaps, FieldGap{
				Section: name,
				Field:   field,
				Prompt:  s.repo.FieldPrompt(field),
			})
		}

		for _, m := range placeholderPattern.FindAllStringSubmatch(content, -1) {
			result.Markers = append(result.Markers, Marker{
				Section:  name,
				Kind:     "placeholder",
				Hint:     strings.TrimSpace(m[1]),
				Required: true,
			})
		}
		for _, m := range recommendedPattern.FindAllStringSubmatch(content, -1) {
			result.Markers = append(result.Markers, Marker{
				Section:  name,
				Kind:     "recommended",
				Hint:     strings.TrimSpace(m[1]),
				Required: false,
			})
		}
	}

	result.FieldCompleteness = 1.0
	if total > 0 {
		result.FieldCompleteness = float64(described) / float64(total)
	}
	return result
}

// Issues converts the scan into findings: one incomplete finding per
// field gap and one placeholder finding per required marker.
func (r ScanResult) Issues() []validation.Issue {
	var issues []validation.Issue
	for _, g := range r.Gaps {
		issues = append(issues, validation.Issue{
			Type:       validation.IssueIncomplete,
			Severity:   validation.SeverityMajor,
			Message:    fmt.Sprintf("Section %q does not describe %s", g.Section, strings.ReplaceAll(g.Field, "_", " ")),
			Location:   g.Section,
			Suggestion: g.Prompt,
		})
	}
	for _, m := range r.Markers {
		severity := validation.SeverityMinor
		if m.Required {
			severity = validation.SeverityMajor
		}
		issues = append(issues, validation.Issue{
			Type:       validation.IssuePlaceholder,
			Severity:   severity,
			Message:    fmt.Sprintf("Unresolved %s marker: %s", m.Kind, m.Hint),
			Location:   m.Section,
			Suggestion: "Replace the marker with final protocol text",
		})
	}
	return issues
}
