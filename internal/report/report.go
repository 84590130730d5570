// Package report renders a validation report as deterministic plain
// text or markdown. Dimensions and sections are grouped by the worst
// severity among their findings; within a group the scoring-mode order
// and the document's section order are preserved.
package report

import (
	"fmt"
	"strings"

	"protoval/domain/validation"
	"protoval/internal/score"
)

// unit is one renderable block of findings: a dimension, a section or
// one of the document-level checks.
type unit struct {
	title  string
	issues []validation.Issue
}

func units(r *validation.Report) []unit {
	var out []unit
	for _, dim := range validation.DimensionsFor(r.Mode) {
		dr, ok := r.PerDimension[dim]
		if !ok || len(dr.Issues) == 0 {
			continue
		}
		out = append(out, unit{title: "Dimension: " + dim.Label(), issues: dr.Issues})
	}
	for _, sr := range r.PerSection {
		if len(sr.Issues) == 0 {
			continue
		}
		out = append(out, unit{title: "Section: " + sr.Section, issues: sr.Issues})
	}
	checks := []unit{
		{title: "Duplication", issues: r.DuplicationIssues},
		{title: "Timeline", issues: r.TimelineIssues},
		{title: "Structure and guidelines", issues: r.ComplianceIssues},
	}
	for _, c := range checks {
		if len(c.issues) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// severityGroups partitions units by the worst severity they contain,
// keeping the construction order within each group.
func severityGroups(all []unit) map[validation.Severity][]unit {
	groups := make(map[validation.Severity][]unit)
	for _, u := range all {
		worst := validation.WorstSeverity(u.issues)
		groups[worst] = append(groups[worst], u)
	}
	return groups
}

var severityOrder = []validation.Severity{
	validation.SeverityCritical,
	validation.SeverityMajor,
	validation.SeverityMinor,
}

// Render produces the plain-text report.
func Render(r *validation.Report) string {
	var b strings.Builder

	b.WriteString("Protocol Validation Report\n")
	b.WriteString("==========================\n")
	fmt.Fprintf(&b, "Study type: %s", r.StudyType)
	if r.Category != "" {
		fmt.Fprintf(&b, " (%s)", r.Category)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Scoring mode: %s\n", r.Mode)
	fmt.Fprintf(&b, "Overall Quality Score: %.1f%%\n", r.OverallPercent())
	if r.Degraded {
		fmt.Fprintf(&b, "Note: %s\n", r.DegradedNote)
	}
	b.WriteString("\n")

	b.WriteString("Dimension scores\n")
	b.WriteString("----------------\n")
	for _, dim := range validation.DimensionsFor(r.Mode) {
		dr, ok := r.PerDimension[dim]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%-28s %5.1f%%", dim.Label(), dr.Score*100)
		if n := len(dr.MissingItems); n > 0 {
			fmt.Fprintf(&b, "  (%d missing)", n)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(r.PerSection) > 0 {
		b.WriteString("Section completeness\n")
		b.WriteString("--------------------\n")
		for _, sr := range r.PerSection {
			fmt.Fprintf(&b, "%-28s %5.1f\n", sr.Section, sr.Completeness)
		}
		st := score.SummarizeSections(r.PerSection)
		fmt.Fprintf(&b, "mean %.1f  median %.1f  min %.1f  max %.1f\n\n",
			st.Mean, st.Median, st.Min, st.Max)
	}

	groups := severityGroups(units(r))
	rendered := false
	for _, sev := range severityOrder {
		us := groups[sev]
		if len(us) == 0 {
			continue
		}
		rendered = true
		heading := titleCase(string(sev)) + " findings"
		b.WriteString(heading + "\n")
		b.WriteString(strings.Repeat("-", len(heading)) + "\n")
		for _, u := range us {
			b.WriteString(u.title + "\n")
			for _, is := range u.issues {
				fmt.Fprintf(&b, "  - (%s) %s\n", is.Severity, is.Message)
				if is.Suggestion != "" {
					fmt.Fprintf(&b, "      -> %s\n", is.Suggestion)
				}
			}
		}
		b.WriteString("\n")
	}
	if !rendered {
		b.WriteString("No findings.\n\n")
	}

	if len(r.Targets) > 0 {
		b.WriteString("Regeneration worklist\n")
		b.WriteString("---------------------\n")
		for i, t := range r.Targets {
			fmt.Fprintf(&b, "%d. [%s] %s: %s\n", i+1, t.Severity, t.Section, t.MissingElement)
			if t.SuggestedPrompt != "" {
				fmt.Fprintf(&b, "   Prompt: %s\n", firstLine(t.SuggestedPrompt))
			}
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// RenderMarkdown produces the same report as markdown for web display.
func RenderMarkdown(r *validation.Report) string {
	var b strings.Builder

	b.WriteString("# Protocol Validation Report\n\n")
	fmt.Fprintf(&b, "**Study type:** %s", r.StudyType)
	if r.Category != "" {
		fmt.Fprintf(&b, " (%s)", r.Category)
	}
	b.WriteString("  \n")
	fmt.Fprintf(&b, "**Scoring mode:** %s  \n", r.Mode)
	fmt.Fprintf(&b, "**Overall Quality Score:** %.1f%%\n\n", r.OverallPercent())
	if r.Degraded {
		fmt.Fprintf(&b, "> %s\n\n", r.DegradedNote)
	}

	b.WriteString("## Dimension scores\n\n")
	b.WriteString("| Dimension | Score | Missing |\n|---|---|---|\n")
	for _, dim := range validation.DimensionsFor(r.Mode) {
		dr, ok := r.PerDimension[dim]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "| %s | %.1f%% | %d |\n", dim.Label(), dr.Score*100, len(dr.MissingItems))
	}
	b.WriteString("\n")

	if len(r.PerSection) > 0 {
		b.WriteString("## Section completeness\n\n")
		b.WriteString("| Section | Completeness |\n|---|---|\n")
		for _, sr := range r.PerSection {
			fmt.Fprintf(&b, "| %s | %.1f |\n", sr.Section, sr.Completeness)
		}
		b.WriteString("\n")
	}

	groups := severityGroups(units(r))
	rendered := false
	for _, sev := range severityOrder {
		us := groups[sev]
		if len(us) == 0 {
			continue
		}
		rendered = true
		fmt.Fprintf(&b, "## %s findings\n\n", titleCase(string(sev)))
		for _, u := range us {
			fmt.Fprintf(&b, "### %s\n\n", u.title)
			for _, is := range u.issues {
				fmt.Fprintf(&b, "- **%s** %s\n", is.Severity, is.Message)
				if is.Suggestion != "" {
					fmt.Fprintf(&b, "  - *%s*\n", is.Suggestion)
				}
			}
			b.WriteString("\n")
		}
	}
	if !rendered {
		b.WriteString("## Findings\n\nNo findings.\n\n")
	}

	if len(r.Targets) > 0 {
		b.WriteString("## Regeneration worklist\n\n")
		for i, t := range r.Targets {
			fmt.Fprintf(&b, "%d. **%s** `%s`: %s\n", i+1, t.Severity, t.Section, t.MissingElement)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
