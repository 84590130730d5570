// Package evaluate scores a protocol document against the required
// elements of each quality dimension.
package evaluate

import (
	"fmt"

	"protoval/domain/protocol"
	"protoval/domain/validation"
	"protoval/internal/rules"
	"protoval/internal/textscan"
)

// Evaluator resolves dimension requirements against one rule snapshot.
type Evaluator struct {
	repo *rules.Repository
}

// New returns an evaluator bound to the given rule snapshot.
func New(repo *rules.Repository) *Evaluator {
	return &Evaluator{repo: repo}
}

// Dimension evaluates a single dimension for the document. Every
// required element is tested for lexical presence; the score is the
// fraction of elements found. An empty requirement set is vacuously
// compliant, an empty document misses everything.
func (e *Evaluator) Dimension(doc *protocol.Document, studyType protocol.StudyType, dim validation.Dimension) validation.DimensionResult {
	elements := e.repo.Requirements(studyType, dim)
	result := validation.DimensionResult{Dimension: dim, Score: 1.0}
	if len(elements) == 0 {
		return result
	}
	if doc == nil || doc.IsEmpty() {
		result.Score = 0.0
		for _, el := range elements {
			result.MissingItems = append(result.MissingItems, el.MissingLabel())
			result.Recommendations = append(result.Recommendations, recommendation(el))
			result.Issues = append(result.Issues, missingIssue(el))
		}
		return result
	}

	idx := docIndex(doc)
	found := 0
	for _, el := range elements {
		if elementPresent(idx, el) {
			found++
			continue
		}
		result.MissingItems = append(result.MissingItems, el.MissingLabel())
		result.Recommendations = append(result.Recommendations, recommendation(el))
		result.Issues = append(result.Issues, missingIssue(el))
	}
	result.Score = float64(found) / float64(len(elements))
	return result
}

// All evaluates every dimension of the scoring mode in order.
func (e *Evaluator) All(doc *protocol.Document, studyType protocol.StudyType, mode validation.Mode) map[validation.Dimension]validation.DimensionResult {
	out := make(map[validation.Dimension]validation.DimensionResult)
	for _, dim := range validation.DimensionsFor(mode) {
		out[dim] = e.Dimension(doc, studyType, dim)
	}
	return out
}

func docIndex(doc *protocol.Document) *textscan.DocIndex {
	sections := make(map[string]string, doc.Len())
	for _, name := range doc.Names() {
		content, _ := doc.Get(name)
		sections[name] = content
	}
	return textscan.NewDocIndex(sections)
}

func elementPresent(idx *textscan.DocIndex, el rules.Element) bool {
	if el.Section != "" {
		return idx.PresentIn(el.Section, el.Key)
	}
	return idx.Present(el.Key)
}

// recommendation prefers a configured prompt over the generic form.
func recommendation(el rules.Element) string {
	if el.Prompt != "" {
		return el.Prompt
	}
	return "Add " + el.Label
}

func missingIssue(el rules.Element) validation.Issue {
	return validation.Issue{
		Type:       validation.IssueMissingElement,
		Severity:   el.Severity,
		Message:    fmt.Sprintf("Missing required element %q", el.MissingLabel()),
		Location:   el.Section,
		Suggestion: recommendation(el),
	}
}
