// Package checks holds the document-level quality checks that run
// alongside dimension evaluation: duplication, timeline consistency,
// language usage and design-consistency rules.
package checks

import (
	"fmt"
	"strings"

	"protoval/domain/protocol"
	"protoval/domain/validation"
	"protoval/internal/textscan"
)

// Duplication thresholds. Pairs touching the synopsis tolerate more
// overlap; a synopsis restates the rest of the document.
const (
	duplicationThreshold = 0.6
	synopsisThreshold    = 0.8
)

// Similarity measures vocabulary overlap between two texts as
// |words(A) ∩ words(B)| / min(|words(A)|, |words(B)|) over distinct
// lowercase tokens. It is a coarse lexical measure, not a semantic
// one. Returns 0 when either text has no tokens.
func Similarity(a, b string) float64 {
	return overlap(textscan.TokenSet(a), textscan.TokenSet(b))
}

// CheckDuplication compares every unordered pair of non-empty sections
// exactly once and flags pairs whose similarity reaches the threshold
// for that pair. The result order follows the document's section
// order.
func CheckDuplication(doc *protocol.Document) []validation.Issue {
	names := doc.Names()

	type entry struct {
		name   string
		tokens map[string]struct{}
	}
	entries := make([]entry, 0, len(names))
	for _, name := range names {
		content, _ := doc.Get(name)
		tokens := textscan.TokenSet(content)
		if len(tokens) == 0 {
			continue
		}
		entries = append(entries, entry{name: name, tokens: tokens})
	}

	var issues []validation.Issue
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			sim := overlap(a.tokens, b.tokens)
			threshold, severity := duplicationThreshold, validation.SeverityMajor
			if isSynopsis(a.name) || isSynopsis(b.name) {
				threshold, severity = synopsisThreshold, validation.SeverityMinor
			}
			if sim < threshold {
				continue
			}
			issues = append(issues, validation.Issue{
				Type:     validation.IssueDuplication,
				Severity: severity,
				Message:  fmt.Sprintf("Sections %q and %q overlap heavily (%.0f%% shared vocabulary)", a.name, b.name, sim*100),
				Location: a.name + ", " + b.name,
				Suggestion: fmt.Sprintf(
					"Consolidate the repeated content or differentiate %q from %q", b.name, a.name),
			})
		}
	}
	return issues
}

func overlap(sa, sb map[string]struct{}) float64 {
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	small, large := sa, sb
	if len(sb) < len(sa) {
		small, large = sb, sa
	}
	shared := 0
	for w := range small {
		if _, ok := large[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}

func isSynopsis(section string) bool {
	return strings.Contains(strings.ToLower(section), "synopsis")
}
