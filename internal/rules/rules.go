// Package rules holds the study-type-indexed validation configuration:
// required elements per dimension, scoring weights, guideline element
// sets, severity classification and the section-level tables the
// checkers consume. A Repository is built once at load time, validated,
// and read-only afterwards.
package rules

import (
	"fmt"
	"math"
	"strings"

	"protoval/domain/protocol"
	"protoval/domain/validation"
	"protoval/internal/errors"
)

// weightTolerance bounds the allowed drift of a mode's weight sum from 1.0.
const weightTolerance = 1e-6

// Element is one semantic requirement checked for presence.
type Element struct {
	Key   string
	Label string
	// Severity classifies the finding when the element is missing.
	Severity validation.Severity
	// Prompt optionally carries a templated regeneration prompt.
	Prompt string
	// Section scopes the presence check to one section; empty means the
	// whole document.
	Section string
	// StudyType is set for study-specific requirements, empty for
	// baseline ones.
	StudyType protocol.StudyType
}

// MissingLabel is how the element appears in a missing-items list.
// Study-specific requirements are tagged with their study type.
func (e Element) MissingLabel() string {
	if e.StudyType != "" {
		return fmt.Sprintf("%s-specific: %s", e.StudyType, e.Label)
	}
	return e.Label
}

// Guideline is an external reporting standard tracked as an element set.
type Guideline struct {
	Key      string
	Label    string
	Elements []Element
}

// SectionRequirement drives the improvement checks for one section.
type SectionRequirement struct {
	Section          string
	RequiredElements []string
	ForbiddenPhrases []string
	MinLength        int
	// StudySpecific adds required elements per study type on top of
	// RequiredElements.
	StudySpecific map[protocol.StudyType][]string
}

// TermSuggestion pairs a discouraged term with its preferred wording.
type TermSuggestion struct {
	Term        string
	Replacement string
}

// LanguageRules lists the wording checks applied to every section.
type LanguageRules struct {
	CasualTerms   []string
	InformalTerms []TermSuggestion
	VagueTerms    []TermSuggestion
}

// SectionCompliance is a section-scoped regulatory requirement with the
// keywords that indicate coverage.
type SectionCompliance struct {
	Section     string
	Requirement string
	Elements    []string
	Keywords    []string
}

// PhaseFocus is the phase-specific emphasis a protocol must show.
type PhaseFocus struct {
	StudyType  protocol.StudyType
	Label      string
	Elements   []string
	Suggestion string
}

type dimensionRules struct {
	baseline []string
	specific map[protocol.StudyType][]string
}

type elementMeta struct {
	label    string
	severity validation.Severity
	prompt   string
	section  string
}

// Repository is the read-only rule configuration. Construct it with
// Load or LoadFile; never mutate it afterwards.
type Repository struct {
	studyTypes map[protocol.StudyType]bool
	modes      map[validation.Mode]map[validation.Dimension]float64
	dimensions map[validation.Dimension]dimensionRules
	elements   map[string]elementMeta

	guidelines      map[string]Guideline
	guidelineOrder  []string
	studyGuidelines map[protocol.StudyType][]string

	requiredSections map[protocol.StudyType][]string
	sectionAliases   map[string]string
	importance       map[string]float64

	requiredFields map[string][]string
	fieldPrompts   map[string]string

	forbiddenTerms  map[protocol.StudyType][]string
	sectionReqs     map[string]SectionRequirement
	language        LanguageRules
	sectionCompl    []SectionCompliance
	phaseFocus      map[protocol.StudyType]PhaseFocus
	defaultSeverity validation.Severity
}

// KnownType reports whether the repository carries rules for the study
// type. Unknown types still validate, baseline-only (fail open).
func (r *Repository) KnownType(st protocol.StudyType) bool {
	return r.studyTypes[st]
}

// StudyTypes returns every study type the repository covers, in the
// domain taxonomy order.
func (r *Repository) StudyTypes() []protocol.StudyType {
	var out []protocol.StudyType
	for _, st := range protocol.KnownStudyTypes() {
		if r.studyTypes[st] {
			out = append(out, st)
		}
	}
	return out
}

// Requirements resolves the ordered element set for one dimension:
// baseline elements first, then study-specific ones. An unknown study
// type contributes nothing beyond the baseline.
func (r *Repository) Requirements(st protocol.StudyType, dim validation.Dimension) []Element {
	dr, ok := r.dimensions[dim]
	if !ok {
		return nil
	}
	out := make([]Element, 0, len(dr.baseline))
	for _, key := range dr.baseline {
		out = append(out, r.element(key, ""))
	}
	for _, key := range dr.specific[st] {
		out = append(out, r.element(key, st))
	}
	return out
}

// Weight returns the dimension's weight in the given scoring mode.
func (r *Repository) Weight(mode validation.Mode, dim validation.Dimension) float64 {
	return r.modes[mode][dim]
}

// Weights returns a copy of the full weight table for a mode.
func (r *Repository) Weights(mode validation.Mode) map[validation.Dimension]float64 {
	out := make(map[validation.Dimension]float64, len(r.modes[mode]))
	for dim, w := range r.modes[mode] {
		out[dim] = w
	}
	return out
}

// SeverityOf classifies a missing element. Elements without explicit
// configuration get the default severity.
func (r *Repository) SeverityOf(elementKey string) validation.Severity {
	if meta, ok := r.elements[elementKey]; ok && meta.severity != "" {
		return meta.severity
	}
	return r.defaultSeverity
}

// PromptFor returns the configured regeneration prompt for an element,
// or the empty string when none is configured.
func (r *Repository) PromptFor(elementKey string) string {
	return r.elements[elementKey].prompt
}

// GuidelineElements returns the element set of a named guideline.
func (r *Repository) GuidelineElements(name string) []Element {
	return r.guidelines[strings.ToLower(name)].Elements
}

// GuidelineLabel returns the display name of a guideline key.
func (r *Repository) GuidelineLabel(name string) string {
	if g, ok := r.guidelines[strings.ToLower(name)]; ok {
		return g.Label
	}
	return name
}

// GuidelinesFor lists the guideline keys a study type is held to.
func (r *Repository) GuidelinesFor(st protocol.StudyType) []string {
	return r.studyGuidelines[st]
}

// GuidelineKeys lists every configured guideline key, sorted.
func (r *Repository) GuidelineKeys() []string {
	return r.guidelineOrder
}

// RequiredSections lists the sections a study type's protocol must have.
func (r *Repository) RequiredSections(st protocol.StudyType) []string {
	return r.requiredSections[st]
}

// CanonicalSection resolves section-name aliases to their canonical
// form; unknown names pass through lowercased and trimmed.
func (r *Repository) CanonicalSection(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, " ", "_")
	if canonical, ok := r.sectionAliases[key]; ok {
		return canonical
	}
	return key
}

// SectionImportance returns the weighting of a section in the overall
// quality roll-up; sections without an entry weigh 1.0.
func (r *Repository) SectionImportance(name string) float64 {
	if w, ok := r.importance[r.CanonicalSection(name)]; ok {
		return w
	}
	return 1.0
}

// RequiredFields lists the fields a canonical section must describe.
func (r *Repository) RequiredFields(section string) []string {
	return r.requiredFields[r.CanonicalSection(section)]
}

// FieldPrompt returns the detailed authoring prompt for a field, or a
// generic one when the field has no specific prompt configured.
func (r *Repository) FieldPrompt(field string) string {
	if p, ok := r.fieldPrompts[field]; ok {
		return p
	}
	label := strings.ReplaceAll(field, "_", " ")
	return fmt.Sprintf("Please provide detailed information about %s including all relevant parameters and specifications.", label)
}

// ForbiddenTerms lists design language incompatible with the study type.
func (r *Repository) ForbiddenTerms(st protocol.StudyType) []string {
	return r.forbiddenTerms[st]
}

// SectionRequirements returns the improvement rules for a canonical
// section, if any are configured.
func (r *Repository) SectionRequirements(section string) (SectionRequirement, bool) {
	req, ok := r.sectionReqs[r.CanonicalSection(section)]
	return req, ok
}

// LanguageRules returns the document-wide wording checks.
func (r *Repository) LanguageRules() LanguageRules {
	return r.language
}

// SectionCompliance returns the section-scoped regulatory requirements
// in configuration order.
func (r *Repository) SectionCompliance() []SectionCompliance {
	return r.sectionCompl
}

// PhaseFocus returns the phase-specific emphasis for interventional
// phases that define one.
func (r *Repository) PhaseFocus(st protocol.StudyType) (PhaseFocus, bool) {
	focus, ok := r.phaseFocus[st]
	return focus, ok
}

// element materializes an Element from its key plus configured metadata.
func (r *Repository) element(key string, st protocol.StudyType) Element {
	meta := r.elements[key]
	label := meta.label
	if label == "" {
		label = strings.ReplaceAll(key, "_", " ")
	}
	severity := meta.severity
	if severity == "" {
		severity = r.defaultSeverity
	}
	return Element{
		Key:       key,
		Label:     label,
		Severity:  severity,
		Prompt:    meta.prompt,
		Section:   meta.section,
		StudyType: st,
	}
}

// validate enforces the load-time invariants. Violations are fatal: the
// process must not start with a malformed rule set.
func (r *Repository) validate() error {
	if len(r.modes) == 0 {
		return errors.RulesInvalid("no scoring modes configured")
	}
	for mode, weights := range r.modes {
		dims := validation.DimensionsFor(mode)
		if mode != validation.ModeFull && mode != validation.ModeQuick {
			return errors.RulesInvalid(fmt.Sprintf("unknown scoring mode %q", mode))
		}
		sum := 0.0
		for _, dim := range dims {
			w, ok := weights[dim]
			if !ok {
				return errors.RulesInvalid(fmt.Sprintf("mode %q missing weight for dimension %q", mode, dim))
			}
			if w < 0 {
				return errors.RulesInvalid(fmt.Sprintf("mode %q has negative weight for dimension %q", mode, dim))
			}
			sum += w
		}
		if len(weights) != len(dims) {
			return errors.RulesInvalid(fmt.Sprintf("mode %q configures %d weights, expected %d", mode, len(weights), len(dims)))
		}
		if math.Abs(sum-1.0) > weightTolerance {
			return errors.RulesInvalid(fmt.Sprintf("mode %q weights sum to %.8f, expected 1.0", mode, sum))
		}
	}
	for dim := range r.dimensions {
		if !knownDimension(dim) {
			return errors.RulesInvalid(fmt.Sprintf("unknown dimension %q", dim))
		}
	}
	for key, meta := range r.elements {
		switch meta.severity {
		case "", validation.SeverityCritical, validation.SeverityMajor, validation.SeverityMinor:
		default:
			return errors.RulesInvalid(fmt.Sprintf("element %q has invalid severity %q", key, meta.severity))
		}
	}
	for st, keys := range r.studyGuidelines {
		for _, key := range keys {
			if _, ok := r.guidelines[key]; !ok {
				return errors.RulesInvalid(fmt.Sprintf("study type %q references unknown guideline %q", st, key))
			}
		}
	}
	for name, w := range r.importance {
		if w <= 0 {
			return errors.RulesInvalid(fmt.Sprintf("section %q has non-positive importance %.2f", name, w))
		}
	}
	return nil
}

func knownDimension(d validation.Dimension) bool {
	for _, dim := range validation.FullDimensions() {
		if d == dim {
			return true
		}
	}
	return false
}
