package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StudyCategory is the high-level family a study design belongs to.
type StudyCategory string

const (
	CategoryInterventional    StudyCategory = "interventional"
	CategorySecondaryResearch StudyCategory = "secondary_research"
	// CategoryUnknown is returned for study types the rule configuration
	// does not recognize. Validation still runs in degraded mode.
	CategoryUnknown StudyCategory = ""
)

// StudyType identifies the study design governing which rules apply.
type StudyType string

const (
	// Interventional studies
	Phase1 StudyType = "phase1"
	Phase2 StudyType = "phase2"
	Phase3 StudyType = "phase3"
	Phase4 StudyType = "phase4"

	// Secondary research and non-interventional designs
	Observational    StudyType = "observational"
	RWE              StudyType = "rwe"
	SystematicReview StudyType = "systematic_review"
	MetaAnalysis     StudyType = "meta_analysis"
	PatientSurvey    StudyType = "patient_survey"
)

// studyCategories maps every known study type to its category.
var studyCategories = map[StudyType]StudyCategory{
	Phase1:           CategoryInterventional,
	Phase2:           CategoryInterventional,
	Phase3:           CategoryInterventional,
	Phase4:           CategoryInterventional,
	Observational:    CategorySecondaryResearch,
	RWE:              CategorySecondaryResearch,
	SystematicReview: CategorySecondaryResearch,
	MetaAnalysis:     CategorySecondaryResearch,
	PatientSurvey:    CategorySecondaryResearch,
}

// studyTypeAliases canonicalizes the short keys used by older protocol
// tooling and by hand-typed input.
var studyTypeAliases = map[string]StudyType{
	"slr":               SystematicReview,
	"meta":              MetaAnalysis,
	"systematic review": SystematicReview,
	"meta-analysis":     MetaAnalysis,
	"real_world":        RWE,
	"real-world":        RWE,
	"survey":            PatientSurvey,
}

// ParseStudyType canonicalizes a raw study-type key. Unknown keys are
// preserved as-is so validation can degrade instead of failing.
func ParseStudyType(s string) StudyType {
	key := strings.ToLower(strings.TrimSpace(s))
	if alias, ok := studyTypeAliases[key]; ok {
		return alias
	}
	return StudyType(key)
}

// Category returns the study category, or CategoryUnknown for
// unrecognized types.
func (t StudyType) Category() StudyCategory {
	return studyCategories[t]
}

// Known reports whether the study type is part of the configured taxonomy.
func (t StudyType) Known() bool {
	_, ok := studyCategories[t]
	return ok
}

func (t StudyType) String() string {
	return string(t)
}

// KnownStudyTypes returns all configured study types in a stable order,
// interventional designs first.
func KnownStudyTypes() []StudyType {
	return []StudyType{
		Phase1, Phase2, Phase3, Phase4,
		Observational, RWE, SystematicReview, MetaAnalysis, PatientSurvey,
	}
}

// Section is one named block of protocol text.
type Section struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Document is the ordered section-name -> text mapping for one protocol.
// Insertion order is preserved for report and export ordering; it has no
// effect on validation correctness. A Document is immutable during a
// validation pass; callers replace section content between passes.
type Document struct {
	studyType StudyType
	names     []string
	content   map[string]string
}

// NewDocument creates an empty document for the given study type.
func NewDocument(studyType StudyType) *Document {
	return &Document{
		studyType: studyType,
		content:   make(map[string]string),
	}
}

// NewDocumentFromSections builds a document preserving the given section
// order. Later duplicates overwrite content but keep the first position.
func NewDocumentFromSections(studyType StudyType, sections []Section) *Document {
	doc := NewDocument(studyType)
	for _, s := range sections {
		doc.Set(s.Name, s.Content)
	}
	return doc
}

// StudyType returns the study type the document was built for.
func (d *Document) StudyType() StudyType {
	return d.studyType
}

// Set adds or replaces a section. A new name is appended to the order;
// an existing name keeps its position.
func (d *Document) Set(name, content string) {
	if _, exists := d.content[name]; !exists {
		d.names = append(d.names, name)
	}
	d.content[name] = content
}

// Get returns a section's content and whether the section exists.
func (d *Document) Get(name string) (string, bool) {
	content, ok := d.content[name]
	return content, ok
}

// Has reports whether a section with the given name exists.
func (d *Document) Has(name string) bool {
	_, ok := d.content[name]
	return ok
}

// Names returns the section names in insertion order.
func (d *Document) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Sections returns the sections in insertion order.
func (d *Document) Sections() []Section {
	out := make([]Section, 0, len(d.names))
	for _, name := range d.names {
		out = append(out, Section{Name: name, Content: d.content[name]})
	}
	return out
}

// Len returns the number of sections.
func (d *Document) Len() int {
	return len(d.names)
}

// IsEmpty reports whether the document has no sections.
func (d *Document) IsEmpty() bool {
	return len(d.names) == 0
}

// Clone returns an independent copy of the document.
func (d *Document) Clone() *Document {
	clone := NewDocument(d.studyType)
	for _, name := range d.names {
		clone.Set(name, d.content[name])
	}
	return clone
}

// WithSection returns a copy of the document with one section replaced
// (or appended). The receiver is not modified.
func (d *Document) WithSection(name, content string) *Document {
	clone := d.Clone()
	clone.Set(name, content)
	return clone
}

// MarshalJSON encodes the document as an ordered section array.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		StudyType StudyType `json:"study_type"`
		Sections  []Section `json:"sections"`
	}{StudyType: d.studyType, Sections: d.Sections()})
}

// SectionList decodes protocol sections from JSON while preserving
// order. Both shapes are accepted: an array of {name, content} objects
// and a plain object mapping name -> content (object key order is kept).
type SectionList []Section

// UnmarshalJSON implements order-preserving decoding for both shapes.
func (sl *SectionList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*sl = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var sections []Section
		if err := json.Unmarshal(data, &sections); err != nil {
			return err
		}
		*sl = sections
		return nil
	}
	if !strings.HasPrefix(trimmed, "{") {
		return fmt.Errorf("sections must be an array or an object")
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	if _, err := dec.Token(); err != nil { // opening brace
		return err
	}
	var sections []Section
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("section name must be a string, got %v", keyTok)
		}
		var content string
		if err := dec.Decode(&content); err != nil {
			return fmt.Errorf("section %q: content must be a string: %w", name, err)
		}
		sections = append(sections, Section{Name: name, Content: content})
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return err
	}
	*sl = sections
	return nil
}
