package validation

import (
	"strings"
	"time"

	"protoval/domain/protocol"
)

// Dimension is one axis of protocol quality assessment.
type Dimension string

const (
	ScientificRigor        Dimension = "scientific_rigor"
	Methodology            Dimension = "methodology"
	RegulatoryCompliance   Dimension = "regulatory_compliance"
	OperationalFeasibility Dimension = "operational_feasibility"
	EthicalConsiderations  Dimension = "ethical_considerations"
	ReportingStandards     Dimension = "reporting_standards"
)

// Mode selects which dimension set scores a document.
type Mode string

const (
	// ModeFull scores all six dimensions.
	ModeFull Mode = "full"
	// ModeQuick scores the three core dimensions for fast feedback.
	ModeQuick Mode = "quick"
)

// FullDimensions returns the six-axis dimension set in scoring order.
func FullDimensions() []Dimension {
	return []Dimension{
		ScientificRigor,
		Methodology,
		RegulatoryCompliance,
		OperationalFeasibility,
		EthicalConsiderations,
		ReportingStandards,
	}
}

// QuickDimensions returns the reduced three-axis set.
func QuickDimensions() []Dimension {
	return []Dimension{ScientificRigor, Methodology, RegulatoryCompliance}
}

// DimensionsFor returns the dimension set for a scoring mode. Unknown
// modes fall back to the full set.
func DimensionsFor(mode Mode) []Dimension {
	if mode == ModeQuick {
		return QuickDimensions()
	}
	return FullDimensions()
}

// Label returns the human form of the dimension key.
func (d Dimension) Label() string {
	words := strings.Split(string(d), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Severity ranks the importance of a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Rank returns the ordinal weight of the severity, higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityMajor:
		return 2
	case SeverityMinor:
		return 1
	default:
		return 0
	}
}

func (s Severity) Label() string {
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(string(s)[:1]) + string(s)[1:]
}

// IssueType classifies findings for filtering and reporting.
type IssueType string

const (
	// Content issues
	IssueMissingElement IssueType = "missing_element"
	IssueMissingSection IssueType = "missing_section"
	IssueInconsistency  IssueType = "inconsistency"
	IssueIncomplete     IssueType = "incomplete"

	// Scientific issues
	IssueMethodology IssueType = "methodology_issue"
	IssueStatistical IssueType = "statistical_issue"
	IssueBias        IssueType = "bias_issue"

	// Language issues
	IssueTone      IssueType = "inappropriate_tone"
	IssueFormality IssueType = "formality_issue"
	IssueClarity   IssueType = "clarity_issue"

	// Compliance issues
	IssueRegulatory IssueType = "regulatory_issue"
	IssueEthical    IssueType = "ethical_issue"
	IssueReporting  IssueType = "reporting_issue"

	// Cross-section issues
	IssueDuplication          IssueType = "duplication"
	IssueTimelineInconsistent IssueType = "timeline_inconsistency"
	IssueForbiddenTerm        IssueType = "forbidden_term"
	IssuePlaceholder          IssueType = "placeholder"
)

// Issue is an immutable finding produced by any checker.
type Issue struct {
	Type       IssueType `json:"type"`
	Severity   Severity  `json:"severity"`
	Message    string    `json:"message"`
	Location   string    `json:"location,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
}

// DimensionResult is the outcome of evaluating one dimension.
type DimensionResult struct {
	Dimension       Dimension `json:"dimension"`
	Score           float64   `json:"score"`
	MissingItems    []string  `json:"missing_items"`
	Recommendations []string  `json:"recommendations"`
	// Issues carries one severity-classified finding per missing element.
	Issues []Issue `json:"issues,omitempty"`
}

// SectionResult is the per-section completeness assessment.
type SectionResult struct {
	Section       string   `json:"section"`
	Completeness  float64  `json:"completeness"`
	MissingFields []string `json:"missing_fields"`
	Issues        []Issue  `json:"issues"`
}

// RegenerationTarget is one entry of the ranked improvement worklist:
// everything the content generator needs to revise a section.
type RegenerationTarget struct {
	Section         string   `json:"section"`
	MissingElement  string   `json:"missing_element"`
	Severity        Severity `json:"severity"`
	SuggestedPrompt string   `json:"suggested_prompt"`
}

// Report is the full outcome of one validation run.
type Report struct {
	ID           string                 `json:"id"`
	CreatedAt    time.Time              `json:"created_at"`
	StudyType    protocol.StudyType     `json:"study_type"`
	Category     protocol.StudyCategory `json:"category,omitempty"`
	Mode         Mode                   `json:"mode"`
	Degraded     bool                   `json:"degraded"`
	DegradedNote string                 `json:"degraded_note,omitempty"`

	PerDimension map[Dimension]DimensionResult `json:"per_dimension"`
	// PerSection preserves the document's section order. Each entry
	// carries every finding located in that section, whichever check
	// produced it.
	PerSection        []SectionResult `json:"per_section"`
	DuplicationIssues []Issue         `json:"duplication_issues"`
	TimelineIssues    []Issue         `json:"timeline_issues"`
	// ComplianceIssues holds the document-level structural findings
	// that no present section can own: missing sections, guideline
	// coverage gaps and phase focus gaps.
	ComplianceIssues []Issue `json:"compliance_issues"`

	// Targets ranks the per-section gaps for the content generator,
	// worst severity first.
	Targets []RegenerationTarget `json:"regeneration_targets,omitempty"`

	// OverallScore is in [0,1]; report-facing APIs show it as a percentage.
	OverallScore float64 `json:"overall_score"`
	// QualityScore is the importance-weighted 0-10 roll-up of section
	// completeness.
	QualityScore float64 `json:"quality_score"`
}

// Section returns the result for a named section, if present.
func (r *Report) Section(name string) (SectionResult, bool) {
	for _, sr := range r.PerSection {
		if sr.Section == name {
			return sr, true
		}
	}
	return SectionResult{}, false
}

// OverallPercent returns the document score on a 0-100 scale.
func (r *Report) OverallPercent() float64 {
	return r.OverallScore * 100
}

// AllIssues returns every issue on the report: dimension findings in
// mode order, section issues in document order, then duplication,
// timeline and document-level compliance findings.
func (r *Report) AllIssues() []Issue {
	var out []Issue
	for _, dim := range DimensionsFor(r.Mode) {
		if dr, ok := r.PerDimension[dim]; ok {
			out = append(out, dr.Issues...)
		}
	}
	for _, sr := range r.PerSection {
		out = append(out, sr.Issues...)
	}
	out = append(out, r.DuplicationIssues...)
	out = append(out, r.TimelineIssues...)
	out = append(out, r.ComplianceIssues...)
	return out
}

// CountBySeverity tallies all issues on the report per severity.
func (r *Report) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	for _, issue := range r.AllIssues() {
		counts[issue.Severity]++
	}
	return counts
}

// HasCritical reports whether any finding is critical.
func (r *Report) HasCritical() bool {
	return r.CountBySeverity()[SeverityCritical] > 0
}

// WorstSeverity returns the highest-ranked severity among issues, or the
// empty severity when there are none.
func WorstSeverity(issues []Issue) Severity {
	var worst Severity
	for _, issue := range issues {
		if issue.Severity.Rank() > worst.Rank() {
			worst = issue.Severity
		}
	}
	return worst
}
