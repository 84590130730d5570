// Package score turns dimension and section findings into the
// document-level numbers: the weighted overall score, per-section
// completeness and the 0-10 quality roll-up.
package score

import (
	"math"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"protoval/domain/validation"
	"protoval/internal/rules"
)

// Severity deductions and bonuses for section completeness.
const (
	criticalPenalty = 20.0
	majorPenalty    = 10.0
	minorPenalty    = 5.0
	cleanBonus      = 10.0
	noCriticalBonus = 5.0
)

// Roll-up penalty multipliers.
const (
	missingFieldsMultiplier   = 0.8
	recommendationsMultiplier = 0.9
	missingFieldsThreshold    = 3
)

// Scorer aggregates results using the weights of one rule snapshot.
type Scorer struct {
	repo *rules.Repository
}

// NewScorer returns a scorer bound to the given rule snapshot.
func NewScorer(repo *rules.Repository) *Scorer {
	return &Scorer{repo: repo}
}

// Overall combines dimension scores into the document score in [0,1]
// as the weighted mean under the scoring mode's weights. Missing
// dimension results simply contribute nothing.
func (s *Scorer) Overall(mode validation.Mode, results map[validation.Dimension]validation.DimensionResult) float64 {
	dims := validation.DimensionsFor(mode)
	scores := make([]float64, 0, len(dims))
	weights := make([]float64, 0, len(dims))
	for _, dim := range dims {
		res, ok := results[dim]
		if !ok {
			continue
		}
		scores = append(scores, res.Score)
		weights = append(weights, s.repo.Weight(mode, dim))
	}
	if len(scores) == 0 {
		return 0
	}
	return stat.Mean(scores, weights)
}

// SectionCompleteness scores one section from its findings: base 100,
// severity-weighted deductions, a bonus for a clean section and a
// smaller one for avoiding critical findings, clamped to [0,100].
func SectionCompleteness(issues []validation.Issue) float64 {
	completeness := 100.0
	critical := 0
	for _, is := range issues {
		switch is.Severity {
		case validation.SeverityCritical:
			completeness -= criticalPenalty
			critical++
		case validation.SeverityMajor:
			completeness -= majorPenalty
		case validation.SeverityMinor:
			completeness -= minorPenalty
		}
	}
	if len(issues) == 0 {
		completeness += cleanBonus
	}
	if critical == 0 {
		completeness += noCriticalBonus
	}
	return math.Max(0, math.Min(100, completeness))
}

// SectionResult assembles the completeness record for one section. An
// empty section is maximal non-compliance and scores zero regardless
// of findings.
func (s *Scorer) SectionResult(name, content string, issues []validation.Issue, missingFields []string) validation.SectionResult {
	sr := validation.SectionResult{
		Section:       name,
		MissingFields: missingFields,
		Issues:        issues,
	}
	if strings.TrimSpace(content) == "" {
		return sr
	}
	sr.Completeness = SectionCompleteness(issues)
	return sr
}

// Quality rolls per-section completeness into a 0-10 number weighted by
// section importance. A section with more than three missing fields is
// discounted by 0.8 and one with outstanding recommendations by a
// further 0.9; the multipliers compound.
func (s *Scorer) Quality(sections []validation.SectionResult) float64 {
	if len(sections) == 0 {
		return 0
	}
	var weighted, total float64
	for _, sr := range sections {
		importance := s.repo.SectionImportance(sr.Section)
		value := sr.Completeness
		if len(sr.MissingFields) > missingFieldsThreshold {
			value *= missingFieldsMultiplier
		}
		if hasRecommendations(sr) {
			value *= recommendationsMultiplier
		}
		weighted += value * importance
		total += importance
	}
	return weighted / total / 10
}

func hasRecommendations(sr validation.SectionResult) bool {
	for _, is := range sr.Issues {
		if is.Suggestion != "" {
			return true
		}
	}
	return false
}

// IssueScore is the coarse 0-100 score derived from findings alone:
// 100 minus 15 per critical and 5 per major finding. Minor findings do
// not reduce it.
func IssueScore(issues []validation.Issue) float64 {
	value := 100.0
	for _, is := range issues {
		switch is.Severity {
		case validation.SeverityCritical:
			value -= 15
		case validation.SeverityMajor:
			value -= 5
		}
	}
	return math.Max(0, math.Min(100, value))
}

// SectionStats summarizes the spread of per-section completeness.
type SectionStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// SummarizeSections computes distribution statistics over section
// completeness scores. Zero sections yield the zero value.
func SummarizeSections(sections []validation.SectionResult) SectionStats {
	if len(sections) == 0 {
		return SectionStats{}
	}
	data := make(stats.Float64Data, 0, len(sections))
	for _, sr := range sections {
		data = append(data, sr.Completeness)
	}
	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	low, _ := stats.Min(data)
	high, _ := stats.Max(data)
	sd, _ := stats.StandardDeviation(data)
	return SectionStats{Mean: mean, Median: median, Min: low, Max: high, StdDev: sd}
}
