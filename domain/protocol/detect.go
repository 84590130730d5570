package protocol

import "strings"

// typeSignals are scored against a synopsis to guess the study design.
// More specific phrases score higher than single generic words.
var typeSignals = []struct {
	phrase string
	weight int
	t      StudyType
}{
	{"systematic literature review", 4, SystematicReview},
	{"systematic review", 3, SystematicReview},
	{"meta-analysis", 3, MetaAnalysis},
	{"meta analysis", 3, MetaAnalysis},
	{"slr", 2, SystematicReview},
	{"real-world evidence", 3, RWE},
	{"real world evidence", 3, RWE},
	{"claims database", 2, RWE},
	{"registry", 1, RWE},
	{"electronic health record", 2, RWE},
	{"patient survey", 3, PatientSurvey},
	{"questionnaire", 2, PatientSurvey},
	{"observational cohort", 3, Observational},
	{"non-interventional", 2, Observational},
	{"prospective cohort", 2, Observational},
	{"phase 1", 3, Phase1},
	{"phase i ", 2, Phase1},
	{"first-in-human", 3, Phase1},
	{"dose escalation", 2, Phase1},
	{"phase 2", 3, Phase2},
	{"phase ii", 2, Phase2},
	{"dose finding", 2, Phase2},
	// "phase iii" contains "phase ii" as a substring, so it carries the
	// higher weight of the two.
	{"phase 3", 3, Phase3},
	{"phase iii", 3, Phase3},
	{"confirmatory", 1, Phase3},
	{"phase 4", 3, Phase4},
	{"phase iv", 2, Phase4},
	{"post-marketing", 2, Phase4},
}

// DetectStudyType guesses the study design from synopsis text by keyword
// scoring. Ties resolve to the interventional candidate; no signal at all
// falls back to phase2, the most common design in practice. Detection is
// advisory only - validation still degrades gracefully when the returned
// type has no specific rules.
func DetectStudyType(synopsis string) StudyType {
	content := strings.ToLower(synopsis)
	if strings.TrimSpace(content) == "" {
		return Phase2
	}

	scores := make(map[StudyType]int)
	for _, sig := range typeSignals {
		if strings.Contains(content, sig.phrase) {
			scores[sig.t] += sig.weight
		}
	}
	if len(scores) == 0 {
		return Phase2
	}

	// KnownStudyTypes lists interventional designs first, so ties resolve
	// to the interventional candidate.
	best := Phase2
	bestScore := -1
	for _, t := range KnownStudyTypes() {
		if score, ok := scores[t]; ok && score > bestScore {
			best, bestScore = t, score
		}
	}
	return best
}
