package validation

import (
	"testing"

	"protoval/domain/protocol"
)

func TestSeverityRanking(t *testing.T) {
	if SeverityCritical.Rank() <= SeverityMajor.Rank() {
		t.Error("critical must outrank major")
	}
	if SeverityMajor.Rank() <= SeverityMinor.Rank() {
		t.Error("major must outrank minor")
	}
	if Severity("bogus").Rank() != 0 {
		t.Error("unknown severity must rank zero")
	}
}

func TestWorstSeverity(t *testing.T) {
	issues := []Issue{
		{Severity: SeverityMinor},
		{Severity: SeverityCritical},
		{Severity: SeverityMajor},
	}
	if got := WorstSeverity(issues); got != SeverityCritical {
		t.Errorf("WorstSeverity = %q, want critical", got)
	}
	if got := WorstSeverity(nil); got != Severity("") {
		t.Errorf("WorstSeverity(nil) = %q, want empty", got)
	}
}

func TestDimensionsForMode(t *testing.T) {
	if got := len(DimensionsFor(ModeFull)); got != 6 {
		t.Errorf("full mode has %d dimensions, want 6", got)
	}
	if got := len(DimensionsFor(ModeQuick)); got != 3 {
		t.Errorf("quick mode has %d dimensions, want 3", got)
	}
	// Unknown modes score everything rather than nothing.
	if got := len(DimensionsFor(Mode("bogus"))); got != 6 {
		t.Errorf("unknown mode has %d dimensions, want 6", got)
	}
}

func TestDimensionLabel(t *testing.T) {
	if got := ScientificRigor.Label(); got != "Scientific Rigor" {
		t.Errorf("label = %q", got)
	}
	if got := OperationalFeasibility.Label(); got != "Operational Feasibility" {
		t.Errorf("label = %q", got)
	}
}

func TestReportHelpers(t *testing.T) {
	report := &Report{
		StudyType: protocol.Phase1,
		Mode:      ModeQuick,
		PerDimension: map[Dimension]DimensionResult{
			Methodology: {
				Dimension: Methodology,
				Issues:    []Issue{{Severity: SeverityMajor, Message: "dim"}},
			},
		},
		PerSection: []SectionResult{
			{Section: "objectives", Issues: []Issue{{Severity: SeverityMajor, Message: "a"}}},
			{Section: "safety", Issues: []Issue{{Severity: SeverityMinor, Message: "b"}}},
		},
		DuplicationIssues: []Issue{{Severity: SeverityMajor, Message: "c"}},
		TimelineIssues:    []Issue{{Severity: SeverityMajor, Message: "d"}},
	}

	all := report.AllIssues()
	if len(all) != 5 {
		t.Fatalf("AllIssues = %d, want 5", len(all))
	}
	if all[0].Message != "dim" || all[1].Message != "a" || all[4].Message != "d" {
		t.Error("issue ordering not preserved")
	}

	counts := report.CountBySeverity()
	if counts[SeverityMajor] != 4 || counts[SeverityMinor] != 1 {
		t.Errorf("counts = %v", counts)
	}
	if report.HasCritical() {
		t.Error("no critical issues expected")
	}

	if _, ok := report.Section("safety"); !ok {
		t.Error("section lookup failed")
	}
	if _, ok := report.Section("missing"); ok {
		t.Error("lookup of absent section should fail")
	}
}
