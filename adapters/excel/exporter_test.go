package excel

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"protoval/domain/protocol"
	"protoval/domain/validation"
)

func fixtureReport() *validation.Report {
	return &validation.Report{
		ID:        "report-1",
		CreatedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		StudyType: protocol.Phase1,
		Category:  protocol.CategoryInterventional,
		Mode:      validation.ModeQuick,
		PerDimension: map[validation.Dimension]validation.DimensionResult{
			validation.ScientificRigor: {
				Dimension:    validation.ScientificRigor,
				Score:        0.8,
				MissingItems: []string{"endpoint justification"},
			},
		},
		PerSection: []validation.SectionResult{
			{Section: "objectives", Completeness: 95, MissingFields: []string{"secondary_objectives"}},
		},
		ComplianceIssues: []validation.Issue{{
			Type:     validation.IssueMissingSection,
			Severity: validation.SeverityCritical,
			Message:  "Missing required section: safety",
			Location: "safety",
		}},
		Targets: []validation.RegenerationTarget{{
			Section:         "safety",
			MissingElement:  "safety",
			Severity:        validation.SeverityCritical,
			SuggestedPrompt: "Draft the safety section.",
		}},
		OverallScore: 0.85,
	}
}

func TestExportWritesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	if err := NewExporter().Export(fixtureReport(), path); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("workbook does not open: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{"Summary", "Sections", "Findings", "Worklist"} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
			t.Errorf("missing sheet %s", sheet)
		}
	}

	if v, _ := f.GetCellValue("Summary", "B3"); v != "phase1" {
		t.Errorf("Summary!B3 = %q, want phase1", v)
	}
	if v, _ := f.GetCellValue("Summary", "B6"); v != "85.0%" {
		t.Errorf("Summary!B6 = %q, want 85.0%%", v)
	}
	if v, _ := f.GetCellValue("Sections", "A2"); v != "objectives" {
		t.Errorf("Sections!A2 = %q", v)
	}
	if v, _ := f.GetCellValue("Findings", "A2"); v != "critical" {
		t.Errorf("Findings!A2 = %q", v)
	}
	if v, _ := f.GetCellValue("Worklist", "E2"); v != "Draft the safety section." {
		t.Errorf("Worklist!E2 = %q", v)
	}
}
