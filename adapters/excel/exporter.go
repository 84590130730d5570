// Package excel writes validation reports to Excel workbooks for
// review outside the tool.
package excel

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/xuri/excelize/v2"

	"protoval/domain/validation"
	"protoval/internal/errors"
)

// Exporter implements ports.ReportExporter.
type Exporter struct{}

// NewExporter creates a workbook exporter
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export writes the report to path as a four-sheet workbook: summary,
// per-section scores, the full findings list and the regeneration
// worklist.
func (e *Exporter) Export(r *validation.Report, path string) error {
	f, err := e.build(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return errors.ExportFailed("xlsx", err)
	}
	log.Printf("[ReportExporter] Wrote workbook %s (%d findings)", path, len(r.AllIssues()))
	return nil
}

// Write streams the workbook to w, for download handlers.
func (e *Exporter) Write(r *validation.Report, w io.Writer) error {
	f, err := e.build(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return errors.ExportFailed("xlsx", err)
	}
	return nil
}

func (e *Exporter) build(r *validation.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if err := e.writeSummary(f, r); err != nil {
		f.Close()
		return nil, err
	}
	if err := e.writeSections(f, r); err != nil {
		f.Close()
		return nil, err
	}
	if err := e.writeFindings(f, r); err != nil {
		f.Close()
		return nil, err
	}
	if err := e.writeWorklist(f, r); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (e *Exporter) writeSummary(f *excelize.File, r *validation.Report) error {
	rows := [][]interface{}{
		{"Report ID", r.ID},
		{"Created", r.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Study type", string(r.StudyType)},
		{"Category", string(r.Category)},
		{"Scoring mode", string(r.Mode)},
		{"Overall score", fmt.Sprintf("%.1f%%", r.OverallPercent())},
		{"Quality score", fmt.Sprintf("%.1f / 10", r.QualityScore)},
	}
	if r.Degraded {
		rows = append(rows, []interface{}{"Note", r.DegradedNote})
	}
	rows = append(rows, []interface{}{}, []interface{}{"Dimension", "Score", "Missing elements"})
	for _, dim := range validation.DimensionsFor(r.Mode) {
		dr, ok := r.PerDimension[dim]
		if !ok {
			continue
		}
		rows = append(rows, []interface{}{dim.Label(), fmt.Sprintf("%.1f%%", dr.Score*100), len(dr.MissingItems)})
	}
	return writeRows(f, "Summary", rows)
}

func (e *Exporter) writeSections(f *excelize.File, r *validation.Report) error {
	rows := [][]interface{}{{"Section", "Completeness", "Missing fields", "Findings"}}
	for _, sr := range r.PerSection {
		rows = append(rows, []interface{}{
			sr.Section,
			sr.Completeness,
			strings.Join(sr.MissingFields, ", "),
			len(sr.Issues),
		})
	}
	return addSheet(f, "Sections", rows)
}

func (e *Exporter) writeFindings(f *excelize.File, r *validation.Report) error {
	rows := [][]interface{}{{"Severity", "Type", "Location", "Message", "Suggestion"}}
	for _, is := range r.AllIssues() {
		rows = append(rows, []interface{}{
			string(is.Severity),
			string(is.Type),
			is.Location,
			is.Message,
			is.Suggestion,
		})
	}
	return addSheet(f, "Findings", rows)
}

func (e *Exporter) writeWorklist(f *excelize.File, r *validation.Report) error {
	rows := [][]interface{}{{"Rank", "Severity", "Section", "Missing element", "Prompt"}}
	for i, tg := range r.Targets {
		rows = append(rows, []interface{}{
			i + 1,
			string(tg.Severity),
			tg.Section,
			tg.MissingElement,
			tg.SuggestedPrompt,
		})
	}
	return addSheet(f, "Worklist", rows)
}

func addSheet(f *excelize.File, name string, rows [][]interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	return writeRows(f, name, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
