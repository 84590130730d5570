package ports

import (
	"io"

	"protoval/domain/validation"
)

// ReportRenderer formats a validation report for human review.
type ReportRenderer interface {
	Text(r *validation.Report) string
	Markdown(r *validation.Report) string
}

// ReportExporter writes a validation report to an external file
// format, e.g. an Excel workbook. Export targets a path on disk;
// Write streams the same artifact, for download handlers.
type ReportExporter interface {
	Export(r *validation.Report, path string) error
	Write(r *validation.Report, w io.Writer) error
}
