// Package app wires document ingestion, the scoring engine and section
// generation into the use cases the CLI, UI and API call.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"protoval/domain/protocol"
	"protoval/domain/validation"
	"protoval/internal/engine"
	"protoval/internal/session"
	"protoval/ports"
)

// ReviewService turns an uploaded file into a scored review session.
type ReviewService struct {
	parser   ports.DocumentParser
	engine   *engine.Engine
	sessions *session.Store
	exporter ports.ReportExporter
}

// NewReviewService creates a review service.
func NewReviewService(parser ports.DocumentParser, eng *engine.Engine, sessions *session.Store, exporter ports.ReportExporter) *ReviewService {
	return &ReviewService{
		parser:   parser,
		engine:   eng,
		sessions: sessions,
		exporter: exporter,
	}
}

// ReviewRequest describes one uploaded document.
type ReviewRequest struct {
	Filename string
	Data     []byte
	// StudyType overrides detection when non-empty.
	StudyType string
	// Mode selects the scoring mode; empty uses the engine default.
	Mode validation.Mode
}

// ReviewResult is a scored document with its session handle.
type ReviewResult struct {
	Session   *session.Session
	Document  *protocol.Document
	Report    *validation.Report
	RuntimeMs int64
}

// Review parses, scores and registers an uploaded document. The run
// fails only on unreadable input; questionable content comes back as
// findings on the report instead.
func (s *ReviewService) Review(ctx context.Context, req ReviewRequest) (*ReviewResult, error) {
	start := time.Now()

	doc, err := s.parser.Parse(req.Filename, req.Data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", req.Filename, err)
	}
	if req.StudyType != "" {
		doc = protocol.NewDocumentFromSections(protocol.ParseStudyType(req.StudyType), doc.Sections())
	}

	var report *validation.Report
	if req.Mode == "" {
		report = s.engine.Validate(doc)
	} else {
		report = s.engine.ValidateMode(doc, req.Mode)
	}

	sess := s.sessions.Create(req.Filename, doc, report)
	return &ReviewResult{
		Session:   sess,
		Document:  doc,
		Report:    report,
		RuntimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// ExportWorkbook writes a report to an Excel workbook at path.
func (s *ReviewService) ExportWorkbook(report *validation.Report, path string) error {
	if err := s.exporter.Export(report, path); err != nil {
		return fmt.Errorf("exporting workbook: %w", err)
	}
	return nil
}

// WriteWorkbook streams the report workbook, for download handlers.
func (s *ReviewService) WriteWorkbook(report *validation.Report, w io.Writer) error {
	if err := s.exporter.Write(report, w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
