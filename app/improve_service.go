package app

import (
	"context"
	"fmt"
	"time"

	"protoval/domain/core"
	"protoval/domain/protocol"
	"protoval/domain/validation"
	"protoval/internal/engine"
	"protoval/internal/rules"
	"protoval/internal/session"
	"protoval/ports"
)

// ImprovementService rewrites weak sections through the generator port
// and re-scores the document so callers always see fresh findings.
type ImprovementService struct {
	generator ports.GeneratorPort
	engine    *engine.Engine
	rules     *rules.Store
	sessions  *session.Store
}

// NewImprovementService creates an improvement service.
func NewImprovementService(generator ports.GeneratorPort, eng *engine.Engine, store *rules.Store, sessions *session.Store) *ImprovementService {
	return &ImprovementService{
		generator: generator,
		engine:    eng,
		rules:     store,
		sessions:  sessions,
	}
}

// ImproveSectionRequest names one section of a scored document.
type ImproveSectionRequest struct {
	Document *protocol.Document
	Report   *validation.Report
	Section  string
}

// ImproveSectionResult carries the rewrite and the re-scored document.
type ImproveSectionResult struct {
	Generation *ports.SectionGeneration
	Document   *protocol.Document
	Report     *validation.Report
	RuntimeMs  int64
}

// ImproveSection generates replacement text for one section, applies it
// and re-scores the document. The section may be absent from the
// document, in which case it is drafted from the rule requirements.
func (s *ImprovementService) ImproveSection(ctx context.Context, req ImproveSectionRequest) (*ImproveSectionResult, error) {
	start := time.Now()
	if req.Document == nil || req.Report == nil {
		return nil, fmt.Errorf("improve section: document and report are required")
	}
	if req.Section == "" {
		return nil, fmt.Errorf("improve section: section name is required")
	}

	gen, err := s.generator.GenerateSection(ctx, s.sectionRequest(req))
	if err != nil {
		return nil, fmt.Errorf("generating %s section: %w", req.Section, err)
	}

	doc := req.Document.WithSection(req.Section, gen.Content)
	report := s.rescore(doc, req.Report.Mode)

	return &ImproveSectionResult{
		Generation: gen,
		Document:   doc,
		Report:     report,
		RuntimeMs:  time.Since(start).Milliseconds(),
	}, nil
}

// ImproveAllRequest asks for every ranked target to be rewritten.
type ImproveAllRequest struct {
	Document *protocol.Document
	Report   *validation.Report
	// MaxSections caps how many distinct sections are rewritten; zero
	// means all of them.
	MaxSections int
}

// ImproveAllResult carries the rewrites and the final re-scored state.
type ImproveAllResult struct {
	Generations []*ports.SectionGeneration
	Document    *protocol.Document
	Report      *validation.Report
	RuntimeMs   int64
}

// ImproveAll walks the report's regeneration targets worst-first and
// rewrites each distinct section once, then re-scores the result in a
// single pass.
func (s *ImprovementService) ImproveAll(ctx context.Context, req ImproveAllRequest) (*ImproveAllResult, error) {
	start := time.Now()
	if req.Document == nil || req.Report == nil {
		return nil, fmt.Errorf("improve all: document and report are required")
	}

	doc := req.Document
	seen := make(map[string]bool)
	var gens []*ports.SectionGeneration
	for _, target := range req.Report.Targets {
		if seen[target.Section] {
			continue
		}
		if req.MaxSections > 0 && len(gens) >= req.MaxSections {
			break
		}
		seen[target.Section] = true

		gen, err := s.generator.GenerateSection(ctx, s.sectionRequest(ImproveSectionRequest{
			Document: doc,
			Report:   req.Report,
			Section:  target.Section,
		}))
		if err != nil {
			return nil, fmt.Errorf("generating %s section: %w", target.Section, err)
		}
		doc = doc.WithSection(target.Section, gen.Content)
		gens = append(gens, gen)
	}

	return &ImproveAllResult{
		Generations: gens,
		Document:    doc,
		Report:      s.rescore(doc, req.Report.Mode),
		RuntimeMs:   time.Since(start).Milliseconds(),
	}, nil
}

// ImproveInSession rewrites one section of a stored session, records
// the revision and returns the updated session.
func (s *ImprovementService) ImproveInSession(ctx context.Context, id core.SessionID, sectionName string) (*session.Session, *ports.SectionGeneration, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, nil, err
	}

	res, err := s.ImproveSection(ctx, ImproveSectionRequest{
		Document: sess.Document,
		Report:   sess.Report,
		Section:  sectionName,
	})
	if err != nil {
		return nil, nil, err
	}

	next := sess.WithRevision(res.Document, res.Report, session.Revision{
		Section:   sectionName,
		Audit:     res.Generation.Audit,
		AppliedAt: time.Now(),
	})
	s.sessions.Put(next)
	return next, res.Generation, nil
}

// ImproveAllInSession rewrites every targeted section of a stored
// session, records one revision per rewrite and returns the updated
// session.
func (s *ImprovementService) ImproveAllInSession(ctx context.Context, id core.SessionID, maxSections int) (*session.Session, []*ports.SectionGeneration, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, nil, err
	}

	res, err := s.ImproveAll(ctx, ImproveAllRequest{
		Document:    sess.Document,
		Report:      sess.Report,
		MaxSections: maxSections,
	})
	if err != nil {
		return nil, nil, err
	}

	next := sess
	applied := time.Now()
	for _, gen := range res.Generations {
		next = next.WithRevision(res.Document, res.Report, session.Revision{
			Section:   gen.Section,
			Audit:     gen.Audit,
			AppliedAt: applied,
		})
	}
	s.sessions.Put(next)
	return next, res.Generations, nil
}

// sectionRequest assembles the generator input for one section. Present
// sections contribute their text and scored findings; absent sections
// fall back to the rule repository's required fields.
func (s *ImprovementService) sectionRequest(req ImproveSectionRequest) ports.SectionRequest {
	out := ports.SectionRequest{
		StudyType: req.Document.StudyType(),
		Section:   req.Section,
	}
	if content, ok := req.Document.Get(req.Section); ok {
		out.CurrentContent = content
	}

	if sr, ok := req.Report.Section(req.Section); ok {
		out.MissingFields = sr.MissingFields
		out.Issues = sr.Issues
		return out
	}

	repo := s.rules.Current()
	canonical := repo.CanonicalSection(req.Section)
	out.MissingFields = repo.RequiredFields(canonical)
	for _, is := range req.Report.ComplianceIssues {
		if is.Location == canonical {
			out.Issues = append(out.Issues, is)
		}
	}
	return out
}

func (s *ImprovementService) rescore(doc *protocol.Document, mode validation.Mode) *validation.Report {
	if mode == "" {
		return s.engine.Validate(doc)
	}
	return s.engine.ValidateMode(doc, mode)
}
