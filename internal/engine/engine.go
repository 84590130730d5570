// Package engine orchestrates a full validation run: parallel
// dimension evaluation, the document-level checks, aggregation and
// report assembly.
package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"protoval/domain/protocol"
	"protoval/domain/validation"
	"protoval/internal"
	"protoval/internal/checks"
	"protoval/internal/compliance"
	"protoval/internal/evaluate"
	"protoval/internal/missing"
	"protoval/internal/rules"
	"protoval/internal/score"
)

// Engine runs the scoring pipeline against the rule store's current
// snapshot. It is safe for concurrent use; every run pins the snapshot
// it started with.
type Engine struct {
	store   *rules.Store
	mode    validation.Mode
	workers int
	logger  *internal.Logger
}

// New creates an engine. workers bounds the number of concurrent
// evaluation tasks per run; values below one are raised to one.
func New(store *rules.Store, mode validation.Mode, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		store:   store,
		mode:    mode,
		workers: workers,
		logger:  internal.NewDefaultLogger(),
	}
}

// Validate scores the document under the engine's default mode.
func (e *Engine) Validate(doc *protocol.Document) *validation.Report {
	return e.ValidateMode(doc, e.mode)
}

// ValidateMode scores the document under an explicit scoring mode. The
// run never fails: unknown study types degrade to baseline rules and
// empty documents score zero.
func (e *Engine) ValidateMode(doc *protocol.Document, mode validation.Mode) *validation.Report {
	start := time.Now()
	repo := e.store.Current()
	st := doc.StudyType()

	report := &validation.Report{
		ID:        uuid.NewString(),
		CreatedAt: start,
		StudyType: st,
		Category:  st.Category(),
		Mode:      mode,
	}
	if !repo.KnownType(st) {
		report.Degraded = true
		report.DegradedNote = fmt.Sprintf(
			"study type %q is not configured; baseline rules were applied", st)
		e.logger.Warn("[Engine] %s", report.DegradedNote)
	}

	ev := evaluate.New(repo)
	dims := validation.DimensionsFor(mode)
	dimResults := make([]validation.DimensionResult, len(dims))

	var (
		dupIssues      []validation.Issue
		timelineIssues []validation.Issue
		langIssues     []validation.Issue
		designIssues   []validation.Issue
		draftIssues    []validation.Issue
		complIssues    []validation.Issue
		scan           missing.ScanResult
	)

	g := new(errgroup.Group)
	g.SetLimit(e.workers)
	for i, dim := range dims {
		g.Go(func() error {
			dimResults[i] = ev.Dimension(doc, st, dim)
			return nil
		})
	}
	g.Go(func() error {
		dupIssues = checks.CheckDuplication(doc)
		return nil
	})
	g.Go(func() error {
		timelineIssues = checks.CheckDocumentTimeline(doc)
		return nil
	})
	g.Go(func() error {
		langIssues = checks.CheckLanguage(doc, repo.LanguageRules())
		return nil
	})
	g.Go(func() error {
		designIssues = checks.CheckDesignLanguage(doc, repo.ForbiddenTerms(st))
		return nil
	})
	g.Go(func() error {
		draftIssues = checks.CheckSectionRequirements(doc, repo)
		return nil
	})
	g.Go(func() error {
		complIssues = compliance.NewChecker(repo).Check(doc, st)
		return nil
	})
	g.Go(func() error {
		scan = missing.NewScanner(repo).Scan(doc)
		return nil
	})
	// The tasks cannot fail; Wait is the join barrier.
	_ = g.Wait()

	report.PerDimension = make(map[validation.Dimension]validation.DimensionResult, len(dims))
	for _, dr := range dimResults {
		report.PerDimension[dr.Dimension] = dr
		e.logger.Debug("[Engine] %s: %.2f, %d findings", dr.Dimension, dr.Score, len(dr.Issues))
	}

	sectionCompl, residue := splitCompliance(repo, doc, complIssues)
	report.ComplianceIssues = residue
	report.DuplicationIssues = dupIssues
	report.TimelineIssues = timelineIssues

	scorer := score.NewScorer(repo)
	report.PerSection = e.sectionResults(scorer, doc, scan, sectionCompl, designIssues, draftIssues, langIssues)
	report.OverallScore = scorer.Overall(mode, report.PerDimension)
	report.QualityScore = scorer.Quality(report.PerSection)
	report.Targets = targets(repo, scan, residue)

	e.logger.Info("[Engine] Scored %s document: %.1f%% overall, %d findings across %d sections (%s)",
		st, report.OverallPercent(), len(report.AllIssues()), doc.Len(),
		time.Since(start).Round(time.Microsecond))
	return report
}

// splitCompliance attaches section-expectation findings to the present
// section that owns them and returns the rest as document-level
// residue.
func splitCompliance(repo *rules.Repository, doc *protocol.Document, issues []validation.Issue) (map[string][]validation.Issue, []validation.Issue) {
	byCanonical := make(map[string]string, doc.Len())
	for _, name := range doc.Names() {
		canonical := repo.CanonicalSection(name)
		if _, ok := byCanonical[canonical]; !ok {
			byCanonical[canonical] = name
		}
	}

	perSection := make(map[string][]validation.Issue)
	var residue []validation.Issue
	for _, is := range issues {
		if is.Type == validation.IssueMissingSection || is.Location == "" {
			residue = append(residue, is)
			continue
		}
		name, ok := byCanonical[is.Location]
		if !ok {
			residue = append(residue, is)
			continue
		}
		perSection[name] = append(perSection[name], is)
	}
	return perSection, residue
}

// sectionResults assembles the per-section records in document order.
// Issue order within a section is fixed: field gaps, markers, section
// expectations, design conflicts, drafting-rule findings, language
// findings.
func (e *Engine) sectionResults(scorer *score.Scorer, doc *protocol.Document, scan missing.ScanResult, compl map[string][]validation.Issue, design, draft, lang []validation.Issue) []validation.SectionResult {
	gapIssues := make(map[string][]validation.Issue)
	markerIssues := make(map[string][]validation.Issue)
	for _, is := range scan.Issues() {
		if is.Type == validation.IssuePlaceholder {
			markerIssues[is.Location] = append(markerIssues[is.Location], is)
			continue
		}
		gapIssues[is.Location] = append(gapIssues[is.Location], is)
	}
	designIssues := groupByLocation(design)
	draftIssues := groupByLocation(draft)
	langIssues := groupByLocation(lang)

	results := make([]validation.SectionResult, 0, doc.Len())
	for _, name := range doc.Names() {
		var issues []validation.Issue
		issues = append(issues, gapIssues[name]...)
		issues = append(issues, markerIssues[name]...)
		issues = append(issues, compl[name]...)
		issues = append(issues, designIssues[name]...)
		issues = append(issues, draftIssues[name]...)
		issues = append(issues, langIssues[name]...)

		content, _ := doc.Get(name)
		results = append(results, scorer.SectionResult(name, content, issues, scan.GapsFor(name)))
	}
	return results
}

func groupByLocation(issues []validation.Issue) map[string][]validation.Issue {
	out := make(map[string][]validation.Issue)
	for _, is := range issues {
		out[is.Location] = append(out[is.Location], is)
	}
	return out
}

// targets builds the ranked regeneration worklist: absent required
// sections first, then the field gaps of present sections.
func targets(repo *rules.Repository, scan missing.ScanResult, residue []validation.Issue) []validation.RegenerationTarget {
	var out []validation.RegenerationTarget
	for _, is := range residue {
		if is.Type != validation.IssueMissingSection {
			continue
		}
		label := strings.ReplaceAll(is.Location, "_", " ")
		prompt := fmt.Sprintf("Draft the %s section.", label)
		if fields := repo.RequiredFields(is.Location); len(fields) > 0 {
			labels := make([]string, len(fields))
			for i, f := range fields {
				labels[i] = strings.ReplaceAll(f, "_", " ")
			}
			prompt = fmt.Sprintf("Draft the %s section covering: %s.", label, strings.Join(labels, ", "))
		}
		out = append(out, validation.RegenerationTarget{
			Section:         is.Location,
			MissingElement:  label,
			Severity:        is.Severity,
			SuggestedPrompt: prompt,
		})
	}
	for _, gap := range scan.Gaps {
		out = append(out, validation.RegenerationTarget{
			Section:         gap.Section,
			MissingElement:  strings.ReplaceAll(gap.Field, "_", " "),
			Severity:        validation.SeverityMajor,
			SuggestedPrompt: gap.Prompt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() > out[j].Severity.Rank()
	})
	return out
}
