// Package testkit provides shared fixtures for exercising the scoring
// pipeline in tests: a ready-made engine over the embedded rule set,
// study documents at known quality levels, and a scripted generator.
package testkit

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"protoval/domain/validation"
	"protoval/internal/engine"
	"protoval/internal/rules"
	"protoval/ports"
)

// Kit bundles the pieces most tests need to score a document.
type Kit struct {
	Rules  *rules.Store
	Engine *engine.Engine
}

// NewKit loads the embedded rule set and builds a full-mode engine.
func NewKit() (*Kit, error) {
	repo, err := rules.Load()
	if err != nil {
		return nil, fmt.Errorf("loading embedded rules: %w", err)
	}
	store := rules.NewStore(repo)
	return &Kit{
		Rules:  store,
		Engine: engine.New(store, validation.ModeFull, 4),
	}, nil
}

// FakeGenerator is a scripted ports.GeneratorPort for service tests. It
// records every request and returns Response verbatim, or a scaffold
// naming each missing field so a re-scored section detects them.
type FakeGenerator struct {
	mu       sync.Mutex
	Response string
	Err      error
	Requests []ports.SectionRequest
}

func (g *FakeGenerator) GenerateSection(ctx context.Context, req ports.SectionRequest) (*ports.SectionGeneration, error) {
	g.mu.Lock()
	g.Requests = append(g.Requests, req)
	g.mu.Unlock()

	if g.Err != nil {
		return nil, g.Err
	}
	content := g.Response
	if content == "" {
		content = scaffold(req)
	}
	return &ports.SectionGeneration{
		Section: req.Section,
		Content: content,
		Audit:   ports.GenerationAudit{GeneratorType: "fake"},
	}, nil
}

// RequestCount reports how many generation requests were made.
func (g *FakeGenerator) RequestCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Requests)
}

func scaffold(req ports.SectionRequest) string {
	var b strings.Builder
	if strings.TrimSpace(req.CurrentContent) != "" {
		b.WriteString(strings.TrimSpace(req.CurrentContent))
		b.WriteString("\n\n")
	}
	for _, field := range req.MissingFields {
		fmt.Fprintf(&b, "The %s is specified in this section. ", strings.ReplaceAll(field, "_", " "))
	}
	if b.Len() == 0 {
		fmt.Fprintf(&b, "This section provides the %s for the study.", strings.ReplaceAll(req.Section, "_", " "))
	}
	return strings.TrimSpace(b.String())
}
