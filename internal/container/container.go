// Package container assembles the application dependency graph from
// configuration and manages its lifecycle.
package container

import (
	"fmt"
	"log"

	"protoval/adapters/excel"
	"protoval/adapters/ingest"
	"protoval/adapters/llm"
	"protoval/adapters/llm/heuristic"
	"protoval/app"
	"protoval/domain/validation"
	"protoval/internal/config"
	"protoval/internal/engine"
	"protoval/internal/report"
	"protoval/internal/rules"
	"protoval/internal/session"
	"protoval/internal/usage"
	"protoval/ports"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config

	// Core components
	Rules    *rules.Store
	Engine   *engine.Engine
	Sessions *session.Store
	Usage    *usage.Service

	// Adapters behind ports
	Parser    ports.DocumentParser
	Generator ports.GeneratorPort
	Exporter  ports.ReportExporter
	Renderer  ports.ReportRenderer

	// Application services
	Reviews      *app.ReviewService
	Improvements *app.ImprovementService

	generatorKind string
	stopJanitor   func()
}

// New builds the full dependency graph.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{Config: cfg}

	if err := c.initRules(); err != nil {
		return nil, fmt.Errorf("failed to initialize rules: %w", err)
	}
	c.initEngine()
	c.initAdapters()
	c.initServices()

	log.Printf("Container initialized: %d study types, %s scoring, %s generator",
		len(c.Rules.Current().StudyTypes()), cfg.Rules.Mode, c.generatorKind)
	return c, nil
}

// initRules loads the embedded rule set, then an operator override when
// RULES_FILE is set.
func (c *Container) initRules() error {
	repo, err := rules.Load()
	if err != nil {
		return err
	}
	c.Rules = rules.NewStore(repo)

	if c.Config.Rules.File != "" {
		if err := c.Rules.ReloadFile(c.Config.Rules.File); err != nil {
			return fmt.Errorf("loading rule file %s: %w", c.Config.Rules.File, err)
		}
		log.Printf("Loaded operator rule set from %s", c.Config.Rules.File)
	}
	return nil
}

func (c *Container) initEngine() {
	c.Engine = engine.New(c.Rules, validation.Mode(c.Config.Rules.Mode), c.Config.Rules.MaxWorkers)
}

func (c *Container) initAdapters() {
	c.Parser = ingest.NewReader()
	c.Exporter = excel.NewExporter()
	c.Renderer = report.NewRenderer()
	c.Usage = usage.NewService()
	c.Sessions = session.NewStore(c.Config.Session.TTL)
	c.initGenerator()
}

// initGenerator selects the content generator. The LLM adapter is used
// only when configured; any setup failure falls back to the heuristic
// generator so the server still starts.
func (c *Container) initGenerator() {
	fallback := heuristic.NewGenerator()
	c.generatorKind = "heuristic"

	if c.Config.Generator.Kind != "openai" {
		c.Generator = fallback
		return
	}

	gen, err := llm.NewGeneratorAdapter(llm.Config{
		Model:               c.Config.Generator.Model,
		APIKey:              c.Config.Generator.OpenAIKey,
		BaseURL:             c.Config.Generator.BaseURL,
		Temperature:         c.Config.Generator.Temperature,
		MaxTokens:           c.Config.Generator.MaxTokens,
		Timeout:             c.Config.Generator.Timeout,
		FallbackToHeuristic: true,
	}, fallback, c.Usage)
	if err != nil {
		log.Printf("Warning: failed to initialize LLM generator, using heuristic: %v", err)
		c.Generator = fallback
		return
	}
	c.Generator = gen
	c.generatorKind = "openai"
}

func (c *Container) initServices() {
	c.Reviews = app.NewReviewService(c.Parser, c.Engine, c.Sessions, c.Exporter)
	c.Improvements = app.NewImprovementService(c.Generator, c.Engine, c.Rules, c.Sessions)
}

// GeneratorKind reports which generator adapter is wired in.
func (c *Container) GeneratorKind() string {
	return c.generatorKind
}

// StartJanitor begins periodic eviction of idle sessions.
func (c *Container) StartJanitor() {
	if c.stopJanitor != nil {
		return
	}
	c.stopJanitor = c.Sessions.StartJanitor(c.Config.Session.TTL / 4)
}

// Shutdown stops background work.
func (c *Container) Shutdown() {
	if c.stopJanitor != nil {
		c.stopJanitor()
		c.stopJanitor = nil
	}
}
