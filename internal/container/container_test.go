package container

import (
	"context"
	"testing"
	"time"

	"protoval/app"
	"protoval/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "8080", APIPort: "8081"},
		Rules:     config.RulesConfig{Mode: "full", MaxWorkers: 2},
		Generator: config.GeneratorConfig{Kind: "heuristic"},
		Session:   config.SessionConfig{TTL: time.Hour},
	}
}

func TestNewWiresGraph(t *testing.T) {
	c, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.Engine == nil || c.Sessions == nil || c.Usage == nil {
		t.Fatal("core components left nil")
	}
	if c.Parser == nil || c.Generator == nil || c.Exporter == nil || c.Renderer == nil {
		t.Fatal("adapters left nil")
	}
	if c.Reviews == nil || c.Improvements == nil {
		t.Fatal("services left nil")
	}
	if c.GeneratorKind() != "heuristic" {
		t.Errorf("generator kind = %q, want heuristic", c.GeneratorKind())
	}
	if len(c.Rules.Current().StudyTypes()) == 0 {
		t.Error("rule store has no study types")
	}
}

func TestNewNilConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNewBadRuleFile(t *testing.T) {
	cfg := testConfig()
	cfg.Rules.File = "/nonexistent/rules.yaml"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for missing rule file")
	}
}

func TestJanitorLifecycle(t *testing.T) {
	c, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c.StartJanitor()
	c.StartJanitor()
	c.Shutdown()
	c.Shutdown()
}

func TestContainerEndToEnd(t *testing.T) {
	c, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	payload := "# A Phase 1 Study of PV-101\n\n## Objectives\nThe primary objective is to assess safety.\n"
	res, err := c.Reviews.Review(context.Background(), app.ReviewRequest{
		Filename: "protocol.md",
		Data:     []byte(payload),
	})
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if res.Report == nil || res.Session == nil {
		t.Fatal("review returned incomplete result")
	}

	sess, gen, err := c.Improvements.ImproveInSession(context.Background(), res.Session.ID, "Objectives")
	if err != nil {
		t.Fatalf("ImproveInSession failed: %v", err)
	}
	if gen.Content == "" {
		t.Error("generated section is empty")
	}
	if len(sess.History) != 1 {
		t.Errorf("history length = %d, want 1", len(sess.History))
	}
}
