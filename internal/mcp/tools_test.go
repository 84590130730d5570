package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"protoval/domain/validation"
	"protoval/internal/config"
	"protoval/internal/container"
)

const sampleProtocol = `# A Phase 1 Study of PV-101

## Objectives

The primary objective is to assess safety and tolerability.

## Study Design

[PLACEHOLDER: *sample size pending statistical review*]
`

func newTestContainer(t *testing.T) *container.Container {
	t.Helper()
	c, err := container.New(&config.Config{
		Server:    config.ServerConfig{Port: "0", APIPort: "0"},
		Rules:     config.RulesConfig{Mode: "full", MaxWorkers: 2},
		Generator: config.GeneratorConfig{Kind: "heuristic"},
		Session:   config.SessionConfig{TTL: time.Hour},
	})
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	return c
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func mustNotError(t *testing.T, r *mcp.CallToolResult, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if r.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(r))
	}
}

// mustBeToolError asserts the Handle call returns a tool error (not a Go error).
func mustBeToolError(t *testing.T, r *mcp.CallToolResult, err error, wantSubstr string) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if !r.IsError {
		t.Fatalf("expected tool error containing %q, got success: %s", wantSubstr, resultText(r))
	}
	if wantSubstr != "" && !strings.Contains(resultText(r), wantSubstr) {
		t.Errorf("error text %q does not contain %q", resultText(r), wantSubstr)
	}
}

// validateSession scores the sample protocol through the validate tool
// and returns the session id from the JSON output.
func validateSession(t *testing.T, c *container.Container) string {
	t.Helper()
	tool := NewValidateTool(c.Reviews, c.Renderer)
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"content": sampleProtocol,
		"format":  "json",
	}))
	mustNotError(t, result, err)

	var payload struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal([]byte(resultText(result)), &payload); err != nil {
		t.Fatalf("decoding validate output: %v", err)
	}
	if payload.SessionID == "" {
		t.Fatal("validate output has no session id")
	}
	return payload.SessionID
}

func TestValidateTool_Definition(t *testing.T) {
	c := newTestContainer(t)
	tool := NewValidateTool(c.Reviews, c.Renderer)
	def := tool.Definition()

	if def.Name != "validate_protocol" {
		t.Errorf("tool name = %q, want %q", def.Name, "validate_protocol")
	}

	props := def.InputSchema.Properties
	for _, p := range []string{"content", "filename", "study_type", "mode", "format"} {
		if _, ok := props[p]; !ok {
			t.Errorf("missing %q parameter", p)
		}
	}

	found := false
	for _, r := range def.InputSchema.Required {
		if r == "content" {
			found = true
		}
	}
	if !found {
		t.Error("'content' should be required")
	}
}

func TestValidateTool_ScoresDocument(t *testing.T) {
	c := newTestContainer(t)
	tool := NewValidateTool(c.Reviews, c.Renderer)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"content": sampleProtocol,
	}))
	mustNotError(t, result, err)

	text := resultText(result)
	if !strings.HasPrefix(text, "Session: ") {
		t.Errorf("output should lead with the session id, got: %.60s", text)
	}
	if !strings.Contains(text, "Protocol Validation Report") {
		t.Error("output should contain the rendered report")
	}
	if !strings.Contains(text, "phase1") {
		t.Error("output should reflect the detected study type")
	}
}

func TestValidateTool_JSONFormat(t *testing.T) {
	c := newTestContainer(t)
	tool := NewValidateTool(c.Reviews, c.Renderer)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"content": sampleProtocol,
		"format":  "json",
	}))
	mustNotError(t, result, err)

	var payload struct {
		SessionID string             `json:"session_id"`
		Report    *validation.Report `json:"report"`
	}
	if err := json.Unmarshal([]byte(resultText(result)), &payload); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if payload.SessionID == "" {
		t.Error("json output should carry the session id")
	}
	if payload.Report == nil || payload.Report.StudyType != "phase1" {
		t.Errorf("report study type = %v, want phase1", payload.Report)
	}
}

func TestValidateTool_MarkdownFormat(t *testing.T) {
	c := newTestContainer(t)
	tool := NewValidateTool(c.Reviews, c.Renderer)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"content": sampleProtocol,
		"format":  "markdown",
	}))
	mustNotError(t, result, err)

	if !strings.Contains(resultText(result), "# Protocol Validation Report") {
		t.Error("markdown output should contain the report heading")
	}
}

func TestValidateTool_MissingContent(t *testing.T) {
	c := newTestContainer(t)
	tool := NewValidateTool(c.Reviews, c.Renderer)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	mustBeToolError(t, result, err, "content is required")
}

func TestValidateTool_InvalidMode(t *testing.T) {
	c := newTestContainer(t)
	tool := NewValidateTool(c.Reviews, c.Renderer)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"content": sampleProtocol,
		"mode":    "fast",
	}))
	mustBeToolError(t, result, err, "invalid mode")
}

func TestValidateTool_InvalidFormat(t *testing.T) {
	c := newTestContainer(t)
	tool := NewValidateTool(c.Reviews, c.Renderer)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"content": sampleProtocol,
		"format":  "pdf",
	}))
	mustBeToolError(t, result, err, "invalid format")
}

func TestImproveTool_Definition(t *testing.T) {
	c := newTestContainer(t)
	tool := NewImproveTool(c.Improvements)
	def := tool.Definition()

	if def.Name != "improve_section" {
		t.Errorf("tool name = %q, want %q", def.Name, "improve_section")
	}
	for _, p := range []string{"session_id", "section"} {
		if _, ok := def.InputSchema.Properties[p]; !ok {
			t.Errorf("missing %q parameter", p)
		}
	}
	if len(def.InputSchema.Required) != 2 {
		t.Errorf("required = %v, want session_id and section", def.InputSchema.Required)
	}
}

func TestImproveTool_RewritesSection(t *testing.T) {
	c := newTestContainer(t)
	id := validateSession(t, c)
	tool := NewImproveTool(c.Improvements)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"session_id": id,
		"section":    "Objectives",
	}))
	mustNotError(t, result, err)

	text := resultText(result)
	if !strings.Contains(text, `Rewrote "Objectives"`) {
		t.Errorf("output should name the rewritten section, got: %.80s", text)
	}
	if !strings.Contains(text, "heuristic generator") {
		t.Error("output should name the generator")
	}
	if !strings.Contains(text, "Overall score:") || !strings.Contains(text, "Quality score:") {
		t.Error("output should report the refreshed scores")
	}
	if !strings.Contains(text, "secondary objectives") {
		t.Error("rewritten content should cover the missing objective fields")
	}
}

func TestImproveTool_UnknownSession(t *testing.T) {
	c := newTestContainer(t)
	tool := NewImproveTool(c.Improvements)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"session_id": "no-such-session",
		"section":    "Objectives",
	}))
	mustBeToolError(t, result, err, "session not found or expired")
}

func TestImproveTool_MissingSection(t *testing.T) {
	c := newTestContainer(t)
	id := validateSession(t, c)
	tool := NewImproveTool(c.Improvements)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"session_id": id,
	}))
	mustBeToolError(t, result, err, "section is required")
}

func TestStudyTypesTool(t *testing.T) {
	c := newTestContainer(t)
	tool := NewStudyTypesTool(c.Rules)

	if def := tool.Definition(); def.Name != "list_study_types" {
		t.Errorf("tool name = %q, want %q", def.Name, "list_study_types")
	}

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	mustNotError(t, result, err)

	text := resultText(result)
	if !strings.Contains(text, "phase1 (interventional): 8 required sections") {
		t.Errorf("listing should describe phase1, got: %s", text)
	}
	if !strings.Contains(text, "systematic_review (secondary_research)") {
		t.Error("listing should cover secondary research designs")
	}
}

func TestRequirementsTool_Phase1(t *testing.T) {
	c := newTestContainer(t)
	tool := NewRequirementsTool(c.Rules)

	if def := tool.Definition(); def.Name != "protocol_requirements" {
		t.Errorf("tool name = %q, want %q", def.Name, "protocol_requirements")
	}

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"study_type": "phase1",
	}))
	mustNotError(t, result, err)

	text := resultText(result)
	if !strings.Contains(text, "Requirements for phase1 (interventional)") {
		t.Errorf("missing header, got: %.80s", text)
	}
	if !strings.Contains(text, "- objectives") || !strings.Contains(text, "primary_objective") {
		t.Error("output should list required sections with their fields")
	}
	if !strings.Contains(text, "ICH E6 (R2) GCP") {
		t.Error("output should list guideline labels")
	}
	if !strings.Contains(text, "Phase focus (safety focus)") || !strings.Contains(text, "dose_escalation") {
		t.Error("output should describe the phase focus")
	}
	if strings.Contains(text, "Incompatible design language") {
		t.Error("phase1 has no forbidden terms; the line should be absent")
	}
}

func TestRequirementsTool_ForbiddenTerms(t *testing.T) {
	c := newTestContainer(t)
	tool := NewRequirementsTool(c.Rules)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"study_type": "observational",
	}))
	mustNotError(t, result, err)

	text := resultText(result)
	if !strings.Contains(text, "Incompatible design language:") || !strings.Contains(text, "randomization") {
		t.Errorf("observational output should list forbidden terms, got: %s", text)
	}
}

func TestRequirementsTool_UnknownType(t *testing.T) {
	c := newTestContainer(t)
	tool := NewRequirementsTool(c.Rules)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"study_type": "phase9",
	}))
	mustBeToolError(t, result, err, "unknown study type")
}

func TestServerRegistersTools(t *testing.T) {
	c := newTestContainer(t)
	if s := New(c); s == nil {
		t.Fatal("New returned nil server")
	}
}
