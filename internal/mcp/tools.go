package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"protoval/app"
	"protoval/domain/core"
	"protoval/domain/protocol"
	"protoval/domain/validation"
	"protoval/internal/rules"
	"protoval/ports"
)

// ValidateTool scores a protocol document and opens a review session
// for follow-up improve_section calls.
type ValidateTool struct {
	reviews  *app.ReviewService
	renderer ports.ReportRenderer
}

// NewValidateTool creates the validate_protocol tool.
func NewValidateTool(reviews *app.ReviewService, renderer ports.ReportRenderer) *ValidateTool {
	return &ValidateTool{reviews: reviews, renderer: renderer}
}

// Definition returns the MCP tool definition.
func (t *ValidateTool) Definition() mcp.Tool {
	return mcp.NewTool("validate_protocol",
		mcp.WithDescription("Score a clinical study protocol document for completeness, compliance and quality. Returns dimension scores, findings and a session id usable with improve_section."),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The protocol document text (markdown, plain text or section-map JSON)"),
		),
		mcp.WithString("filename",
			mcp.Description("Document filename; the extension selects the parser (default: protocol.md)"),
		),
		mcp.WithString("study_type",
			mcp.Description("Override study type detection, e.g. phase1 or observational; call list_study_types for valid values"),
		),
		mcp.WithString("mode",
			mcp.Description("Scoring mode: full or quick (default: full)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: text, markdown or json (default: text)"),
		),
	)
}

// Handle executes the validate_protocol tool.
func (t *ValidateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	if content == "" {
		return mcp.NewToolResultError("content is required"), nil
	}

	mode := req.GetString("mode", "")
	switch validation.Mode(mode) {
	case "", validation.ModeFull, validation.ModeQuick:
	default:
		return mcp.NewToolResultError(fmt.Sprintf("invalid mode %q (use full or quick)", mode)), nil
	}

	format := req.GetString("format", "text")
	switch format {
	case "text", "markdown", "json":
	default:
		return mcp.NewToolResultError(fmt.Sprintf("invalid format %q (use text, markdown or json)", format)), nil
	}

	res, err := t.reviews.Review(ctx, app.ReviewRequest{
		Filename:  req.GetString("filename", "protocol.md"),
		Data:      []byte(content),
		StudyType: req.GetString("study_type", ""),
		Mode:      validation.Mode(mode),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring protocol: %v", err)), nil
	}

	switch format {
	case "json":
		payload := struct {
			SessionID core.SessionID     `json:"session_id"`
			Report    *validation.Report `json:"report"`
		}{res.Session.ID, res.Report}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding report: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	case "markdown":
		return mcp.NewToolResultText(fmt.Sprintf("Session: %s\n\n%s", res.Session.ID, t.renderer.Markdown(res.Report))), nil
	default:
		return mcp.NewToolResultText(fmt.Sprintf("Session: %s\n\n%s", res.Session.ID, t.renderer.Text(res.Report))), nil
	}
}

// ImproveTool rewrites one section of a previously validated document
// and re-scores it in place.
type ImproveTool struct {
	improvements *app.ImprovementService
}

// NewImproveTool creates the improve_section tool.
func NewImproveTool(improvements *app.ImprovementService) *ImproveTool {
	return &ImproveTool{improvements: improvements}
}

// Definition returns the MCP tool definition.
func (t *ImproveTool) Definition() mcp.Tool {
	return mcp.NewTool("improve_section",
		mcp.WithDescription("Rewrite one section of a validated protocol and re-score the document. Sections named in the report's regeneration targets benefit the most; absent sections are drafted from the rule requirements."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id returned by validate_protocol"),
		),
		mcp.WithString("section",
			mcp.Required(),
			mcp.Description("Name of the section to rewrite, e.g. Objectives"),
		),
	)
}

// Handle executes the improve_section tool.
func (t *ImproveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	sectionName := req.GetString("section", "")
	if sectionName == "" {
		return mcp.NewToolResultError("section is required"), nil
	}

	sess, gen, err := t.improvements.ImproveInSession(ctx, core.SessionID(id), sectionName)
	if errors.Is(err, core.ErrSessionNotFound) {
		return mcp.NewToolResultError("session not found or expired; run validate_protocol again"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rewriting %s: %v", sectionName, err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Rewrote %q with the %s generator.\n\n", gen.Section, gen.Audit.GeneratorType)
	fmt.Fprintf(&b, "Overall score: %.1f%%\n", sess.Report.OverallPercent())
	fmt.Fprintf(&b, "Quality score: %.1f / 10\n\n", sess.Report.QualityScore)
	fmt.Fprintf(&b, "New %s content:\n%s\n", gen.Section, gen.Content)
	return mcp.NewToolResultText(b.String()), nil
}

// StudyTypesTool lists the study designs the active rule set covers.
type StudyTypesTool struct {
	rules *rules.Store
}

// NewStudyTypesTool creates the list_study_types tool.
func NewStudyTypesTool(store *rules.Store) *StudyTypesTool {
	return &StudyTypesTool{rules: store}
}

// Definition returns the MCP tool definition.
func (t *StudyTypesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_study_types",
		mcp.WithDescription("List the supported study types with their category and required section count."),
	)
}

// Handle executes the list_study_types tool.
func (t *StudyTypesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo := t.rules.Current()

	var b strings.Builder
	b.WriteString("Supported study types:\n")
	for _, st := range repo.StudyTypes() {
		fmt.Fprintf(&b, "- %s (%s): %d required sections\n", st, st.Category(), len(repo.RequiredSections(st)))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// RequirementsTool reports what a study type's protocol must contain.
type RequirementsTool struct {
	rules *rules.Store
}

// NewRequirementsTool creates the protocol_requirements tool.
func NewRequirementsTool(store *rules.Store) *RequirementsTool {
	return &RequirementsTool{rules: store}
}

// Definition returns the MCP tool definition.
func (t *RequirementsTool) Definition() mcp.Tool {
	return mcp.NewTool("protocol_requirements",
		mcp.WithDescription("Show the required sections and fields, applicable guidelines, phase focus and incompatible design language for a study type. Useful when drafting sections before validation."),
		mcp.WithString("study_type",
			mcp.Required(),
			mcp.Description("Study type key, e.g. phase1 or observational; call list_study_types for valid values"),
		),
	)
}

// Handle executes the protocol_requirements tool.
func (t *RequirementsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := req.GetString("study_type", "")
	if raw == "" {
		return mcp.NewToolResultError("study_type is required"), nil
	}
	repo := t.rules.Current()
	st := protocol.ParseStudyType(raw)
	if !repo.KnownType(st) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown study type %q; call list_study_types for valid values", raw)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Requirements for %s (%s)\n\n", st, st.Category())

	b.WriteString("Required sections:\n")
	for _, sec := range repo.RequiredSections(st) {
		fmt.Fprintf(&b, "- %s\n", sec)
		for _, field := range repo.RequiredFields(sec) {
			fmt.Fprintf(&b, "    %s\n", field)
		}
	}

	if guidelines := repo.GuidelinesFor(st); len(guidelines) > 0 {
		b.WriteString("\nGuidelines:\n")
		for _, g := range guidelines {
			fmt.Fprintf(&b, "- %s\n", repo.GuidelineLabel(g))
		}
	}

	if focus, ok := repo.PhaseFocus(st); ok {
		fmt.Fprintf(&b, "\nPhase focus (%s):\n", focus.Label)
		for _, el := range focus.Elements {
			fmt.Fprintf(&b, "- %s\n", el)
		}
	}

	if terms := repo.ForbiddenTerms(st); len(terms) > 0 {
		fmt.Fprintf(&b, "\nIncompatible design language: %s\n", strings.Join(terms, ", "))
	}

	return mcp.NewToolResultText(b.String()), nil
}
