// Package mcp exposes protocol review over the Model Context Protocol,
// so AI assistants can score documents, inspect rule requirements and
// rewrite weak sections through a stdio transport.
//
// This is a composition root: it wires container services into tool
// handlers and registers them. No scoring logic lives here.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"protoval/internal/container"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with every tool registered. Tools share
// the container's session store, so a validate_protocol result can be
// rewritten in place by later improve_section calls.
func New(c *container.Container) *server.MCPServer {
	s := server.NewMCPServer(
		"protoval",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	validate := NewValidateTool(c.Reviews, c.Renderer)
	s.AddTool(validate.Definition(), validate.Handle)

	improve := NewImproveTool(c.Improvements)
	s.AddTool(improve.Definition(), improve.Handle)

	types := NewStudyTypesTool(c.Rules)
	s.AddTool(types.Definition(), types.Handle)

	reqs := NewRequirementsTool(c.Rules)
	s.AddTool(reqs.Definition(), reqs.Handle)

	return s
}

func serverInstructions() string {
	return `Protoval reviews clinical study protocol documents.

Typical workflow:
1. Call validate_protocol with the document text to get scores, findings
   and a session id.
2. Call protocol_requirements to see what a study type's protocol must
   contain when drafting new sections.
3. Call improve_section with the session id to rewrite a weak section
   and re-score the document.

Scores: the overall score is a 0-100 percentage across evaluation
dimensions; the quality score is a 0-10 roll-up of section completeness
weighted by section importance.`
}
