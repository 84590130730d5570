package ports

import (
	"context"

	"protoval/domain/core"
	"protoval/domain/protocol"
	"protoval/domain/validation"
)

// GeneratorPort produces replacement text for protocol sections that
// scored poorly. Implementations are the LLM adapter and the heuristic
// fallback.
type GeneratorPort interface {
	GenerateSection(ctx context.Context, req SectionRequest) (*SectionGeneration, error)
}

// SectionRequest specifies one section rewrite.
type SectionRequest struct {
	StudyType protocol.StudyType `json:"study_type"`
	Section   string             `json:"section"`
	// CurrentContent is empty when the section has to be drafted from
	// scratch.
	CurrentContent string             `json:"current_content"`
	MissingFields  []string           `json:"missing_fields,omitempty"`
	Issues         []validation.Issue `json:"issues,omitempty"`
}

// GenerationAudit is metadata about a generation call (prompt/response
// hashes, model). The hashes make a rewrite reproducible in review
// without persisting the full prompt.
type GenerationAudit struct {
	GeneratorType string    `json:"generator_type"` // "llm" | "heuristic"
	Model         string    `json:"model,omitempty"`
	Temperature   float64   `json:"temperature,omitempty"`
	MaxTokens     int       `json:"max_tokens,omitempty"`
	PromptHash    core.Hash `json:"prompt_hash,omitempty"`
	ResponseHash  core.Hash `json:"response_hash,omitempty"`
}

// SectionGeneration is the full output of one section rewrite.
type SectionGeneration struct {
	Section string          `json:"section"`
	Content string          `json:"content"`
	Audit   GenerationAudit `json:"audit"`
}
