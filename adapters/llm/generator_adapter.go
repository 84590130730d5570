package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"protoval/domain/core"
	"protoval/internal/errors"
	"protoval/ports"
)

// Config holds LLM adapter configuration
type Config struct {
	Model               string        // e.g., "gpt-4.1-mini"
	APIKey              string        // OpenAI API key
	BaseURL             string        // Optional override (default: https://api.openai.com/v1)
	Temperature         float64       // 0.0-1.0, lower = more deterministic
	MaxTokens           int           // Max tokens in response
	Timeout             time.Duration // Request timeout
	FallbackToHeuristic bool          // Fallback to heuristic on error
}

// GeneratorAdapter implements GeneratorPort using an LLM
type GeneratorAdapter struct {
	config      Config
	llmClient   ports.LLMClient
	fallbackGen ports.GeneratorPort
	usage       ports.UsageRecorder
}

// NewGeneratorAdapter creates a new LLM generator adapter. usage may
// be nil when token accounting is not wanted.
func NewGeneratorAdapter(config Config, fallbackGen ports.GeneratorPort, usage ports.UsageRecorder) (*GeneratorAdapter, error) {
	client, err := newLLMClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return &GeneratorAdapter{
		config:      config,
		llmClient:   client,
		fallbackGen: fallbackGen,
		usage:       usage,
	}, nil
}

// BuildPrompt creates the rewrite prompt. With existing content the
// model is asked to improve it issue by issue; without content it is
// asked to draft the section from the required coverage list.
func (g *GeneratorAdapter) BuildPrompt(req ports.SectionRequest) string {
	label := strings.ReplaceAll(req.Section, "_", " ")

	if strings.TrimSpace(req.CurrentContent) == "" {
		var b strings.Builder
		fmt.Fprintf(&b, "Write the %s section of a %s clinical study protocol.\n", label, req.StudyType)
		if len(req.MissingFields) > 0 {
			b.WriteString("It must cover:\n")
			for _, field := range req.MissingFields {
				fmt.Fprintf(&b, "- %s\n", strings.ReplaceAll(field, "_", " "))
			}
		}
		b.WriteString("\nOutput only the section text, no headings or commentary.")
		return b.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Improve this %s section by addressing these issues:\n", label)
	for _, field := range req.MissingFields {
		fmt.Fprintf(&b, "- Add %s\n", strings.ReplaceAll(field, "_", " "))
	}
	for _, issue := range req.Issues {
		item := issue.Suggestion
		if item == "" {
			item = issue.Message
		}
		fmt.Fprintf(&b, "- %s\n", item)
	}
	fmt.Fprintf(&b, "\nCurrent content:\n%s\n", req.CurrentContent)
	b.WriteString("\nEnsure the improved version:\n")
	b.WriteString("1. Adds all missing elements\n")
	b.WriteString("2. Maintains existing good content\n")
	b.WriteString("3. Improves clarity and structure\n")
	b.WriteString("4. Follows protocol standards\n")
	return b.String()
}

// cleanResponse strips markdown code fences models sometimes wrap
// around plain text output.
func cleanResponse(response string) string {
	s := strings.TrimSpace(response)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	return strings.TrimSpace(s)
}

// GenerateSection implements GeneratorPort
func (g *GeneratorAdapter) GenerateSection(ctx context.Context, req ports.SectionRequest) (*ports.SectionGeneration, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	prompt := g.BuildPrompt(req)
	promptHash := core.NewHash([]byte(prompt))

	resp, err := g.llmClient.ChatCompletionWithUsage(ctx, g.config.Model, prompt, g.config.MaxTokens)
	if err != nil {
		if g.config.FallbackToHeuristic && g.fallbackGen != nil {
			return g.fallbackGen.GenerateSection(ctx, req)
		}
		return nil, errors.GenerationFailed(req.Section, err)
	}
	if g.usage != nil && resp.Usage != nil {
		g.usage.Record("section_rewrite", resp.Usage)
	}

	content := cleanResponse(resp.Content)
	if content == "" {
		if g.config.FallbackToHeuristic && g.fallbackGen != nil {
			return g.fallbackGen.GenerateSection(ctx, req)
		}
		return nil, errors.GenerationFailed(req.Section, fmt.Errorf("model returned empty section text"))
	}

	return &ports.SectionGeneration{
		Section: req.Section,
		Content: content,
		Audit: ports.GenerationAudit{
			GeneratorType: "llm",
			Model:         g.config.Model,
			Temperature:   g.config.Temperature,
			MaxTokens:     g.config.MaxTokens,
			PromptHash:    promptHash,
			ResponseHash:  core.NewHash([]byte(resp.Content)),
		},
	}, nil
}
