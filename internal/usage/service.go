// Package usage aggregates LLM token spend in memory. Totals are
// exposed on the health endpoints so operators can watch cost without
// a billing backend.
package usage

import (
	"log"
	"sync"

	"protoval/ports"
)

// Service accumulates usage reported by the LLM adapters. Safe for
// concurrent use.
type Service struct {
	mu          sync.Mutex
	calls       int
	prompt      int
	completion  int
	total       int
	byOperation map[string]int
}

// NewService creates a new usage service
func NewService() *Service {
	return &Service{byOperation: make(map[string]int)}
}

// Record implements ports.UsageRecorder.
func (s *Service) Record(operation string, usage *ports.UsageData) {
	if usage == nil {
		log.Printf("[UsageService] ERROR: nil usage data provided")
		return
	}
	if usage.PromptTokens < 0 || usage.CompletionTokens < 0 || usage.TotalTokens < 0 {
		log.Printf("[UsageService] ERROR: invalid token counts: %+v", usage)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prompt += usage.PromptTokens
	s.completion += usage.CompletionTokens
	s.total += usage.TotalTokens
	s.byOperation[operation] += usage.TotalTokens
}

// Totals implements ports.UsageRecorder.
func (s *Service) Totals() ports.UsageTotals {
	s.mu.Lock()
	defer s.mu.Unlock()

	byOp := make(map[string]int, len(s.byOperation))
	for op, tokens := range s.byOperation {
		byOp[op] = tokens
	}
	return ports.UsageTotals{
		Calls:            s.calls,
		PromptTokens:     s.prompt,
		CompletionTokens: s.completion,
		TotalTokens:      s.total,
		ByOperation:      byOp,
	}
}
