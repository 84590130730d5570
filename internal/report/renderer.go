package report

import (
	"protoval/domain/validation"
)

// Renderer adapts the package formatting functions to the renderer
// port.
type Renderer struct{}

// NewRenderer creates a report renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

func (Renderer) Text(r *validation.Report) string {
	return Render(r)
}

func (Renderer) Markdown(r *validation.Report) string {
	return RenderMarkdown(r)
}
