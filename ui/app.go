// Package ui serves the browser workflow: upload a protocol, read the
// scored report, rewrite weak sections and download the workbook.
package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"protoval/app"
	"protoval/domain/validation"
	"protoval/internal/container"
	"protoval/internal/rules"
	"protoval/internal/session"
	"protoval/ports"
	uimw "protoval/ui/middleware"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// App represents the UI application.
type App struct {
	router       *chi.Mux
	reviews      *app.ReviewService
	improvements *app.ImprovementService
	sessions     *session.Store
	rules        *rules.Store
	renderer     ports.ReportRenderer
	templates    *template.Template
}

// NewApp creates the UI application over an initialized container. The
// caller owns the listener; Handler returns the routed mux.
func NewApp(c *container.Container) (*App, error) {
	funcMap := template.FuncMap{
		"pct": func(f float64) string {
			return fmt.Sprintf("%.1f", f*100)
		},
		"score10": func(f float64) string {
			return fmt.Sprintf("%.1f", f)
		},
		// label prettifies identifiers for display; any stringable value works.
		"label": func(v any) string {
			s := strings.ReplaceAll(fmt.Sprint(v), "_", " ")
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:       chi.NewRouter(),
		reviews:      c.Reviews,
		improvements: c.Improvements,
		sessions:     c.Sessions,
		rules:        c.Rules,
		renderer:     c.Renderer,
		templates:    templates,
	}

	a.setupMiddleware()
	a.setupRoutes()
	return a, nil
}

// setupMiddleware configures HTTP middleware.
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes.
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Post("/upload", a.handleUpload)

	a.router.Route("/report/{session}", func(r chi.Router) {
		r.Use(uimw.RequireSession(a.sessions))
		r.Get("/", a.handleReport)
		r.Post("/improve", a.handleImprove)
		r.Get("/export", a.handleExport)
		r.Get("/preview", a.handlePreview)
	})
}

// Handler exposes the router, for embedding in a server and for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

// renderTemplate executes a template into a buffer first so a render
// error becomes a clean 500 instead of a half-written page.
func (a *App) renderTemplate(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("[UI] Template error for %s: %v", name, err)
		http.Error(w, "Template rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[UI] Error writing response: %v", err)
	}
}

// modeOptions lists the scoring modes offered on the upload form.
func modeOptions() []validation.Mode {
	return []validation.Mode{validation.ModeFull, validation.ModeQuick}
}
