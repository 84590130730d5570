// Package api serves the JSON surface for programmatic protocol
// review: validate a document, inspect rule requirements, rewrite weak
// sections and download the findings workbook.
package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"protoval/app"
	"protoval/domain/core"
	"protoval/domain/protocol"
	"protoval/domain/validation"
	"protoval/internal/container"
	"protoval/internal/rules"
	"protoval/internal/session"
	"protoval/ports"
)

// Server hosts the JSON API.
type Server struct {
	router        *gin.Engine
	reviews       *app.ReviewService
	improvements  *app.ImprovementService
	sessions      *session.Store
	rules         *rules.Store
	renderer      ports.ReportRenderer
	usage         ports.UsageRecorder
	generatorKind string
}

// NewServer assembles the API over an initialized container. The caller
// owns the listener; Handler returns the routed engine.
func NewServer(c *container.Container) *Server {
	s := &Server{
		router:        gin.Default(),
		reviews:       c.Reviews,
		improvements:  c.Improvements,
		sessions:      c.Sessions,
		rules:         c.Rules,
		renderer:      c.Renderer,
		usage:         c.Usage,
		generatorKind: c.GeneratorKind(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/study-types", s.handleStudyTypes)
	api.GET("/rules/:type", s.handleRules)
	api.POST("/validate", s.handleValidate)
	api.GET("/sessions/:id", s.handleSession)
	api.GET("/sessions/:id/report", s.handleReport)
	api.GET("/sessions/:id/workbook", s.handleWorkbook)
	api.POST("/sessions/:id/improve", s.handleImprove)
}

// Handler exposes the router, for embedding in a server and for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"generator": s.generatorKind,
		"sessions":  s.sessions.Len(),
		"usage":     s.usage.Totals(),
	})
}

type studyTypeInfo struct {
	Type             protocol.StudyType     `json:"type"`
	Category         protocol.StudyCategory `json:"category,omitempty"`
	RequiredSections int                    `json:"required_sections"`
}

func (s *Server) handleStudyTypes(c *gin.Context) {
	repo := s.rules.Current()
	types := repo.StudyTypes()
	out := make([]studyTypeInfo, 0, len(types))
	for _, st := range types {
		out = append(out, studyTypeInfo{
			Type:             st,
			Category:         st.Category(),
			RequiredSections: len(repo.RequiredSections(st)),
		})
	}
	c.JSON(http.StatusOK, gin.H{"study_types": out})
}

type requirementsResponse struct {
	StudyType        protocol.StudyType     `json:"study_type"`
	Category         protocol.StudyCategory `json:"category,omitempty"`
	RequiredSections []string               `json:"required_sections"`
	RequiredFields   map[string][]string    `json:"required_fields"`
	Guidelines       []string               `json:"guidelines,omitempty"`
	PhaseFocus       []string               `json:"phase_focus,omitempty"`
	ForbiddenTerms   []string               `json:"forbidden_terms,omitempty"`
}

func (s *Server) handleRules(c *gin.Context) {
	st := protocol.ParseStudyType(c.Param("type"))
	repo := s.rules.Current()
	if !repo.KnownType(st) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown study type: " + c.Param("type")})
		return
	}

	resp := requirementsResponse{
		StudyType:        st,
		Category:         st.Category(),
		RequiredSections: repo.RequiredSections(st),
		RequiredFields:   make(map[string][]string),
		ForbiddenTerms:   repo.ForbiddenTerms(st),
	}
	for _, sec := range resp.RequiredSections {
		if fields := repo.RequiredFields(sec); len(fields) > 0 {
			resp.RequiredFields[sec] = fields
		}
	}
	for _, key := range repo.GuidelinesFor(st) {
		resp.Guidelines = append(resp.Guidelines, repo.GuidelineLabel(key))
	}
	if focus, ok := repo.PhaseFocus(st); ok {
		resp.PhaseFocus = focus.Elements
	}
	c.JSON(http.StatusOK, resp)
}

type validateResponse struct {
	SessionID string             `json:"session_id"`
	Filename  string             `json:"filename"`
	RuntimeMs int64              `json:"runtime_ms"`
	Report    *validation.Report `json:"report"`
}

// handleValidate scores an uploaded protocol. It accepts a multipart
// form with a "document" file or a raw markdown/JSON body; study_type
// and mode come from the query string or form fields.
func (s *Server) handleValidate(c *gin.Context) {
	filename := "upload.md"
	var data []byte

	if c.ContentType() == "multipart/form-data" {
		file, header, err := c.Request.FormFile("document")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart upload needs a document file"})
			return
		}
		defer file.Close()
		data, err = io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read the uploaded file"})
			return
		}
		filename = header.Filename
	} else {
		var err error
		data, err = io.ReadAll(c.Request.Body)
		if err != nil || len(data) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "request body is empty"})
			return
		}
		if c.ContentType() == "application/json" {
			filename = "upload.json"
		}
	}

	res, err := s.reviews.Review(c.Request.Context(), app.ReviewRequest{
		Filename:  filename,
		Data:      data,
		StudyType: s.formOrQuery(c, "study_type"),
		Mode:      validation.Mode(s.formOrQuery(c, "mode")),
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, validateResponse{
		SessionID: res.Session.ID.String(),
		Filename:  res.Session.Filename,
		RuntimeMs: res.RuntimeMs,
		Report:    res.Report,
	})
}

func (s *Server) formOrQuery(c *gin.Context, key string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return c.PostForm(key)
}

type sessionResponse struct {
	SessionID string             `json:"session_id"`
	Filename  string             `json:"filename"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	Report    *validation.Report `json:"report"`
	Document  *protocol.Document `json:"document"`
	History   []session.Revision `json:"history,omitempty"`
}

func (s *Server) handleSession(c *gin.Context) {
	sess, ok := s.getSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionResponse{
		SessionID: sess.ID.String(),
		Filename:  sess.Filename,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
		Report:    sess.Report,
		Document:  sess.Document,
		History:   sess.History,
	})
}

// handleReport renders the session's report as text or markdown.
func (s *Server) handleReport(c *gin.Context) {
	sess, ok := s.getSession(c)
	if !ok {
		return
	}
	switch c.DefaultQuery("format", "text") {
	case "markdown":
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(s.renderer.Markdown(sess.Report)))
	case "text":
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(s.renderer.Text(sess.Report)))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be text or markdown"})
	}
}

func (s *Server) handleWorkbook(c *gin.Context) {
	sess, ok := s.getSession(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="protocol-review.xlsx"`)
	if err := s.reviews.WriteWorkbook(sess.Report, c.Writer); err != nil {
		// Headers are already out; all we can do is log through gin.
		_ = c.Error(err)
	}
}

type improveRequest struct {
	Section     string `json:"section"`
	All         bool   `json:"all"`
	MaxSections int    `json:"max_sections"`
}

type improveResponse struct {
	SessionID string             `json:"session_id"`
	Sections  []string           `json:"sections"`
	Generator string             `json:"generator"`
	Report    *validation.Report `json:"report"`
}

// handleImprove rewrites one named section, or every targeted section
// when "all" is set.
func (s *Server) handleImprove(c *gin.Context) {
	id := core.SessionID(c.Param("id"))

	var req improveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	switch {
	case req.All:
		sess, gens, err := s.improvements.ImproveAllInSession(c.Request.Context(), id, req.MaxSections)
		if err != nil {
			s.improveError(c, err)
			return
		}
		resp := improveResponse{SessionID: sess.ID.String(), Report: sess.Report, Generator: s.generatorKind}
		for _, gen := range gens {
			resp.Sections = append(resp.Sections, gen.Section)
		}
		c.JSON(http.StatusOK, resp)

	case req.Section != "":
		sess, gen, err := s.improvements.ImproveInSession(c.Request.Context(), id, req.Section)
		if err != nil {
			s.improveError(c, err)
			return
		}
		c.JSON(http.StatusOK, improveResponse{
			SessionID: sess.ID.String(),
			Sections:  []string{gen.Section},
			Generator: gen.Audit.GeneratorType,
			Report:    sess.Report,
		})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "name a section or set all"})
	}
}

func (s *Server) improveError(c *gin.Context, err error) {
	if errors.Is(err, core.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found or expired"})
		return
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
}

// getSession resolves the :id parameter, answering 404 itself when the
// session is gone.
func (s *Server) getSession(c *gin.Context) (*session.Session, bool) {
	sess, err := s.sessions.Get(core.SessionID(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found or expired"})
		return nil, false
	}
	return sess, true
}
