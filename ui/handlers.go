package ui

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"protoval/app"
	"protoval/domain/core"
	"protoval/domain/protocol"
	"protoval/domain/validation"
	"protoval/internal/session"
)

type indexView struct {
	StudyTypes []protocol.StudyType
	Modes      []validation.Mode
	Error      string
	Expired    bool
}

type dimensionView struct {
	Label string
	validation.DimensionResult
}

type sectionView struct {
	validation.SectionResult
	Content string
}

type reportView struct {
	Session    *session.Session
	Report     *validation.Report
	Dimensions []dimensionView
	Sections   []sectionView
	Error      string
}

type previewView struct {
	Session *session.Session
	Body    template.HTML
}

func (a *App) sessionID(r *http.Request) core.SessionID {
	return core.SessionID(chi.URLParam(r, "session"))
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	a.renderTemplate(w, http.StatusOK, "index.html", indexView{
		StudyTypes: a.rules.Current().StudyTypes(),
		Modes:      modeOptions(),
		Expired:    r.URL.Query().Get("expired") == "1",
	})
}

func (a *App) renderIndexError(w http.ResponseWriter, status int, msg string) {
	a.renderTemplate(w, status, "index.html", indexView{
		StudyTypes: a.rules.Current().StudyTypes(),
		Modes:      modeOptions(),
		Error:      msg,
	})
}

func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		a.renderIndexError(w, http.StatusBadRequest, "Could not read the upload.")
		return
	}
	file, header, err := r.FormFile("document")
	if err != nil {
		a.renderIndexError(w, http.StatusBadRequest, "Choose a protocol file to upload.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		a.renderIndexError(w, http.StatusBadRequest, "Could not read the uploaded file.")
		return
	}

	studyType := r.FormValue("study_type")
	if studyType == "auto" {
		studyType = ""
	}

	res, err := a.reviews.Review(r.Context(), app.ReviewRequest{
		Filename:  header.Filename,
		Data:      data,
		StudyType: studyType,
		Mode:      validation.Mode(r.FormValue("mode")),
	})
	if err != nil {
		log.Printf("[UI] Review failed for %s: %v", header.Filename, err)
		a.renderIndexError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Could not score %s: %v", header.Filename, err))
		return
	}

	http.Redirect(w, r, "/report/"+res.Session.ID.String(), http.StatusSeeOther)
}

func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	sess, err := a.sessions.Get(a.sessionID(r))
	if err != nil {
		http.Redirect(w, r, "/?expired=1", http.StatusSeeOther)
		return
	}
	a.renderTemplate(w, http.StatusOK, "report.html", a.reportView(sess, r.URL.Query().Get("error")))
}

func (a *App) reportView(sess *session.Session, errMsg string) reportView {
	rep := sess.Report

	var dims []dimensionView
	for _, d := range validation.DimensionsFor(rep.Mode) {
		if dr, ok := rep.PerDimension[d]; ok {
			dims = append(dims, dimensionView{Label: d.Label(), DimensionResult: dr})
		}
	}

	var secs []sectionView
	for _, sr := range rep.PerSection {
		content, _ := sess.Document.Get(sr.Section)
		secs = append(secs, sectionView{SectionResult: sr, Content: content})
	}

	return reportView{
		Session:    sess,
		Report:     rep,
		Dimensions: dims,
		Sections:   secs,
		Error:      errMsg,
	}
}

func (a *App) handleImprove(w http.ResponseWriter, r *http.Request) {
	id := a.sessionID(r)
	section := r.FormValue("section")
	if section == "" {
		http.Redirect(w, r, "/report/"+id.String()+"?error="+url.QueryEscape("Select a section to rewrite."), http.StatusSeeOther)
		return
	}

	_, _, err := a.improvements.ImproveInSession(r.Context(), id, section)
	if errors.Is(err, core.ErrSessionNotFound) {
		http.Redirect(w, r, "/?expired=1", http.StatusSeeOther)
		return
	}
	if err != nil {
		log.Printf("[UI] Section rewrite failed: %v", err)
		http.Redirect(w, r, "/report/"+id.String()+"?error="+url.QueryEscape("Section rewrite failed."), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/report/"+id.String(), http.StatusSeeOther)
}

func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, err := a.sessions.Get(a.sessionID(r))
	if err != nil {
		http.Redirect(w, r, "/?expired=1", http.StatusSeeOther)
		return
	}

	base := strings.TrimSuffix(sess.Filename, filepath.Ext(sess.Filename))
	if base == "" {
		base = "protocol"
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+"-review.xlsx"))
	if err := a.reviews.WriteWorkbook(sess.Report, w); err != nil {
		log.Printf("[UI] Workbook export failed: %v", err)
	}
}

// handlePreview renders the markdown report as a standalone HTML page.
func (a *App) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, err := a.sessions.Get(a.sessionID(r))
	if err != nil {
		http.Redirect(w, r, "/?expired=1", http.StatusSeeOther)
		return
	}

	md := a.renderer.Markdown(sess.Report)
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(md))
	htmlRenderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.SkipHTML})

	a.renderTemplate(w, http.StatusOK, "preview.html", previewView{
		Session: sess,
		Body:    template.HTML(markdown.Render(doc, htmlRenderer)),
	})
}
