package ui

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"protoval/internal/config"
	"protoval/internal/container"
)

const sampleProtocol = `# A Phase 1 Study of PV-101

## Objectives

The primary objective is to assess safety and tolerability.

## Study Design

[PLACEHOLDER: *sample size pending statistical review*]
`

func newTestApp(t *testing.T) *App {
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
	a, err := NewApp(c)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return a
}

func uploadRequest(t *testing.T, studyType, mode string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("document", "protocol.md")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := io.WriteString(fw, sampleProtocol); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	mw.WriteField("study_type", studyType)
	mw.WriteField("mode", mode)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// uploadSession uploads the sample protocol and returns the session's
// report path from the redirect.
func uploadSession(t *testing.T, a *App) string {
	t.Helper()
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, uploadRequest(t, "auto", "full"))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("upload status = %d, want 303", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/report/") {
		t.Fatalf("upload redirect = %q, want /report/...", loc)
	}
	return loc
}

func TestIndexPage(t *testing.T) {
	a := newTestApp(t)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Protocol Review") {
		t.Error("index page missing title")
	}
	if !strings.Contains(body, `value="phase1"`) {
		t.Error("index page missing phase1 study type option")
	}
	if !strings.Contains(body, "Detect from document") {
		t.Error("index page missing auto-detect option")
	}
}

func TestUploadAndReport(t *testing.T) {
	a := newTestApp(t)
	reportPath := uploadSession(t, a)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, reportPath, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("report status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "protocol.md") {
		t.Error("report page missing filename")
	}
	if !strings.Contains(body, "Overall score") {
		t.Error("report page missing overall score card")
	}
	if !strings.Contains(body, "Objectives") {
		t.Error("report page missing objectives section")
	}
	if !strings.Contains(body, "Missing required section") {
		t.Error("report page missing structural findings")
	}
}

func TestUploadWithoutFile(t *testing.T) {
	a := newTestApp(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("study_type", "auto")
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Choose a protocol file") {
		t.Error("missing file error not shown")
	}
}

func TestUnknownSessionRedirects(t *testing.T) {
	a := newTestApp(t)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report/no-such-session", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/?expired=1" {
		t.Errorf("redirect = %q, want /?expired=1", loc)
	}
}

func TestImproveSection(t *testing.T) {
	a := newTestApp(t)
	reportPath := uploadSession(t, a)

	form := strings.NewReader("section=Objectives")
	req := httptest.NewRequest(http.MethodPost, reportPath+"/improve", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("improve status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != reportPath {
		t.Errorf("improve redirect = %q, want %q", loc, reportPath)
	}

	// The rewritten section should now describe its required fields.
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, reportPath, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("report status after improve = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "secondary objectives") {
		t.Error("improved objectives content not reflected on report page")
	}
}

func TestImproveWithoutSection(t *testing.T) {
	a := newTestApp(t)
	reportPath := uploadSession(t, a)

	req := httptest.NewRequest(http.MethodPost, reportPath+"/improve", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "error=") {
		t.Errorf("redirect = %q, want error query", loc)
	}
}

func TestExportWorkbook(t *testing.T) {
	a := newTestApp(t)
	reportPath := uploadSession(t, a)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, reportPath+"/export", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "protocol-review.xlsx") {
		t.Errorf("content disposition = %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("export body is not a zip archive")
	}
}

func TestPreviewPage(t *testing.T) {
	a := newTestApp(t)
	reportPath := uploadSession(t, a)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, reportPath+"/preview", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("preview status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Back to scores") {
		t.Error("preview page missing navigation")
	}
	if !strings.Contains(body, "Protocol Validation Report") {
		t.Error("preview body missing rendered report heading")
	}
	if !strings.Contains(body, "Dimension scores") {
		t.Error("preview body missing dimension table")
	}
}
