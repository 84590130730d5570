package ingest

import (
	"errors"
	"strings"
	"testing"

	"protoval/domain/core"
	"protoval/domain/protocol"
)

const sampleMarkdown = `# Phase 1 Dose Escalation Protocol

## Objectives

The primary objective is to assess the safety of first-in-human dosing.

## Study Design

An open-label dose escalation design with three cohorts.

- Cohort A receives 10 mg
- Cohort B receives 20 mg
`

func TestParseMarkdownSplitsOnHeadings(t *testing.T) {
	doc, err := NewReader().Parse("protocol.md", []byte(sampleMarkdown))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	names := doc.Names()
	want := []string{"title", "Objectives", "Study Design"}
	if len(names) != len(want) {
		t.Fatalf("section names = %v, want %v", names, want)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("names[%d] = %q, want %q", i, names[i], name)
		}
	}

	title, _ := doc.Get("title")
	if title != "Phase 1 Dose Escalation Protocol" {
		t.Errorf("title content = %q", title)
	}

	design, _ := doc.Get("Study Design")
	if !strings.Contains(design, "open-label dose escalation design") {
		t.Errorf("design content = %q", design)
	}
	if !strings.Contains(design, "Cohort A receives 10 mg") {
		t.Errorf("list items should be flattened into the section: %q", design)
	}

	if doc.StudyType() != protocol.Phase1 {
		t.Errorf("detected study type = %s, want phase1", doc.StudyType())
	}
}

func TestParseMarkdownWithoutHeadings(t *testing.T) {
	doc, err := NewReader().Parse("notes.txt", []byte("A prospective cohort study of registry data."))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.Len() != 1 {
		t.Fatalf("sections = %v", doc.Names())
	}
	content, ok := doc.Get("document")
	if !ok || !strings.Contains(content, "prospective cohort") {
		t.Errorf("flat text should land in a single document section, got %q", content)
	}
}

func TestParseJSONDocument(t *testing.T) {
	data := []byte(`{
		"study_type": "phase2",
		"sections": {
			"objectives": "The primary objective is stated.",
			"background": "Disease background."
		}
	}`)

	doc, err := NewReader().Parse("protocol.json", data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.StudyType() != protocol.Phase2 {
		t.Errorf("study type = %s", doc.StudyType())
	}
	names := doc.Names()
	if len(names) != 2 || names[0] != "background" || names[1] != "objectives" {
		t.Errorf("JSON sections should come out in sorted order, got %v", names)
	}
}

func TestParseJSONDetectsTypeWhenAbsent(t *testing.T) {
	data := []byte(`{"sections": {"synopsis": "A systematic literature review of treatment outcomes."}}`)
	doc, err := NewReader().Parse("review.json", data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.StudyType() != protocol.SystematicReview {
		t.Errorf("study type = %s, want systematic_review", doc.StudyType())
	}
}

func TestParseRejectsEmptyAndUnknown(t *testing.T) {
	r := NewReader()

	if _, err := r.Parse("empty.md", []byte("   \n")); !errors.Is(err, core.ErrNoContent) {
		t.Errorf("empty file error = %v, want ErrNoContent", err)
	}
	if _, err := r.Parse("doc.pdf", []byte("%PDF-1.4")); !errors.Is(err, core.ErrUnsupportedFormat) {
		t.Errorf("pdf error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := r.Parse("doc.json", []byte(`{"sections": {}}`)); !errors.Is(err, core.ErrNoContent) {
		t.Errorf("empty JSON error = %v, want ErrNoContent", err)
	}
}

func TestMarkdownRoundTrip(t *testing.T) {
	r := NewReader()
	doc, err := r.Parse("protocol.md", []byte(sampleMarkdown))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	rendered := Markdown(doc)
	if !strings.HasPrefix(string(rendered), "# Phase 1 Dose Escalation Protocol") {
		t.Errorf("rendered markdown does not lead with the title:\n%s", rendered)
	}

	again, err := r.Parse("rendered.md", rendered)
	if err != nil {
		t.Fatalf("reparsing rendered markdown failed: %v", err)
	}
	if got, want := again.Names(), doc.Names(); len(got) != len(want) {
		t.Fatalf("reparsed sections = %v, want %v", got, want)
	}
	for _, name := range doc.Names() {
		want, _ := doc.Get(name)
		got, ok := again.Get(name)
		if !ok {
			t.Errorf("section %q lost in round trip", name)
			continue
		}
		if got != want {
			t.Errorf("section %q content changed:\n got %q\nwant %q", name, got, want)
		}
	}
}
