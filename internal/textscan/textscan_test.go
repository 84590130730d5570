package textscan

import (
	"reflect"
	"testing"
)

func TestTokens(t *testing.T) {
	got := Tokens("First-in-Human (FIH) dosing, per ICH E6(R2).")
	want := []string{"first", "in", "human", "fih", "dosing", "per", "ich", "e6", "r2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens = %v, want %v", got, want)
	}
	if len(Tokens("  \t\n ")) != 0 {
		t.Error("whitespace-only text should yield no tokens")
	}
}

func TestPresentMatchesWholeWordsOnly(t *testing.T) {
	text := "In case of emergency, contact the investigator."
	if Present(text, "ae") {
		t.Error("\"ae\" must not match inside \"case\"")
	}
	if !Present("Each AE must be recorded within 24 hours.", "ae") {
		t.Error("\"ae\" should match the standalone token")
	}
}

func TestPresentMultiWordAnyOrder(t *testing.T) {
	text := "The objective of the primary analysis is response rate."
	if !Present(text, "primary objective") {
		t.Error("co-occurring words should satisfy a multi-word element")
	}
	if Present(text, "secondary objective") {
		t.Error("element with a missing word must not be present")
	}
	if Present(text, "") {
		t.Error("empty element must never be present")
	}
}

func TestPresentIsCaseInsensitive(t *testing.T) {
	if !Present("DOSE ESCALATION scheme per protocol.", "Dose Escalation") {
		t.Error("matching should ignore case on both sides")
	}
}

func TestDocIndexRequiresOneSectionToMatch(t *testing.T) {
	d := NewDocIndex(map[string]string{
		"objectives":   "The primary aim is safety.",
		"study_design": "An open-label escalation objective design.",
	})

	// "primary" lives only in objectives, "design" only in study_design.
	if d.Present("primary design") {
		t.Error("words scattered across sections must not count as present")
	}
	if !d.Present("escalation design") {
		t.Error("both words in one section should count")
	}
	if !d.PresentIn("objectives", "primary") {
		t.Error("PresentIn should find the word in its section")
	}
	if d.PresentIn("objectives", "design") {
		t.Error("PresentIn must not look beyond the named section")
	}
	if d.PresentIn("endpoints", "primary") {
		t.Error("a section the document lacks contains nothing")
	}
}

func TestIndexContains(t *testing.T) {
	ix := NewIndex("Adverse events were graded per CTCAE.")
	if !ix.Contains("ctcae") || !ix.Contains("CTCAE") {
		t.Error("Contains should be case-insensitive")
	}
	if ix.Contains("event") {
		t.Error("Contains must not match a token prefix")
	}
	if ix.Len() != 6 {
		t.Errorf("Len = %d, want 6", ix.Len())
	}
}

func TestPhrasePattern(t *testing.T) {
	cases := []struct {
		text, phrase string
		want         bool
	}{
		{"The study  design is randomized.", "study design", true},
		{"The study design is randomized.", "study_design", true},
		{"A redesigned study protocol.", "study design", false},
		{"design of the study", "study design", false},
		{"STUDY DESIGN", "study design", true},
	}
	for _, c := range cases {
		if got := PresentPhrase(c.text, c.phrase); got != c.want {
			t.Errorf("PresentPhrase(%q, %q) = %v, want %v", c.text, c.phrase, got, c.want)
		}
	}
	if PhrasePattern("   ") != nil {
		t.Error("empty phrase should yield no pattern")
	}
}
