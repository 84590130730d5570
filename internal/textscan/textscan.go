// Package textscan provides the lexical matching primitives shared by
// the scoring checks: word tokenization, whole-word co-occurrence
// presence, and verbatim phrase matching.
package textscan

import (
	"regexp"
	"strings"
	"unicode"
)

// Tokens splits text into lowercase word tokens. Any run of
// non-alphanumeric runes separates tokens, so "first-in-human" yields
// three tokens and "informed_consent" two.
func Tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// TokenSet returns the distinct word tokens of text.
func TokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range Tokens(text) {
		set[w] = struct{}{}
	}
	return set
}

// Index holds the distinct word tokens of a body of text for repeated
// presence checks.
type Index struct {
	words map[string]struct{}
}

// NewIndex tokenizes the given texts into a single index.
func NewIndex(texts ...string) *Index {
	ix := &Index{words: make(map[string]struct{})}
	for _, t := range texts {
		for _, w := range Tokens(t) {
			ix.words[w] = struct{}{}
		}
	}
	return ix
}

// Contains reports whether word occurs as a whole token. Matching is
// exact on the token, never on substrings: an index built from "case"
// does not contain "ae".
func (ix *Index) Contains(word string) bool {
	_, ok := ix.words[strings.ToLower(word)]
	return ok
}

// Present reports whether every constituent word of element occurs in
// the index, in any order. An element with no words is never present.
func (ix *Index) Present(element string) bool {
	words := Tokens(element)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if _, ok := ix.words[w]; !ok {
			return false
		}
	}
	return true
}

// Len returns the number of distinct tokens in the index.
func (ix *Index) Len() int {
	return len(ix.words)
}

// DocIndex indexes each section of a document separately. An element
// counts as present at document level when some single section
// contains all of its words; words scattered across different sections
// do not qualify.
type DocIndex struct {
	sections map[string]*Index
}

// NewDocIndex builds one index per section, keyed by section name.
func NewDocIndex(sections map[string]string) *DocIndex {
	d := &DocIndex{sections: make(map[string]*Index, len(sections))}
	for name, content := range sections {
		d.sections[name] = NewIndex(content)
	}
	return d
}

// Present reports whether element is present in at least one section.
func (d *DocIndex) Present(element string) bool {
	for _, ix := range d.sections {
		if ix.Present(element) {
			return true
		}
	}
	return false
}

// PresentIn reports whether element is present in the named section.
// A section the document does not have contains nothing.
func (d *DocIndex) PresentIn(section, element string) bool {
	ix, ok := d.sections[section]
	if !ok {
		return false
	}
	return ix.Present(element)
}

// Present is a convenience for one-off checks against a single text.
func Present(text, element string) bool {
	return NewIndex(text).Present(element)
}

// PhrasePattern compiles a case-insensitive pattern matching phrase as
// consecutive whole words. Underscores in the phrase are treated as
// spaces and interior whitespace matches any whitespace run. Returns
// nil for a phrase with no words.
func PhrasePattern(phrase string) *regexp.Regexp {
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(phrase), "_", " "))
	if len(words) == 0 {
		return nil
	}
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b` + strings.Join(words, `\s+`) + `\b`)
}

// PresentPhrase reports whether phrase occurs verbatim in text.
func PresentPhrase(text, phrase string) bool {
	pat := PhrasePattern(phrase)
	return pat != nil && pat.MatchString(text)
}
