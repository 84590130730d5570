// Package ingest parses uploaded protocol files into sectioned
// documents. Markdown splits on headings, JSON carries an explicit
// section map, plain text becomes a single section.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"

	"protoval/domain/core"
	"protoval/domain/protocol"
)

// Reader implements ports.DocumentParser.
type Reader struct{}

// NewReader creates a document reader
func NewReader() *Reader {
	return &Reader{}
}

// Parse turns file content into a Document. The study type is taken
// from the file when it states one, otherwise detected from the text.
func (r *Reader) Parse(filename string, data []byte) (*protocol.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, core.ErrNoContent
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return r.parseJSON(data)
	case ".md", ".markdown", ".txt", "":
		return r.parseMarkdown(data)
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, ext)
	}
}

type jsonDocument struct {
	StudyType string            `json:"study_type"`
	Sections  map[string]string `json:"sections"`
}

func (r *Reader) parseJSON(data []byte) (*protocol.Document, error) {
	var decoded jsonDocument
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("failed to parse JSON document: %w", err)
	}
	if len(decoded.Sections) == 0 {
		return nil, core.ErrNoContent
	}

	// JSON maps are unordered; sort the names so repeated uploads of
	// the same file produce the same section order.
	names := make([]string, 0, len(decoded.Sections))
	for name := range decoded.Sections {
		names = append(names, name)
	}
	sort.Strings(names)

	st := protocol.StudyType(strings.TrimSpace(decoded.StudyType))
	if st == "" {
		var all strings.Builder
		for _, name := range names {
			all.WriteString(decoded.Sections[name])
			all.WriteString("\n")
		}
		st = protocol.DetectStudyType(all.String())
	}

	doc := protocol.NewDocument(st)
	for _, name := range names {
		doc.Set(name, decoded.Sections[name])
	}
	log.Printf("[DocumentReader] Parsed JSON document: %d sections, study type %s", doc.Len(), st)
	return doc, nil
}

func (r *Reader) parseMarkdown(data []byte) (*protocol.Document, error) {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	root := p.Parse(data)

	type section struct {
		name    string
		level   int
		content strings.Builder
	}
	var sections []*section
	current := &section{}

	for _, node := range root.GetChildren() {
		if h, ok := node.(*ast.Heading); ok {
			if current.name != "" || strings.TrimSpace(current.content.String()) != "" {
				sections = append(sections, current)
			}
			current = &section{name: headingText(h), level: h.Level}
			continue
		}
		text := nodeText(node)
		if text == "" {
			continue
		}
		if current.content.Len() > 0 {
			current.content.WriteString("\n\n")
		}
		current.content.WriteString(text)
	}
	if current.name != "" || strings.TrimSpace(current.content.String()) != "" {
		sections = append(sections, current)
	}
	if len(sections) == 0 {
		return nil, core.ErrNoContent
	}

	var all strings.Builder
	for _, s := range sections {
		all.WriteString(s.name)
		all.WriteString("\n")
		all.WriteString(s.content.String())
		all.WriteString("\n")
	}
	doc := protocol.NewDocument(protocol.DetectStudyType(all.String()))

	for _, s := range sections {
		name := s.name
		content := strings.TrimSpace(s.content.String())
		switch {
		case name == "":
			// Text before the first heading, or a file with no
			// headings at all.
			name = "preamble"
			if len(sections) == 1 {
				name = "document"
			}
		case content == "" && s.level == 1:
			// A bare top-level title heading is its own content.
			content = s.name
			name = "title"
		}
		doc.Set(name, content)
	}
	log.Printf("[DocumentReader] Parsed markdown document: %d sections, study type %s", doc.Len(), doc.StudyType())
	return doc, nil
}

// Markdown renders a document back to markdown, the inverse of
// parseMarkdown for the section structure. A title section leads as
// the document heading; everything else becomes a level-two section.
func Markdown(doc *protocol.Document) []byte {
	var b bytes.Buffer
	for _, sec := range doc.Sections() {
		if strings.EqualFold(sec.Name, "title") {
			fmt.Fprintf(&b, "# %s\n\n", strings.TrimSpace(sec.Content))
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", sec.Name)
		if content := strings.TrimSpace(sec.Content); content != "" {
			b.WriteString(content)
			b.WriteString("\n\n")
		}
	}
	return b.Bytes()
}

// headingText collects the literal text of a heading node.
func headingText(h *ast.Heading) string {
	var b strings.Builder
	ast.WalkFunc(h, func(node ast.Node, entering bool) ast.WalkStatus {
		if entering {
			if leaf := node.AsLeaf(); leaf != nil {
				b.Write(leaf.Literal)
			}
		}
		return ast.GoToNext
	})
	return strings.TrimSpace(b.String())
}

// nodeText flattens a block node to plain text. Paragraphs and list
// items become line breaks; inline markup is dropped.
func nodeText(node ast.Node) string {
	var b strings.Builder
	ast.WalkFunc(node, func(n ast.Node, entering bool) ast.WalkStatus {
		if entering {
			if leaf := n.AsLeaf(); leaf != nil && len(leaf.Literal) > 0 {
				b.Write(leaf.Literal)
			}
			return ast.GoToNext
		}
		switch n.(type) {
		case *ast.Paragraph, *ast.ListItem, *ast.TableRow:
			b.WriteString("\n")
		}
		return ast.GoToNext
	})
	return strings.TrimSpace(b.String())
}
