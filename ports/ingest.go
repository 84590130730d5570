package ports

import (
	"protoval/domain/protocol"
)

// DocumentParser turns an uploaded protocol file into sectioned form.
// Implementations pick the format from the file name: Markdown splits
// on headings, JSON expects an explicit section map.
type DocumentParser interface {
	Parse(filename string, data []byte) (*protocol.Document, error)
}
