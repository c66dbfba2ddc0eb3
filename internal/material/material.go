// Package material locates and loads the source documents cards are
// generated from.
package material

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

const DefaultContentType = "application/pdf"

var (
	ErrNoRef       = errors.New("material: no material selected")
	ErrNotFound    = errors.New("material: not found")
	ErrEmptyFile   = errors.New("material: file is empty")
	ErrOutsideRoot = errors.New("material: path escapes library root")
)

// Ref selects a material by name. Local libraries resolve the name relative
// to their root directory, remote sources by the stored file name.
type Ref struct {
	Name string
}

func (r Ref) String() string {
	return r.Name
}

// Document is a loaded material ready to be sent to the generator.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
	Pages       int
}

// FileName is the base name used for the multipart upload.
func (d Document) FileName() string {
	if d.Name == "" {
		return "document.pdf"
	}
	return path.Base(strings.ReplaceAll(d.Name, "\\", "/"))
}

// Source loads material content.
type Source interface {
	Load(ctx context.Context, ref Ref) (Document, error)
}

func newDocument(name, contentType string, data []byte) (Document, error) {
	if len(data) == 0 {
		return Document{}, fmt.Errorf("%s: %w", name, ErrEmptyFile)
	}
	if contentType == "" {
		contentType = DefaultContentType
	}
	doc := Document{Name: name, ContentType: contentType, Data: data}
	if IsPDF(contentType, name) {
		pages, err := PageCount(data)
		if err != nil {
			return Document{}, fmt.Errorf("invalid PDF %s: %w", name, err)
		}
		doc.Pages = pages
	}
	return doc, nil
}

// IsPDF reports whether the content type or file extension names a PDF.
func IsPDF(contentType, name string) bool {
	if strings.HasPrefix(strings.ToLower(contentType), DefaultContentType) {
		return true
	}
	return strings.EqualFold(path.Ext(name), ".pdf")
}
