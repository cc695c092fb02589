// Package parser extracts (page number, page text) pairs from user-supplied
// documents. It does no OCR: an image-only page simply yields empty text.
package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Page is one page of extracted text. Number is 1-based; 0 means the format
// has no page identity.
type Page struct {
	Number int
	Text   string
}

// Document is a parsed input file.
type Document struct {
	Name  string // display name, used as chunk source metadata
	Pages []Page
}

// Load parses the file at path by extension.
func Load(path string) (*Document, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return loadPDF(path)
	case ".docx":
		return loadDOCX(path)
	case ".txt", ".md":
		return loadText(path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func loadPDF(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	doc := &Document{Name: filepath.Base(path)}
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			doc.Pages = append(doc.Pages, Page{Number: i})
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extracting page %d of %s: %w", i, path, err)
		}
		doc.Pages = append(doc.Pages, Page{Number: i, Text: strings.TrimSpace(text)})
	}
	return doc, nil
}

func loadDOCX(path string) (*Document, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	// DOCX has no page identity; the whole body becomes one unpaged page.
	return &Document{
		Name:  filepath.Base(path),
		Pages: []Page{{Number: 0, Text: strings.TrimSpace(content)}},
	}, nil
}

func loadText(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Document{
		Name:  filepath.Base(path),
		Pages: []Page{{Number: 1, Text: strings.TrimSpace(string(data))}},
	}, nil
}
