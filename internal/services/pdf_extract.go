package services

import (
	"fmt"

	pdf "github.com/ledongthuc/pdf"
)

// PageExtractor reads a document file into ordered per-page text.
type PageExtractor interface {
	ExtractPages(path string) ([]string, error)
}

type pdfPageExtractor struct{}

func NewPDFPageExtractor() PageExtractor {
	return &pdfPageExtractor{}
}

func (e *pdfPageExtractor) ExtractPages(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pdf open: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, pErr := p.GetPlainText(nil)
		if pErr != nil {
			// A single unreadable page should not sink the document.
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}
