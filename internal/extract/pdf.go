package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/hyperjump/kotaeru/internal/models"
)

// PDFExtractor extracts per-page text from PDF bytes.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract reads every page of the PDF and returns its plain text.
// Pages that cannot be parsed individually are returned with empty text
// rather than failing the whole document.
func (e *PDFExtractor) Extract(content []byte) (*Extraction, error) {
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	result := &Extraction{
		PageCount: numPages,
		Pages:     make([]models.Page, 0, numPages),
	}
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		text := ""
		if !page.V.IsNull() {
			if t, err := page.GetPlainText(nil); err == nil {
				text = strings.TrimSpace(t)
			}
		}
		result.Pages = append(result.Pages, models.Page{Number: i, Text: text})
	}
	return result, nil
}
