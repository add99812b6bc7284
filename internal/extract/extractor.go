// Package extract converts uploaded file bytes into per-page plain text.
package extract

import (
	"fmt"

	"github.com/hyperjump/kotaeru/internal/models"
)

// Extraction is the result of extracting text from a file.
type Extraction struct {
	PageCount int
	Pages     []models.Page
}

// Extractor extracts per-page plain text from document bytes.
// Implementations must not mutate the input slice.
type Extractor interface {
	Extract(content []byte) (*Extraction, error)
}

// ErrEmptyFile is returned when the input has no bytes to extract from.
var ErrEmptyFile = fmt.Errorf("file is empty")
