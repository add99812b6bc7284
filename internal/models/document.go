// Package models defines core data structures for documents, questions, and answers.
package models

import "time"

// DocumentStatus is the processing lifecycle state of a document.
type DocumentStatus string

const (
	// StatusProcessing means the document has been accepted and a background
	// task is extracting and chunking its text.
	StatusProcessing DocumentStatus = "processing"
	// StatusReady means extraction and chunking completed and the document is searchable.
	StatusReady DocumentStatus = "ready"
	// StatusError means processing failed; the document is not searchable.
	StatusError DocumentStatus = "error"
)

// Document represents an uploaded document with its extracted pages and chunks.
// A document transitions processing -> ready or processing -> error exactly once;
// only the background task that owns it writes its fields after creation.
type Document struct {
	ID         string         `json:"id" db:"id"`
	Name       string         `json:"name" db:"name"`
	SizeBytes  int64          `json:"size_bytes" db:"size_bytes"`
	UploadedAt time.Time      `json:"uploaded_at" db:"uploaded_at"`
	Status     DocumentStatus `json:"status" db:"status"`
	PageCount  int            `json:"page_count" db:"page_count"`
	// Quality is the text-processing quality score in [0,1], surfaced to
	// clients as a percentage.
	Quality float64 `json:"quality" db:"quality"`
	// ErrorNote holds a short description when Status is error.
	ErrorNote string  `json:"error_note,omitempty" db:"error_note"`
	Pages     []Page  `json:"pages,omitempty"`
	Chunks    []Chunk `json:"chunks,omitempty"`
}

// Ready reports whether the document is searchable.
func (d *Document) Ready() bool {
	return d.Status == StatusReady
}

// Page is one page of cleaned document text. Immutable once created.
type Page struct {
	Number int    `json:"page" db:"page_number"`
	Text   string `json:"text" db:"text"`
}

// Chunk is a bounded-size, sentence-aligned piece of one page's text.
// ChunkIndex is 0-based and unique within the document; insertion order is
// reading order, so concatenating chunks by ChunkIndex reconstructs the
// cleaned text modulo whitespace.
type Chunk struct {
	DocumentID string   `json:"document_id" db:"document_id"`
	Page       int      `json:"page" db:"page"`
	ChunkIndex int      `json:"chunk_index" db:"chunk_index"`
	Content    string   `json:"content" db:"content"`
	Keywords   []string `json:"keywords,omitempty"`
}

// ScoredChunk is a per-question retrieval result. Never persisted.
type ScoredChunk struct {
	Chunk    *Chunk    `json:"chunk"`
	Document *Document `json:"-"`
	Score    float64   `json:"score"`
}
