// Package store defines the persistence interface for documents, chunks, and
// FAQ data, with SQLite and in-memory implementations.
package store

import (
	"context"
	"errors"

	"github.com/hyperjump/kotaeru/internal/models"
)

// ErrNotFound is returned when a document, chunk, or FAQ item does not exist.
// Callers must distinguish it from internal storage failures.
var ErrNotFound = errors.New("not found")

// Store defines document and FAQ persistence operations.
// The store is the single owner of document state: the upload path creates a
// document in processing status and the owning background task updates it
// exactly once to ready or error.
type Store interface {
	// Document operations
	CreateDocument(ctx context.Context, doc *models.Document) error
	// GetDocument returns a document with its pages and chunks loaded.
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	// FindDocumentByName returns the most recently uploaded document with the
	// given name, without pages or chunks.
	FindDocumentByName(ctx context.Context, name string) (*models.Document, error)
	// ListDocuments returns all documents, newest first, with chunks loaded
	// (pages omitted; retrieval does not need them).
	ListDocuments(ctx context.Context) ([]*models.Document, error)
	// UpdateDocument replaces the document's metadata, pages, and chunks.
	UpdateDocument(ctx context.Context, doc *models.Document) error
	DeleteDocument(ctx context.Context, id string) error

	// Stats
	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	// FAQ persistence
	SaveFAQItem(ctx context.Context, item *models.FAQItem) error
	ListFAQItems(ctx context.Context) ([]*models.FAQItem, error)
	// AppendQuestion records one asked question, evicting the oldest entries
	// beyond the history cap.
	AppendQuestion(ctx context.Context, entry models.QuestionHistoryEntry) error
	// ListQuestions returns up to limit entries, newest first.
	ListQuestions(ctx context.Context, limit int) ([]models.QuestionHistoryEntry, error)

	Close() error
}

// HistoryCap is the maximum number of question history entries retained.
const HistoryCap = 1000
