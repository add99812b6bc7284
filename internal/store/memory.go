package store

import (
	"context"
	"sort"
	"sync"

	"github.com/hyperjump/kotaeru/internal/models"
)

// MemoryStore implements Store in memory. Used in tests and for ephemeral
// runs; it serializes all mutations behind one mutex, satisfying the
// one-writer-at-a-time requirement of concurrent document processing.
type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[string]*models.Document
	faq     map[string]*models.FAQItem
	history []models.QuestionHistoryEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]*models.Document),
		faq:  make(map[string]*models.FAQItem),
	}
}

func copyDocument(doc *models.Document) *models.Document {
	cp := *doc
	cp.Pages = append([]models.Page(nil), doc.Pages...)
	cp.Chunks = append([]models.Chunk(nil), doc.Chunks...)
	return &cp
}

// CreateDocument stores a copy of the document.
func (s *MemoryStore) CreateDocument(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = copyDocument(doc)
	return nil
}

// GetDocument returns a copy of the document with pages and chunks.
func (s *MemoryStore) GetDocument(_ context.Context, id string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDocument(doc), nil
}

// FindDocumentByName returns the most recently uploaded document with the name.
func (s *MemoryStore) FindDocumentByName(_ context.Context, name string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.Document
	for _, doc := range s.docs {
		if doc.Name != name {
			continue
		}
		if found == nil || doc.UploadedAt.After(found.UploadedAt) {
			found = doc
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	cp := *found
	cp.Pages = nil
	cp.Chunks = nil
	return &cp, nil
}

// ListDocuments returns all documents, newest first, with chunks.
func (s *MemoryStore) ListDocuments(_ context.Context) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]*models.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		cp := copyDocument(doc)
		cp.Pages = nil
		docs = append(docs, cp)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.After(docs[j].UploadedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

// UpdateDocument replaces the stored document.
func (s *MemoryStore) UpdateDocument(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; !ok {
		return ErrNotFound
	}
	s.docs[doc.ID] = copyDocument(doc)
	return nil
}

// DeleteDocument removes a document. Returns ErrNotFound if absent.
func (s *MemoryStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

// CountDocuments returns the number of documents.
func (s *MemoryStore) CountDocuments(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.docs)), nil
}

// CountChunks returns the total number of chunks across documents.
func (s *MemoryStore) CountChunks(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, doc := range s.docs {
		n += int64(len(doc.Chunks))
	}
	return n, nil
}

// SaveFAQItem inserts or updates an FAQ item.
func (s *MemoryStore) SaveFAQItem(_ context.Context, item *models.FAQItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	cp.Keywords = append([]string(nil), item.Keywords...)
	s.faq[item.ID] = &cp
	return nil
}

// ListFAQItems returns all FAQ items ordered by descending popularity.
func (s *MemoryStore) ListFAQItems(_ context.Context) ([]*models.FAQItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]*models.FAQItem, 0, len(s.faq))
	for _, item := range s.faq {
		cp := *item
		cp.Keywords = append([]string(nil), item.Keywords...)
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Popularity != items[j].Popularity {
			return items[i].Popularity > items[j].Popularity
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

// AppendQuestion records one asked question, evicting beyond HistoryCap.
func (s *MemoryStore) AppendQuestion(_ context.Context, entry models.QuestionHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, entry)
	if len(s.history) > HistoryCap {
		s.history = s.history[len(s.history)-HistoryCap:]
	}
	return nil
}

// ListQuestions returns up to limit history entries, newest first.
func (s *MemoryStore) ListQuestions(_ context.Context, limit int) ([]models.QuestionHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.history)
	if limit > n {
		limit = n
	}
	entries := make([]models.QuestionHistoryEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		entries = append(entries, s.history[i])
	}
	return entries, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
