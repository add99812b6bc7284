package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kotaeru/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		uploaded_at TIMESTAMP NOT NULL,
		status TEXT NOT NULL,
		page_count INTEGER NOT NULL DEFAULT 0,
		quality REAL NOT NULL DEFAULT 0,
		error_note TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_documents_name ON documents(name);
	CREATE INDEX IF NOT EXISTS idx_documents_uploaded_at ON documents(uploaded_at);

	CREATE TABLE IF NOT EXISTS pages (
		document_id TEXT NOT NULL,
		page_number INTEGER NOT NULL,
		text TEXT NOT NULL,
		PRIMARY KEY (document_id, page_number)
	);

	CREATE TABLE IF NOT EXISTS chunks (
		document_id TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		page INTEGER NOT NULL,
		content TEXT NOT NULL,
		keywords TEXT NOT NULL DEFAULT '[]',
		PRIMARY KEY (document_id, chunk_index)
	);

	CREATE TABLE IF NOT EXISTS faq_items (
		id TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		category TEXT NOT NULL,
		popularity INTEGER NOT NULL DEFAULT 0,
		keywords TEXT NOT NULL DEFAULT '[]',
		last_asked TIMESTAMP NOT NULL,
		times_asked INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS question_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question TEXT NOT NULL,
		category TEXT NOT NULL,
		asked_at TIMESTAMP NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateDocument inserts a document's metadata row. Pages and chunks are
// written later by UpdateDocument when processing completes.
func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, name, size_bytes, uploaded_at, status, page_count, quality, error_note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Name, doc.SizeBytes, doc.UploadedAt, string(doc.Status), doc.PageCount, doc.Quality, doc.ErrorNote,
	)
	return err
}

// GetDocument returns a document with pages and chunks loaded.
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.scanDocument(s.db.QueryRowContext(ctx,
		`SELECT id, name, size_bytes, uploaded_at, status, page_count, quality, error_note
		 FROM documents WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if doc.Pages, err = s.loadPages(ctx, id); err != nil {
		return nil, err
	}
	if doc.Chunks, err = s.loadChunks(ctx, id); err != nil {
		return nil, err
	}
	return doc, nil
}

// FindDocumentByName returns the most recently uploaded document with the
// given name, without pages or chunks.
func (s *SQLiteStore) FindDocumentByName(ctx context.Context, name string) (*models.Document, error) {
	return s.scanDocument(s.db.QueryRowContext(ctx,
		`SELECT id, name, size_bytes, uploaded_at, status, page_count, quality, error_note
		 FROM documents WHERE name = ? ORDER BY uploaded_at DESC LIMIT 1`, name))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *SQLiteStore) scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	var status string
	err := row.Scan(&doc.ID, &doc.Name, &doc.SizeBytes, &doc.UploadedAt, &status,
		&doc.PageCount, &doc.Quality, &doc.ErrorNote)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	doc.Status = models.DocumentStatus(status)
	return &doc, nil
}

func (s *SQLiteStore) loadPages(ctx context.Context, docID string) ([]models.Page, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT page_number, text FROM pages WHERE document_id = ? ORDER BY page_number`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []models.Page
	for rows.Next() {
		var p models.Page
		if err := rows.Scan(&p.Number, &p.Text); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (s *SQLiteStore) loadChunks(ctx context.Context, docID string) ([]models.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, chunk_index, page, content, keywords
		 FROM chunks WHERE document_id = ? ORDER BY chunk_index`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var c models.Chunk
		var keywordsJSON string
		if err := rows.Scan(&c.DocumentID, &c.ChunkIndex, &c.Page, &c.Content, &keywordsJSON); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(keywordsJSON), &c.Keywords)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// ListDocuments returns all documents, newest first, with chunks loaded.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, size_bytes, uploaded_at, status, page_count, quality, error_note
		 FROM documents ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := s.scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if doc.Chunks, err = s.loadChunks(ctx, doc.ID); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// UpdateDocument replaces the document's metadata, pages, and chunks in one
// transaction.
func (s *SQLiteStore) UpdateDocument(ctx context.Context, doc *models.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE documents SET status = ?, page_count = ?, quality = ?, error_note = ? WHERE id = ?`,
		string(doc.Status), doc.PageCount, doc.Quality, doc.ErrorNote, doc.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE document_id = ?`, doc.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, doc.ID); err != nil {
		return err
	}

	pageStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pages (document_id, page_number, text) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer pageStmt.Close()
	for _, p := range doc.Pages {
		if _, err := pageStmt.ExecContext(ctx, doc.ID, p.Number, p.Text); err != nil {
			return err
		}
	}

	chunkStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (document_id, chunk_index, page, content, keywords) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer chunkStmt.Close()
	for _, c := range doc.Chunks {
		keywordsJSON, err := json.Marshal(c.Keywords)
		if err != nil {
			return err
		}
		if _, err := chunkStmt.ExecContext(ctx, doc.ID, c.ChunkIndex, c.Page, c.Content, string(keywordsJSON)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document and its pages and chunks.
// Returns ErrNotFound if the document does not exist.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE document_id = ?`, id); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, id)
	return err
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// CountChunks returns the total number of chunks.
func (s *SQLiteStore) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count)
	return count, err
}

// SaveFAQItem inserts or updates an FAQ item.
func (s *SQLiteStore) SaveFAQItem(ctx context.Context, item *models.FAQItem) error {
	keywordsJSON, err := json.Marshal(item.Keywords)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO faq_items (id, question, answer, category, popularity, keywords, last_asked, times_asked)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			question = excluded.question,
			answer = excluded.answer,
			category = excluded.category,
			popularity = excluded.popularity,
			keywords = excluded.keywords,
			last_asked = excluded.last_asked,
			times_asked = excluded.times_asked`,
		item.ID, item.Question, item.Answer, item.Category, item.Popularity,
		string(keywordsJSON), item.LastAsked, item.TimesAsked,
	)
	return err
}

// ListFAQItems returns all FAQ items ordered by descending popularity.
func (s *SQLiteStore) ListFAQItems(ctx context.Context) ([]*models.FAQItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer, category, popularity, keywords, last_asked, times_asked
		 FROM faq_items ORDER BY popularity DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.FAQItem
	for rows.Next() {
		var item models.FAQItem
		var keywordsJSON string
		if err := rows.Scan(&item.ID, &item.Question, &item.Answer, &item.Category,
			&item.Popularity, &keywordsJSON, &item.LastAsked, &item.TimesAsked); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(keywordsJSON), &item.Keywords)
		items = append(items, &item)
	}
	return items, rows.Err()
}

// AppendQuestion records one asked question and evicts entries beyond HistoryCap.
func (s *SQLiteStore) AppendQuestion(ctx context.Context, entry models.QuestionHistoryEntry) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO question_history (question, category, asked_at) VALUES (?, ?, ?)`,
		entry.Question, entry.Category, entry.Timestamp,
	); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM question_history WHERE id NOT IN
		 (SELECT id FROM question_history ORDER BY id DESC LIMIT ?)`, HistoryCap)
	return err
}

// ListQuestions returns up to limit history entries, newest first.
func (s *SQLiteStore) ListQuestions(ctx context.Context, limit int) ([]models.QuestionHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question, category, asked_at FROM question_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.QuestionHistoryEntry
	for rows.Next() {
		var e models.QuestionHistoryEntry
		if err := rows.Scan(&e.Question, &e.Category, &e.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
