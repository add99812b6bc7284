package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/kotaeru/internal/models"
)

// eachStore runs fn against every Store implementation.
func eachStore(t *testing.T, fn func(t *testing.T, st Store)) {
	t.Helper()
	impls := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kotaeru.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore: %v", err)
			}
			t.Cleanup(func() { st.Close() })
			return st
		},
	}
	for name, build := range impls {
		t.Run(name, func(t *testing.T) {
			fn(t, build(t))
		})
	}
}

func testDocument(id, name string, uploadedAt time.Time) *models.Document {
	return &models.Document{
		ID:         id,
		Name:       name,
		SizeBytes:  42,
		UploadedAt: uploadedAt,
		Status:     models.StatusProcessing,
	}
}

func TestStore_documentLifecycle(t *testing.T) {
	eachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		uploaded := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

		doc := testDocument("doc-1", "paper.pdf", uploaded)
		if err := st.CreateDocument(ctx, doc); err != nil {
			t.Fatalf("CreateDocument: %v", err)
		}

		got, err := st.GetDocument(ctx, "doc-1")
		if err != nil {
			t.Fatalf("GetDocument: %v", err)
		}
		if got.Name != "paper.pdf" || got.SizeBytes != 42 || got.Status != models.StatusProcessing {
			t.Errorf("unexpected document: %+v", got)
		}
		if !got.UploadedAt.Equal(uploaded) {
			t.Errorf("UploadedAt = %v, want %v", got.UploadedAt, uploaded)
		}

		doc.Status = models.StatusReady
		doc.PageCount = 2
		doc.Quality = 0.85
		doc.Pages = []models.Page{
			{Number: 1, Text: "first page"},
			{Number: 2, Text: "second page"},
		}
		doc.Chunks = []models.Chunk{
			{DocumentID: "doc-1", Page: 1, ChunkIndex: 0, Content: "first chunk", Keywords: []string{"first"}},
			{DocumentID: "doc-1", Page: 2, ChunkIndex: 1, Content: "second chunk"},
		}
		if err := st.UpdateDocument(ctx, doc); err != nil {
			t.Fatalf("UpdateDocument: %v", err)
		}

		got, err = st.GetDocument(ctx, "doc-1")
		if err != nil {
			t.Fatalf("GetDocument after update: %v", err)
		}
		if got.Status != models.StatusReady || got.PageCount != 2 || got.Quality != 0.85 {
			t.Errorf("update not applied: %+v", got)
		}
		if len(got.Pages) != 2 || got.Pages[1].Text != "second page" {
			t.Errorf("pages not loaded: %+v", got.Pages)
		}
		if len(got.Chunks) != 2 || got.Chunks[0].Content != "first chunk" {
			t.Errorf("chunks not loaded: %+v", got.Chunks)
		}
		if len(got.Chunks[0].Keywords) != 1 || got.Chunks[0].Keywords[0] != "first" {
			t.Errorf("chunk keywords lost: %+v", got.Chunks[0].Keywords)
		}

		if err := st.DeleteDocument(ctx, "doc-1"); err != nil {
			t.Fatalf("DeleteDocument: %v", err)
		}
		if _, err := st.GetDocument(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetDocument after delete = %v, want ErrNotFound", err)
		}
		if err := st.DeleteDocument(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("second delete = %v, want ErrNotFound", err)
		}
	})
}

func TestStore_updateMissingDocument(t *testing.T) {
	eachStore(t, func(t *testing.T, st Store) {
		doc := testDocument("ghost", "ghost.pdf", time.Now().UTC())
		if err := st.UpdateDocument(context.Background(), doc); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateDocument = %v, want ErrNotFound", err)
		}
	})
}

func TestStore_listNewestFirst(t *testing.T) {
	eachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
		for i, id := range []string{"doc-a", "doc-b", "doc-c"} {
			doc := testDocument(id, id+".pdf", base.Add(time.Duration(i)*time.Hour))
			if err := st.CreateDocument(ctx, doc); err != nil {
				t.Fatal(err)
			}
		}

		docs, err := st.ListDocuments(ctx)
		if err != nil {
			t.Fatalf("ListDocuments: %v", err)
		}
		if len(docs) != 3 {
			t.Fatalf("docs = %d, want 3", len(docs))
		}
		if docs[0].ID != "doc-c" || docs[2].ID != "doc-a" {
			t.Errorf("order = %s, %s, %s; want newest first", docs[0].ID, docs[1].ID, docs[2].ID)
		}
	})
}

func TestStore_findDocumentByName(t *testing.T) {
	eachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

		if _, err := st.FindDocumentByName(ctx, "paper.pdf"); !errors.Is(err, ErrNotFound) {
			t.Errorf("FindDocumentByName on empty store = %v, want ErrNotFound", err)
		}

		older := testDocument("doc-old", "paper.pdf", base)
		newer := testDocument("doc-new", "paper.pdf", base.Add(time.Hour))
		for _, doc := range []*models.Document{older, newer} {
			if err := st.CreateDocument(ctx, doc); err != nil {
				t.Fatal(err)
			}
		}

		got, err := st.FindDocumentByName(ctx, "paper.pdf")
		if err != nil {
			t.Fatalf("FindDocumentByName: %v", err)
		}
		if got.ID != "doc-new" {
			t.Errorf("ID = %s, want the newest upload", got.ID)
		}
		if got.Pages != nil || got.Chunks != nil {
			t.Errorf("lookup by name must not load payloads: %+v", got)
		}
	})
}

func TestStore_counts(t *testing.T) {
	eachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		doc := testDocument("doc-1", "a.pdf", time.Now().UTC())
		if err := st.CreateDocument(ctx, doc); err != nil {
			t.Fatal(err)
		}
		doc.Status = models.StatusReady
		doc.Chunks = []models.Chunk{
			{DocumentID: "doc-1", Page: 1, ChunkIndex: 0, Content: "one"},
			{DocumentID: "doc-1", Page: 1, ChunkIndex: 1, Content: "two"},
		}
		if err := st.UpdateDocument(ctx, doc); err != nil {
			t.Fatal(err)
		}

		docs, err := st.CountDocuments(ctx)
		if err != nil {
			t.Fatal(err)
		}
		chunks, err := st.CountChunks(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if docs != 1 || chunks != 2 {
			t.Errorf("docs=%d chunks=%d, want 1 and 2", docs, chunks)
		}
	})
}

func TestStore_faqItems(t *testing.T) {
	eachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		asked := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

		low := &models.FAQItem{
			ID: "faq-low", Question: "What is X?", Answer: "X is a thing.",
			Category: "Theory", Popularity: 1, Keywords: []string{"x"}, LastAsked: asked,
		}
		high := &models.FAQItem{
			ID: "faq-high", Question: "What is Y?", Answer: "Y is another thing.",
			Category: "Theory", Popularity: 5, Keywords: []string{"y"}, LastAsked: asked, TimesAsked: 4,
		}
		for _, item := range []*models.FAQItem{low, high} {
			if err := st.SaveFAQItem(ctx, item); err != nil {
				t.Fatalf("SaveFAQItem: %v", err)
			}
		}

		items, err := st.ListFAQItems(ctx)
		if err != nil {
			t.Fatalf("ListFAQItems: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("items = %d, want 2", len(items))
		}
		if items[0].ID != "faq-high" {
			t.Errorf("order = %s first, want most popular first", items[0].ID)
		}
		if items[0].TimesAsked != 4 || len(items[0].Keywords) != 1 {
			t.Errorf("item fields lost: %+v", items[0])
		}

		// Saving the same id again updates in place.
		low.Popularity = 9
		low.Answer = "X is a revised thing."
		if err := st.SaveFAQItem(ctx, low); err != nil {
			t.Fatal(err)
		}
		items, err = st.ListFAQItems(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 2 {
			t.Fatalf("upsert created a duplicate: %d items", len(items))
		}
		if items[0].ID != "faq-low" || items[0].Answer != "X is a revised thing." {
			t.Errorf("upsert not applied: %+v", items[0])
		}
	})
}

func TestStore_questionHistory(t *testing.T) {
	eachStore(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
		for i, q := range []string{"first question", "second question", "third question"} {
			entry := models.QuestionHistoryEntry{
				Question:  q,
				Category:  "General",
				Timestamp: base.Add(time.Duration(i) * time.Minute),
			}
			if err := st.AppendQuestion(ctx, entry); err != nil {
				t.Fatalf("AppendQuestion: %v", err)
			}
		}

		entries, err := st.ListQuestions(ctx, 2)
		if err != nil {
			t.Fatalf("ListQuestions: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("entries = %d, want 2", len(entries))
		}
		if entries[0].Question != "third question" || entries[1].Question != "second question" {
			t.Errorf("order = %q, %q; want newest first", entries[0].Question, entries[1].Question)
		}
	})
}

func TestMemoryStore_historyEviction(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < HistoryCap+5; i++ {
		entry := models.QuestionHistoryEntry{Question: "q", Timestamp: time.Now()}
		if i == HistoryCap+4 {
			entry.Question = "the newest question"
		}
		if err := st.AppendQuestion(ctx, entry); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := st.ListQuestions(ctx, HistoryCap+5)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != HistoryCap {
		t.Errorf("entries = %d, want capped at %d", len(entries), HistoryCap)
	}
	if entries[0].Question != "the newest question" {
		t.Errorf("newest entry evicted: %q", entries[0].Question)
	}
}

func TestMemoryStore_returnsCopies(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	doc := testDocument("doc-1", "a.pdf", time.Now().UTC())
	if err := st.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	got, err := st.GetDocument(ctx, "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	got.Name = "mutated.pdf"

	again, err := st.GetDocument(ctx, "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if again.Name != "a.pdf" {
		t.Error("GetDocument must return copies, internal state was mutated")
	}
}

func TestSQLiteStore_persistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "kotaeru.db")
	ctx := context.Background()

	st, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	doc := testDocument("doc-1", "paper.pdf", time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC))
	if err := st.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	item := &models.FAQItem{
		ID: "faq-1", Question: "What is persistence?", Answer: "Surviving restarts.",
		Category: "Theory", Popularity: 2, LastAsked: time.Now().UTC(),
	}
	if err := st.SaveFAQItem(ctx, item); err != nil {
		t.Fatal(err)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	if _, err := reopened.GetDocument(ctx, "doc-1"); err != nil {
		t.Errorf("document lost across reopen: %v", err)
	}
	items, err := reopened.ListFAQItems(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Question != "What is persistence?" {
		t.Errorf("faq items lost across reopen: %+v", items)
	}
}

func TestSQLiteStore_createsParentDirectories(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "kotaeru.db")
	st, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	st.Close()
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a"), []byte("12345"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "b"), []byte("123"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := DiskUsageBytes(dir, filepath.Join(dir, "missing"), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != 8 {
		t.Errorf("DiskUsageBytes = %d, want 8", got)
	}
}
