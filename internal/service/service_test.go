package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/kotaeru/internal/answer"
	"github.com/hyperjump/kotaeru/internal/extract"
	"github.com/hyperjump/kotaeru/internal/faq"
	"github.com/hyperjump/kotaeru/internal/models"
	"github.com/hyperjump/kotaeru/internal/store"
)

// fakePDF carries the magic bytes but no parseable structure. Processing
// falls back to metadata-only indexing, which is enough to exercise the
// upload lifecycle deterministically.
var fakePDF = []byte("%PDF-1.4 not a real document body")

func newTestService(t *testing.T, opts Options) (*Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	tracker, err := faq.NewTracker(context.Background(), st)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	svc, err := New(st, tracker, opts, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc, st
}

func readyDocument(id, name string, chunks ...string) *models.Document {
	doc := &models.Document{
		ID:         id,
		Name:       name,
		Status:     models.StatusReady,
		UploadedAt: time.Now().UTC(),
		PageCount:  1,
	}
	for i, content := range chunks {
		doc.Chunks = append(doc.Chunks, models.Chunk{
			DocumentID: id,
			Page:       1,
			ChunkIndex: i,
			Content:    content,
		})
	}
	return doc
}

func TestUpload_validation(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	tests := []struct {
		name    string
		file    string
		content []byte
		wantErr error
	}{
		{"empty_file", "paper.pdf", nil, ErrEmptyFile},
		{"wrong_type", "notes.txt", []byte("plain text"), ErrNotPDF},
		{"pdf_extension_ok", "paper.pdf", []byte("anything"), nil},
		{"uppercase_extension_ok", "PAPER.PDF", []byte("anything"), nil},
		{"magic_bytes_ok", "downloaded.bin", fakePDF, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := svc.Upload(context.Background(), tt.file, tt.content)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Upload err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				if doc.Status != models.StatusProcessing {
					t.Errorf("Status = %s, want processing", doc.Status)
				}
				svc.Wait(doc.ID)
			}
		})
	}
}

func TestUpload_fileTooLarge(t *testing.T) {
	svc, _ := newTestService(t, Options{MaxFileSizeBytes: 8})
	_, err := svc.Upload(context.Background(), "paper.pdf", []byte("123456789"))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("err = %v, want ErrFileTooLarge", err)
	}
}

func TestUpload_lifecycle(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	doc, err := svc.Upload(ctx, "paper.pdf", fakePDF)
	if err != nil {
		t.Fatal(err)
	}
	if doc.ID == "" || doc.SizeBytes != int64(len(fakePDF)) {
		t.Errorf("unexpected created document: %+v", doc)
	}
	svc.Wait(doc.ID)

	got, err := svc.Document(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	// Unparseable content is indexed by its metadata placeholder.
	if got.Status != models.StatusReady {
		t.Fatalf("Status = %s, want ready", got.Status)
	}
	if got.ErrorNote == "" {
		t.Error("expected an extraction error note")
	}
	if got.PageCount != 1 || len(got.Pages) != 1 || len(got.Chunks) == 0 {
		t.Errorf("pages=%d chunks=%d pageCount=%d", len(got.Pages), len(got.Chunks), got.PageCount)
	}
	if !strings.Contains(got.Pages[0].Text, "paper.pdf") {
		t.Errorf("placeholder page should name the file: %q", got.Pages[0].Text)
	}
}

func TestUpload_releasesTaskAfterProcessing(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		doc, err := svc.Upload(ctx, "paper.pdf", fakePDF)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, doc.ID)
	}
	for _, id := range ids {
		svc.Wait(id)
	}

	svc.mu.Lock()
	remaining := len(svc.tasks)
	svc.mu.Unlock()
	if remaining != 0 {
		t.Errorf("tasks map retains %d entries after processing finished, want 0", remaining)
	}
}

type panickingExtractor struct{}

func (panickingExtractor) Extract([]byte) (*extract.Extraction, error) {
	panic("malformed xref table")
}

func TestUpload_extractorPanicBecomesDocumentState(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	svc.extractor = panickingExtractor{}
	ctx := context.Background()

	doc, err := svc.Upload(ctx, "paper.pdf", fakePDF)
	if err != nil {
		t.Fatal(err)
	}
	svc.Wait(doc.ID)

	got, err := svc.Document(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusReady {
		t.Fatalf("Status = %s, want ready via the metadata placeholder", got.Status)
	}
	if !strings.Contains(got.ErrorNote, "panic") {
		t.Errorf("ErrorNote = %q, want the panic surfaced", got.ErrorNote)
	}
	if len(got.Pages) != 1 || !strings.Contains(got.Pages[0].Text, "paper.pdf") {
		t.Errorf("placeholder page missing: %+v", got.Pages)
	}
}

func TestWait_unknownIDReturnsImmediately(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	done := make(chan struct{})
	go func() {
		svc.Wait("no-such-id")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked on an unknown id")
	}
}

func TestAsk_emptyQuestion(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	if _, err := svc.Ask(context.Background(), "   "); err == nil {
		t.Error("expected a validation error")
	}
}

func TestAsk_noDocuments(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ans, err := svc.Ask(context.Background(), "what is the conclusion of the study")
	if err != nil {
		t.Fatal(err)
	}
	if ans.Text != answer.NoMatchMessage {
		t.Errorf("Text = %q, want the no-match message", ans.Text)
	}
	if ans.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", ans.Confidence)
	}
}

func TestAsk_predefinedShortCircuits(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ans, err := svc.Ask(context.Background(), "What is overfitting?")
	if err != nil {
		t.Fatal(err)
	}
	if ans.KnowledgeBase == "" {
		t.Errorf("expected a knowledge base hit: %+v", ans)
	}
	if ans.Confidence != 1 {
		t.Errorf("Confidence = %v, want 1", ans.Confidence)
	}
	if got := svc.FAQ().AnalyticsSnapshot().TotalQuestions; got != 1 {
		t.Errorf("tracked questions = %d, want 1", got)
	}
}

func TestAsk_retrievesFromReadyDocuments(t *testing.T) {
	svc, st := newTestService(t, Options{})
	ctx := context.Background()

	ready := readyDocument("doc-1", "bio.pdf",
		"Mitochondria produce most of the cell's chemical energy supply.",
		"The cytoskeleton gives the cell its shape and structure.")
	if err := st.CreateDocument(ctx, ready); err != nil {
		t.Fatal(err)
	}
	processing := readyDocument("doc-2", "draft.pdf", "Mitochondria are discussed here too.")
	processing.Status = models.StatusProcessing
	if err := st.CreateDocument(ctx, processing); err != nil {
		t.Fatal(err)
	}

	ans, err := svc.Ask(ctx, "what do mitochondria produce")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ans.Text, "Mitochondria produce") {
		t.Errorf("answer does not quote the matching chunk: %q", ans.Text)
	}
	if ans.Confidence <= 0 {
		t.Errorf("Confidence = %v, want > 0", ans.Confidence)
	}
	if len(ans.Sources) == 0 || ans.Sources[0].Document != "bio.pdf" {
		t.Errorf("Sources = %+v", ans.Sources)
	}
	if ans.QueryTime < 0 {
		t.Errorf("QueryTime = %d", ans.QueryTime)
	}
}

func TestList_stripsPayloads(t *testing.T) {
	svc, st := newTestService(t, Options{})
	ctx := context.Background()
	doc := readyDocument("doc-1", "a.pdf", "some chunk content")
	doc.Pages = []models.Page{{Number: 1, Text: "page text"}}
	if err := st.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	docs, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("docs = %d, want 1", len(docs))
	}
	if docs[0].Pages != nil || docs[0].Chunks != nil {
		t.Errorf("listing must not carry pages or chunks: %+v", docs[0])
	}
}

func TestDelete_notFound(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	if err := svc.Delete(context.Background(), "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStats(t *testing.T) {
	svc, st := newTestService(t, Options{})
	ctx := context.Background()
	if err := st.CreateDocument(ctx, readyDocument("doc-1", "a.pdf", "one", "two")); err != nil {
		t.Fatal(err)
	}
	docs, chunks, err := svc.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if docs != 1 || chunks != 2 {
		t.Errorf("docs=%d chunks=%d, want 1 and 2", docs, chunks)
	}
}

func TestIngestFile_skipsUnchangedFiles(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(path, fakePDF, 0o644); err != nil {
		t.Fatal(err)
	}

	first, err := svc.IngestFile(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	svc.Wait(first.ID)

	second, err := svc.IngestFile(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("unchanged file was re-ingested: %s != %s", second.ID, first.ID)
	}
}

func TestIngestFile_replacesChangedFiles(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(path, fakePDF, 0o644); err != nil {
		t.Fatal(err)
	}
	first, err := svc.IngestFile(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	svc.Wait(first.ID)

	if err := os.WriteFile(path, append(fakePDF, " and more"...), 0o644); err != nil {
		t.Fatal(err)
	}
	second, err := svc.IngestFile(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if second.ID == first.ID {
		t.Error("changed file should get a fresh document")
	}
	svc.Wait(second.ID)

	docs, _, err := svc.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if docs != 1 {
		t.Errorf("documents = %d, want 1 after replacement", docs)
	}
}

func TestRemoveByName(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	doc, err := svc.Upload(ctx, "paper.pdf", fakePDF)
	if err != nil {
		t.Fatal(err)
	}
	svc.Wait(doc.ID)

	if err := svc.RemoveByName(ctx, "paper.pdf"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Document(ctx, doc.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("document still present after removal: %v", err)
	}
	if err := svc.RemoveByName(ctx, "never-ingested.pdf"); err != nil {
		t.Errorf("missing names must not error: %v", err)
	}
}
