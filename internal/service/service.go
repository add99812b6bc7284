// Package service orchestrates the document pipeline: upload validation,
// background extraction and chunking, question answering, and FAQ tracking.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kotaeru/internal/answer"
	"github.com/hyperjump/kotaeru/internal/chunker"
	"github.com/hyperjump/kotaeru/internal/extract"
	"github.com/hyperjump/kotaeru/internal/faq"
	"github.com/hyperjump/kotaeru/internal/models"
	"github.com/hyperjump/kotaeru/internal/retrieval"
	"github.com/hyperjump/kotaeru/internal/store"
	"github.com/hyperjump/kotaeru/internal/textproc"
)

// Validation errors returned by Upload. Callers map these to client errors;
// anything else is an internal failure.
var (
	ErrEmptyFile    = errors.New("file is empty")
	ErrNotPDF       = errors.New("only PDF files are supported")
	ErrFileTooLarge = errors.New("file exceeds the maximum upload size")
)

// DefaultMaxFileSizeBytes bounds uploads at 10 MB.
const DefaultMaxFileSizeBytes = 10 << 20

var pdfMagic = []byte("%PDF-")

// Options configures the service pipeline. Zero values select defaults.
type Options struct {
	MaxFileSizeBytes int64
	MaxChunkSize     int
	Text             *textproc.Options
	Scoring          *retrieval.ScoringConfig
	Answer           *answer.Config
}

// Service ties the store, extraction, text processing, retrieval, synthesis,
// and FAQ tracking together. Each upload is processed by exactly one
// background goroutine; the store serializes concurrent writes.
type Service struct {
	store     store.Store
	extractor extract.Extractor
	processor *textproc.Processor
	chunker   *chunker.Chunker
	engine    *retrieval.Engine
	synth     *answer.Synthesizer
	kbs       []answer.KnowledgeBase
	tracker   *faq.Tracker
	logger    *zap.Logger

	maxFileSize int64

	mu    sync.Mutex
	tasks map[string]chan struct{}
}

// New creates a service. tracker may be nil to disable FAQ tracking.
func New(st store.Store, tracker *faq.Tracker, opts Options, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxFileSizeBytes <= 0 {
		opts.MaxFileSizeBytes = DefaultMaxFileSizeBytes
	}
	textOpts := textproc.DefaultOptions()
	if opts.Text != nil {
		textOpts = *opts.Text
	}
	engine, err := retrieval.NewEngine(opts.Scoring)
	if err != nil {
		return nil, fmt.Errorf("retrieval engine: %w", err)
	}
	return &Service{
		store:       st,
		extractor:   extract.NewPDFExtractor(),
		processor:   textproc.NewProcessor(textOpts, textproc.WithLogger(logger)),
		chunker:     chunker.NewChunker(opts.MaxChunkSize),
		engine:      engine,
		synth:       answer.NewSynthesizer(opts.Answer),
		kbs:         answer.DefaultKnowledgeBases(),
		tracker:     tracker,
		logger:      logger,
		maxFileSize: opts.MaxFileSizeBytes,
		tasks:       make(map[string]chan struct{}),
	}, nil
}

// Upload validates and registers a document, then processes it in the
// background. The returned document is in processing status; poll Document or
// call Wait to observe the ready or error state.
func (s *Service) Upload(ctx context.Context, name string, content []byte) (*models.Document, error) {
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(content)) > s.maxFileSize {
		return nil, ErrFileTooLarge
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") && !bytes.HasPrefix(content, pdfMagic) {
		return nil, ErrNotPDF
	}

	doc := &models.Document{
		ID:         uuid.New().String(),
		Name:       name,
		SizeBytes:  int64(len(content)),
		UploadedAt: time.Now().UTC(),
		Status:     models.StatusProcessing,
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.tasks[doc.ID] = done
	s.mu.Unlock()

	data := append([]byte(nil), content...)
	go func() {
		defer func() {
			close(done)
			s.mu.Lock()
			delete(s.tasks, doc.ID)
			s.mu.Unlock()
		}()
		s.process(context.Background(), doc, data)
	}()

	cp := *doc
	return &cp, nil
}

// Wait blocks until background processing for the document finishes. It
// returns immediately for unknown IDs.
func (s *Service) Wait(id string) {
	s.mu.Lock()
	done, ok := s.tasks[id]
	s.mu.Unlock()
	if ok {
		<-done
	}
}

// extract shields the pipeline from panics inside the PDF parser; a panic on
// a malformed file is reported as an extraction error, not a crash.
func (s *Service) extract(content []byte) (extraction *extract.Extraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf extraction panicked: %v", r)
		}
	}()
	return s.extractor.Extract(content)
}

// process runs extraction, cleaning, and chunking, then moves the document to
// ready or error. It is the only writer of the document after creation.
func (s *Service) process(ctx context.Context, doc *models.Document, content []byte) {
	extraction, err := s.extract(content)
	if err != nil {
		// Unparseable files still become searchable through their metadata so
		// the user can find and remove them by name.
		s.logger.Warn("extraction failed, indexing metadata only",
			zap.String("id", doc.ID), zap.String("name", doc.Name), zap.Error(err))
		extraction = &extract.Extraction{
			PageCount: 1,
			Pages: []models.Page{{
				Number: 1,
				Text:   fmt.Sprintf("Document: %s (text could not be extracted)", doc.Name),
			}},
		}
		doc.ErrorNote = fmt.Sprintf("text extraction failed: %v", err)
	}

	var (
		pages      []models.Page
		totalQual  float64
		scoredPgs  int
		totalChars int
	)
	for _, page := range extraction.Pages {
		res := s.processor.Process(page.Text)
		pages = append(pages, models.Page{Number: page.Number, Text: res.CleanedText})
		totalChars += len(strings.TrimSpace(res.CleanedText))
		if strings.TrimSpace(page.Text) != "" {
			totalQual += res.QualityScore
			scoredPgs++
		}
	}

	if totalChars == 0 {
		doc.Status = models.StatusError
		doc.ErrorNote = "no extractable text"
		doc.PageCount = extraction.PageCount
		if err := s.store.UpdateDocument(ctx, doc); err != nil {
			s.logger.Error("document update failed", zap.String("id", doc.ID), zap.Error(err))
		}
		return
	}

	doc.Pages = pages
	doc.Chunks = s.chunker.Chunk(doc.ID, pages)
	doc.PageCount = extraction.PageCount
	if scoredPgs > 0 {
		doc.Quality = totalQual / float64(scoredPgs)
	}
	doc.Status = models.StatusReady

	if err := s.store.UpdateDocument(ctx, doc); err != nil {
		s.logger.Error("document update failed", zap.String("id", doc.ID), zap.Error(err))
		return
	}
	s.logger.Info("document processed",
		zap.String("id", doc.ID),
		zap.String("name", doc.Name),
		zap.Int("pages", doc.PageCount),
		zap.Int("chunks", len(doc.Chunks)),
		zap.Float64("quality", doc.Quality))
}

// Ask answers a question over the uploaded documents. The built-in knowledge
// bases are consulted first; otherwise retrieval and synthesis run over all
// ready documents. Ask degrades to the no-match answer rather than failing.
func (s *Service) Ask(ctx context.Context, question string) (*models.Answer, error) {
	q := models.Question{Text: question}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()

	if ans, ok := answer.MatchPredefined(q.Text, s.kbs); ok {
		ans.QueryTime = time.Since(started).Milliseconds()
		s.track(ctx, q.Text)
		return ans, nil
	}

	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		docs = nil
	}
	ready := docs[:0]
	for _, d := range docs {
		if d.Ready() {
			ready = append(ready, d)
		}
	}

	ranked := s.engine.Search(q.Text, ready)
	if len(ranked) == 0 {
		ranked = s.engine.SearchFallback(q.Text, ready)
	}

	ans := s.synthesize(q.Text, ranked)
	ans.QueryTime = time.Since(started).Milliseconds()
	s.track(ctx, q.Text)
	return ans, nil
}

// synthesize shields Ask from panics in template composition; a panic
// degrades to the no-match answer.
func (s *Service) synthesize(query string, ranked []models.ScoredChunk) (ans *models.Answer) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("answer synthesis panicked", zap.Any("panic", r))
			ans = &models.Answer{Text: answer.NoMatchMessage, Sources: []models.Source{}}
		}
	}()
	return s.synth.Synthesize(query, ranked)
}

func (s *Service) track(ctx context.Context, question string) {
	if s.tracker != nil {
		s.tracker.Track(ctx, question)
	}
}

// Document returns one document with pages and chunks.
func (s *Service) Document(ctx context.Context, id string) (*models.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// List returns all documents, newest first, without page or chunk payloads.
func (s *Service) List(ctx context.Context) ([]*models.Document, error) {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		d.Pages = nil
		d.Chunks = nil
	}
	return docs, nil
}

// Delete removes a document. Returns store.ErrNotFound if it does not exist.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteDocument(ctx, id)
}

// Stats reports document and chunk counts.
func (s *Service) Stats(ctx context.Context) (docs, chunks int64, err error) {
	docs, err = s.store.CountDocuments(ctx)
	if err != nil {
		return 0, 0, err
	}
	chunks, err = s.store.CountChunks(ctx)
	if err != nil {
		return 0, 0, err
	}
	return docs, chunks, nil
}

// IngestFile uploads a file from disk, skipping files already ingested with
// the same name and size. Used by the drop-folder watcher.
func (s *Service) IngestFile(ctx context.Context, path string) (*models.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	name := filepath.Base(path)
	if existing, err := s.store.FindDocumentByName(ctx, name); err == nil {
		if existing.SizeBytes == int64(len(content)) && existing.Status != models.StatusError {
			s.logger.Debug("skipping already ingested file", zap.String("name", name))
			return existing, nil
		}
		if err := s.store.DeleteDocument(ctx, existing.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("replace %s: %w", name, err)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return s.Upload(ctx, name, content)
}

// RemoveByName deletes the document previously ingested from the given file
// name. Missing documents are not an error; the watcher fires removals for
// files that were never ingested.
func (s *Service) RemoveByName(ctx context.Context, name string) error {
	existing, err := s.store.FindDocumentByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.store.DeleteDocument(ctx, existing.ID)
}

// FAQ exposes the tracker for read endpoints. May be nil.
func (s *Service) FAQ() *faq.Tracker {
	return s.tracker
}

// ScoringConfig returns the engine's effective configuration.
func (s *Service) ScoringConfig() *retrieval.ScoringConfig {
	return s.engine.Config()
}
