package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type callLog struct {
	mu    sync.Mutex
	paths []string
}

func (c *callLog) record(path string) {
	c.mu.Lock()
	c.paths = append(c.paths, path)
	c.mu.Unlock()
}

func (c *callLog) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

func TestDropFolder_AddRemoveDirectories(t *testing.T) {
	dir := t.TempDir()
	var ingested, removed callLog

	d := New(nil, true, ingested.record, removed.record)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer d.Stop()

	if err := d.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	dirs := d.Directories()
	if len(dirs) != 1 || filepath.Clean(dirs[0]) != filepath.Clean(dir) {
		t.Errorf("Directories() = %v", dirs)
	}

	if err := d.RemoveDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if len(d.Directories()) != 0 {
		t.Errorf("after remove: %v", d.Directories())
	}
}

func TestDropFolder_DebounceAndExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	var ingested callLog
	d := New([]string{dir}, true, ingested.record, nil, WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer d.Stop()

	if err := os.WriteFile(filepath.Join(sub, "paper.pdf"), []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "notes.txt"), []byte("skip"), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)

	paths := ingested.snapshot()
	if len(paths) < 1 {
		t.Fatalf("expected at least one ingest callback, got %d", len(paths))
	}
	for _, p := range paths {
		if strings.HasSuffix(p, "notes.txt") {
			t.Errorf("non-PDF file should not be ingested: %v", paths)
		}
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.pdf", []string{".pdf"}, true},
		{"/a/b.PDF", []string{".pdf"}, true},
		{"/a/b.pdf", []string{"pdf"}, true},
		{"/a/b.txt", []string{".pdf"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		got := matchExtension(tt.path, tt.extensions)
		if got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.pdf", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		got := inDir(tt.dir, tt.path)
		if got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestDropFolder_IngestExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignore.xyz"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	var ingested callLog
	d := New([]string{dir}, true, ingested.record, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer d.Stop()
	d.IngestExistingFiles()

	paths := ingested.snapshot()
	if len(paths) != 1 || !strings.HasSuffix(paths[0], "a.pdf") {
		t.Errorf("expected one ingested file a.pdf, got %v", paths)
	}
}

func TestDropFolder_Start_createsMissingRootDirectory(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "inbox", "papers")

	d := New([]string{root}, true, nil, nil)
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer d.Stop()

	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
}

func TestDropFolder_NewDirectoryIngestsContents(t *testing.T) {
	dir := t.TempDir()

	var ingested callLog
	d := New([]string{dir}, true, ingested.record, nil, WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer d.Stop()

	newFolder := filepath.Join(dir, "batch")
	if err := os.MkdirAll(newFolder, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(newFolder, "doc1.pdf"), []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(newFolder, "ignore.xyz"), []byte("skip"), 0o600); err != nil {
		t.Fatal(err)
	}

	time.Sleep(800 * time.Millisecond)

	paths := ingested.snapshot()
	found := false
	for _, p := range paths {
		if strings.HasSuffix(p, "doc1.pdf") {
			found = true
		}
		if strings.HasSuffix(p, "ignore.xyz") {
			t.Errorf("ignore.xyz should not be ingested")
		}
	}
	if !found {
		t.Errorf("expected doc1.pdf to be ingested, got %v", paths)
	}
}

func TestDropFolder_RecursiveSubfolders(t *testing.T) {
	dir := t.TempDir()

	var ingested callLog
	d := New([]string{dir}, true, ingested.record, nil, WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer d.Stop()

	nested := filepath.Join(dir, "level1", "level2")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "deep.pdf"), []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatal(err)
	}

	time.Sleep(800 * time.Millisecond)

	found := false
	for _, p := range ingested.snapshot() {
		if strings.HasSuffix(p, "deep.pdf") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected deep.pdf to be ingested, got %v", ingested.snapshot())
	}
}
