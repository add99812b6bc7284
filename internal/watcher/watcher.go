// Package watcher ingests PDF files dropped into watched folders, using
// fsnotify with per-file debouncing so partially written files are picked up
// once, after the last write.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// defaultExtensions limits ingestion to PDF files.
var defaultExtensions = []string{".pdf"}

// DropFolder watches directories and calls onIngest for new or changed
// matching files and onRemove for deleted ones.
type DropFolder struct {
	roots      []string
	extensions []string
	recursive  bool
	onIngest   func(path string)
	onRemove   func(path string)
	debounce   time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	pending  map[string]*time.Timer
	watched  map[string][]string // root -> directories registered with fsnotify
	started  bool
	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a DropFolder.
type Option func(*DropFolder)

// WithLogger enables debug logging of watch events.
func WithLogger(l *zap.Logger) Option {
	return func(d *DropFolder) { d.logger = l }
}

// WithExtensions overrides the default .pdf filter. Empty means all files.
func WithExtensions(exts []string) Option {
	return func(d *DropFolder) { d.extensions = exts }
}

// WithDebounce overrides the write-settle delay. Used in tests.
func WithDebounce(dur time.Duration) Option {
	return func(d *DropFolder) { d.debounce = dur }
}

// New creates a drop-folder watcher over the given roots.
func New(roots []string, recursive bool, onIngest, onRemove func(path string), opts ...Option) *DropFolder {
	d := &DropFolder{
		roots:      roots,
		extensions: defaultExtensions,
		recursive:  recursive,
		onIngest:   onIngest,
		onRemove:   onRemove,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
		pending:    make(map[string]*time.Timer),
		watched:    make(map[string][]string),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start begins watching. Missing root directories are created. The watcher
// runs until ctx is cancelled or Stop is called.
func (d *DropFolder) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.fsw = fsw
	d.started = true
	d.logger.Debug("drop folder watcher starting",
		zap.Strings("roots", d.roots),
		zap.Strings("extensions", d.extensions),
		zap.Bool("recursive", d.recursive))
	for _, root := range d.roots {
		if err := d.registerRootLocked(root); err != nil {
			_ = d.fsw.Close()
			d.fsw = nil
			d.started = false
			d.mu.Unlock()
			return err
		}
	}
	d.mu.Unlock()
	go d.loop(ctx)
	return nil
}

func (d *DropFolder) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.Stop()
			return
		case <-d.done:
			return
		case ev, ok := <-d.fsw.Events:
			if !ok {
				return
			}
			d.handleEvent(ev)
		case err, ok := <-d.fsw.Errors:
			if !ok {
				return
			}
			if err != nil {
				d.logger.Debug("watch error", zap.Error(err))
			}
		}
	}
}

func (d *DropFolder) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	if !d.underRoot(path) {
		return
	}
	d.logger.Debug("watch event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			d.handleNewDirectory(path)
			return
		}
		if d.matches(path) {
			d.scheduleIngest(path)
		}
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		d.cancelPending(path)
		if d.matches(path) && d.onRemove != nil {
			d.onRemove(path)
		}
	}
}

// handleNewDirectory registers a directory created inside a watched root and
// ingests any matching files it already contains.
func (d *DropFolder) handleNewDirectory(dirPath string) {
	d.mu.Lock()
	recursive := d.recursive
	fsw := d.fsw
	d.mu.Unlock()
	if fsw == nil {
		return
	}
	if recursive {
		_ = filepath.WalkDir(dirPath, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				if addErr := fsw.Add(path); addErr != nil {
					d.logger.Debug("watch add failed", zap.String("path", path), zap.Error(addErr))
				}
			}
			return nil
		})
	} else if err := fsw.Add(dirPath); err != nil {
		d.logger.Debug("watch add failed", zap.String("path", dirPath), zap.Error(err))
	}
	d.ingestExisting(dirPath)
}

func (d *DropFolder) underRoot(path string) bool {
	d.mu.Lock()
	roots := append([]string(nil), d.roots...)
	d.mu.Unlock()
	clean := filepath.Clean(path)
	for _, root := range roots {
		rootClean := filepath.Clean(root)
		if rootClean == clean || inDir(rootClean, clean) {
			return true
		}
	}
	return false
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (d *DropFolder) matches(path string) bool {
	return matchExtension(path, d.extensions)
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// scheduleIngest (re)arms the per-file debounce timer; the ingest callback
// fires only after writes to the file have settled.
func (d *DropFolder) scheduleIngest(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.pending[path]; ok {
		t.Stop()
	}
	d.pending[path] = time.AfterFunc(d.debounce, func() {
		d.mu.Lock()
		delete(d.pending, path)
		d.mu.Unlock()
		d.logger.Debug("ingesting settled file", zap.String("path", path))
		if d.onIngest != nil {
			d.onIngest(path)
		}
	})
}

func (d *DropFolder) cancelPending(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.pending[path]; ok {
		t.Stop()
		delete(d.pending, path)
	}
}

// AddDirectory starts watching an additional root. With ingestExisting set,
// matching files already in the directory are ingested in the background.
func (d *DropFolder) AddDirectory(root string, ingestExisting bool) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fsw == nil {
		return nil
	}
	for _, r := range d.roots {
		if filepath.Clean(r) == filepath.Clean(abs) {
			return nil
		}
	}
	if err := d.registerRootLocked(abs); err != nil {
		return err
	}
	d.roots = append(d.roots, abs)
	d.logger.Debug("watch root added", zap.String("path", abs), zap.Bool("ingest_existing", ingestExisting))
	if ingestExisting && d.onIngest != nil {
		go d.ingestExisting(abs)
	}
	return nil
}

func (d *DropFolder) registerRootLocked(root string) error {
	root = filepath.Clean(root)
	if _, err := os.Stat(root); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if err := os.MkdirAll(root, 0o755); err != nil {
			return err
		}
	}
	var dirs []string
	if d.recursive {
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.IsDir() {
				return nil
			}
			if err := d.fsw.Add(path); err != nil {
				return err
			}
			dirs = append(dirs, path)
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		if err := d.fsw.Add(root); err != nil {
			return err
		}
		dirs = append(dirs, root)
	}
	d.watched[root] = dirs
	return nil
}

func (d *DropFolder) ingestExisting(root string) {
	d.mu.Lock()
	exts := append([]string(nil), d.extensions...)
	onIngest := d.onIngest
	d.mu.Unlock()
	d.logger.Debug("ingesting existing files", zap.String("root", root))
	_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		if matchExtension(path, exts) && onIngest != nil {
			onIngest(path)
		}
		return nil
	})
}

// RemoveDirectory stops watching a root. Documents already ingested from it
// are kept.
func (d *DropFolder) RemoveDirectory(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	abs = filepath.Clean(abs)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fsw == nil {
		return nil
	}
	idx := -1
	for i, r := range d.roots {
		if filepath.Clean(r) == abs {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	for _, p := range d.watched[abs] {
		_ = d.fsw.Remove(p)
	}
	delete(d.watched, abs)
	d.roots = append(d.roots[:idx], d.roots[idx+1:]...)
	d.logger.Debug("watch root removed", zap.String("path", abs))
	return nil
}

// Directories returns the currently watched roots.
func (d *DropFolder) Directories() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.roots...)
}

// IngestExistingFiles ingests matching files already present in every watched
// root. Call after Start to pick up files that predate the watcher.
func (d *DropFolder) IngestExistingFiles() {
	d.mu.Lock()
	roots := append([]string(nil), d.roots...)
	d.mu.Unlock()
	for _, root := range roots {
		d.ingestExisting(root)
	}
}

// Stop stops watching and releases resources.
func (d *DropFolder) Stop() {
	d.mu.Lock()
	if !d.started || d.fsw == nil {
		d.mu.Unlock()
		return
	}
	for path, t := range d.pending {
		t.Stop()
		delete(d.pending, path)
	}
	_ = d.fsw.Close()
	d.fsw = nil
	d.started = false
	d.mu.Unlock()
	d.stopOnce.Do(func() { close(d.done) })
}
