// Package watcher watches the raw transcript directory and reports changed
// and removed files after a quiet period.
package watcher

import (
	"context"
	"errors"
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

// Watcher watches one input directory and invokes callbacks on file changes.
type Watcher struct {
	root      string
	recursive bool
	accept    func(path string) bool
	onChange  func(path string)
	onRemove  func(path string)
	debounce  time.Duration
	logger    *zap.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	pending  map[string]*time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long a file must be quiet before onChange fires.
// Non-positive values keep the default of 400ms.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithRecursive also watches subdirectories, including ones created later.
func WithRecursive(recursive bool) Option {
	return func(w *Watcher) { w.recursive = recursive }
}

// WithFilter limits callbacks to paths accepted by fn. By default every
// non-hidden file is accepted.
func WithFilter(fn func(path string) bool) Option {
	return func(w *Watcher) { w.accept = fn }
}

// New creates a watcher for root. onChange runs once a created or written file
// has been quiet for the debounce period; onRemove runs when a file is removed
// or renamed away. Either callback may be nil.
func New(root string, onChange, onRemove func(path string), opts ...Option) *Watcher {
	w := &Watcher{
		root:     filepath.Clean(root),
		accept:   notHidden,
		onChange: onChange,
		onRemove: onRemove,
		debounce: defaultDebounce,
		logger:   zap.NewNop(),
		pending:  make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func notHidden(path string) bool {
	return !strings.HasPrefix(filepath.Base(path), ".")
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Start begins watching, creating the root if it does not exist. It returns
// immediately; events are handled until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	select {
	case <-w.done:
		return errors.New("watcher already stopped")
	default:
	}
	if err := os.MkdirAll(w.root, 0755); err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.addTree(fw, w.root); err != nil {
		_ = fw.Close()
		return err
	}
	w.watcher = fw
	w.started = true
	w.logger.Info("watching directory",
		zap.String("root", w.root),
		zap.Bool("recursive", w.recursive),
		zap.Duration("debounce", w.debounce))
	go w.run(ctx, fw.Events, fw.Errors)
	return nil
}

// addTree watches dir, and its subdirectories when recursive.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	if !w.recursive {
		return fw.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && !notHidden(path) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

func (w *Watcher) run(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-errs:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			w.handleNewDirectory(path)
			return
		}
		if w.accept(path) {
			w.schedule(path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.cancel(path)
		if w.accept(path) && w.onRemove != nil {
			w.onRemove(path)
		}
	}
}

// handleNewDirectory starts watching a directory created under the root and
// reports the files already inside it. Non-recursive watchers ignore it.
func (w *Watcher) handleNewDirectory(dir string) {
	if !w.recursive || !notHidden(dir) {
		return
	}
	w.mu.Lock()
	fw := w.watcher
	w.mu.Unlock()
	if fw == nil {
		return
	}
	if err := w.addTree(fw, dir); err != nil {
		w.logger.Warn("watcher failed to add directory", zap.String("path", dir), zap.Error(err))
	}
	w.walk(dir, w.schedule)
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.logger.Debug("file settled", zap.String("path", path))
		if w.onChange != nil {
			w.onChange(path)
		}
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

// walk calls fn for every accepted file under dir (top level only unless recursive),
// in lexical order.
func (w *Watcher) walk(dir string, fn func(path string)) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && (!w.recursive || !notHidden(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && w.accept(path) {
			fn(path)
		}
		return nil
	})
}

// SyncExisting calls onChange synchronously for every accepted file already
// present under the root. Call it after Start so files written in between are
// not missed.
func (w *Watcher) SyncExisting() {
	if w.onChange == nil {
		return
	}
	w.logger.Debug("syncing existing files", zap.String("root", w.root))
	w.walk(w.root, w.onChange)
}

// Stop stops the watcher, drops pending callbacks and releases resources.
// It is safe to call more than once; a stopped Watcher cannot be restarted.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
