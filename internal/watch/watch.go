// Package watch reports changes to documents in a content directory.
//
// Events are debounced per file so an editor's burst of writes produces a
// single notification.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/PietroNarcisi/NostressAI/internal/fileutil"
)

// ErrNotDirectory is returned when the watched root is not a directory.
var ErrNotDirectory = fileutil.ErrNotDirectory

// DefaultDebounce is the quiet period before a change is reported.
const DefaultDebounce = 200 * time.Millisecond

// ErrClosed is returned by Run on a watcher that was already stopped.
var ErrClosed = errors.New("watcher closed")

// Watcher monitors a content tree for document changes.
type Watcher struct {
	fw       *fsnotify.Watcher
	root     string
	delay    time.Duration
	exts     []string
	onChange func(path string)
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Values <= 0 keep DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithLogger sets the logger for watch errors and events.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithExtensions sets the file extensions that count as documents.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		if len(exts) > 0 {
			w.exts = exts
		}
	}
}

// New watches root and every non-hidden directory below it. onChange is
// called with the changed file's path once its events settle.
func New(root string, onChange func(path string), opts ...Option) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("watch: nil onChange")
	}
	if !fileutil.DirExists(root) {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		fw:       fw,
		root:     root,
		delay:    DefaultDebounce,
		exts:     []string{".mdx", ".md"},
		onChange: onChange,
		logger:   zap.NewNop(),
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// Run processes events until ctx is done, then releases the watcher.
// It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrClosed
	}
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := event.Name

	if !w.isDocument(path) {
		if event.Has(fsnotify.Create) {
			if fileutil.DirExists(path) && !strings.HasPrefix(filepath.Base(path), ".") {
				if err := w.addTree(path); err != nil {
					w.logger.Warn("watching new directory", zap.String("path", path), zap.Error(err))
				}
			}
		}
		return
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			return
		}
		delete(w.pending, path)
		w.mu.Unlock()

		w.logger.Debug("document changed", zap.String("path", path), zap.String("op", event.Op.String()))
		w.onChange(path)
	})
}

func (w *Watcher) isDocument(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.exts {
		if ext == e {
			return true
		}
	}
	return false
}

// Close stops the watcher without waiting for Run to notice.
func (w *Watcher) Close() error {
	return w.stop()
}

func (w *Watcher) stop() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	return w.fw.Close()
}
