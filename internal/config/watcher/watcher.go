// Package watcher reloads files when they change on disk.
//
// A Watcher watches the directory holding each file so that editors which
// replace a file by rename are still seen, and coalesces bursts of events
// into one callback per file.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/dshills/stepscope/internal/logging"
)

// Handler is called with the absolute path of a changed file.
type Handler func(path string)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a file must be quiet before its handler runs.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger for watch errors.
func WithLogger(log *logrus.Entry) Option {
	return func(w *Watcher) {
		w.log = logging.OrDiscard(log)
	}
}

// Watcher calls a handler when watched files are written, created, removed
// or renamed.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	log      *logrus.Entry

	mu      sync.Mutex
	files   map[string]Handler
	dirs    map[string]int
	pending map[string]*time.Timer
	closed  bool

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a running watcher. Close releases it.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		debounce: 100 * time.Millisecond,
		log:      logging.Discard(),
		files:    make(map[string]Handler),
		dirs:     make(map[string]int),
		pending:  make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Watch calls fn whenever path changes. The file need not exist yet, but its
// directory must.
func (w *Watcher) Watch(path string, fn Handler) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("watcher closed")
	}
	if _, ok := w.files[abs]; ok {
		w.files[abs] = fn
		return nil
	}
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.files[abs] = fn
	return nil
}

// Unwatch stops watching path.
func (w *Watcher) Unwatch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[abs]; !ok {
		return nil
	}
	delete(w.files, abs)
	if t := w.pending[abs]; t != nil {
		t.Stop()
		delete(w.pending, abs)
	}
	w.dirs[dir]--
	if w.dirs[dir] == 0 {
		delete(w.dirs, dir)
		return w.fsw.Remove(dir)
	}
	return nil
}

// Close stops the watcher. Pending callbacks are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			w.schedule(filepath.Clean(ev.Name))
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("file watch error")
		}
	}
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if _, ok := w.files[path]; !ok {
		return
	}
	if t := w.pending[path]; t != nil {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() { w.fire(path) })
}

func (w *Watcher) fire(path string) {
	w.mu.Lock()
	fn, ok := w.files[path]
	delete(w.pending, path)
	closed := w.closed
	w.mu.Unlock()

	if ok && !closed {
		fn(path)
	}
}
