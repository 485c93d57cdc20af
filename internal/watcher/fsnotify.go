package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/nsbus/internal/event"
	"github.com/dshills/nsbus/internal/event/namespace"
)

// Watcher watches a directory tree and publishes its changes.
type Watcher struct {
	mu sync.RWMutex

	watcher *fsnotify.Watcher
	config  Config
	pub     Publisher
	syntax  namespace.Syntax
	replace *strings.Replacer

	root  string
	paths map[string]bool

	// Stats
	published atomic.Int64
	errors    atomic.Int64

	// Lifecycle
	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// New creates a watcher publishing to pub. Nothing is watched until
// WatchRecursive is called.
func New(pub Publisher, opts ...Option) (*Watcher, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	syntax := namespace.NewSyntax(config.Separator)
	w := &Watcher{
		watcher: fsw,
		config:  config,
		pub:     pub,
		syntax:  syntax,
		replace: segmentReplacer(syntax.Separator),
		paths:   make(map[string]bool),
		closeCh: make(chan struct{}),
	}

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// WatchRecursive watches dir and every directory below it. Changes are
// published relative to dir.
func (w *Watcher) WatchRecursive(dir string) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.root = absPath
	w.mu.Unlock()

	return w.watchTree(absPath)
}

// watchTree adds dir and its subdirectories, skipping ignored ones.
func (w *Watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && w.shouldIgnore(p) {
			return filepath.SkipDir
		}
		return w.watch(p)
	})
}

func (w *Watcher) watch(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.paths[dir] {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.paths[dir] = true
	return nil
}

// Topic maps an absolute file path below the watched root to its namespace
// path. The root itself maps to the prefix.
func (w *Watcher) Topic(path string) (string, bool) {
	w.mu.RLock()
	root := w.root
	w.mu.RUnlock()

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	segments := make([]string, 0, 8)
	if w.config.Prefix != "" {
		segments = append(segments, w.config.Prefix)
	}
	if rel != "." {
		for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
			seg = w.replace.Replace(seg)
			if namespace.IsWildcard(seg) {
				seg = "_"
			}
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return "", false
	}
	return w.syntax.Join(segments), true
}

// Root returns the watched root directory, or "" before WatchRecursive.
func (w *Watcher) Root() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.root
}

// WatchedPaths returns the number of watched directories.
func (w *Watcher) WatchedPaths() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.paths)
}

// Published returns the number of publishes made.
func (w *Watcher) Published() int64 {
	return w.published.Load()
}

// Errors returns the number of watch errors seen.
func (w *Watcher) Errors() int64 {
	return w.errors.Load()
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.closedWg.Wait()
	return w.watcher.Close()
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(fsEvent)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.recordError(err)
		}
	}
}

// handleFSEvent publishes one event per operation flag set.
func (w *Watcher) handleFSEvent(fsEvent fsnotify.Event) {
	if w.shouldIgnore(fsEvent.Name) {
		return
	}

	op := convertOp(fsEvent.Op)
	topic, ok := w.Topic(fsEvent.Name)
	if !ok {
		return
	}

	for _, o := range allOps {
		if !op.Has(o) || !w.config.Ops.Has(o) {
			continue
		}
		w.pub.Publish(topic, []any{o.String(), fsEvent.Name}, event.Recurrent(true))
		w.published.Add(1)
	}

	// New directories are watched as they appear.
	if op.Has(OpCreate) {
		if info, err := os.Stat(fsEvent.Name); err == nil && info.IsDir() {
			if err := w.watchTree(fsEvent.Name); err != nil {
				w.recordError(err)
			}
		}
	}
}

// convertOp converts fsnotify.Op to Op.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	if fsOp.Has(fsnotify.Chmod) {
		op |= OpChmod
	}
	return op
}

func (w *Watcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if w.config.IgnoreHidden && strings.HasPrefix(base, ".") {
		return true
	}
	for _, pattern := range w.config.Ignore {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) recordError(err error) {
	w.errors.Add(1)
	if w.config.Logger != nil {
		w.config.Logger.Warn("watch error", "component", "watcher", "error", err)
	}
}
