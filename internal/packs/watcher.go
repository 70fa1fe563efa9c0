package packs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettleDelay is how long a pack file must stay unchanged before it is imported.
const DefaultSettleDelay = 500 * time.Millisecond

// Watcher imports packs dropped into a directory.
// Editors write files in several steps, so each change waits until the file's
// size and mtime stop moving before it is imported.
type Watcher struct {
	dir      string
	importer *Importer
	logger   *slog.Logger
	settle   time.Duration

	fs *fsnotify.Watcher

	pending map[string]*pendingFile // path -> settling file
	mu      sync.Mutex              // protects pending

	ready  chan string
	done   chan struct{}
	wg     sync.WaitGroup
	cancel context.CancelFunc
	once   sync.Once
}

type pendingFile struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// NewWatcher creates a watcher for dir. A zero settle uses DefaultSettleDelay.
func NewWatcher(dir string, importer *Importer, logger *slog.Logger, settle time.Duration) (*Watcher, error) {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create packs dir: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{
		dir:      filepath.Clean(dir),
		importer: importer,
		logger:   logger,
		settle:   settle,
		fs:       fsw,
		pending:  make(map[string]*pendingFile),
		ready:    make(chan string, 32),
		done:     make(chan struct{}),
	}, nil
}

// Start imports the packs already present, then watches for changes in the background.
func (w *Watcher) Start(ctx context.Context) error {
	if _, err := w.importer.ImportDir(ctx, w.dir); err != nil {
		return err
	}
	if err := w.fs.Add(w.dir); err != nil {
		return fmt.Errorf("watch packs dir: %w", err)
	}

	ctx, w.cancel = context.WithCancel(context.WithoutCancel(ctx))
	w.wg.Go(func() { w.processEvents() })
	w.wg.Go(func() { w.importLoop(ctx) })

	w.logger.Info("watching prompt packs", "dir", w.dir)
	return nil
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("pack watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if strings.HasPrefix(filepath.Base(path), ".") || !IsPackFile(path) {
		return
	}

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// Removing a pack keeps its prompts; they may already be liked or bookmarked.
		w.cancelPending(path)
		w.logger.Info("prompt pack removed, keeping its prompts", "file", filepath.Base(path))
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		w.startSettling(path)
	}
}

func (w *Watcher) startSettling(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		delete(w.pending, path)
		return
	}

	p := &pendingFile{size: info.Size(), modTime: info.ModTime()}
	p.timer = time.AfterFunc(w.settle, func() { w.checkSettled(path) })
	w.pending[path] = p
}

func (w *Watcher) checkSettled(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.pending[path]
	if !ok {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(w.pending, path)
		return
	}
	if info.Size() != p.size || !info.ModTime().Equal(p.modTime) {
		p.size, p.modTime = info.Size(), info.ModTime()
		p.timer = time.AfterFunc(w.settle, func() { w.checkSettled(path) })
		return
	}

	delete(w.pending, path)
	select {
	case w.ready <- path:
	case <-w.done:
	}
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
		delete(w.pending, path)
	}
}

// importLoop imports settled files one at a time.
func (w *Watcher) importLoop(ctx context.Context) {
	for {
		select {
		case <-w.done:
			return
		case path := <-w.ready:
			if _, err := w.importer.ImportFile(ctx, path); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Warn("prompt pack import failed", "file", filepath.Base(path), "error", err)
			}
		}
	}
}

// Stop stops watching and waits for an in-flight import to finish.
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		close(w.done)

		w.mu.Lock()
		for _, p := range w.pending {
			p.timer.Stop()
		}
		clear(w.pending)
		w.mu.Unlock()

		err = w.fs.Close()
		if w.cancel != nil {
			w.cancel()
		}
		w.wg.Wait()
	})
	return err
}

// Shutdown implements the container's shutdown hook.
func (w *Watcher) Shutdown() error {
	return w.Stop()
}
