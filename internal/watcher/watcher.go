// Package watcher watches the import directory for spreadsheet drops and
// hands finished files to the ingester, debouncing the write bursts editors
// and network copies produce.
package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 2 * time.Second

// Watcher watches one directory for new or rewritten .xlsx files.
type Watcher struct {
	dir         string
	onImport    func(path string)
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	logger      *zap.Logger
}

// NewWatcher creates a watcher over dir. onImport is called with the file
// path once events for it settle.
func NewWatcher(dir string, onImport func(path string), logger *zap.Logger) *Watcher {
	return &Watcher{
		dir:         dir,
		onImport:    onImport,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
		logger:      logger,
	}
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := fw.Add(w.dir); err != nil {
		_ = fw.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = fw
	w.started = true
	w.mu.Unlock()

	w.logger.Info("import watcher started", zap.String("dir", w.dir))
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Rename) {
		return
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~") {
		return
	}
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return
	}
	w.scheduleImport(ev.Name)
}

// scheduleImport resets the per-file timer so a burst of writes results in a
// single import after the file goes quiet.
func (w *Watcher) scheduleImport(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.debounceMap[path]; ok {
		timer.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()

		w.logger.Debug("import triggered", zap.String("path", path))
		w.onImport(path)
	})
}

// Stop stops the watcher and cancels pending imports. Safe to call twice.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		for path, timer := range w.debounceMap {
			timer.Stop()
			delete(w.debounceMap, path)
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
		w.mu.Unlock()
	})
}
