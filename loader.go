package arbor

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// DataLoader reads a tree data file and watches it for changes.
type DataLoader struct {
	path     string
	log      *slog.Logger
	mu       sync.RWMutex
	current  *Data
	onChange []func(*Data)
	onError  []func(error)
}

// NewDataLoader creates a DataLoader and performs the initial load. A nil
// logger discards.
func NewDataLoader(path string, logger *slog.Logger) (*DataLoader, error) {
	if logger == nil {
		logger = discardLogger()
	}
	l := &DataLoader{path: path, log: logger}
	d, err := ReadDataFile(path)
	if err != nil {
		return nil, err
	}
	l.current = d
	return l, nil
}

// Data returns the latest successfully loaded data.
func (l *DataLoader) Data() *Data {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked with every successful reload. It
// runs on the watcher goroutine; hand the data to MindMap.QueueData rather
// than touching a MindMap directly.
func (l *DataLoader) OnChange(fn func(*Data)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// OnError registers a callback invoked when a reload fails. The previous
// data stays current.
func (l *DataLoader) OnError(fn func(error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onError = append(l.onError, fn)
}

// Watch starts a background goroutine that reloads the data on file changes.
// The parent directory is watched so editors that replace the file on save
// are followed. Call the returned stop function to clean up.
func (l *DataLoader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("arbor: data watcher: %w", err)
	}
	dir := filepath.Dir(l.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("arbor: data watcher add %s: %w", dir, err)
	}
	target := filepath.Clean(l.path)

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						l.log.Warn("data reload failed, keeping previous tree", "path", l.path, "error", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.log.Warn("data watcher error", "path", l.path, "error", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

// Reload forces an immediate re-read of the data file.
func (l *DataLoader) Reload() (*Data, error) {
	d, err := ReadDataFile(l.path)
	if err != nil {
		l.mu.RLock()
		callbacks := make([]func(error), len(l.onError))
		copy(callbacks, l.onError)
		l.mu.RUnlock()
		for _, fn := range callbacks {
			fn(err)
		}
		return nil, err
	}
	l.mu.Lock()
	l.current = d
	callbacks := make([]func(*Data), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(d)
	}
	l.log.Info("data reloaded", "path", l.path, "nodes", d.Count())
	return d, nil
}
