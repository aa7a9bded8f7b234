// Package watcher reports batches of changed source files under a directory tree.
package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// FileWatcher monitors a directory tree and reports debounced file changes.
type FileWatcher interface {
	// Start begins watching, calling callback with the sorted, deduplicated
	// paths that changed during each quiet period. Removed files are included.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the watcher and waits for the event loop to exit.
	Stop() error
}

// Option configures a FileWatcher.
type Option func(*fileWatcher)

// WithDebounce sets the quiet period before a batch is reported.
func WithDebounce(d time.Duration) Option {
	return func(fw *fileWatcher) {
		if d > 0 {
			fw.debounce = d
		}
	}
}

// WithFileFilter limits reported files to those accepted by fn.
func WithFileFilter(fn func(path string) bool) Option {
	return func(fw *fileWatcher) {
		fw.acceptFile = fn
	}
}

// WithDirFilter skips directories for which fn returns true.
func WithDirFilter(fn func(path string) bool) Option {
	return func(fw *fileWatcher) {
		fw.skipDir = fn
	}
}

// fileWatcher implements FileWatcher.
type fileWatcher struct {
	watcher    *fsnotify.Watcher
	root       string
	debounce   time.Duration
	acceptFile func(path string) bool
	skipDir    func(path string) bool

	callback func(files []string)
	cancel   context.CancelFunc

	pendingMu sync.Mutex
	pending   map[string]bool

	timerMu sync.Mutex
	timer   *time.Timer

	stopOnce sync.Once
	doneCh   chan struct{}
}

// New creates a watcher for every directory under root.
func New(root string, opts ...Option) (FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &fileWatcher{
		watcher:    w,
		root:       root,
		debounce:   defaultDebounce,
		acceptFile: func(string) bool { return true },
		skipDir:    func(string) bool { return false },
		pending:    make(map[string]bool),
		doneCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(fw)
	}

	if err := fw.addTree(root); err != nil {
		w.Close()
		return nil, err
	}
	return fw, nil
}

// Start begins watching for file changes.
func (fw *fileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}

	fw.callback = callback
	ctx, fw.cancel = context.WithCancel(ctx)

	go fw.loop(ctx)
	return nil
}

// Stop stops the file watcher. It is safe to call more than once.
func (fw *fileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		if fw.cancel != nil {
			fw.cancel()
			<-fw.doneCh
		} else {
			close(fw.doneCh)
		}
		err = fw.watcher.Close()
	})
	return err
}

func (fw *fileWatcher) loop(ctx context.Context) {
	defer close(fw.doneCh)

	flushCh := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			fw.stopTimer()
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if fw.handle(event) {
				fw.resetTimer(flushCh)
			}

		case <-flushCh:
			fw.flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: file watcher error: %v", err)
		}
	}
}

// handle records a relevant event and reports whether it was kept.
func (fw *fileWatcher) handle(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fw.addTree(event.Name); err != nil {
				log.Printf("Warning: failed to watch new directory %s: %v", event.Name, err)
			}
			return false
		}
	}

	if !fw.acceptFile(event.Name) {
		return false
	}

	fw.pendingMu.Lock()
	fw.pending[event.Name] = true
	fw.pendingMu.Unlock()
	return true
}

func (fw *fileWatcher) flush() {
	fw.pendingMu.Lock()
	if len(fw.pending) == 0 {
		fw.pendingMu.Unlock()
		return
	}
	files := make([]string, 0, len(fw.pending))
	for file := range fw.pending {
		files = append(files, file)
	}
	fw.pending = make(map[string]bool)
	fw.pendingMu.Unlock()

	sort.Strings(files)
	fw.callback(files)
}

func (fw *fileWatcher) resetTimer(flushCh chan struct{}) {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, func() {
		select {
		case flushCh <- struct{}{}:
		default:
		}
	})
}

func (fw *fileWatcher) stopTimer() {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.timer != nil {
		fw.timer.Stop()
		fw.timer = nil
	}
}

// addTree watches dir and every subdirectory the filter keeps.
func (fw *fileWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != fw.root && fw.skipDir(path) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v", path, err)
		}
		return nil
	})
}
