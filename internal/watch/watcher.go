// Package watch feeds stylesheet and script files into the live canvas.
package watch

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/mcp-x-studio/canvas/internal/logging"
	"github.com/mcp-x-studio/canvas/pkg/types"
)

// DefaultDebounce coalesces the bursts of events editors produce on save.
const DefaultDebounce = 50 * time.Millisecond

// Target receives file contents. *server.Server implements it.
type Target interface {
	ApplyCSS(css string) (*types.Document, error)
	ApplyJavaScript(js string) (*types.Document, error)
}

type kind int

const (
	kindCSS kind = iota
	kindJS
)

func (k kind) String() string {
	if k == kindCSS {
		return "css"
	}
	return "javascript"
}

// Watcher watches a CSS file and a JavaScript file and applies their
// contents to a Target whenever they change. The containing directories
// are watched rather than the files, so replace-on-save editors work.
type Watcher struct {
	watcher  *fsnotify.Watcher
	target   Target
	files    map[string]kind
	last     map[string][]byte
	pending  map[string]*time.Timer
	debounce time.Duration
	log      zerolog.Logger

	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	mu      sync.Mutex
}

// NewWatcher creates a watcher for the given paths. Empty paths are
// skipped; when both are empty it returns nil and no error.
func NewWatcher(target Target, cssPath, jsPath string) (*Watcher, error) {
	files := make(map[string]kind)
	for path, k := range map[string]kind{cssPath: kindCSS, jsPath: kindJS} {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		files[abs] = k
	}
	if len(files) == 0 {
		return nil, nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for path := range files {
		if err := fw.Add(filepath.Dir(path)); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
		}
	}

	return &Watcher{
		watcher:  fw,
		target:   target,
		files:    files,
		last:     make(map[string][]byte),
		pending:  make(map[string]*time.Timer),
		debounce: DefaultDebounce,
		log:      logging.Component("watch"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start applies the current file contents once and begins watching.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	for path := range w.files {
		w.reload(path)
	}
	go w.run()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			path := filepath.Clean(ev.Name)
			if _, tracked := w.files[path]; tracked {
				w.schedule(path)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("file watcher error")
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.reload(path)
	})
}

// reload reads path and applies it if the content changed.
func (w *Watcher) reload(path string) {
	select {
	case <-w.stopCh:
		return
	default:
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// A rename-on-save leaves the path briefly missing; the Create
		// that follows triggers another reload.
		w.log.Debug().Err(err).Str("path", path).Msg("skip unreadable file")
		return
	}

	w.mu.Lock()
	if prev, ok := w.last[path]; ok && bytes.Equal(prev, data) {
		w.mu.Unlock()
		return
	}
	w.last[path] = data
	w.mu.Unlock()

	k := w.files[path]
	if k == kindCSS {
		_, err = w.target.ApplyCSS(string(data))
	} else {
		_, err = w.target.ApplyJavaScript(string(data))
	}
	if err != nil {
		w.log.Warn().Err(err).Str("path", path).Msg("apply file failed")
		return
	}
	w.log.Info().Str("path", path).Str("kind", k.String()).Int("bytes", len(data)).Msg("applied file")
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}

	if started {
		<-w.doneCh
	}

	return w.watcher.Close()
}
