// internal/config/watcher.go

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const reloadDebounce = 100 * time.Millisecond

// Watcher re-reads a TOML config file whenever it is written or recreated
// and passes the parsed FileConfig to onChange.
type Watcher struct {
	path     string
	log      zerolog.Logger
	onChange func(FileConfig)

	mu       sync.Mutex
	debounce *time.Timer
}

// NewWatcher creates a Watcher for path.
func NewWatcher(path string, log zerolog.Logger, onChange func(FileConfig)) *Watcher {
	return &Watcher{path: path, log: log, onChange: onChange}
}

// Run watches the file's directory (editors often replace the file) until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			w.stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.schedule()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("config watcher error")
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(reloadDebounce, w.reload)
}

func (w *Watcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
}

func (w *Watcher) reload() {
	fc, err := LoadFileConfig(w.path)
	if err != nil {
		w.log.Warn().Err(err).Str("path", w.path).Msg("config reload failed")
		return
	}
	w.log.Info().Str("path", w.path).Msg("config file changed")
	w.onChange(fc)
}
