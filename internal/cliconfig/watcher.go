package cliconfig

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/linetap/linetap/pkg/log"
)

// watchDebounce coalesces the bursts of write events editors produce for a
// single save.
const watchDebounce = 100 * time.Millisecond

// WatchConfig watches the config file at path and invokes onChange after a
// short debounce whenever it is written or recreated. The watcher runs
// until ctx is cancelled. Long-running commands use this to tell the
// operator that edited configuration takes effect on restart.
//
// Watching is best effort: a failure to set up the watcher is returned to
// the caller, but watch errors after that are only logged.
func WatchConfig(ctx context.Context, path string, logger log.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory: editors often replace the file, which would
	// invalidate a watch on the file itself.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return err
	}

	name := filepath.Base(path)

	go func() {
		defer watcher.Close()

		var mu sync.Mutex
		var debounce *time.Timer

		for {
			select {
			case <-ctx.Done():
				mu.Lock()
				if debounce != nil {
					debounce.Stop()
				}
				mu.Unlock()
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != name {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				mu.Lock()
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(watchDebounce, onChange)
				mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", log.Err(err))
			}
		}
	}()

	return nil
}
