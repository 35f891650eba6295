package source

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sambeau/viewscope/pkg/viewscope/logging"
)

// Debounce is how long a file must stay quiet before onChange runs.
var Debounce = 100 * time.Millisecond

// Watch calls onChange after path is written, created or renamed into
// place. The file's directory is watched so that editors which replace
// the file are noticed. Watching stops when ctx is done.
func Watch(ctx context.Context, path string, log *logging.Logger, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return err
	}
	log.Info("watching data file", "path", abs)

	go func() {
		defer w.Close()

		var (
			mu    sync.Mutex
			timer *time.Timer
		)
		for {
			select {
			case <-ctx.Done():
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				mu.Unlock()
				return

			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				log.Debug("data file event", "path", event.Name, "op", event.Op.String())

				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(Debounce, onChange)
				mu.Unlock()

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Error("watcher error", "error", err)
			}
		}
	}()
	return nil
}
