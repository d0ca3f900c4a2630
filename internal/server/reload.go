package server

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reloader watches the policy preset file for changes and re-applies it.
type Reloader struct {
	watcher *fsnotify.Watcher
	server  *Server
}

// NewReloader creates a file watcher over the server's policy file.
func NewReloader(server *Server) (*Reloader, error) {
	path := server.cfg.PolicyFile
	if path == "" {
		return nil, fmt.Errorf("server: no policy file configured")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("server: cannot watch policy file: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("server: create file watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("server: watch %q: %w", path, err)
	}
	return &Reloader{watcher: watcher, server: server}, nil
}

// Run watches for file changes and reloads presets. Blocks until ctx is
// cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	// Debounce: wait 500ms after the last write before reloading.
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					if err := r.server.ReloadPolicy(); err != nil {
						r.server.log.Warn("hot-reload failed", "error", err)
					} else {
						r.server.log.Info("hot-reload: policy presets reloaded")
					}
				})
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.server.log.Warn("file watcher error", "error", err)
		}
	}
}
