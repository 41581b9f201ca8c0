package script

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Reloader is anything that can re-read its script file.
type Reloader interface {
	Path() string
	Reload() error
}

// Watcher reloads a script whenever its file is written or recreated.
type Watcher struct {
	target   Reloader
	path     string
	watcher  *fsnotify.Watcher
	onReload func(err error)
	done     chan struct{}
}

// NewWatcher watches the directory holding target's file. Watching the
// directory keeps working when editors replace the file by renaming.
func NewWatcher(target Reloader, onReload func(err error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file system watcher: %w", err)
	}
	path := filepath.Clean(target.Path())
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	if onReload == nil {
		onReload = func(error) {}
	}
	return &Watcher{
		target:   target,
		path:     path,
		watcher:  fw,
		onReload: onReload,
		done:     make(chan struct{}),
	}, nil
}

// Run handles file system events until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) {
	defer func() {
		w.watcher.Close()
		close(w.done)
		slog.Debug("Script watcher stopped", "path", w.path)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Script watcher error", "error", err)
		}
	}
}

// Done is closed once Run has returned.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		err := w.target.Reload()
		if err != nil {
			slog.Error("Failed to reload script, keeping previous version", "path", w.path, "error", err)
		} else {
			slog.Debug("Script reloaded", "path", w.path)
		}
		w.onReload(err)

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		slog.Warn("Script file removed, keeping last loaded version", "path", w.path)
	}
}
