package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// requestWatcher re-renders request files when they change on disk.
type requestWatcher struct {
	files    []string
	debounce time.Duration
	logger   *slog.Logger
	render   func(ctx context.Context, files []string)

	// ready is called once the watches are in place.
	ready func()
}

// Run renders every file once and then again on each change until ctx is
// cancelled.
func (w *requestWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors replace files on save, so the parent directories are watched
	// and events are matched by path.
	byPath := make(map[string]string, len(w.files))
	dirs := make(map[string]bool)
	for _, f := range w.files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		byPath[abs] = f
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w.render(ctx, w.files)
	if w.ready != nil {
		w.ready()
	}
	return w.loop(ctx, watcher, byPath)
}

func (w *requestWatcher) loop(ctx context.Context, watcher *fsnotify.Watcher, byPath map[string]string) error {
	var debounce <-chan time.Time
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			file, watched := byPath[abs]
			if !watched {
				continue
			}
			w.logger.Debug("change detected", "file", file, "op", event.Op.String())
			pending[file] = true
			debounce = time.After(w.debounce)

		case <-debounce:
			debounce = nil
			changed := make([]string, 0, len(pending))
			for f := range pending {
				changed = append(changed, f)
			}
			clear(pending)
			sort.Strings(changed)
			w.render(ctx, changed)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}
