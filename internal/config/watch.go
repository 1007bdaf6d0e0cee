package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the burst of events an editor produces on save
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads the settings file when it changes on disk.
type Watcher struct {
	path     string
	debounce time.Duration
	log      *zap.Logger
	fs       *fsnotify.Watcher
	changed  chan *Settings
}

// WatchOption configures a Watcher
type WatchOption func(*Watcher)

// WithDebounce sets the quiet period before a change is reported
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithWatchLogger sets the logger used for reload failures
func WithWatchLogger(l *zap.Logger) WatchOption {
	return func(w *Watcher) { w.log = l }
}

// NewWatcher watches path's directory. Watching the directory rather than
// the file survives the rename in Save.
func NewWatcher(path string, opts ...WatchOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
		log:      zap.NewNop(),
		fs:       fw,
		changed:  make(chan *Settings, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Changed delivers freshly loaded settings. Only the latest unread value is kept.
func (w *Watcher) Changed() <-chan *Settings {
	return w.changed
}

// Run processes file events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("config watch error", zap.Error(err))

		case <-fire:
			fire = nil
			s, err := Load(w.path)
			if err != nil {
				w.log.Warn("config reload failed", zap.String("path", w.path), zap.Error(err))
				continue
			}
			w.publish(s)
		}
	}
}

// publish replaces any unread value with s
func (w *Watcher) publish(s *Settings) {
	select {
	case <-w.changed:
	default:
	}
	w.changed <- s
}
