// Package watch re-runs normalization when input files change.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
	"github.com/Phaysik/database-normalizer/internal/logfields"
)

// Reason tells a callback why it was invoked.
type Reason string

const (
	ReasonChange Reason = "change"
	ReasonPoll   Reason = "poll"
)

// Callback handles a batch of changed paths. paths is empty for polls.
type Callback func(ctx context.Context, reason Reason, paths []string)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the watcher waits for further events before
// invoking the callback.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval also invokes the callback every d. Zero disables polling.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithExtensions limits change events to files with one of exts.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		for _, e := range exts {
			w.extensions = append(w.extensions, strings.ToLower(e))
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// Watcher monitors input directories and invokes a callback once per burst
// of changes. Callback invocations never overlap.
type Watcher struct {
	dirs         []string
	callback     Callback
	debounce     time.Duration
	pollInterval time.Duration
	extensions   []string
	logger       *slog.Logger

	mu        sync.Mutex
	running   bool
	fs        *fsnotify.Watcher
	scheduler *Scheduler
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	runMu     sync.Mutex
}

// New creates a watcher over dirs.
func New(dirs []string, callback Callback, opts ...Option) (*Watcher, error) {
	if callback == nil {
		return nil, errors.InternalError("watch callback is required").Build()
	}
	if len(dirs) == 0 {
		return nil, errors.ValidationError("at least one directory must be watched").Build()
	}
	w := &Watcher{
		callback: callback,
		debounce: 500 * time.Millisecond,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	seen := map[string]bool{}
	for _, d := range dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve watch directory").
				WithContext("path", d).
				Build()
		}
		if !seen[abs] {
			seen[abs] = true
			w.dirs = append(w.dirs, abs)
		}
	}
	return w, nil
}

// Start begins watching. It returns once the directories are registered.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.RuntimeError("watcher already started").Build()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to create file watcher").Build()
	}
	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to watch directory").
				WithContext("path", dir).
				UserAction().
				Build()
		}
	}

	ctx, cancel := context.WithCancel(ctx)

	if w.pollInterval > 0 {
		s, err := NewScheduler(w.pollInterval, "dbnormalizer-poll", func() {
			w.invoke(ctx, ReasonPoll, nil)
		})
		if err != nil {
			cancel()
			_ = fsw.Close()
			return errors.WrapError(err, errors.CategoryRuntime, "failed to schedule polling").Build()
		}
		w.scheduler = s
		s.Start()
	}

	w.fs = fsw
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	go w.loop(ctx)

	w.logger.Info("Watching input directories",
		slog.Any("dirs", w.dirs),
		slog.Duration("debounce", w.debounce),
		slog.Duration("poll_interval", w.pollInterval))
	return nil
}

// Stop ends watching and waits for the event loop and any running callback.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	w.running = false

	w.cancel()
	var firstErr error
	if w.scheduler != nil {
		if err := w.scheduler.Stop(); err != nil {
			firstErr = err
		}
		w.scheduler = nil
	}
	if err := w.fs.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	w.wg.Wait()
	w.logger.Info("Stopped watching input directories")
	return firstErr
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	pending := map[string]struct{}{}
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Input change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", logfields.Error(err))
		case <-fire:
			fire = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			clear(pending)
			w.invoke(ctx, ReasonChange, paths)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	if len(w.extensions) == 0 {
		return true
	}
	return slices.Contains(w.extensions, strings.ToLower(filepath.Ext(event.Name)))
}

func (w *Watcher) invoke(ctx context.Context, reason Reason, paths []string) {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	w.callback(ctx, reason, paths)
}
