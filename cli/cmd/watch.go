package cmd

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ardnew/objecttext/log"
)

// watcher reports changes to a fixed set of files. It watches their parent
// directories, since editors often replace a file by renaming a new one
// over it.
type watcher struct {
	fs     *fsnotify.Watcher
	files  map[string]struct{}
	delay  time.Duration
	logger log.Logger
}

func newWatcher(paths []string, delay time.Duration, logger log.Logger) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ErrWatch.Wrap(err)
	}

	w := &watcher{
		fs:     fsw,
		files:  make(map[string]struct{}, len(paths)),
		delay:  delay,
		logger: logger,
	}

	dirs := make(map[string]struct{})

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()

			return nil, ErrWatch.Wrap(err).With(slog.String("path", p))
		}

		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()

			return nil, ErrWatch.Wrap(err).With(slog.String("dir", dir))
		}
	}

	return w, nil
}

// run calls onChange with the absolute path of each watched file that
// changed, at most once per quiet period of the watcher's delay. onChange
// runs on the calling goroutine. run returns when ctx is done.
func (w *watcher) run(ctx context.Context, onChange func(path string)) error {
	defer w.fs.Close()

	deb := newDebouncer(w.delay)
	defer deb.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case path := <-deb.fired:
			onChange(path)

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}

			if event.Op == fsnotify.Chmod {
				continue
			}

			name := filepath.Clean(event.Name)
			if _, ok := w.files[name]; !ok {
				continue
			}

			w.logger.TraceContext(ctx, "file event",
				slog.String("path", name),
				slog.String("op", event.Op.String()),
			)

			deb.trigger(name)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}

			w.logger.WarnContext(ctx, "watch error", slog.Any("error", err))
		}
	}
}

// debouncer delivers a key on fired once no trigger for it has arrived for
// the delay.
type debouncer struct {
	delay  time.Duration
	fired  chan string
	done   chan struct{}
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:  delay,
		fired:  make(chan string),
		done:   make(chan struct{}),
		timers: make(map[string]*time.Timer),
	}
}

func (d *debouncer) trigger(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[key]; ok {
		t.Stop()
	}

	var t *time.Timer

	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.timers[key] == t {
			delete(d.timers, key)
		}
		d.mu.Unlock()

		select {
		case d.fired <- key:
		case <-d.done:
		}
	})

	d.timers[key] = t
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}

	close(d.done)
}
