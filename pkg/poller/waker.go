package poller

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Waker blocks between poll iterations.
type Waker interface {
	// Wait returns after at most d, earlier if the implementation sees
	// activity, or with ctx.Err() when ctx is done.
	Wait(ctx context.Context, d time.Duration) error
}

// TimerWaker waits the full interval.
type TimerWaker struct{}

func (TimerWaker) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// EventWaker wakes early when files in a watched directory change. The
// interval still caps each wait, so a missed event only costs latency.
type EventWaker struct {
	watcher *fsnotify.Watcher
	logger  zerolog.Logger
	notify  chan struct{}
	stopCh  chan struct{}
}

// NewEventWaker watches dir, typically a session directory.
func NewEventWaker(dir string, logger zerolog.Logger) (*EventWaker, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	w := &EventWaker{
		watcher: watcher,
		logger:  logger.With().Str("component", "poller-watch").Logger(),
		notify:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *EventWaker) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.notify:
		return nil
	case <-timer.C:
		return nil
	}
}

// Close stops watching.
func (w *EventWaker) Close() error {
	close(w.stopCh)
	return w.watcher.Close()
}

func (w *EventWaker) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				select {
				case w.notify <- struct{}{}:
				default:
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Debug().Err(err).Msg("Session watcher error")

		case <-w.stopCh:
			return
		}
	}
}
