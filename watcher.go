package dulceria

import (
	"context"
	"sync"
	"time"
)

// SessionWatcher re-validates the stored token on a recurring schedule while
// a protected surface is mounted. It is the only background task in the
// package: one goroutine driving SessionManager.ValidateToken. The watcher
// self-cancels after the first invalid check and Stop is safe to call any
// number of times, including after self-cancellation.
type SessionWatcher struct {
	manager   *SessionManager
	interval  time.Duration
	onExpired func()
	logger    Logger

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

type SessionWatcherOption func(*SessionWatcher)

// WithWatcherInterval overrides the check cadence.
func WithWatcherInterval(interval time.Duration) SessionWatcherOption {
	return func(w *SessionWatcher) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithOnExpired registers a callback fired once when the session goes
// invalid, typically to navigate back to the login surface.
func WithOnExpired(fn func()) SessionWatcherOption {
	return func(w *SessionWatcher) {
		w.onExpired = fn
	}
}

// WithWatcherLogger overrides the logger.
func WithWatcherLogger(logger Logger) SessionWatcherOption {
	return func(w *SessionWatcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewSessionWatcher returns a watcher over the given manager. The default
// cadence matches the upstream front end: one check per minute.
func NewSessionWatcher(manager *SessionManager, opts ...SessionWatcherOption) *SessionWatcher {
	w := &SessionWatcher{
		manager:  manager,
		interval: 60 * time.Second,
		logger:   defLogger{},
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}

	return w
}

// Start runs an immediate check and then launches the recurring schedule.
// It returns false without starting when the immediate check already found
// the session invalid. A watcher is single-use: only the first call does
// anything, later calls return false.
func (w *SessionWatcher) Start(ctx context.Context) bool {
	started := false
	w.startOnce.Do(func() {
		if !w.check(ctx) {
			close(w.done)
			return
		}

		go w.run(ctx)
		started = true
	})
	return started
}

// Stop cancels the recurring schedule. Idempotent.
func (w *SessionWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
}

// Done is closed once the watcher goroutine has exited.
func (w *SessionWatcher) Done() <-chan struct{} {
	return w.done
}

func (w *SessionWatcher) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !w.check(ctx) {
				return
			}
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *SessionWatcher) check(ctx context.Context) bool {
	if w.manager.ValidateToken(ctx) {
		return true
	}

	w.logger.Info("session no longer valid, stopping watcher")
	if w.onExpired != nil {
		w.onExpired()
	}
	return false
}
