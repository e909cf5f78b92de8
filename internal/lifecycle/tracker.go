// Package lifecycle tracks concurrently active builds and owns the shared
// engine resources they hold open. An explicitly instantiated Tracker replaces
// process-global counters so tests can drive it with fake handles.
package lifecycle

import (
	"errors"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/sitepack/internal/engine"
	"git.home.luguber.info/inful/sitepack/internal/logfields"
	"git.home.luguber.info/inful/sitepack/internal/metrics"
)

// Tracker reference-counts active builds and closes every registered bundle
// handle exactly once, when the count returns to zero. Whichever build's
// Leave drives the count to zero performs the sweep; it is not necessarily
// the build that registered a given handle.
type Tracker struct {
	mu      sync.Mutex
	active  int
	handles []engine.Handle

	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewTracker returns a Tracker. logger and recorder may be nil.
func NewTracker(logger *slog.Logger, recorder metrics.Recorder) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Tracker{logger: logger, recorder: recorder}
}

// Enter marks one build active.
func (t *Tracker) Enter() {
	t.mu.Lock()
	t.active++
	active := t.active
	t.mu.Unlock()
	t.recorder.SetActiveBuilds(active)
}

// RegisterHandle appends a handle to the open set. Registration always
// happens-before any possible closure of that handle.
func (t *Tracker) RegisterHandle(h engine.Handle) {
	if h == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handles = append(t.handles, h)
}

// Leave marks one build finished. When the active count reaches zero every
// registered handle is closed in registration order and the set is cleared in
// one sweep. The error aggregates any close failures; the sweep itself always
// completes. Leave on an inactive tracker is a no-op: the count never goes
// negative.
func (t *Tracker) Leave() error {
	t.mu.Lock()
	if t.active == 0 {
		t.mu.Unlock()
		return nil
	}
	t.active--
	active := t.active
	var sweep []engine.Handle
	if t.active == 0 {
		sweep = t.handles
		t.handles = nil
	}
	t.mu.Unlock()

	t.recorder.SetActiveBuilds(active)
	if sweep == nil {
		return nil
	}

	var errs []error
	for _, h := range sweep {
		if err := h.Close(); err != nil {
			t.logger.Warn("Failed to close bundle handle", logfields.Error(err))
			errs = append(errs, err)
		}
	}
	if len(sweep) > 0 {
		t.logger.Debug("Closed bundle handles", "count", len(sweep))
	}
	return errors.Join(errs...)
}

// Active returns the current active-build count.
func (t *Tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// OpenHandles returns how many handles are currently registered.
func (t *Tracker) OpenHandles() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handles)
}
