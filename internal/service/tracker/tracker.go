package tracker

import (
	"maps"
	"slices"
	"sync"

	"github.com/oshokin/goose-belt/internal/domain/alarm"
)

// Transition is the outcome of one observation.
type Transition int

const (
	// None means the observation did not change the state.
	None Transition = iota
	// Alert means the rule became tripped.
	Alert
	// Clear means a tripped rule returned to normal.
	Clear
)

// String returns the transition name used in logs and metrics.
func (t Transition) String() string {
	switch t {
	case Alert:
		return "alert"
	case Clear:
		return "clear"
	default:
		return "none"
	}
}

// Message renders the notification for a transition of e.
// It returns false for None.
func (t Transition) Message(e alarm.Event) (string, bool) {
	switch t {
	case Alert:
		return alarm.AlertMessage(e), true
	case Clear:
		return alarm.ClearMessage(e), true
	default:
		return "", false
	}
}

// Tracker holds the set of fingerprints currently believed tripped.
// It is safe for concurrent use.
type Tracker struct {
	// active is the set of tripped fingerprints.
	active map[string]struct{}
	// mu protects active.
	mu sync.Mutex
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{
		active: make(map[string]struct{}),
	}
}

// Observe applies one event and returns the resulting transition.
// The state change is committed before Observe returns, independently of
// what the caller does with the transition afterwards.
func (t *Tracker) Observe(e alarm.Event) Transition {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, active := t.active[e.Fingerprint]

	switch {
	case !active && e.Tripped:
		t.active[e.Fingerprint] = struct{}{}
		return Alert
	case active && !e.Tripped:
		delete(t.active, e.Fingerprint)
		return Clear
	default:
		return None
	}
}

// Len returns the number of active fingerprints.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.active)
}

// Active returns the active fingerprints in sorted order.
func (t *Tracker) Active() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return slices.Sorted(maps.Keys(t.active))
}
