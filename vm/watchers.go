package vm

import (
	"errors"
	"fmt"
	"sync"
)

// ---------------------------------------------------------------------------
// Watcher tables: bounded slot allocation shared by all object kinds
// ---------------------------------------------------------------------------

// MaxWatchers is the width of the per-object subscription mask, and therefore
// the hard upper bound on any kind's watcher capacity. The per-kind capacity
// defaults to the full mask width and may be lowered via Limits.
const MaxWatchers = 8

// Watcher registration and subscription errors. Returned wrapped with the
// offending id and the kind's name.
var (
	// ErrInvalidWatcherID marks a slot index outside the configured range.
	ErrInvalidWatcherID = errors.New("invalid watcher ID")

	// ErrWatcherNotSet marks an in-range slot that holds no callback.
	ErrWatcherNotSet = errors.New("no watcher set")

	// ErrNoWatcherIDs marks an exhausted table; clearing a watcher recovers.
	ErrNoWatcherIDs = errors.New("no more watcher IDs available")

	// ErrWrongKind marks a watch/unwatch target of the wrong object kind.
	ErrWrongKind = errors.New("wrong kind of object")
)

// watcherTable is a fixed-capacity slot table holding callbacks of type C.
// Each object kind owns one instance. Slot ids are indices into the table and
// are reused after clearing.
//
// Registration and clearing are serialized against dispatch-side reads with
// the table mutex; the mutex is never held across a callback invocation.
type watcherTable[C any] struct {
	mu       sync.RWMutex
	kind     string // "dict", "type", "code", "func" - used in error messages
	capacity int
	used     uint8 // bit i set <=> slots[i] holds a callback
	slots    [MaxWatchers]C
}

func newWatcherTable[C any](kind string, capacity int) *watcherTable[C] {
	return &watcherTable[C]{kind: kind, capacity: capacity}
}

// register stores cb in the first empty slot and returns its id.
func (t *watcherTable[C]) register(cb C) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := 0; i < t.capacity; i++ {
		if t.used&(1<<i) == 0 {
			t.slots[i] = cb
			t.used |= 1 << i
			return i, nil
		}
	}
	return 0, fmt.Errorf("no more %s watcher IDs available: %w", t.kind, ErrNoWatcherIDs)
}

// clear empties the slot at id. The id becomes available for reuse; objects
// still carrying the slot's mask bit simply stop receiving events.
func (t *watcherTable[C]) clear(id int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkIDLocked(id); err != nil {
		return err
	}
	var zero C
	t.slots[id] = zero
	t.used &^= 1 << id
	return nil
}

// checkID validates a slot id for watch/unwatch calls.
func (t *watcherTable[C]) checkID(id int) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.checkIDLocked(id)
}

func (t *watcherTable[C]) checkIDLocked(id int) error {
	if id < 0 || id >= t.capacity {
		return fmt.Errorf("invalid %s watcher ID %d: %w", t.kind, id, ErrInvalidWatcherID)
	}
	if t.used&(1<<id) == 0 {
		return fmt.Errorf("no %s watcher set for ID %d: %w", t.kind, id, ErrWatcherNotSet)
	}
	return nil
}

// callback returns the slot's callback for dispatch. A cleared slot reports
// ok=false; dispatch skips it, which is how stale mask bits stay inert.
func (t *watcherTable[C]) callback(id int) (cb C, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if id < 0 || id >= t.capacity || t.used&(1<<id) == 0 {
		return cb, false
	}
	return t.slots[id], true
}

// activeMask returns the occupancy bitmask. New code and function objects are
// born subscribed to every slot active at construction time.
func (t *watcherTable[C]) activeMask() uint8 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.used
}
