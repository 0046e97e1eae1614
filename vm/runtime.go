package vm

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// Runtime: explicitly owned context for registries and watcher tables
// ---------------------------------------------------------------------------

// Limits configures per-kind watcher capacity. Capacities are independent
// across kinds; a full dict table does not block type registration. Each must
// be in [1, MaxWatchers] (the subscription mask is 8 bits wide).
type Limits struct {
	DictWatchers int
	TypeWatchers int
	CodeWatchers int
	FuncWatchers int
}

// DefaultLimits returns the default capacity of 8 slots per kind.
func DefaultLimits() Limits {
	return Limits{
		DictWatchers: MaxWatchers,
		TypeWatchers: MaxWatchers,
		CodeWatchers: MaxWatchers,
		FuncWatchers: MaxWatchers,
	}
}

func (l Limits) validate() error {
	check := func(kind string, n int) error {
		if n < 1 || n > MaxWatchers {
			return fmt.Errorf("%s watcher capacity %d outside [1, %d]", kind, n, MaxWatchers)
		}
		return nil
	}
	if err := check("dict", l.DictWatchers); err != nil {
		return err
	}
	if err := check("type", l.TypeWatchers); err != nil {
		return err
	}
	if err := check("code", l.CodeWatchers); err != nil {
		return err
	}
	return check("func", l.FuncWatchers)
}

// Runtime owns all watcher and object state for one runtime instance. It is
// passed by reference into the mutation subsystems rather than looked up
// ambiently, so instances stay independent and testable in isolation.
type Runtime struct {
	// ID identifies this runtime instance in logs and diagnostics.
	ID uuid.UUID

	Objects *ObjectRegistry
	Classes *ClassTable

	dictWatchers *watcherTable[DictWatcher]
	typeWatchers *watcherTable[TypeWatcher]
	codeWatchers *watcherTable[CodeWatcher]
	funcWatchers *watcherTable[FuncWatcher]

	versionTag     atomic.Uint32
	unraisableHook func(UnraisableFailure)
	log            commonlog.Logger
}

// NewRuntime creates a runtime with default watcher limits.
func NewRuntime() *Runtime {
	rt, err := NewRuntimeWithLimits(DefaultLimits())
	if err != nil {
		// Default limits are always valid.
		panic(err)
	}
	return rt
}

// NewRuntimeWithLimits creates a runtime with explicit per-kind watcher
// capacities. All watcher tables start empty.
func NewRuntimeWithLimits(limits Limits) (*Runtime, error) {
	if err := limits.validate(); err != nil {
		return nil, err
	}

	rt := &Runtime{
		ID:           uuid.New(),
		Objects:      NewObjectRegistry(),
		Classes:      NewClassTable(),
		dictWatchers: newWatcherTable[DictWatcher]("dict", limits.DictWatchers),
		typeWatchers: newWatcherTable[TypeWatcher]("type", limits.TypeWatchers),
		codeWatchers: newWatcherTable[CodeWatcher]("code", limits.CodeWatchers),
		funcWatchers: newWatcherTable[FuncWatcher]("func", limits.FuncWatchers),
		log:          commonlog.GetLogger("petrel.vm"),
	}
	rt.versionTag.Store(1)
	return rt, nil
}

// nextVersionTag returns a fresh, never-reused class version tag.
func (rt *Runtime) nextVersionTag() uint32 {
	return rt.versionTag.Add(1)
}

// ---------------------------------------------------------------------------
// Watcher registration surface
// ---------------------------------------------------------------------------

// AddDictWatcher registers a dictionary watcher, returning its slot id.
func (rt *Runtime) AddDictWatcher(cb DictWatcher) (int, error) {
	return rt.dictWatchers.register(cb)
}

// ClearDictWatcher empties a dictionary watcher slot. The old callback
// receives no further events; the id may be reused by a later registration.
func (rt *Runtime) ClearDictWatcher(id int) error {
	return rt.dictWatchers.clear(id)
}

// AddTypeWatcher registers a type watcher, returning its slot id.
func (rt *Runtime) AddTypeWatcher(cb TypeWatcher) (int, error) {
	return rt.typeWatchers.register(cb)
}

// ClearTypeWatcher empties a type watcher slot.
func (rt *Runtime) ClearTypeWatcher(id int) error {
	return rt.typeWatchers.clear(id)
}

// AddCodeWatcher registers a code watcher, returning its slot id. Code
// objects created from now on dispatch their lifecycle events to it.
func (rt *Runtime) AddCodeWatcher(cb CodeWatcher) (int, error) {
	return rt.codeWatchers.register(cb)
}

// ClearCodeWatcher empties a code watcher slot.
func (rt *Runtime) ClearCodeWatcher(id int) error {
	return rt.codeWatchers.clear(id)
}

// AddFuncWatcher registers a function watcher, returning its slot id.
// Functions created from now on dispatch their events to it.
func (rt *Runtime) AddFuncWatcher(cb FuncWatcher) (int, error) {
	return rt.funcWatchers.register(cb)
}

// ClearFuncWatcher empties a function watcher slot.
func (rt *Runtime) ClearFuncWatcher(id int) error {
	return rt.funcWatchers.clear(id)
}
