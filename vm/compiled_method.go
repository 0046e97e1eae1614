package vm

import "fmt"

// ---------------------------------------------------------------------------
// CompiledMethod: code objects with lifecycle events
// ---------------------------------------------------------------------------

// CompiledMethod represents a compiled unit of code. The watcher layer only
// depends on its identity and lifecycle; the bytecode and literal frame
// belong to the interpreter.
type CompiledMethod struct {
	id       CodeID
	Name     string
	Filename string
	NumArgs  int
	Bytecode []byte
	Literals []Value

	watchers uint8
}

// ID returns the code object's stable identity token.
func (cm *CompiledMethod) ID() CodeID { return cm.id }

// String implements the Stringer interface.
func (cm *CompiledMethod) String() string {
	return fmt.Sprintf("CompiledMethod<%s>", cm.Name)
}

// NewCompiledMethod constructs a code object and fires Created once it is
// fully built. The object is born subscribed to every slot active at
// construction, so creation reaches each registered watcher exactly once.
func (rt *Runtime) NewCompiledMethod(name, filename string, numArgs int) *CompiledMethod {
	cm := &CompiledMethod{
		Name:     name,
		Filename: filename,
		NumArgs:  numArgs,
	}
	cm.id = rt.Objects.RegisterCode(cm)
	cm.watchers = rt.codeWatchers.activeMask()

	rt.notifyCode(CodeEventCreated, cm)
	return cm
}

// ReleaseCompiledMethod tears the code object down. Destroyed fires once,
// before the identity token is retired; the object must not be accessed
// after the event returns.
func (rt *Runtime) ReleaseCompiledMethod(cm *CompiledMethod) {
	rt.notifyCode(CodeEventDestroyed, cm)
	cm.watchers = 0
	cm.Bytecode = nil
	cm.Literals = nil
	rt.Objects.UnregisterCode(cm.id)
}

// WatchCode subscribes watcher slot id to v for subsequent events.
func (rt *Runtime) WatchCode(id int, v Value) error {
	if err := rt.codeWatchers.checkID(id); err != nil {
		return err
	}
	cm := v.Code()
	if cm == nil {
		return fmt.Errorf("cannot watch non-code value of kind %s: %w", v.Kind(), ErrWrongKind)
	}
	cm.watchers |= 1 << id
	return nil
}

// UnwatchCode clears slot id's interest in v.
func (rt *Runtime) UnwatchCode(id int, v Value) error {
	if err := rt.codeWatchers.checkID(id); err != nil {
		return err
	}
	cm := v.Code()
	if cm == nil {
		return fmt.Errorf("cannot watch non-code value of kind %s: %w", v.Kind(), ErrWrongKind)
	}
	cm.watchers &^= 1 << id
	return nil
}

// notifyCode fans a lifecycle event out over the code object's mask.
func (rt *Runtime) notifyCode(event CodeEventKind, cm *CompiledMethod) {
	if cm.watchers == 0 {
		return
	}
	for i := 0; i < rt.codeWatchers.capacity; i++ {
		if cm.watchers&(1<<i) == 0 {
			continue
		}
		cb, ok := rt.codeWatchers.callback(i)
		if !ok {
			continue
		}
		if err := cb(event, cm); err != nil {
			rt.reportUnraisable("code", FromCode(cm), err)
		}
	}
}
