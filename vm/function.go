package vm

import "fmt"

// ---------------------------------------------------------------------------
// FunctionObject: callable objects with creation/mutation/destroy events
// ---------------------------------------------------------------------------

// FunctionObject represents a Petrel callable binding a compiled method with
// its default arguments.
type FunctionObject struct {
	id         FuncID
	Name       string
	Code       *CompiledMethod
	Defaults   Value // array-like value or Nil
	KwDefaults Value // dictionary value or Nil

	watchers uint8
}

// ID returns the function's stable identity token. Destroy events carry this
// token instead of a live reference.
func (fn *FunctionObject) ID() FuncID { return fn.id }

// String implements the Stringer interface.
func (fn *FunctionObject) String() string {
	return fmt.Sprintf("Function<%s>", fn.Name)
}

// NewFunction constructs a function and fires Created once it is fully
// built. Like code objects, functions are born subscribed to every slot
// active at construction.
func (rt *Runtime) NewFunction(name string, code *CompiledMethod) *FunctionObject {
	fn := &FunctionObject{
		Name:       name,
		Code:       code,
		Defaults:   Nil,
		KwDefaults: Nil,
	}
	fn.id = rt.Objects.RegisterFunction(fn)
	fn.watchers = rt.funcWatchers.activeMask()

	rt.notifyFunc(FuncEventCreated, fn, Nil)
	return fn
}

// ---------------------------------------------------------------------------
// Mutation entry points
//
// The attribute-assignment path (FuncSetAttr) and the low-level setters both
// land on the same notify call per event kind, so watchers cannot be
// bypassed by choice of mutation API.
// ---------------------------------------------------------------------------

// FuncSetAttr assigns a function attribute by name, routing to the
// corresponding low-level setter.
func (rt *Runtime) FuncSetAttr(fn *FunctionObject, name string, value Value) error {
	switch name {
	case "code":
		cm := value.Code()
		if cm == nil {
			return fmt.Errorf("code attribute requires a code value, got %s", value.Kind())
		}
		rt.SetFunctionCode(fn, cm)
	case "defaults":
		rt.SetFunctionDefaults(fn, value)
	case "kwdefaults":
		rt.SetFunctionKwDefaults(fn, value)
	default:
		return fmt.Errorf("function %s has no watchable attribute %q", fn.Name, name)
	}
	return nil
}

// SetFunctionCode replaces the function's code object, firing ModifyCode.
func (rt *Runtime) SetFunctionCode(fn *FunctionObject, cm *CompiledMethod) {
	fn.Code = cm
	rt.notifyFunc(FuncEventModifyCode, fn, FromCode(cm))
}

// SetFunctionDefaults replaces the positional defaults, firing ModifyDefaults.
func (rt *Runtime) SetFunctionDefaults(fn *FunctionObject, defaults Value) {
	fn.Defaults = defaults
	rt.notifyFunc(FuncEventModifyDefaults, fn, defaults)
}

// SetFunctionKwDefaults replaces the keyword defaults, firing
// ModifyKwDefaults.
func (rt *Runtime) SetFunctionKwDefaults(fn *FunctionObject, kwDefaults Value) {
	fn.KwDefaults = kwDefaults
	rt.notifyFunc(FuncEventModifyKwDefaults, fn, kwDefaults)
}

// ReleaseFunction tears the function down. Destroyed is delivered with a nil
// function reference and the stable id only, since the storage may be gone
// by the time the event is observed.
func (rt *Runtime) ReleaseFunction(fn *FunctionObject) {
	rt.notifyFunc(FuncEventDestroyed, fn, Nil)
	fn.watchers = 0
	fn.Code = nil
	rt.Objects.UnregisterFunction(fn.id)
}

// ---------------------------------------------------------------------------
// Subscription and dispatch
// ---------------------------------------------------------------------------

// WatchFunction subscribes watcher slot id to v for subsequent events.
func (rt *Runtime) WatchFunction(id int, v Value) error {
	if err := rt.funcWatchers.checkID(id); err != nil {
		return err
	}
	fn := v.Function()
	if fn == nil {
		return fmt.Errorf("cannot watch non-function value of kind %s: %w", v.Kind(), ErrWrongKind)
	}
	fn.watchers |= 1 << id
	return nil
}

// UnwatchFunction clears slot id's interest in v.
func (rt *Runtime) UnwatchFunction(id int, v Value) error {
	if err := rt.funcWatchers.checkID(id); err != nil {
		return err
	}
	fn := v.Function()
	if fn == nil {
		return fmt.Errorf("cannot watch non-function value of kind %s: %w", v.Kind(), ErrWrongKind)
	}
	fn.watchers &^= 1 << id
	return nil
}

// notifyFunc fans an event out over the function's mask. For Destroyed the
// callback receives a nil function and the id alone.
func (rt *Runtime) notifyFunc(event FuncEventKind, fn *FunctionObject, value Value) {
	if fn.watchers == 0 {
		return
	}
	ref := fn
	if event == FuncEventDestroyed {
		ref = nil
	}
	for i := 0; i < rt.funcWatchers.capacity; i++ {
		if fn.watchers&(1<<i) == 0 {
			continue
		}
		cb, ok := rt.funcWatchers.callback(i)
		if !ok {
			continue
		}
		if err := cb(event, ref, fn.id, value); err != nil {
			rt.reportUnraisable("function", FromFunction(fn), err)
		}
	}
}
