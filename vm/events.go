package vm

// ---------------------------------------------------------------------------
// Event taxonomy: per-kind event enumerations and callback signatures
// ---------------------------------------------------------------------------

// DictEventKind enumerates dictionary mutation events.
type DictEventKind uint8

const (
	DictEventAdded DictEventKind = iota
	DictEventModified
	DictEventDeleted
	DictEventCleared
	DictEventCloned
	DictEventDeallocated
)

// String returns the short event tag used in traces.
func (k DictEventKind) String() string {
	switch k {
	case DictEventAdded:
		return "new"
	case DictEventModified:
		return "mod"
	case DictEventDeleted:
		return "del"
	case DictEventCleared:
		return "clear"
	case DictEventCloned:
		return "clone"
	case DictEventDeallocated:
		return "dealloc"
	}
	return "?"
}

// DictWatcher observes dictionary mutations. key and value are Nil for the
// events that carry no payload (Cleared, Cloned, Deallocated). A non-nil
// error is routed to the runtime's unraisable channel and discarded.
type DictWatcher func(event DictEventKind, dict *DictionaryObject, key, value Value) error

// TypeWatcher observes class modification. At most one call per cache epoch:
// consecutive attribute writes with no intervening lookup collapse into one
// event. The callback receives only the class identity, never the attribute.
type TypeWatcher func(class *Class) error

// CodeEventKind enumerates compiled-method lifecycle events.
type CodeEventKind uint8

const (
	CodeEventCreated CodeEventKind = iota
	CodeEventDestroyed
)

func (k CodeEventKind) String() string {
	switch k {
	case CodeEventCreated:
		return "create"
	case CodeEventDestroyed:
		return "destroy"
	}
	return "?"
}

// CodeWatcher observes compiled-method creation and teardown. After a
// Destroyed event returns, the code object must not be accessed again.
type CodeWatcher func(event CodeEventKind, code *CompiledMethod) error

// FuncEventKind enumerates function-object events.
type FuncEventKind uint8

const (
	FuncEventCreated FuncEventKind = iota
	FuncEventModifyCode
	FuncEventModifyDefaults
	FuncEventModifyKwDefaults
	FuncEventDestroyed
)

func (k FuncEventKind) String() string {
	switch k {
	case FuncEventCreated:
		return "create"
	case FuncEventModifyCode:
		return "modify-code"
	case FuncEventModifyDefaults:
		return "modify-defaults"
	case FuncEventModifyKwDefaults:
		return "modify-kwdefaults"
	case FuncEventDestroyed:
		return "destroy"
	}
	return "?"
}

// FuncWatcher observes function-object events. fn is the live function for
// every event except Destroyed, where it is nil and only the stable id
// remains valid (the function's storage may already be gone). value carries
// the newly assigned code/defaults/kwdefaults for the modify events.
type FuncWatcher func(event FuncEventKind, fn *FunctionObject, id FuncID, value Value) error
