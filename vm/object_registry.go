package vm

import (
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// ObjectRegistry: runtime-local identity registries for watched object kinds
// ---------------------------------------------------------------------------

// DictID is the stable identity token of a dictionary object.
type DictID uint64

// ClassID is the stable identity token of a class.
type ClassID uint64

// CodeID is the stable identity token of a compiled method.
type CodeID uint64

// FuncID is the stable identity token of a function object. Destroy events
// carry only this token, never a dereferenceable handle.
type FuncID uint64

// ObjectRegistry manages identity for the four watched object kinds. Ids are
// monotonically increasing and never reused, so a destroy event's token can
// never be confused with a later object's.
type ObjectRegistry struct {
	dictionaries   map[DictID]*DictionaryObject
	dictionariesMu sync.RWMutex
	dictionaryID   atomic.Uint64

	classes   map[ClassID]*Class
	classesMu sync.RWMutex
	classID   atomic.Uint64

	codes   map[CodeID]*CompiledMethod
	codesMu sync.RWMutex
	codeID  atomic.Uint64

	functions   map[FuncID]*FunctionObject
	functionsMu sync.RWMutex
	functionID  atomic.Uint64
}

// NewObjectRegistry creates an ObjectRegistry with all maps initialized.
func NewObjectRegistry() *ObjectRegistry {
	or := &ObjectRegistry{
		dictionaries: make(map[DictID]*DictionaryObject),
		classes:      make(map[ClassID]*Class),
		codes:        make(map[CodeID]*CompiledMethod),
		functions:    make(map[FuncID]*FunctionObject),
	}

	// Start IDs at 1 (0 could be confused with nil/uninitialized)
	or.dictionaryID.Store(1)
	or.classID.Store(1)
	or.codeID.Store(1)
	or.functionID.Store(1)

	return or
}

// ---------------------------------------------------------------------------
// Dictionary identity
// ---------------------------------------------------------------------------

// RegisterDictionary adds a dictionary to the registry and returns its ID.
func (or *ObjectRegistry) RegisterDictionary(d *DictionaryObject) DictID {
	id := DictID(or.dictionaryID.Add(1) - 1)

	or.dictionariesMu.Lock()
	or.dictionaries[id] = d
	or.dictionariesMu.Unlock()

	return id
}

// GetDictionary retrieves a dictionary by its ID.
func (or *ObjectRegistry) GetDictionary(id DictID) *DictionaryObject {
	or.dictionariesMu.RLock()
	defer or.dictionariesMu.RUnlock()
	return or.dictionaries[id]
}

// UnregisterDictionary removes a dictionary from the registry.
func (or *ObjectRegistry) UnregisterDictionary(id DictID) {
	or.dictionariesMu.Lock()
	defer or.dictionariesMu.Unlock()
	delete(or.dictionaries, id)
}

// DictionaryCount returns the number of registered dictionaries.
func (or *ObjectRegistry) DictionaryCount() int {
	or.dictionariesMu.RLock()
	defer or.dictionariesMu.RUnlock()
	return len(or.dictionaries)
}

// ---------------------------------------------------------------------------
// Class identity
// ---------------------------------------------------------------------------

// RegisterClass adds a class to the registry and returns its ID.
func (or *ObjectRegistry) RegisterClass(c *Class) ClassID {
	id := ClassID(or.classID.Add(1) - 1)

	or.classesMu.Lock()
	or.classes[id] = c
	or.classesMu.Unlock()

	return id
}

// GetClass retrieves a class by its ID.
func (or *ObjectRegistry) GetClass(id ClassID) *Class {
	or.classesMu.RLock()
	defer or.classesMu.RUnlock()
	return or.classes[id]
}

// ClassCount returns the number of registered classes.
func (or *ObjectRegistry) ClassCount() int {
	or.classesMu.RLock()
	defer or.classesMu.RUnlock()
	return len(or.classes)
}

// ---------------------------------------------------------------------------
// Compiled-method identity
// ---------------------------------------------------------------------------

// RegisterCode adds a compiled method to the registry and returns its ID.
func (or *ObjectRegistry) RegisterCode(cm *CompiledMethod) CodeID {
	id := CodeID(or.codeID.Add(1) - 1)

	or.codesMu.Lock()
	or.codes[id] = cm
	or.codesMu.Unlock()

	return id
}

// GetCode retrieves a compiled method by its ID.
func (or *ObjectRegistry) GetCode(id CodeID) *CompiledMethod {
	or.codesMu.RLock()
	defer or.codesMu.RUnlock()
	return or.codes[id]
}

// UnregisterCode removes a compiled method from the registry.
func (or *ObjectRegistry) UnregisterCode(id CodeID) {
	or.codesMu.Lock()
	defer or.codesMu.Unlock()
	delete(or.codes, id)
}

// CodeCount returns the number of registered compiled methods.
func (or *ObjectRegistry) CodeCount() int {
	or.codesMu.RLock()
	defer or.codesMu.RUnlock()
	return len(or.codes)
}

// ---------------------------------------------------------------------------
// Function identity
// ---------------------------------------------------------------------------

// RegisterFunction adds a function to the registry and returns its ID.
func (or *ObjectRegistry) RegisterFunction(fn *FunctionObject) FuncID {
	id := FuncID(or.functionID.Add(1) - 1)

	or.functionsMu.Lock()
	or.functions[id] = fn
	or.functionsMu.Unlock()

	return id
}

// GetFunction retrieves a function by its ID. Returns nil after the function
// has been released; the ID itself stays valid as an identity token.
func (or *ObjectRegistry) GetFunction(id FuncID) *FunctionObject {
	or.functionsMu.RLock()
	defer or.functionsMu.RUnlock()
	return or.functions[id]
}

// UnregisterFunction removes a function from the registry.
func (or *ObjectRegistry) UnregisterFunction(id FuncID) {
	or.functionsMu.Lock()
	defer or.functionsMu.Unlock()
	delete(or.functions, id)
}

// FunctionCount returns the number of registered functions.
func (or *ObjectRegistry) FunctionCount() int {
	or.functionsMu.RLock()
	defer or.functionsMu.RUnlock()
	return len(or.functions)
}

// Stats returns counts of all registered objects across all registries.
func (or *ObjectRegistry) Stats() map[string]int {
	return map[string]int{
		"dictionaries": or.DictionaryCount(),
		"classes":      or.ClassCount(),
		"codes":        or.CodeCount(),
		"functions":    or.FunctionCount(),
	}
}
