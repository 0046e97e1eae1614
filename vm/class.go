package vm

import (
	"fmt"
	"sync"
)

// ---------------------------------------------------------------------------
// Class: Petrel class representation with version-tagged attribute caching
// ---------------------------------------------------------------------------

// Class represents a Petrel class. Attribute lookup walks the superclass
// chain; lookup results are cacheable against the class version tag, which
// changes whenever the class (or an ancestor) is modified.
type Class struct {
	id         ClassID
	Name       string
	Superclass *Class
	subclasses []*Class

	// attrs holds the class's own attributes (methods, class-side state).
	attrs map[string]Value

	// versionTag is the opaque cache-invalidation token. versionValid doubles
	// as the watcher aggregation flag: a modification with an invalid tag is
	// inside the current epoch and dispatches no further events.
	versionTag   uint32
	versionValid bool

	// watchers is the subscription mask: bit i set <=> type watcher slot i
	// is interested in this class.
	watchers uint8
}

// ID returns the class's stable identity token.
func (c *Class) ID() ClassID { return c.id }

// VersionTag returns the current version tag and whether it is valid.
// Consumers caching lookup results must revalidate when valid is false.
func (c *Class) VersionTag() (tag uint32, valid bool) {
	return c.versionTag, c.versionValid
}

// IsSubclassOf returns true if c is a subclass of other (or is the same class).
func (c *Class) IsSubclassOf(other *Class) bool {
	for current := c; current != nil; current = current.Superclass {
		if current == other {
			return true
		}
	}
	return false
}

// Superclasses returns all superclasses from immediate parent to root.
func (c *Class) Superclasses() []*Class {
	var result []*Class
	for current := c.Superclass; current != nil; current = current.Superclass {
		result = append(result, current)
	}
	return result
}

// Subclasses returns the class's direct subclasses.
func (c *Class) Subclasses() []*Class {
	out := make([]*Class, len(c.subclasses))
	copy(out, c.subclasses)
	return out
}

// OwnAttr returns the attribute defined on this class itself, not searching
// the superclass chain, and without touching the version tag.
func (c *Class) OwnAttr(name string) (Value, bool) {
	v, ok := c.attrs[name]
	return v, ok
}

// String implements the Stringer interface.
func (c *Class) String() string { return c.Name }

// NewClass creates a class registered with the runtime and linked under its
// superclass. The class is born with a valid version tag so its first
// modification opens a fresh aggregation epoch.
func (rt *Runtime) NewClass(name string, superclass *Class) *Class {
	c := &Class{
		Name:         name,
		Superclass:   superclass,
		attrs:        make(map[string]Value),
		versionTag:   rt.nextVersionTag(),
		versionValid: true,
	}
	c.id = rt.Objects.RegisterClass(c)
	if superclass != nil {
		superclass.subclasses = append(superclass.subclasses, c)
	}
	rt.Classes.Register(c)
	return c
}

// ---------------------------------------------------------------------------
// Mutation and lookup entry points
// ---------------------------------------------------------------------------

// TypeSetAttr assigns an attribute on the class. The write is applied first;
// dispatch and cache invalidation follow via typeModified.
func (rt *Runtime) TypeSetAttr(c *Class, name string, value Value) {
	c.attrs[name] = value
	rt.typeModified(c)
}

// TypeDelAttr removes an attribute. A miss is not a mutation.
func (rt *Runtime) TypeDelAttr(c *Class, name string) bool {
	if _, ok := c.attrs[name]; !ok {
		return false
	}
	delete(c.attrs, name)
	rt.typeModified(c)
	return true
}

// TypeLookup resolves an attribute along the superclass chain. The lookup
// revalidates version tags on the chain, which closes the current watcher
// aggregation epoch: the next modification dispatches again.
func (rt *Runtime) TypeLookup(c *Class, name string) (Value, bool) {
	for k := c; k != nil; k = k.Superclass {
		if !k.versionValid {
			k.versionTag = rt.nextVersionTag()
			k.versionValid = true
		}
		if v, ok := k.attrs[name]; ok {
			return v, true
		}
	}
	return Nil, false
}

// typeModified is the single type-mutation dispatch point. Descendants are
// notified first (an ancestor edit invalidates their effective lookups too),
// then the class's own watchers, then the tag is invalidated, suppressing
// further events until a lookup revalidates it. A class already inside a
// dirty epoch returns immediately.
func (rt *Runtime) typeModified(c *Class) {
	if !c.versionValid {
		return
	}
	for _, sub := range c.subclasses {
		rt.typeModified(sub)
	}
	if c.watchers != 0 {
		for i := 0; i < rt.typeWatchers.capacity; i++ {
			if c.watchers&(1<<i) == 0 {
				continue
			}
			cb, ok := rt.typeWatchers.callback(i)
			if !ok {
				continue
			}
			if err := cb(c); err != nil {
				rt.reportUnraisable("type", FromClass(c), err)
			}
		}
	}
	c.versionValid = false
	c.versionTag = 0
}

// ---------------------------------------------------------------------------
// Subscription
// ---------------------------------------------------------------------------

// WatchType subscribes watcher slot id to v. Watching a subtype is
// independent of watching its base; masks are per-class, not inherited.
func (rt *Runtime) WatchType(id int, v Value) error {
	if err := rt.typeWatchers.checkID(id); err != nil {
		return err
	}
	c := v.Class()
	if c == nil {
		return fmt.Errorf("cannot watch non-type value of kind %s: %w", v.Kind(), ErrWrongKind)
	}
	c.watchers |= 1 << id
	return nil
}

// UnwatchType clears slot id's interest in v.
func (rt *Runtime) UnwatchType(id int, v Value) error {
	if err := rt.typeWatchers.checkID(id); err != nil {
		return err
	}
	c := v.Class()
	if c == nil {
		return fmt.Errorf("cannot watch non-type value of kind %s: %w", v.Kind(), ErrWrongKind)
	}
	c.watchers &^= 1 << id
	return nil
}

// ---------------------------------------------------------------------------
// ClassTable: runtime class registry by name
// ---------------------------------------------------------------------------

// ClassTable is the runtime's name-to-class registry. Safe for concurrent
// use; registration is serialized against lookups with the table mutex.
type ClassTable struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

// NewClassTable creates an empty class table.
func NewClassTable() *ClassTable {
	return &ClassTable{
		classes: make(map[string]*Class),
	}
}

// Register adds a class under its name, returning the class it displaced or
// nil.
func (ct *ClassTable) Register(c *Class) *Class {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	old := ct.classes[c.Name]
	ct.classes[c.Name] = c
	return old
}

// Lookup returns the class registered under name, or nil.
func (ct *ClassTable) Lookup(name string) *Class {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.classes[name]
}

// Has reports whether a class is registered under name.
func (ct *ClassTable) Has(name string) bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	_, ok := ct.classes[name]
	return ok
}

// Len returns the number of registered classes.
func (ct *ClassTable) Len() int {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return len(ct.classes)
}
