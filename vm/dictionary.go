package vm

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Dictionary objects: hash-keyed associative storage with mutation events
// ---------------------------------------------------------------------------

// DictionaryObject represents a Petrel dictionary (key-value map).
// Uses Go maps keyed by value hash for O(1) lookup; Keys retains the original
// key values for iteration and event payloads.
type DictionaryObject struct {
	id   DictID
	Data map[uint64]Value // Key hash -> Value
	Keys map[uint64]Value // Key hash -> Key

	// watchers is the subscription mask: bit i set <=> dict watcher slot i
	// is interested in this dictionary.
	watchers uint8
}

// ID returns the dictionary's stable identity token.
func (d *DictionaryObject) ID() DictID { return d.id }

// Len returns the number of key-value pairs.
func (d *DictionaryObject) Len() int { return len(d.Data) }

// At returns the value stored under key.
func (d *DictionaryObject) At(key Value) (Value, bool) {
	v, ok := d.Data[hashKey(key)]
	return v, ok
}

// Contains reports whether key is present.
func (d *DictionaryObject) Contains(key Value) bool {
	_, ok := d.Data[hashKey(key)]
	return ok
}

// AllKeys returns all stored keys. Order is unspecified.
func (d *DictionaryObject) AllKeys() []Value {
	keys := make([]Value, 0, len(d.Keys))
	for _, k := range d.Keys {
		keys = append(keys, k)
	}
	return keys
}

// NewDictionary creates an empty dictionary registered with the runtime.
func (rt *Runtime) NewDictionary() *DictionaryObject {
	d := &DictionaryObject{
		Data: make(map[uint64]Value),
		Keys: make(map[uint64]Value),
	}
	d.id = rt.Objects.RegisterDictionary(d)
	return d
}

// ---------------------------------------------------------------------------
// Mutation entry points
// ---------------------------------------------------------------------------

// DictStore sets key to value, firing Added for an unseen key and Modified
// for an overwrite. The store is applied before dispatch so callbacks observe
// the committed state.
func (rt *Runtime) DictStore(d *DictionaryObject, key, value Value) {
	h := hashKey(key)
	_, existed := d.Data[h]
	d.Data[h] = value
	d.Keys[h] = key

	if existed {
		rt.notifyDict(DictEventModified, d, key, value)
	} else {
		rt.notifyDict(DictEventAdded, d, key, value)
	}
}

// DictDelete removes key, returning the removed value. A miss is not a
// mutation and fires no event.
func (rt *Runtime) DictDelete(d *DictionaryObject, key Value) (Value, bool) {
	h := hashKey(key)
	v, ok := d.Data[h]
	if !ok {
		return Nil, false
	}
	delete(d.Data, h)
	delete(d.Keys, h)

	rt.notifyDict(DictEventDeleted, d, key, Nil)
	return v, true
}

// DictClear removes every entry, firing exactly one Cleared event regardless
// of prior size.
func (rt *Runtime) DictClear(d *DictionaryObject) {
	d.Data = make(map[uint64]Value)
	d.Keys = make(map[uint64]Value)

	rt.notifyDict(DictEventCleared, d, Nil, Nil)
}

// DictMerge copies all entries of src into d. A bulk copy into an empty
// dictionary fires a single Cloned event; merging into a non-empty
// dictionary fires one Added/Modified event per copied key. Merging an empty
// source is not a mutation and fires nothing.
func (rt *Runtime) DictMerge(d *DictionaryObject, src *DictionaryObject) {
	if len(src.Data) == 0 {
		return
	}

	if len(d.Data) == 0 {
		for h, v := range src.Data {
			d.Data[h] = v
			d.Keys[h] = src.Keys[h]
		}
		rt.notifyDict(DictEventCloned, d, Nil, Nil)
		return
	}

	for h, v := range src.Data {
		rt.DictStore(d, src.Keys[h], v)
	}
}

// ReleaseDictionary tears the dictionary down. Deallocated is the last
// observable action on the object; the subscription mask is cleared after
// dispatch and the identity token is retired.
func (rt *Runtime) ReleaseDictionary(d *DictionaryObject) {
	rt.notifyDict(DictEventDeallocated, d, Nil, Nil)
	d.watchers = 0
	d.Data = nil
	d.Keys = nil
	rt.Objects.UnregisterDictionary(d.id)
}

// ---------------------------------------------------------------------------
// Subscription and dispatch
// ---------------------------------------------------------------------------

// WatchDict subscribes watcher slot id to v. Idempotent if the bit is
// already set.
func (rt *Runtime) WatchDict(id int, v Value) error {
	if err := rt.dictWatchers.checkID(id); err != nil {
		return err
	}
	d := v.Dictionary()
	if d == nil {
		return fmt.Errorf("cannot watch non-dictionary value of kind %s: %w", v.Kind(), ErrWrongKind)
	}
	d.watchers |= 1 << id
	return nil
}

// UnwatchDict clears slot id's interest in v. No error if the bit was
// already clear.
func (rt *Runtime) UnwatchDict(id int, v Value) error {
	if err := rt.dictWatchers.checkID(id); err != nil {
		return err
	}
	d := v.Dictionary()
	if d == nil {
		return fmt.Errorf("cannot watch non-dictionary value of kind %s: %w", v.Kind(), ErrWrongKind)
	}
	d.watchers &^= 1 << id
	return nil
}

// notifyDict fans the event out to every slot set in the dictionary's mask.
// An all-zero mask costs a single branch. Callback errors go to the
// unraisable channel; later slots still run.
func (rt *Runtime) notifyDict(event DictEventKind, d *DictionaryObject, key, value Value) {
	if d.watchers == 0 {
		return
	}
	for i := 0; i < rt.dictWatchers.capacity; i++ {
		if d.watchers&(1<<i) == 0 {
			continue
		}
		cb, ok := rt.dictWatchers.callback(i)
		if !ok {
			continue // slot cleared after subscription; stale bit is inert
		}
		if err := cb(event, d, key, value); err != nil {
			rt.reportUnraisable("dictionary", FromDictionary(d), err)
		}
	}
}
