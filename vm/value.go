package vm

import (
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Value: Tagged runtime value representation
// ---------------------------------------------------------------------------

// ValueKind identifies the runtime kind of a Value.
type ValueKind uint8

const (
	KindNil ValueKind = iota
	KindBoolean
	KindSmallInt
	KindString
	KindSymbol
	KindDictionary
	KindClass
	KindCode
	KindFunction
)

// String returns the kind name used in diagnostics.
func (k ValueKind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBoolean:
		return "boolean"
	case KindSmallInt:
		return "smallInt"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindDictionary:
		return "dictionary"
	case KindClass:
		return "class"
	case KindCode:
		return "code"
	case KindFunction:
		return "function"
	}
	return "?"
}

// Value is a compact tagged runtime value. Immediate kinds (nil, booleans,
// small integers, strings, symbols) are stored inline; object kinds hold a
// pointer to their heap object.
type Value struct {
	kind ValueKind
	num  int64
	str  string
	ref  any
}

// Nil is the singleton nil value.
var Nil = Value{kind: KindNil}

// True and False are the boolean values.
var (
	True  = Value{kind: KindBoolean, num: 1}
	False = Value{kind: KindBoolean, num: 0}
)

// FromSmallInt creates a small integer value.
func FromSmallInt(n int64) Value {
	return Value{kind: KindSmallInt, num: n}
}

// FromBool creates a boolean value.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// FromString creates a string value.
func FromString(s string) Value {
	return Value{kind: KindString, str: s}
}

// FromSymbol creates a symbol value.
func FromSymbol(s string) Value {
	return Value{kind: KindSymbol, str: s}
}

// FromDictionary creates a value referencing a dictionary object.
func FromDictionary(d *DictionaryObject) Value {
	return Value{kind: KindDictionary, ref: d}
}

// FromClass creates a value referencing a class.
func FromClass(c *Class) Value {
	return Value{kind: KindClass, ref: c}
}

// FromCode creates a value referencing a compiled method.
func FromCode(cm *CompiledMethod) Value {
	return Value{kind: KindCode, ref: cm}
}

// FromFunction creates a value referencing a function object.
func FromFunction(fn *FunctionObject) Value {
	return Value{kind: KindFunction, ref: fn}
}

// Kind returns the value's kind tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsNil returns true for the nil value.
func (v Value) IsNil() bool { return v.kind == KindNil }

// SmallInt returns the integer payload. Zero for non-integers.
func (v Value) SmallInt() int64 {
	if v.kind != KindSmallInt {
		return 0
	}
	return v.num
}

// StringContent returns the string or symbol payload. Empty for other kinds.
func (v Value) StringContent() string {
	if v.kind != KindString && v.kind != KindSymbol {
		return ""
	}
	return v.str
}

// Dictionary extracts the dictionary object. Returns nil if the value is not
// a dictionary.
func (v Value) Dictionary() *DictionaryObject {
	if v.kind != KindDictionary {
		return nil
	}
	return v.ref.(*DictionaryObject)
}

// Class extracts the class. Returns nil if the value is not a class.
func (v Value) Class() *Class {
	if v.kind != KindClass {
		return nil
	}
	return v.ref.(*Class)
}

// Code extracts the compiled method. Returns nil if the value is not code.
func (v Value) Code() *CompiledMethod {
	if v.kind != KindCode {
		return nil
	}
	return v.ref.(*CompiledMethod)
}

// Function extracts the function object. Returns nil if the value is not a
// function.
func (v Value) Function() *FunctionObject {
	if v.kind != KindFunction {
		return nil
	}
	return v.ref.(*FunctionObject)
}

// String implements the Stringer interface. Immediate values print their
// payload; object values print their class-side identity.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBoolean:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case KindSmallInt:
		return strconv.FormatInt(v.num, 10)
	case KindString, KindSymbol:
		return v.str
	case KindDictionary:
		return fmt.Sprintf("Dictionary<%d>", v.ref.(*DictionaryObject).id)
	case KindClass:
		return v.ref.(*Class).Name
	case KindCode:
		return fmt.Sprintf("CompiledMethod<%s>", v.ref.(*CompiledMethod).Name)
	case KindFunction:
		return fmt.Sprintf("Function<%s>", v.ref.(*FunctionObject).Name)
	}
	return "?"
}

// ---------------------------------------------------------------------------
// Key hashing
// ---------------------------------------------------------------------------

// Per-kind salts keep distinct kinds with equal payloads from colliding.
const (
	hashSaltBoolean  uint64 = 0x01 << 56
	hashSaltSmallInt uint64 = 0x02 << 56
	hashSaltSymbol   uint64 = 0x03 << 56
	hashSaltObject   uint64 = 0x04 << 56
)

// hashKey computes the dictionary storage key for a Value.
// Strings hash by content so distinct string values with equal content land
// on the same entry; object references hash by their registry identity.
func hashKey(v Value) uint64 {
	switch v.kind {
	case KindNil:
		return 0
	case KindBoolean:
		return hashSaltBoolean | uint64(v.num)
	case KindSmallInt:
		return hashSaltSmallInt ^ uint64(v.num)
	case KindString:
		return fnv1a(v.str)
	case KindSymbol:
		return hashSaltSymbol ^ fnv1a(v.str)
	case KindDictionary:
		return hashSaltObject | uint64(v.ref.(*DictionaryObject).id)<<8
	case KindClass:
		return hashSaltObject | uint64(v.ref.(*Class).id)<<8 | 1
	case KindCode:
		return hashSaltObject | uint64(v.ref.(*CompiledMethod).id)<<8 | 2
	case KindFunction:
		return hashSaltObject | uint64(v.ref.(*FunctionObject).id)<<8 | 3
	}
	return 0
}

// fnv1a is the 64-bit FNV-1a string hash.
func fnv1a(s string) uint64 {
	var h uint64 = 14695981039346656037 // FNV offset basis
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211 // FNV prime
	}
	return h
}
