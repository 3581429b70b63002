// Package gltfdoc wraps a decoded glTF JSON document in a tagged-value tree
// with soft-failing typed accessors.
//
// Every accessor returns the caller's default when the key is absent or
// holds a value of the wrong kind; none of them panic.
package gltfdoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// Kind is the tag of a Value.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Null:
		return "Null"
	case Bool:
		return "Bool"
	case Number:
		return "Number"
	case String:
		return "String"
	case Array:
		return "Array"
	case Object:
		return "Object"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Value is one node of the document tree. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	obj  map[string]Value
}

// ErrInvalidJSON is returned by Decode for malformed JSON text.
var ErrInvalidJSON = errors.New("invalid JSON")

// Constructors, mostly useful for tests and extension handlers.

func NewBool(b bool) Value          { return Value{kind: Bool, b: b} }
func NewNumber(n float64) Value     { return Value{kind: Number, n: n} }
func NewString(s string) Value      { return Value{kind: String, s: s} }
func NewArray(items ...Value) Value { return Value{kind: Array, arr: items} }

// NewObject builds an Object value from a Go map.
func NewObject(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: Object, obj: fields}
}

// Decode parses JSON text into a Value tree.
func Decode(text string) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("%w: trailing data after document", ErrInvalidJSON)
	}
	return fromRaw(raw)
}

func fromRaw(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Value{}, nil
	case bool:
		return NewBool(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: number %q: %v", ErrInvalidJSON, v.String(), err)
		}
		return NewNumber(f), nil
	case string:
		return NewString(v), nil
	case []any:
		items := make([]Value, len(v))
		for i, item := range v {
			val, err := fromRaw(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = val
		}
		return NewArray(items...), nil
	case map[string]any:
		fields := make(map[string]Value, len(v))
		for k, item := range v {
			val, err := fromRaw(item)
			if err != nil {
				return Value{}, err
			}
			fields[k] = val
		}
		return NewObject(fields), nil
	default:
		return Value{}, fmt.Errorf("%w: unexpected %T", ErrInvalidJSON, raw)
	}
}

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

// Is reports whether the value has the given kind.
func (v Value) Is(k Kind) bool { return v.kind == k }

// Len returns the number of elements of an Array or fields of an Object.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.arr)
	case Object:
		return len(v.obj)
	}
	return 0
}

// Index returns element i of an Array, or Null.
func (v Value) Index(i int) Value {
	if v.kind != Array || i < 0 || i >= len(v.arr) {
		return Value{}
	}
	return v.arr[i]
}

// Items returns the elements of an Array.
func (v Value) Items() []Value {
	if v.kind != Array {
		return nil
	}
	return v.arr
}

// Get returns the field key of an Object and whether it exists.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	f, ok := v.obj[key]
	return f, ok
}

// Field returns the field key of an Object, or Null.
func (v Value) Field(key string) Value {
	f, _ := v.Get(key)
	return f
}

// Has reports whether an Object contains key, whatever its kind.
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Lookup returns field key when it exists with kind k.
func (v Value) Lookup(key string, k Kind) (Value, bool) {
	f, ok := v.Get(key)
	if !ok || f.kind != k {
		return Value{}, false
	}
	return f, true
}

// Keys returns the sorted field names of an Object.
func (v Value) Keys() []string {
	if v.kind != Object {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bool returns the boolean payload, or false.
func (v Value) Bool() bool { return v.kind == Bool && v.b }

// Float returns the numeric payload, or 0.
func (v Value) Float() float64 {
	if v.kind != Number {
		return 0
	}
	return v.n
}

// Int returns the numeric payload truncated toward zero, or 0.
func (v Value) Int() int { return int(v.Float()) }

// Str returns the string payload, or "".
func (v Value) Str() string {
	if v.kind != String {
		return ""
	}
	return v.s
}
