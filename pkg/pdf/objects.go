// Package pdf builds PDF documents from an in-memory graph of indirect objects.
package pdf

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ObjectType represents the type of a PDF object
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBoolean
	ObjInteger
	ObjReal
	ObjString
	ObjName
	ObjArray
	ObjDictionary
	ObjReference
)

var objectTypeNames = [...]string{
	ObjNull:       "null",
	ObjBoolean:    "boolean",
	ObjInteger:    "integer",
	ObjReal:       "real",
	ObjString:     "string",
	ObjName:       "name",
	ObjArray:      "array",
	ObjDictionary: "dictionary",
	ObjReference:  "reference",
}

func (t ObjectType) String() string {
	if t < 0 || int(t) >= len(objectTypeNames) {
		return "ObjectType(" + strconv.Itoa(int(t)) + ")"
	}
	return objectTypeNames[t]
}

// ErrWrongKind is returned by typed accessors when a value holds a different kind.
var ErrWrongKind = errors.New("pdf: wrong object kind")

// Object represents a PDF object.
//
// The set of implementations is closed: Null, Boolean, Integer, Real, String,
// Name, Array, Dictionary and Reference. The kind is derived from the dynamic
// type, so a value can never carry a kind that disagrees with its payload.
type Object interface {
	Type() ObjectType
	String() string
	isObject()
}

// Null represents a PDF null object
type Null struct{}

func (Null) Type() ObjectType { return ObjNull }
func (Null) String() string   { return "null" }
func (Null) isObject()        {}

// Boolean represents a PDF boolean object
type Boolean bool

func (b Boolean) Type() ObjectType { return ObjBoolean }
func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Boolean) isObject() {}

// Integer represents a PDF integer object
type Integer int64

func (i Integer) Type() ObjectType { return ObjInteger }
func (i Integer) String() string   { return strconv.FormatInt(int64(i), 10) }
func (Integer) isObject()          {}

// Real represents a PDF real number object.
// PDF has no exponent notation, so the value is always printed in fixed form.
type Real float64

func (r Real) Type() ObjectType { return ObjReal }
func (r Real) String() string {
	s := strconv.FormatFloat(float64(r), 'f', 5, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
func (Real) isObject() {}

// String represents a PDF string object
type String struct {
	Value []byte
	IsHex bool
}

func (s String) Type() ObjectType { return ObjString }
func (s String) String() string {
	if s.IsHex {
		return fmt.Sprintf("<%X>", s.Value)
	}
	return string(escapeLiteral(s.Value))
}
func (String) isObject() {}

// Name represents a PDF name object
type Name string

func (n Name) Type() ObjectType { return ObjName }
func (n Name) String() string   { return string(escapeName(n)) }
func (Name) isObject()          {}

// Array represents a PDF array object. Order is significant and duplicates
// are allowed.
type Array []Object

func (a Array) Type() ObjectType { return ObjArray }
func (a Array) String() string {
	parts := make([]string, len(a))
	for i, obj := range a {
		parts[i] = objectString(obj)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
func (Array) isObject() {}

// objectString writes a nil element as null.
func objectString(obj Object) string {
	if obj == nil {
		return "null"
	}
	return obj.String()
}

// Len returns the number of elements.
func (a Array) Len() int { return len(a) }

// At returns the i-th element, or false if i is out of range.
func (a Array) At(i int) (Object, bool) {
	if i < 0 || i >= len(a) {
		return nil, false
	}
	return a[i], true
}

// Append adds values to the end of the array.
func (a *Array) Append(values ...Object) {
	*a = append(*a, values...)
}

// Dictionary represents a PDF dictionary object
type Dictionary map[Name]Object

func (d Dictionary) Type() ObjectType { return ObjDictionary }
func (d Dictionary) String() string {
	keys := d.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k.String()+" "+objectString(d[k]))
	}
	return "<<" + strings.Join(parts, " ") + ">>"
}
func (Dictionary) isObject() {}

// Keys returns the dictionary keys in sorted order.
func (d Dictionary) Keys() []Name {
	keys := make([]Name, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Get returns the value for a key
func (d Dictionary) Get(key string) Object {
	return d[Name(key)]
}

// GetName returns the name value for a key
func (d Dictionary) GetName(key string) (Name, bool) {
	n, ok := d.Get(key).(Name)
	return n, ok
}

// GetInt returns the integer value for a key
func (d Dictionary) GetInt(key string) (int64, bool) {
	switch v := d.Get(key).(type) {
	case Integer:
		return int64(v), true
	case Real:
		return int64(v), true
	}
	return 0, false
}

// GetArray returns the array value for a key
func (d Dictionary) GetArray(key string) (Array, bool) {
	a, ok := d.Get(key).(Array)
	return a, ok
}

// GetDict returns the dictionary value for a key
func (d Dictionary) GetDict(key string) (Dictionary, bool) {
	dict, ok := d.Get(key).(Dictionary)
	return dict, ok
}

// GetReference returns the reference value for a key
func (d Dictionary) GetReference(key string) (Reference, bool) {
	r, ok := d.Get(key).(Reference)
	return r, ok
}

// Reference represents a PDF indirect object reference
type Reference struct {
	ObjectNumber     int
	GenerationNumber int
}

func (r Reference) Type() ObjectType { return ObjReference }
func (r Reference) String() string {
	return fmt.Sprintf("%d %d R", r.ObjectNumber, r.GenerationNumber)
}
func (Reference) isObject() {}

// IsZero reports whether r does not name any object.
func (r Reference) IsZero() bool { return r.ObjectNumber == 0 }

// Clone returns a deep copy of obj. Arrays and dictionaries are copied
// recursively; all other kinds are immutable values.
func Clone(obj Object) Object {
	switch v := obj.(type) {
	case nil:
		return nil
	case Null, Boolean, Integer, Real, Name, Reference:
		return v
	case String:
		return String{Value: append([]byte(nil), v.Value...), IsHex: v.IsHex}
	case Array:
		if v == nil {
			return Array(nil)
		}
		out := make(Array, len(v))
		for i, item := range v {
			out[i] = cloneItem(item)
		}
		return out
	case Dictionary:
		if v == nil {
			return Dictionary(nil)
		}
		out := make(Dictionary, len(v))
		for k, item := range v {
			out[k] = cloneItem(item)
		}
		return out
	default:
		panic(fmt.Sprintf("pdf: unknown object type %T", obj))
	}
}

// cloneItem copies a container element; a nil element becomes Null.
func cloneItem(obj Object) Object {
	if obj == nil {
		return Null{}
	}
	return Clone(obj)
}

// Variant holds a single PDF value. The zero Variant holds Null.
type Variant struct {
	obj Object
}

// NewVariant returns a Variant holding obj.
func NewVariant(obj Object) Variant {
	var v Variant
	v.Set(obj)
	return v
}

// Kind returns the kind of the held value.
func (v Variant) Kind() ObjectType {
	if v.obj == nil {
		return ObjNull
	}
	return v.obj.Type()
}

// Object returns the held value.
func (v Variant) Object() Object {
	if v.obj == nil {
		return Null{}
	}
	return v.obj
}

// Set replaces the held value and its kind in one step. The value is copied,
// so later changes to a passed-in array do not leak into the Variant.
func (v *Variant) Set(obj Object) {
	if obj == nil {
		obj = Null{}
	}
	v.obj = Clone(obj)
}

// Copy returns an independent copy of v.
func (v Variant) Copy() Variant {
	return Variant{obj: Clone(v.obj)}
}

// AsArray returns a copy of the held array.
func (v Variant) AsArray() (Array, error) {
	a, ok := v.obj.(Array)
	if !ok {
		return nil, fmt.Errorf("%w: want %s, have %s", ErrWrongKind, ObjArray, v.Kind())
	}
	return Clone(a).(Array), nil
}

// SetArray replaces the held value with a copy of a.
func (v *Variant) SetArray(a Array) {
	if a == nil {
		a = Array{}
	}
	v.Set(a)
}

// AsReference returns the held reference.
func (v Variant) AsReference() (Reference, error) {
	r, ok := v.obj.(Reference)
	if !ok {
		return Reference{}, fmt.Errorf("%w: want %s, have %s", ErrWrongKind, ObjReference, v.Kind())
	}
	return r, nil
}

// AsInteger returns the held integer.
func (v Variant) AsInteger() (int64, error) {
	i, ok := v.obj.(Integer)
	if !ok {
		return 0, fmt.Errorf("%w: want %s, have %s", ErrWrongKind, ObjInteger, v.Kind())
	}
	return int64(i), nil
}

// AsName returns the held name.
func (v Variant) AsName() (Name, error) {
	n, ok := v.obj.(Name)
	if !ok {
		return "", fmt.Errorf("%w: want %s, have %s", ErrWrongKind, ObjName, v.Kind())
	}
	return n, nil
}
