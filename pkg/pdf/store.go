package pdf

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDanglingReference is returned when a reference names an object that is
// not in the store.
var ErrDanglingReference = errors.New("pdf: dangling reference")

// IndirectObject is a dictionary with its own object number, so it can be
// referenced from anywhere in the document. It can only be created through
// an ObjectStore.
type IndirectObject struct {
	number     int
	generation int
	dict       Dictionary
	stream     []byte
	hasStream  bool
}

// Reference returns a reference to o.
func (o *IndirectObject) Reference() Reference {
	return Reference{ObjectNumber: o.number, GenerationNumber: o.generation}
}

// Number returns the object number.
func (o *IndirectObject) Number() int { return o.number }

// Generation returns the generation number.
func (o *IndirectObject) Generation() int { return o.generation }

// Set stores a copy of value under key, replacing any previous value.
func (o *IndirectObject) Set(key Name, value Object) {
	if value == nil {
		value = Null{}
	}
	o.dict[key] = Clone(value)
}

// Get returns the value stored under key.
func (o *IndirectObject) Get(key Name) (Object, bool) {
	v, ok := o.dict[key]
	return v, ok
}

// Delete removes key.
func (o *IndirectObject) Delete(key Name) {
	delete(o.dict, key)
}

// Keys returns the keys in sorted order.
func (o *IndirectObject) Keys() []Name {
	return o.dict.Keys()
}

// Dictionary returns a copy of the payload.
func (o *IndirectObject) Dictionary() Dictionary {
	return Clone(o.dict).(Dictionary)
}

// SetStream attaches stream data. The /Length entry is written by the
// serializer.
func (o *IndirectObject) SetStream(data []byte) {
	o.stream = append([]byte(nil), data...)
	o.hasStream = true
}

// Stream returns the stream data and whether the object is a stream.
func (o *IndirectObject) Stream() ([]byte, bool) {
	return o.stream, o.hasStream
}

// ObjectStore owns all indirect objects of one document.
//
// Object numbers start at 1 and are never reused. The store is not safe for
// concurrent use; a document is assembled from a single goroutine.
type ObjectStore struct {
	objects map[int]*IndirectObject
	next    int
}

// NewObjectStore returns an empty store.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{
		objects: make(map[int]*IndirectObject),
		next:    1,
	}
}

// CreateObject allocates a new indirect object. If typeName is not empty the
// object gets a /Type entry with that name.
func (s *ObjectStore) CreateObject(typeName Name) *IndirectObject {
	obj := &IndirectObject{
		number: s.next,
		dict:   make(Dictionary),
	}
	s.next++
	if typeName != "" {
		obj.dict["Type"] = typeName
	}
	s.objects[obj.number] = obj
	return obj
}

// Resolve looks up the object named by ref.
func (s *ObjectStore) Resolve(ref Reference) (*IndirectObject, bool) {
	obj, ok := s.objects[ref.ObjectNumber]
	if !ok || obj.generation != ref.GenerationNumber {
		return nil, false
	}
	return obj, true
}

// Remove drops an object from the store. Its number is not handed out
// again.
func (s *ObjectStore) Remove(ref Reference) bool {
	if _, ok := s.Resolve(ref); !ok {
		return false
	}
	delete(s.objects, ref.ObjectNumber)
	return true
}

// Len returns the number of objects in the store.
func (s *ObjectStore) Len() int { return len(s.objects) }

// NextNumber returns the number the next created object will get.
func (s *ObjectStore) NextNumber() int { return s.next }

// Objects returns all objects ordered by object number.
func (s *ObjectStore) Objects() []*IndirectObject {
	out := make([]*IndirectObject, 0, len(s.objects))
	for _, obj := range s.objects {
		out = append(out, obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].number < out[j].number })
	return out
}

// Validate checks that every reference held by any object resolves.
func (s *ObjectStore) Validate() error {
	for _, obj := range s.Objects() {
		if err := s.checkRefs(obj.dict); err != nil {
			return fmt.Errorf("object %d: %w", obj.number, err)
		}
	}
	return nil
}

func (s *ObjectStore) checkRefs(obj Object) error {
	switch v := obj.(type) {
	case Reference:
		if _, ok := s.Resolve(v); !ok {
			return fmt.Errorf("%w: %s", ErrDanglingReference, v)
		}
	case Array:
		for _, item := range v {
			if err := s.checkRefs(item); err != nil {
				return err
			}
		}
	case Dictionary:
		for _, k := range v.Keys() {
			if err := s.checkRefs(v[k]); err != nil {
				return fmt.Errorf("/%s: %w", k, err)
			}
		}
	case nil, Null, Boolean, Integer, Real, String, Name:
	default:
		panic(fmt.Sprintf("pdf: unknown object type %T", obj))
	}
	return nil
}

// typedObject is implemented by the wrappers the store can create directly.
type typedObject interface {
	*Page | *Font | *Image
}

// createTyped allocates an object of the given /Type and wraps it.
func createTyped[T typedObject](s *ObjectStore, typeName Name, wrap func(*IndirectObject) T) T {
	return wrap(s.CreateObject(typeName))
}
