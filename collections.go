package scyjava

import (
	"fmt"
	"strings"
)

// Set is a Go-side set that converts to java.util.Set. Iteration order is
// not preserved across the boundary.
type Set map[interface{}]struct{}

// NewSet builds a Set from the given items.
func NewSet(items ...interface{}) Set {
	s := make(Set, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Add inserts an item.
func (s Set) Add(item interface{}) { s[item] = struct{}{} }

// Contains reports membership.
func (s Set) Contains(item interface{}) bool {
	_, ok := s[item]
	return ok
}

// The Java* types below are live views over collections living in the
// gateway JVM. Mutations go straight through to the Java object; elements
// are converted lazily on access. ToGo produces these views automatically
// for Java collections.

// JavaIterable is a view over a java.lang.Iterable.
type JavaIterable struct {
	obj *JObject
}

// JavaCollection is a view over a java.util.Collection.
type JavaCollection struct {
	obj *JObject
}

// JavaIterator is a view over a java.util.Iterator.
type JavaIterator struct {
	obj *JObject
}

// JavaList is a mutable view over a java.util.List.
type JavaList struct {
	obj *JObject
}

// JavaMap is a mutable view over a java.util.Map.
type JavaMap struct {
	obj *JObject
}

// JavaSet is a mutable view over a java.util.Set.
type JavaSet struct {
	obj *JObject
}

// JObject returns the underlying Java object handle.
func (v *JavaIterable) JObject() *JObject   { return v.obj }
func (v *JavaCollection) JObject() *JObject { return v.obj }
func (v *JavaIterator) JObject() *JObject   { return v.obj }
func (v *JavaList) JObject() *JObject       { return v.obj }
func (v *JavaMap) JObject() *JObject        { return v.obj }
func (v *JavaSet) JObject() *JObject        { return v.obj }

// iteratorOf asks any Iterable for its iterator.
func iteratorOf(obj *JObject) (*JavaIterator, error) {
	result, err := obj.Call("iterator")
	if err != nil {
		return nil, err
	}
	it, ok := result.(*JavaIterator)
	if !ok {
		return nil, fmt.Errorf("unexpected iterator value: %T", result)
	}
	return it, nil
}

// sizeOf asks any Collection or Map for its size.
func sizeOf(obj *JObject) (int, error) {
	result, err := obj.Call("size")
	if err != nil {
		return 0, err
	}
	n, ok := result.(int)
	if !ok {
		return 0, fmt.Errorf("unexpected size value: %T", result)
	}
	return n, nil
}

// jstr renders a value for collection display: Java handles use their
// toString, Go values their fmt rendering.
func jstr(v interface{}) string {
	if IsJava(v) {
		if o := jObjectOf(v); o != nil {
			return o.String()
		}
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", v)
}

// renderSeq renders an iterable's elements between the given brackets.
func renderSeq(obj *JObject, open, end string) string {
	it, err := iteratorOf(obj)
	if err != nil {
		return obj.String()
	}
	var parts []string
	for {
		ok, err := it.HasNext()
		if err != nil || !ok {
			break
		}
		item, err := it.Next()
		if err != nil {
			break
		}
		parts = append(parts, jstr(item))
	}
	return open + strings.Join(parts, ", ") + end
}

// --- JavaIterator ---

// HasNext reports whether the iteration has more elements.
func (v *JavaIterator) HasNext() (bool, error) {
	result, err := v.obj.Call("hasNext")
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected hasNext value: %T", result)
	}
	return b, nil
}

// Next returns the next element, converted gently so iteration survives
// unconvertible elements.
func (v *JavaIterator) Next() (interface{}, error) {
	return v.obj.Call("next")
}

// --- JavaIterable ---

// Iterator returns an iterator over the elements.
func (v *JavaIterable) Iterator() (*JavaIterator, error) { return iteratorOf(v.obj) }

func (v *JavaIterable) String() string { return renderSeq(v.obj, "[", "]") }

// --- JavaCollection ---

// Iterator returns an iterator over the elements.
func (v *JavaCollection) Iterator() (*JavaIterator, error) { return iteratorOf(v.obj) }

// Size returns the number of elements.
func (v *JavaCollection) Size() (int, error) { return sizeOf(v.obj) }

// Contains reports whether the collection contains the item.
func (v *JavaCollection) Contains(item interface{}) (bool, error) {
	return containsOf(v.obj, item)
}

func (v *JavaCollection) String() string { return renderSeq(v.obj, "[", "]") }

func containsOf(obj *JObject, item interface{}) (bool, error) {
	result, err := obj.Call("contains", item)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected contains value: %T", result)
	}
	return b, nil
}

// --- JavaList ---

// Iterator returns an iterator over the elements.
func (v *JavaList) Iterator() (*JavaIterator, error) { return iteratorOf(v.obj) }

// Size returns the number of elements.
func (v *JavaList) Size() (int, error) { return sizeOf(v.obj) }

// Contains reports whether the list contains the item.
func (v *JavaList) Contains(item interface{}) (bool, error) { return containsOf(v.obj, item) }

// Get returns the element at index, converted gently.
func (v *JavaList) Get(index int) (interface{}, error) {
	return v.obj.Call("get", index)
}

// Set replaces the element at index, returning the previous element.
func (v *JavaList) Set(index int, value interface{}) (interface{}, error) {
	return v.obj.Call("set", index, value)
}

// Add appends an element.
func (v *JavaList) Add(value interface{}) error {
	_, err := v.obj.Call("add", value)
	return err
}

// Remove removes the first occurrence of the value, reporting whether the
// list changed.
func (v *JavaList) Remove(value interface{}) (bool, error) {
	result, err := v.obj.Call("remove", value)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected remove value: %T", result)
	}
	return b, nil
}

func (v *JavaList) String() string { return renderSeq(v.obj, "[", "]") }

// --- JavaMap ---

// Size returns the number of entries.
func (v *JavaMap) Size() (int, error) { return sizeOf(v.obj) }

// Get returns the value for the key, converted gently. A missing key
// yields nil, matching java.util.Map.get.
func (v *JavaMap) Get(key interface{}) (interface{}, error) {
	return v.obj.Call("get", key)
}

// Put stores a value for the key, returning the previous value if any.
func (v *JavaMap) Put(key, value interface{}) (interface{}, error) {
	return v.obj.Call("put", key, value)
}

// Remove deletes the entry for the key, returning the removed value if any.
func (v *JavaMap) Remove(key interface{}) (interface{}, error) {
	return v.obj.Call("remove", key)
}

// ContainsKey reports whether the key is present.
func (v *JavaMap) ContainsKey(key interface{}) (bool, error) {
	result, err := v.obj.Call("containsKey", key)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected containsKey value: %T", result)
	}
	return b, nil
}

// Keys returns the map's key set as a view.
func (v *JavaMap) Keys() (*JavaSet, error) {
	result, err := v.obj.Call("keySet")
	if err != nil {
		return nil, err
	}
	keys, ok := result.(*JavaSet)
	if !ok {
		return nil, fmt.Errorf("unexpected keySet value: %T", result)
	}
	return keys, nil
}

func (v *JavaMap) String() string {
	keys, err := v.Keys()
	if err != nil {
		return v.obj.String()
	}
	it, err := keys.Iterator()
	if err != nil {
		return v.obj.String()
	}
	var parts []string
	for {
		ok, err := it.HasNext()
		if err != nil || !ok {
			break
		}
		key, err := it.Next()
		if err != nil {
			break
		}
		value, err := v.Get(key)
		if err != nil {
			break
		}
		parts = append(parts, jstr(key)+": "+jstr(value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// --- JavaSet ---

// Iterator returns an iterator over the elements.
func (v *JavaSet) Iterator() (*JavaIterator, error) { return iteratorOf(v.obj) }

// Size returns the number of elements.
func (v *JavaSet) Size() (int, error) { return sizeOf(v.obj) }

// Contains reports whether the set contains the item.
func (v *JavaSet) Contains(item interface{}) (bool, error) { return containsOf(v.obj, item) }

// Add inserts an element, reporting whether the set changed.
func (v *JavaSet) Add(item interface{}) (bool, error) {
	result, err := v.obj.Call("add", item)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected add value: %T", result)
	}
	return b, nil
}

// Discard removes an element, reporting whether the set changed.
func (v *JavaSet) Discard(item interface{}) (bool, error) {
	result, err := v.obj.Call("remove", item)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected remove value: %T", result)
	}
	return b, nil
}

func (v *JavaSet) String() string { return renderSeq(v.obj, "{", "}") }
