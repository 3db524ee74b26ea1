package model

import (
	"fmt"
	"reflect"
)

// Cloner is implemented by values that know how to deep-copy themselves.
// Clone must return a value of the same dynamic type as the receiver.
type Cloner interface {
	Clone() any
}

// Value is a type-erased, cloneable box around a single value. The type the
// value was declared with is recorded so that properties can enforce a
// stable type contract across set calls.
type Value struct {
	v   any
	typ reflect.Type
}

// ValueOf boxes v, recording T as its declared type. When T is an interface
// type any implementation of T is later accepted by the same property.
func ValueOf[T any](v T) Value {
	return Value{v: v, typ: reflect.TypeFor[T]()}
}

// Get performs a checked downcast of the boxed value to T.
func Get[T any](v Value) (T, bool) {
	var zero T
	if !v.IsValid() {
		return zero, false
	}
	t, ok := v.v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// MustGet is like Get but panics on mismatch. Intended for subscribers that
// were registered against a property whose type they created themselves.
func MustGet[T any](v Value) T {
	t, ok := Get[T](v)
	if !ok {
		panic(fmt.Sprintf("model: value of type %s is not %s", v.Type(), reflect.TypeFor[T]()))
	}
	return t
}

// IsValid reports whether the value was created with ValueOf.
func (v Value) IsValid() bool {
	return v.typ != nil
}

// Type returns the declared type of the value.
func (v Value) Type() reflect.Type {
	return v.typ
}

// Any returns the boxed value.
func (v Value) Any() any {
	return v.v
}

// SameType reports whether both values were declared with the same type.
func (v Value) SameType(other Value) bool {
	return v.typ != nil && v.typ == other.typ
}

// Equal compares declared type identity and content.
func (v Value) Equal(other Value) bool {
	return v.SameType(other) && reflect.DeepEqual(v.v, other.v)
}

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	if !v.IsValid() || v.v == nil {
		return v
	}
	if c, ok := v.v.(Cloner); ok {
		cloned := c.Clone()
		if cloned != nil && reflect.TypeOf(cloned) == reflect.TypeOf(v.v) {
			return Value{v: cloned, typ: v.typ}
		}
	}
	src := reflect.ValueOf(v.v)
	dst := deepCopy(src)
	return Value{v: dst.Interface(), typ: v.typ}
}

// String renders the value for logging.
func (v Value) String() string {
	if !v.IsValid() {
		return "<invalid>"
	}
	return fmt.Sprintf("%v", v.v)
}

// visit identifies a pointer, map or slice that has already been copied.
type visit struct {
	typ reflect.Type
	ptr uintptr
	len int
}

// copier deep-copies a value graph. Shared references are copied once, so
// cycles terminate and aliasing is preserved in the copy.
type copier struct {
	seen map[visit]reflect.Value
}

func deepCopy(src reflect.Value) reflect.Value {
	c := copier{seen: make(map[visit]reflect.Value)}
	return c.copy(src)
}

// copy copies maps, slices, arrays, pointers and structs recursively.
// Unexported struct fields are copied shallowly along with the struct itself.
func (c copier) copy(src reflect.Value) reflect.Value {
	switch src.Kind() {
	case reflect.Pointer:
		if src.IsNil() {
			return src
		}
		key := visit{typ: src.Type(), ptr: src.Pointer()}
		if dst, ok := c.seen[key]; ok {
			return dst
		}
		dst := reflect.New(src.Elem().Type())
		c.seen[key] = dst
		dst.Elem().Set(c.copy(src.Elem()))
		return dst
	case reflect.Slice:
		if src.IsNil() {
			return src
		}
		key := visit{typ: src.Type(), ptr: src.Pointer(), len: src.Len()}
		if dst, ok := c.seen[key]; ok {
			return dst
		}
		dst := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
		c.seen[key] = dst
		for i := range src.Len() {
			dst.Index(i).Set(c.copy(src.Index(i)))
		}
		return dst
	case reflect.Map:
		if src.IsNil() {
			return src
		}
		key := visit{typ: src.Type(), ptr: src.Pointer()}
		if dst, ok := c.seen[key]; ok {
			return dst
		}
		dst := reflect.MakeMapWithSize(src.Type(), src.Len())
		c.seen[key] = dst
		iter := src.MapRange()
		for iter.Next() {
			dst.SetMapIndex(c.copy(iter.Key()), c.copy(iter.Value()))
		}
		return dst
	case reflect.Array:
		dst := reflect.New(src.Type()).Elem()
		for i := range src.Len() {
			dst.Index(i).Set(c.copy(src.Index(i)))
		}
		return dst
	case reflect.Struct:
		dst := reflect.New(src.Type()).Elem()
		dst.Set(src)
		for i := range src.NumField() {
			if !dst.Field(i).CanSet() {
				continue
			}
			dst.Field(i).Set(c.copy(src.Field(i)))
		}
		return dst
	case reflect.Interface:
		if src.IsNil() {
			return src
		}
		dst := reflect.New(src.Type()).Elem()
		dst.Set(c.copy(src.Elem()))
		return dst
	default:
		return src
	}
}
