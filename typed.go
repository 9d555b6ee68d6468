// typed.go - Pointers tagged with a plain-old-data payload type
package peekpoke

import (
	"unsafe"
)

// TypedPointer is a Pointer that knows the type of the value it points at.
// The payload type must be plain-old-data; Deref and Put fail for types
// that cannot be copied as flat bytes.
//
// Arithmetic on a TypedPointer moves by bytes, not by multiples of the
// payload size. Use Index to step by whole elements.
type TypedPointer[T any] struct {
	Pointer
}

// TypedAt returns a typed pointer into v at the given absolute address
func TypedAt[T any](v View, addr uintptr) TypedPointer[T] {
	return TypedPointer[T]{Pointer: Pointer{view: v, Addr: addr}}
}

// Typed tags an existing pointer with a payload type
func Typed[T any](p Pointer) TypedPointer[T] {
	return TypedPointer[T]{Pointer: p}
}

// Stride returns the size of the payload type in bytes
func (p TypedPointer[T]) Stride() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}

// Deref reads the pointed-at value
func (p TypedPointer[T]) Deref() (T, bool) {
	return ReadValue[T](p.view, p.Addr)
}

// Put writes a value to the pointed-at location
func (p TypedPointer[T]) Put(value T) bool {
	return WriteValue(p.view, p.Addr, value)
}

// Add returns the pointer n bytes further, wrapping like Pointer.Add
func (p TypedPointer[T]) Add(n uintptr) TypedPointer[T] {
	return TypedPointer[T]{Pointer: p.Pointer.Add(n)}
}

// Sub returns the pointer n bytes back, wrapping on underflow
func (p TypedPointer[T]) Sub(n uintptr) TypedPointer[T] {
	return TypedPointer[T]{Pointer: p.Pointer.Sub(n)}
}

// Offset moves the pointer by a signed byte delta
func (p TypedPointer[T]) Offset(delta int) TypedPointer[T] {
	return TypedPointer[T]{Pointer: p.Pointer.Offset(delta)}
}

// Index returns the pointer to element i, stepping by whole payload sizes
func (p TypedPointer[T]) Index(i int) TypedPointer[T] {
	return p.Offset(i * int(p.Stride()))
}

// Chase walks one level of indirection: it reads the native-width address
// stored at p and returns it as a typed pointer into the same view. This
// is the Deref of a pointer-to-pointer; repeated calls follow a pointer
// chain without reattaching the view at each step:
//
//	pp := peekpoke.TypedAt[peekpoke.TypedPointer[uint32]](v, base)
//	inner, ok := peekpoke.Chase(pp) // TypedPointer[uint32]
//	val, ok := inner.Deref()        // uint32
func Chase[T any](p TypedPointer[TypedPointer[T]]) (TypedPointer[T], bool) {
	return ReadTypedPointer[T](p.view, p.Addr)
}
