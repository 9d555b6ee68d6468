// pod.go - Plain-old-data checks for raw memory transfers
package peekpoke

import (
	"reflect"
	"unsafe"
)

// isPODType reports whether values of t can be copied to and from foreign
// memory as flat bytes: fixed-size scalars, arrays of such, and structs of
// such. Anything carrying Go-managed references (pointers, strings, slices,
// maps, channels, funcs, interfaces) is rejected.
func isPODType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return isPODType(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !isPODType(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// isPOD is the generic front for isPODType
func isPOD[T any]() bool {
	var zero T
	return isPODType(reflect.TypeOf(&zero).Elem())
}

// rawBytes exposes the storage of *v as a byte slice
func rawBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// sliceBytes exposes the backing array of xs as a byte slice
func sliceBytes[T any](xs []T) []byte {
	if len(xs) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&xs[0])), uintptr(len(xs))*unsafe.Sizeof(zero))
}
