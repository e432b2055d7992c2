package arena

import (
	"encoding/binary"
	"math"
	"reflect"
	"unsafe"
)

// keyKind selects how a key type is turned into bytes for hashing.
type keyKind uint8

const (
	keyString keyKind = iota // string keys are hashed by content
	keyMemory                // pointer-free keys are hashed by their memory
	keyReflect               // anything else is hashed by its canonical encoding
)

func detectKey[K comparable]() (keyKind, int) {
	var k K
	t := reflect.TypeOf(&k).Elem()
	switch {
	case t.Kind() == reflect.String:
		return keyString, 0
	case !hasPointers(t):
		return keyMemory, int(t.Size())
	default:
		return keyReflect, 0
	}
}

// hasPointers reports whether equal values of t may differ in memory.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		var end uintptr
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			// padding bytes are not guaranteed to be equal.
			if f.Offset != end || hasPointers(f.Type) {
				return true
			}
			end = f.Offset + f.Type.Size()
		}
		return end != t.Size()
	default:
		// floats (+0/-0, NaN), interfaces, pointers, channels.
		return true
	}
}

// keyBytes returns a string holding the bytes hashed for key.
func keyBytes[K comparable](kind keyKind, size int, key *K) string {
	switch kind {
	case keyString:
		return *(*string)(unsafe.Pointer(key))
	case keyMemory:
		return unsafe.String((*byte)(unsafe.Pointer(key)), size)
	default:
		b := appendKey(nil, reflect.ValueOf(key).Elem())
		return unsafe.String(unsafe.SliceData(b), len(b))
	}
}

// appendKey appends an encoding of v that is equal for values equal under ==.
func appendKey(b []byte, v reflect.Value) []byte {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return append(b, 1)
		}
		return append(b, 0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return binary.LittleEndian.AppendUint64(b, uint64(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return binary.LittleEndian.AppendUint64(b, v.Uint())
	case reflect.Float32, reflect.Float64:
		return appendFloat(b, v.Float())
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		return appendFloat(appendFloat(b, real(c)), imag(c))
	case reflect.String:
		b = binary.LittleEndian.AppendUint64(b, uint64(v.Len()))
		return append(b, v.String()...)
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return binary.LittleEndian.AppendUint64(b, uint64(v.Pointer()))
	case reflect.Interface:
		if v.IsNil() {
			return append(b, 0)
		}
		e := v.Elem()
		name := e.Type().String()
		b = append(b, 1)
		b = binary.LittleEndian.AppendUint64(b, uint64(len(name)))
		b = append(b, name...)
		return appendKey(b, e)
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			b = appendKey(b, v.Index(i))
		}
		return b
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			b = appendKey(b, v.Field(i))
		}
		return b
	default:
		panic("arena: key of kind " + v.Kind().String() + " is not comparable")
	}
}

// appendFloat folds -0 into +0, since they compare equal.
func appendFloat(b []byte, f float64) []byte {
	if f == 0 {
		f = 0
	}
	return binary.LittleEndian.AppendUint64(b, math.Float64bits(f))
}
