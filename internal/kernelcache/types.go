package kernelcache

import (
	"reflect"

	"github.com/x448/float16"
)

// Char is a host-side character element. It maps to the device type char.
type Char byte

// Element is every host element type that has a device-side spelling.
type Element interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | ~bool
}

// TypeName returns the device-side spelling of T used in the ARRAY_TYPE
// macro. float16.Float16 and Char are recognised before their underlying
// kinds so they are not reported as ushort and uchar.
func TypeName[T Element]() string {
	var zero T
	switch any(zero).(type) {
	case float16.Float16:
		return "half"
	case Char:
		return "char"
	}

	switch reflect.TypeFor[T]().Kind() {
	case reflect.Int8:
		return "char"
	case reflect.Int16:
		return "short"
	case reflect.Int32:
		return "int"
	case reflect.Int64:
		return "long"
	case reflect.Uint8:
		return "uchar"
	case reflect.Uint16:
		return "ushort"
	case reflect.Uint32:
		return "uint"
	case reflect.Uint64:
		return "ulong"
	case reflect.Float32:
		return "float"
	case reflect.Float64:
		return "double"
	case reflect.Bool:
		return "bool"
	}
	panic("kernelcache: unreachable element kind " + reflect.TypeFor[T]().String())
}
