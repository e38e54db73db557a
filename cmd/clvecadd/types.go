package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/x448/float16"

	"github.com/23skdu/longbow-clvecadd/internal/kernelcache"
	"github.com/23skdu/longbow-clvecadd/internal/vecadd"
)

// elementType converts operands of one element type between the wire and
// Go slices.
type elementType struct {
	// decode unmarshals both CBOR operands and reports the output length.
	decode func(ra, rb cbor.RawMessage) (a, b any, n int, err error)
	// ramp returns start, start+1, ... as n elements.
	ramp func(n, start int) any
}

// Half precision values travel as their binary16 bit patterns.
var elementTypes = map[string]elementType{
	"int8":    newElementType[int8](),
	"int16":   newElementType[int16](),
	"int32":   newElementType[int32](),
	"int64":   newElementType[int64](),
	"uint8":   newElementType[uint8](),
	"uint16":  newElementType[uint16](),
	"uint32":  newElementType[uint32](),
	"uint64":  newElementType[uint64](),
	"float16": newElementType[float16.Float16](),
	"float32": newElementType[float32](),
	"float64": newElementType[float64](),
	"char":    newElementType[kernelcache.Char](),
}

func lookupType(name string) (elementType, error) {
	et, ok := elementTypes[strings.ToLower(name)]
	if !ok {
		return elementType{}, fmt.Errorf("unknown element type %q (want one of %s)", name, strings.Join(typeNames(), ", "))
	}
	return et, nil
}

func typeNames() []string {
	names := make([]string, 0, len(elementTypes))
	for name := range elementTypes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func newElementType[T vecadd.Element]() elementType {
	return elementType{
		decode: func(ra, rb cbor.RawMessage) (any, any, int, error) {
			var a, b []T
			if err := cbor.Unmarshal(ra, &a); err != nil {
				return nil, nil, 0, fmt.Errorf("operand a: %w", err)
			}
			if err := cbor.Unmarshal(rb, &b); err != nil {
				return nil, nil, 0, fmt.Errorf("operand b: %w", err)
			}
			return a, b, min(len(a), len(b)), nil
		},
		ramp: func(n, start int) any {
			s := make([]T, n)
			if h, ok := any(s).([]float16.Float16); ok {
				for i := range h {
					h[i] = float16.Fromfloat32(float32(start + i))
				}
				return s
			}
			for i := range s {
				s[i] = T(start + i)
			}
			return s
		},
	}
}
