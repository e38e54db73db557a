package vecadd

import (
	"github.com/x448/float16"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/floats"

	"github.com/23skdu/longbow-clvecadd/internal/simd"
)

// Element is every host element type the engine can add. float16.Float16
// and kernelcache.Char are included through their underlying types.
type Element interface {
	simd.Number
}

// Host computes c[i] = a[i] + b[i] for i < min(len(a), len(b)) without a
// device. Integer results wrap and match the device bit for bit.
func Host[T Element](a, b []T) []T {
	size := min(len(a), len(b))
	c := make([]T, size)
	if size == 0 {
		return c
	}

	switch dst := any(c).(type) {
	case []float16.Float16:
		x, y := any(a).([]float16.Float16), any(b).([]float16.Float16)
		for i := range dst {
			dst[i] = float16.Fromfloat32(x[i].Float32() + y[i].Float32())
		}
	case []float64:
		floats.AddTo(dst, any(a).([]float64)[:size], any(b).([]float64)[:size])
	case []float32:
		copy(dst, any(b).([]float32))
		x := blas32.Vector{N: size, Inc: 1, Data: any(a).([]float32)}
		blas32.Axpy(1, x, blas32.Vector{N: size, Inc: 1, Data: dst})
	default:
		simd.Add(c, a, b)
	}
	return c
}
