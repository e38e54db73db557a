package simd

import (
	"math"
	"testing"
)

func TestAdd(t *testing.T) {
	a := []int32{1, 2, 3, 4, 5}
	b := []int32{6, 7, 8, 9, 10}
	dst := make([]int32, 5)
	expected := []int32{7, 9, 11, 13, 15}

	Add(dst, a, b)

	for i, v := range dst {
		if v != expected[i] {
			t.Errorf("Add(%d) = %d, want %d", i, v, expected[i])
		}
	}
}

func TestAdd_LongerInputs(t *testing.T) {
	a := []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	b := []uint64{10, 20, 30}
	dst := make([]uint64, 3)

	Add(dst, a, b)

	expected := []uint64{11, 22, 33}
	for i, v := range dst {
		if v != expected[i] {
			t.Errorf("Add(%d) = %d, want %d", i, v, expected[i])
		}
	}
}

func TestAdd_Wraps(t *testing.T) {
	a := []int8{math.MaxInt8, math.MinInt8}
	b := []int8{1, -1}
	dst := make([]int8, 2)

	Add(dst, a, b)

	if dst[0] != math.MinInt8 || dst[1] != math.MaxInt8 {
		t.Errorf("Add wrap = %v, want [%d %d]", dst, math.MinInt8, math.MaxInt8)
	}
}

// Benchmarks

func BenchmarkAddInt32(b *testing.B) {
	size := 4096
	v1 := make([]int32, size)
	v2 := make([]int32, size)
	dst := make([]int32, size)
	for i := range v1 {
		v1[i] = int32(i)
		v2[i] = int32(i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Add(dst, v1, v2)
	}
}

func BenchmarkAddFloat64(b *testing.B) {
	size := 4096
	v1 := make([]float64, size)
	v2 := make([]float64, size)
	dst := make([]float64, size)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Add(dst, v1, v2)
	}
}
