package simd

// Number is every element type the host vector helpers operate on.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Add performs dst[i] = a[i] + b[i] over len(dst) elements. a and b must be
// at least as long as dst. Integer overflow wraps.
func Add[T Number](dst, a, b []T) {
	n := len(dst)
	a, b = a[:n], b[:n]

	// Unrolled loop for better pipelining
	i := 0
	for ; i <= n-4; i += 4 {
		dst[i] = a[i] + b[i]
		dst[i+1] = a[i+1] + b[i+1]
		dst[i+2] = a[i+2] + b[i+2]
		dst[i+3] = a[i+3] + b[i+3]
	}
	// Handle remainder
	for ; i < n; i++ {
		dst[i] = a[i] + b[i]
	}
}
