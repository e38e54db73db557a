package client

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestNewArray_RoundTrip(t *testing.T) {
	half := []float16.Float16{float16.Fromfloat32(1.5), float16.Fromfloat32(-0.25)}
	tests := []struct {
		name string
		vals any
		dt   arrow.DataType
	}{
		{"int8", []int8{-1, 2}, arrow.PrimitiveTypes.Int8},
		{"int16", []int16{-300, 2}, arrow.PrimitiveTypes.Int16},
		{"int32", []int32{1, 2, 3}, arrow.PrimitiveTypes.Int32},
		{"int64", []int64{1 << 40}, arrow.PrimitiveTypes.Int64},
		{"uint8", []uint8{255}, arrow.PrimitiveTypes.Uint8},
		{"uint16", []uint16{65535}, arrow.PrimitiveTypes.Uint16},
		{"uint32", []uint32{7}, arrow.PrimitiveTypes.Uint32},
		{"uint64", []uint64{1 << 63}, arrow.PrimitiveTypes.Uint64},
		{"float16", half, arrow.FixedWidthTypes.Float16},
		{"float32", []float32{0.5}, arrow.PrimitiveTypes.Float32},
		{"float64", []float64{0.25, 4}, arrow.PrimitiveTypes.Float64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arr, err := NewArray(tt.vals)
			require.NoError(t, err)
			defer arr.Release()
			assert.True(t, arrow.TypeEqual(tt.dt, arr.DataType()))

			got, err := Values(arr)
			require.NoError(t, err)
			assert.Equal(t, tt.vals, got)
		})
	}
}

func TestNewArray_ZeroCopy(t *testing.T) {
	vals := []int32{1, 2, 3}
	arr, err := NewArray(vals)
	require.NoError(t, err)
	defer arr.Release()

	got, err := Values(arr)
	require.NoError(t, err)
	assert.Same(t, &vals[0], &got.([]int32)[0])
}

func TestNewArray_Unsupported(t *testing.T) {
	_, err := NewArray([]string{"a"})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestValues_RejectsNulls(t *testing.T) {
	b := array.NewInt32Builder(memory.NewGoAllocator())
	defer b.Release()
	b.AppendValues([]int32{1, 2}, []bool{true, false})
	arr := b.NewArray()
	defer arr.Release()

	_, err := Values(arr)
	assert.ErrorIs(t, err, ErrNulls)
}

func TestOperandAndResultRecords(t *testing.T) {
	rec, err := NewOperandRecord([]int64{1, 2}, []int64{3, 4})
	require.NoError(t, err)
	defer rec.Release()
	assert.Equal(t, int64(2), rec.NumRows())
	assert.Equal(t, ColumnA, rec.ColumnName(0))
	assert.Equal(t, ColumnB, rec.ColumnName(1))

	a, b, err := Operands(rec)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, a)
	assert.Equal(t, []int64{3, 4}, b)

	_, err = Result(rec)
	assert.ErrorIs(t, err, ErrMissingColumn)

	res, err := NewResultRecord(a, b, []int64{4, 6})
	require.NoError(t, err)
	defer res.Release()
	c, err := Result(res)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 6}, c)
}

func TestNewOperandRecord_LengthMismatch(t *testing.T) {
	_, err := NewOperandRecord([]int32{1, 2, 3}, []int32{1})
	assert.ErrorContains(t, err, "column b has 1 rows, want 3")
}
