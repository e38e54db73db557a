package client

import (
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	afloat16 "github.com/apache/arrow-go/v18/arrow/float16"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/x448/float16"
)

// Column names of vector addition records.
const (
	ColumnA = "a"
	ColumnB = "b"
	ColumnC = "c"
)

var (
	ErrMissingColumn   = errors.New("missing column")
	ErrUnsupportedType = errors.New("unsupported column type")
	ErrNulls           = errors.New("column contains nulls")
)

// NewArray wraps vals in an Arrow array without copying. vals must stay
// unmodified for the lifetime of the array. Half precision values are the
// only ones converted.
func NewArray(vals any) (arrow.Array, error) {
	switch v := vals.(type) {
	case []int8:
		return wrap(arrow.PrimitiveTypes.Int8, len(v), arrow.Int8Traits.CastToBytes(v)), nil
	case []int16:
		return wrap(arrow.PrimitiveTypes.Int16, len(v), arrow.Int16Traits.CastToBytes(v)), nil
	case []int32:
		return wrap(arrow.PrimitiveTypes.Int32, len(v), arrow.Int32Traits.CastToBytes(v)), nil
	case []int64:
		return wrap(arrow.PrimitiveTypes.Int64, len(v), arrow.Int64Traits.CastToBytes(v)), nil
	case []uint8:
		return wrap(arrow.PrimitiveTypes.Uint8, len(v), arrow.Uint8Traits.CastToBytes(v)), nil
	case []uint16:
		return wrap(arrow.PrimitiveTypes.Uint16, len(v), arrow.Uint16Traits.CastToBytes(v)), nil
	case []uint32:
		return wrap(arrow.PrimitiveTypes.Uint32, len(v), arrow.Uint32Traits.CastToBytes(v)), nil
	case []uint64:
		return wrap(arrow.PrimitiveTypes.Uint64, len(v), arrow.Uint64Traits.CastToBytes(v)), nil
	case []float32:
		return wrap(arrow.PrimitiveTypes.Float32, len(v), arrow.Float32Traits.CastToBytes(v)), nil
	case []float64:
		return wrap(arrow.PrimitiveTypes.Float64, len(v), arrow.Float64Traits.CastToBytes(v)), nil
	case []float16.Float16:
		nums := make([]afloat16.Num, len(v))
		for i, x := range v {
			nums[i] = afloat16.New(x.Float32())
		}
		return wrap(arrow.FixedWidthTypes.Float16, len(nums), arrow.Float16Traits.CastToBytes(nums)), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, vals)
}

func wrap(dt arrow.DataType, n int, raw []byte) arrow.Array {
	data := array.NewData(dt, n, []*memory.Buffer{nil, memory.NewBufferBytes(raw)}, nil, 0, 0)
	defer data.Release()
	return array.MakeFromData(data)
}

// Values returns the elements of a primitive array as a Go slice. Apart
// from half precision the slice aliases the array's buffer and is only
// valid while the array is retained.
func Values(arr arrow.Array) (any, error) {
	if arr.NullN() > 0 {
		return nil, fmt.Errorf("%w: %d of %d", ErrNulls, arr.NullN(), arr.Len())
	}
	switch a := arr.(type) {
	case *array.Int8:
		return a.Int8Values(), nil
	case *array.Int16:
		return a.Int16Values(), nil
	case *array.Int32:
		return a.Int32Values(), nil
	case *array.Int64:
		return a.Int64Values(), nil
	case *array.Uint8:
		return a.Uint8Values(), nil
	case *array.Uint16:
		return a.Uint16Values(), nil
	case *array.Uint32:
		return a.Uint32Values(), nil
	case *array.Uint64:
		return a.Uint64Values(), nil
	case *array.Float32:
		return a.Float32Values(), nil
	case *array.Float64:
		return a.Float64Values(), nil
	case *array.Float16:
		nums := a.Values()
		out := make([]float16.Float16, len(nums))
		for i, n := range nums {
			out[i] = float16.Fromfloat32(n.Float32())
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, arr.DataType())
}

// NewOperandRecord builds a record with columns a and b. Arrow records
// have one row count, so both operands must have the same length.
func NewOperandRecord(a, b any) (arrow.RecordBatch, error) {
	return newRecord([]string{ColumnA, ColumnB}, a, b)
}

// NewResultRecord builds a record with columns a, b and c, where c is the
// sum of a and b.
func NewResultRecord(a, b, c any) (arrow.RecordBatch, error) {
	return newRecord([]string{ColumnA, ColumnB, ColumnC}, a, b, c)
}

func newRecord(names []string, cols ...any) (arrow.RecordBatch, error) {
	fields := make([]arrow.Field, len(cols))
	arrs := make([]arrow.Array, len(cols))
	defer func() {
		for _, arr := range arrs {
			if arr != nil {
				arr.Release()
			}
		}
	}()

	for i, col := range cols {
		arr, err := NewArray(col)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", names[i], err)
		}
		if i > 0 && arr.Len() != arrs[0].Len() {
			arr.Release()
			return nil, fmt.Errorf("column %s has %d rows, want %d", names[i], arr.Len(), arrs[0].Len())
		}
		arrs[i] = arr
		fields[i] = arrow.Field{Name: names[i], Type: arr.DataType()}
	}

	schema := arrow.NewSchema(fields, nil)
	return array.NewRecordBatch(schema, arrs, int64(arrs[0].Len())), nil
}

// Operands extracts columns a and b of rec. The slices alias the record's
// buffers; keep rec retained while they are in use.
func Operands(rec arrow.RecordBatch) (a, b any, err error) {
	a, err = column(rec, ColumnA)
	if err != nil {
		return nil, nil, err
	}
	b, err = column(rec, ColumnB)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// Result extracts column c of a result record.
func Result(rec arrow.RecordBatch) (any, error) {
	return column(rec, ColumnC)
}

func column(rec arrow.RecordBatch, name string) (any, error) {
	idx := rec.Schema().FieldIndices(name)
	if len(idx) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	vals, err := Values(rec.Column(idx[0]))
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", name, err)
	}
	return vals, nil
}
