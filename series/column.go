package series

import (
	"fmt"
	"math"
)

// Column is a typed column of feature values. The zero Column is invalid;
// build one with NewColumn. Columns are treated as immutable once attached to
// an EventSet: operators build fresh columns instead of mutating inputs.
type Column struct {
	dtype DType
	data  any
}

// NewColumn wraps a typed slice in a Column. The slice is not copied.
func NewColumn[T Value](data []T) Column {
	return Column{dtype: dtypeOf[T](), data: data}
}

// Data returns the typed backing slice of a column. It panics if T does not
// match the column's dtype; callers dispatch on DType first.
func Data[T Value](c Column) []T {
	data, ok := c.data.([]T)
	if !ok {
		panic(fmt.Sprintf("series: column holds %s, requested %s", c.dtype, dtypeOf[T]()))
	}
	return data
}

// DType returns the column's value type.
func (c Column) DType() DType {
	return c.dtype
}

// Len returns the number of values in the column.
func (c Column) Len() int {
	switch d := c.data.(type) {
	case []float64:
		return len(d)
	case []float32:
		return len(d)
	case []int64:
		return len(d)
	case []int32:
		return len(d)
	case []string:
		return len(d)
	case []bool:
		return len(d)
	default:
		return 0
	}
}

// Value returns the i-th value boxed as any. Used by the I/O adapters and
// error messages; kernels use Data for typed access.
func (c Column) Value(i int) any {
	switch d := c.data.(type) {
	case []float64:
		return d[i]
	case []float32:
		return d[i]
	case []int64:
		return d[i]
	case []int32:
		return d[i]
	case []string:
		return d[i]
	case []bool:
		return d[i]
	default:
		panic("series: invalid column")
	}
}

// Gather builds a new column with values taken at the given positions, in
// order. Positions may repeat.
func (c Column) Gather(positions []int) Column {
	switch d := c.data.(type) {
	case []float64:
		return NewColumn(gather(d, positions))
	case []float32:
		return NewColumn(gather(d, positions))
	case []int64:
		return NewColumn(gather(d, positions))
	case []int32:
		return NewColumn(gather(d, positions))
	case []string:
		return NewColumn(gather(d, positions))
	case []bool:
		return NewColumn(gather(d, positions))
	default:
		panic("series: invalid column")
	}
}

func gather[T Value](data []T, positions []int) []T {
	out := make([]T, len(positions))
	for i, p := range positions {
		out[i] = data[p]
	}
	return out
}

// Concat appends other to c and returns the combined column.
func (c Column) Concat(other Column) (Column, error) {
	if c.dtype != other.dtype {
		return Column{}, fmt.Errorf("cannot concat %s column with %s column", c.dtype, other.dtype)
	}
	switch d := c.data.(type) {
	case []float64:
		return NewColumn(append(append([]float64{}, d...), other.data.([]float64)...)), nil
	case []float32:
		return NewColumn(append(append([]float32{}, d...), other.data.([]float32)...)), nil
	case []int64:
		return NewColumn(append(append([]int64{}, d...), other.data.([]int64)...)), nil
	case []int32:
		return NewColumn(append(append([]int32{}, d...), other.data.([]int32)...)), nil
	case []string:
		return NewColumn(append(append([]string{}, d...), other.data.([]string)...)), nil
	case []bool:
		return NewColumn(append(append([]bool{}, d...), other.data.([]bool)...)), nil
	default:
		return Column{}, fmt.Errorf("invalid column")
	}
}

// Equal compares dtype, length and values. NaN values compare equal so that
// expected results with missing floats can be asserted in tests.
func (c Column) Equal(other Column) bool {
	if c.dtype != other.dtype || c.Len() != other.Len() {
		return false
	}
	switch d := c.data.(type) {
	case []float64:
		o := other.data.([]float64)
		for i := range d {
			if d[i] != o[i] && !(math.IsNaN(d[i]) && math.IsNaN(o[i])) {
				return false
			}
		}
	case []float32:
		o := other.data.([]float32)
		for i := range d {
			if d[i] != o[i] && !(math.IsNaN(float64(d[i])) && math.IsNaN(float64(o[i]))) {
				return false
			}
		}
	case []int64:
		o := other.data.([]int64)
		for i := range d {
			if d[i] != o[i] {
				return false
			}
		}
	case []int32:
		o := other.data.([]int32)
		for i := range d {
			if d[i] != o[i] {
				return false
			}
		}
	case []string:
		o := other.data.([]string)
		for i := range d {
			if d[i] != o[i] {
				return false
			}
		}
	case []bool:
		o := other.data.([]bool)
		for i := range d {
			if d[i] != o[i] {
				return false
			}
		}
	}
	return true
}

// MissingColumn builds a column of n missing values of the given dtype.
func MissingColumn(dtype DType, n int) Column {
	switch dtype {
	case Float64:
		return missingColumn[float64](n)
	case Float32:
		return missingColumn[float32](n)
	case Int64:
		return missingColumn[int64](n)
	case Int32:
		return missingColumn[int32](n)
	case String:
		return missingColumn[string](n)
	case Bool:
		return missingColumn[bool](n)
	default:
		panic("series: invalid dtype")
	}
}

func missingColumn[T Value](n int) Column {
	data := make([]T, n)
	m := Missing[T]()
	for i := range data {
		data[i] = m
	}
	return NewColumn(data)
}
