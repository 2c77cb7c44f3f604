package series

import (
	"fmt"
	"math"
)

// DType identifies the type of the values in a Column or index level.
type DType int

const (
	DTypeInvalid DType = iota
	Float64
	Float32
	Int64
	Int32
	String
	Bool
)

// String returns the lower-case name used in manifests and error messages.
func (d DType) String() string {
	switch d {
	case Float64:
		return "float64"
	case Float32:
		return "float32"
	case Int64:
		return "int64"
	case Int32:
		return "int32"
	case String:
		return "string"
	case Bool:
		return "bool"
	default:
		return "invalid"
	}
}

// ParseDType maps a manifest type name back to its DType.
func ParseDType(s string) (DType, error) {
	switch s {
	case "float64":
		return Float64, nil
	case "float32":
		return Float32, nil
	case "int64":
		return Int64, nil
	case "int32":
		return Int32, nil
	case "string":
		return String, nil
	case "bool":
		return Bool, nil
	default:
		return DTypeInvalid, fmt.Errorf("unknown dtype %q", s)
	}
}

// IsNumeric reports whether the dtype supports arithmetic.
func (d DType) IsNumeric() bool {
	switch d {
	case Float64, Float32, Int64, Int32:
		return true
	default:
		return false
	}
}

// IsFloat reports whether the dtype is a floating point type.
func (d DType) IsFloat() bool {
	return d == Float64 || d == Float32
}

// IsValidIndex reports whether the dtype may be used as an index level.
func (d DType) IsValidIndex() bool {
	switch d {
	case Int64, Int32, String:
		return true
	default:
		return false
	}
}

// Value is the set of Go types a Column can hold.
type Value interface {
	float64 | float32 | int64 | int32 | string | bool
}

// Number is the subset of Value that supports arithmetic.
type Number interface {
	float64 | float32 | int64 | int32
}

// Missing returns the value used where no real value exists: NaN for floats,
// the zero value otherwise. This convention is shared by resample and by
// moving windows over empty windows.
func Missing[T Value]() T {
	var zero T
	switch p := any(&zero).(type) {
	case *float64:
		*p = math.NaN()
	case *float32:
		*p = float32(math.NaN())
	}
	return zero
}

// IsMissing reports whether v is the missing value for its type. Note that
// for integer, string and bool types the missing value is indistinguishable
// from a real zero value.
func IsMissing[T Value](v T) bool {
	switch x := any(v).(type) {
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	default:
		var zero T
		return v == zero
	}
}

// dtypeOf maps a Value type parameter to its DType.
func dtypeOf[T Value]() DType {
	var zero T
	switch any(zero).(type) {
	case float64:
		return Float64
	case float32:
		return Float32
	case int64:
		return Int64
	case int32:
		return Int32
	case string:
		return String
	case bool:
		return Bool
	default:
		return DTypeInvalid
	}
}
