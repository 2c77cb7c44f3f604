package smath

import (
	"context"
	"fmt"
	"math"

	"github.com/vk/eventflow/graph"
	"github.com/vk/eventflow/series"
)

type kind int

const (
	kindAdd kind = iota
	kindSubtract
	kindMultiply
	kindDivide
	kindGreater
	kindGreaterEqual
	kindLess
	kindLessEqual
	kindEqual
	kindNotEqual
)

func (k kind) isComparison() bool {
	return k >= kindGreater
}

// Op applies a scalar to every feature of its input.
type Op struct {
	graph.Base
	kind  kind
	value any
}

// Value returns the scalar attribute.
func (o *Op) Value() any {
	return o.value
}

// numericScalar extracts the scalar as float64 for the numeric operators.
func numericScalar(value any) (float64, bool) {
	switch x := value.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	default:
		return 0, false
	}
}

// representableInt reports whether scalar converts to the integer dtype
// without truncation or overflow.
func representableInt(scalar float64, d series.DType) bool {
	if scalar != math.Trunc(scalar) {
		return false
	}
	if d == series.Int32 {
		return scalar >= math.MinInt32 && scalar <= math.MaxInt32
	}
	// 2^63 is the first float64 outside the int64 range.
	return scalar >= math.MinInt64 && scalar < math.MaxInt64
}

func newOp(k kind, key string, input *graph.Node, value any) (*graph.Node, error) {
	in := input.Schema()
	if len(in.Features) == 0 {
		return nil, fmt.Errorf("%s: input has no features", key)
	}

	scalar, scalarIsNumeric := numericScalar(value)
	_, scalarIsString := value.(string)
	_, scalarIsBool := value.(bool)
	if !scalarIsNumeric && !scalarIsString && !scalarIsBool {
		return nil, fmt.Errorf("%s: unsupported scalar %v (%T)", key, value, value)
	}

	features := make([]series.Feature, len(in.Features))
	for i, f := range in.Features {
		switch {
		case f.DType.IsNumeric():
			if !scalarIsNumeric {
				return nil, fmt.Errorf("%s: feature %q is %s but the scalar is %T", key, f.Name, f.DType, value)
			}
			if !f.DType.IsFloat() && !representableInt(scalar, f.DType) {
				return nil, fmt.Errorf("%s: scalar %v is not representable in %s feature %q", key, value, f.DType, f.Name)
			}
			if k == kindDivide && !f.DType.IsFloat() {
				return nil, fmt.Errorf("%s: feature %q is %s; division requires float features", key, f.Name, f.DType)
			}
		case f.DType == series.String:
			if k != kindEqual && k != kindNotEqual || !scalarIsString {
				return nil, fmt.Errorf("%s: feature %q is a string; only equality against a string scalar is supported", key, f.Name)
			}
		case f.DType == series.Bool:
			if k != kindEqual && k != kindNotEqual || !scalarIsBool {
				return nil, fmt.Errorf("%s: feature %q is a bool; only equality against a bool scalar is supported", key, f.Name)
			}
		}
		if k.isComparison() {
			features[i] = series.Feature{Name: f.Name, DType: series.Bool}
		} else {
			features[i] = f
		}
	}

	op := &Op{kind: k, value: value}
	op.InitBase(key)
	op.AddInput("input", input)
	outSchema, err := series.NewSchema(features, in.Indexes, in.IsUnixTimestamp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return graph.NewOutput(&op.Base, op, "output", outSchema), nil
}

// AddScalar computes feature + value for every numeric feature.
func AddScalar(input *graph.Node, value any) (*graph.Node, error) {
	return newOp(kindAdd, "ADD_SCALAR", input, value)
}

// SubtractScalar computes feature - value.
func SubtractScalar(input *graph.Node, value any) (*graph.Node, error) {
	return newOp(kindSubtract, "SUBTRACT_SCALAR", input, value)
}

// MultiplyScalar computes feature * value.
func MultiplyScalar(input *graph.Node, value any) (*graph.Node, error) {
	return newOp(kindMultiply, "MULTIPLY_SCALAR", input, value)
}

// DivideScalar computes feature / value for float features.
func DivideScalar(input *graph.Node, value any) (*graph.Node, error) {
	return newOp(kindDivide, "DIVIDE_SCALAR", input, value)
}

// GreaterScalar computes feature > value, producing bool features.
func GreaterScalar(input *graph.Node, value any) (*graph.Node, error) {
	return newOp(kindGreater, "GREATER_SCALAR", input, value)
}

// GreaterEqualScalar computes feature >= value.
func GreaterEqualScalar(input *graph.Node, value any) (*graph.Node, error) {
	return newOp(kindGreaterEqual, "GREATER_EQUAL_SCALAR", input, value)
}

// LessScalar computes feature < value.
func LessScalar(input *graph.Node, value any) (*graph.Node, error) {
	return newOp(kindLess, "LESS_SCALAR", input, value)
}

// LessEqualScalar computes feature <= value.
func LessEqualScalar(input *graph.Node, value any) (*graph.Node, error) {
	return newOp(kindLessEqual, "LESS_EQUAL_SCALAR", input, value)
}

// EqualScalar computes feature == value. Also supported for string and bool
// features with a scalar of the same type.
func EqualScalar(input *graph.Node, value any) (*graph.Node, error) {
	return newOp(kindEqual, "EQUAL_SCALAR", input, value)
}

// NotEqualScalar computes feature != value.
func NotEqualScalar(input *graph.Node, value any) (*graph.Node, error) {
	return newOp(kindNotEqual, "NOT_EQUAL_SCALAR", input, value)
}

type impl struct {
	op *Op
}

func (im impl) Run(ctx context.Context, inputs map[string]*series.EventSet) (map[string]*series.EventSet, error) {
	input := inputs["input"]
	out := series.FromSchema(im.op.Output("output").Schema())

	for _, key := range input.Keys() {
		data, _ := input.Get(key)
		cols := make([]series.Column, len(data.Columns))
		for i, col := range data.Columns {
			mapped, err := im.column(col)
			if err != nil {
				return nil, err
			}
			cols[i] = mapped
		}
		if err := out.Set(key, &series.IndexData{
			Index:      data.Index,
			Timestamps: data.Timestamps,
			Columns:    cols,
		}); err != nil {
			return nil, err
		}
	}
	return map[string]*series.EventSet{"output": out}, nil
}

func (im impl) column(col series.Column) (series.Column, error) {
	k := im.op.kind
	switch col.DType() {
	case series.Float64:
		scalar, _ := numericScalar(im.op.value)
		return applyNumeric(k, series.Data[float64](col), scalar), nil
	case series.Float32:
		scalar, _ := numericScalar(im.op.value)
		return applyNumeric(k, series.Data[float32](col), float32(scalar)), nil
	case series.Int64:
		scalar, _ := numericScalar(im.op.value)
		return applyNumeric(k, series.Data[int64](col), int64(scalar)), nil
	case series.Int32:
		scalar, _ := numericScalar(im.op.value)
		return applyNumeric(k, series.Data[int32](col), int32(scalar)), nil
	case series.String:
		return applyEquality(k, series.Data[string](col), im.op.value.(string)), nil
	case series.Bool:
		return applyEquality(k, series.Data[bool](col), im.op.value.(bool)), nil
	default:
		return series.Column{}, fmt.Errorf("%s: unsupported dtype %s", im.op.Key(), col.DType())
	}
}

// applyNumeric evaluates a numeric scalar operator over one column.
func applyNumeric[T series.Number](k kind, values []T, scalar T) series.Column {
	if k.isComparison() {
		out := make([]bool, len(values))
		for i, v := range values {
			switch k {
			case kindGreater:
				out[i] = v > scalar
			case kindGreaterEqual:
				out[i] = v >= scalar
			case kindLess:
				out[i] = v < scalar
			case kindLessEqual:
				out[i] = v <= scalar
			case kindEqual:
				out[i] = v == scalar
			case kindNotEqual:
				out[i] = v != scalar
			}
		}
		return series.NewColumn(out)
	}

	out := make([]T, len(values))
	for i, v := range values {
		switch k {
		case kindAdd:
			out[i] = v + scalar
		case kindSubtract:
			out[i] = v - scalar
		case kindMultiply:
			out[i] = v * scalar
		case kindDivide:
			out[i] = v / scalar
		}
	}
	return series.NewColumn(out)
}

// applyEquality handles string and bool columns, where only (in)equality is
// defined.
func applyEquality[T comparable](k kind, values []T, scalar T) series.Column {
	out := make([]bool, len(values))
	for i, v := range values {
		if k == kindEqual {
			out[i] = v == scalar
		} else {
			out[i] = v != scalar
		}
	}
	return series.NewColumn(out)
}
