// Package binop implements the two-event arithmetic and comparison
// operators. Both inputs must share the same sampling: identical index
// levels, and identical timestamps per key at run time.
package binop

import (
	"context"
	"fmt"
	"slices"

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
	kindLess
	kindEqual
)

var verbs = map[kind]string{
	kindAdd:      "add",
	kindSubtract: "sub",
	kindMultiply: "mult",
	kindDivide:   "div",
	kindGreater:  "gt",
	kindLess:     "lt",
	kindEqual:    "eq",
}

func (k kind) isComparison() bool {
	return k >= kindGreater
}

// Op combines two inputs feature by feature.
type Op struct {
	graph.Base
	kind kind
}

func newOp(k kind, key string, left, right *graph.Node) (*graph.Node, error) {
	ls, rs := left.Schema(), right.Schema()
	if !ls.SameIndex(rs) {
		return nil, fmt.Errorf("%s: left index %v does not match right index %v", key, ls.Indexes, rs.Indexes)
	}
	if len(ls.Features) != len(rs.Features) {
		return nil, fmt.Errorf("%s: left has %d features, right has %d", key, len(ls.Features), len(rs.Features))
	}

	features := make([]series.Feature, len(ls.Features))
	for i := range ls.Features {
		lf, rf := ls.Features[i], rs.Features[i]
		if lf.DType != rf.DType {
			return nil, fmt.Errorf("%s: features %q (%s) and %q (%s) have different dtypes",
				key, lf.Name, lf.DType, rf.Name, rf.DType)
		}
		if !lf.DType.IsNumeric() {
			return nil, fmt.Errorf("%s: feature %q has dtype %s; numeric features required", key, lf.Name, lf.DType)
		}
		if k == kindDivide && !lf.DType.IsFloat() {
			return nil, fmt.Errorf("%s: feature %q is %s; division requires float features", key, lf.Name, lf.DType)
		}
		dtype := lf.DType
		if k.isComparison() {
			dtype = series.Bool
		}
		features[i] = series.Feature{Name: lf.Name + "_" + verbs[k] + "_" + rf.Name, DType: dtype}
	}

	op := &Op{kind: k}
	op.InitBase(key)
	op.AddInput("left", left)
	op.AddInput("right", right)
	outSchema, err := series.NewSchema(features, ls.Indexes, ls.IsUnixTimestamp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return graph.NewOutput(&op.Base, op, "output", outSchema), nil
}

// Add computes left + right feature by feature.
func Add(left, right *graph.Node) (*graph.Node, error) {
	return newOp(kindAdd, "ADD", left, right)
}

// Subtract computes left - right.
func Subtract(left, right *graph.Node) (*graph.Node, error) {
	return newOp(kindSubtract, "SUBTRACT", left, right)
}

// Multiply computes left * right.
func Multiply(left, right *graph.Node) (*graph.Node, error) {
	return newOp(kindMultiply, "MULTIPLY", left, right)
}

// Divide computes left / right for float features.
func Divide(left, right *graph.Node) (*graph.Node, error) {
	return newOp(kindDivide, "DIVIDE", left, right)
}

// Greater computes left > right, producing bool features.
func Greater(left, right *graph.Node) (*graph.Node, error) {
	return newOp(kindGreater, "GREATER", left, right)
}

// Less computes left < right, producing bool features.
func Less(left, right *graph.Node) (*graph.Node, error) {
	return newOp(kindLess, "LESS", left, right)
}

// Equal computes left == right, producing bool features.
func Equal(left, right *graph.Node) (*graph.Node, error) {
	return newOp(kindEqual, "EQUAL", left, right)
}

type impl struct {
	op *Op
}

func (im impl) Run(ctx context.Context, inputs map[string]*series.EventSet) (map[string]*series.EventSet, error) {
	left, right := inputs["left"], inputs["right"]
	if left.NumKeys() != right.NumKeys() {
		return nil, fmt.Errorf("inputs do not share a sampling: %d keys vs %d keys", left.NumKeys(), right.NumKeys())
	}
	out := series.FromSchema(im.op.Output("output").Schema())

	for _, key := range left.Keys() {
		ld, _ := left.Get(key)
		rd, ok := right.Get(key)
		if !ok {
			return nil, fmt.Errorf("inputs do not share a sampling: key %v missing on the right", ld.Index)
		}
		if !slices.Equal(ld.Timestamps, rd.Timestamps) {
			return nil, fmt.Errorf("inputs do not share a sampling: timestamps differ for key %v", ld.Index)
		}
		cols := make([]series.Column, len(ld.Columns))
		for i := range ld.Columns {
			col, err := im.column(ld.Columns[i], rd.Columns[i])
			if err != nil {
				return nil, err
			}
			cols[i] = col
		}
		if err := out.Set(key, &series.IndexData{
			Index:      ld.Index,
			Timestamps: ld.Timestamps,
			Columns:    cols,
		}); err != nil {
			return nil, err
		}
	}
	return map[string]*series.EventSet{"output": out}, nil
}

func (im impl) column(left, right series.Column) (series.Column, error) {
	switch left.DType() {
	case series.Float64:
		return apply(im.op.kind, series.Data[float64](left), series.Data[float64](right)), nil
	case series.Float32:
		return apply(im.op.kind, series.Data[float32](left), series.Data[float32](right)), nil
	case series.Int64:
		return apply(im.op.kind, series.Data[int64](left), series.Data[int64](right)), nil
	case series.Int32:
		return apply(im.op.kind, series.Data[int32](left), series.Data[int32](right)), nil
	default:
		return series.Column{}, fmt.Errorf("%s: unsupported dtype %s", im.op.Key(), left.DType())
	}
}

func apply[T series.Number](k kind, left, right []T) series.Column {
	if k.isComparison() {
		out := make([]bool, len(left))
		for i := range left {
			switch k {
			case kindGreater:
				out[i] = left[i] > right[i]
			case kindLess:
				out[i] = left[i] < right[i]
			case kindEqual:
				out[i] = left[i] == right[i]
			}
		}
		return series.NewColumn(out)
	}

	out := make([]T, len(left))
	for i := range left {
		switch k {
		case kindAdd:
			out[i] = left[i] + right[i]
		case kindSubtract:
			out[i] = left[i] - right[i]
		case kindMultiply:
			out[i] = left[i] * right[i]
		case kindDivide:
			out[i] = left[i] / right[i]
		}
	}
	return series.NewColumn(out)
}
