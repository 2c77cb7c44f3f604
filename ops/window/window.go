package window

import (
	"context"
	"fmt"

	"github.com/vk/eventflow/graph"
	"github.com/vk/eventflow/series"
)

type kind int

const (
	kindSum kind = iota
	kindAverage
	kindMin
	kindMax
	kindCount
)

// Op is a moving-window operator over one input node.
type Op struct {
	graph.Base
	kind        kind
	window      float64
	hasSampling bool
}

// Window returns the window length in seconds.
func (o *Op) Window() float64 {
	return o.window
}

// Options holds the optional arguments shared by the window operators.
type Options struct {
	// Sampling, when set, supplies the output timestamps. Its index levels
	// must match the input's.
	Sampling *graph.Node
}

func newOp(k kind, key string, input *graph.Node, window float64, opts *Options) (*graph.Node, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%s: window must be positive, got %v", key, window)
	}
	in := input.Schema()

	var features []series.Feature
	switch k {
	case kindCount:
		features = []series.Feature{{Name: "count", DType: series.Int32}}
	default:
		for _, f := range in.Features {
			if !f.DType.IsNumeric() {
				return nil, fmt.Errorf("%s: feature %q has dtype %s; windows require numeric features", key, f.Name, f.DType)
			}
			if k == kindAverage && !f.DType.IsFloat() {
				return nil, fmt.Errorf("%s: feature %q has dtype %s; the average requires float features", key, f.Name, f.DType)
			}
			features = append(features, f)
		}
	}

	op := &Op{kind: k, window: window}
	op.InitBase(key)
	op.AddInput("input", input)
	if opts != nil && opts.Sampling != nil {
		if !opts.Sampling.Schema().SameIndex(in) {
			return nil, fmt.Errorf("%s: sampling index %v does not match input index %v",
				key, opts.Sampling.Schema().Indexes, in.Indexes)
		}
		op.AddInput("sampling", opts.Sampling)
		op.hasSampling = true
	}

	outSchema, err := series.NewSchema(features, in.Indexes, in.IsUnixTimestamp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return graph.NewOutput(&op.Base, op, "output", outSchema), nil
}

// MovingSum sums each numeric feature over the trailing window. An empty
// window yields zero.
func MovingSum(input *graph.Node, window float64, opts *Options) (*graph.Node, error) {
	return newOp(kindSum, "MOVING_SUM", input, window, opts)
}

// MovingAverage averages each float feature over the trailing window. An
// empty window yields NaN.
func MovingAverage(input *graph.Node, window float64, opts *Options) (*graph.Node, error) {
	return newOp(kindAverage, "MOVING_AVERAGE", input, window, opts)
}

// MovingMin takes the minimum of each numeric feature over the trailing
// window. An empty window yields the missing value of the dtype.
func MovingMin(input *graph.Node, window float64, opts *Options) (*graph.Node, error) {
	return newOp(kindMin, "MOVING_MIN", input, window, opts)
}

// MovingMax takes the maximum of each numeric feature over the trailing
// window. An empty window yields the missing value of the dtype.
func MovingMax(input *graph.Node, window float64, opts *Options) (*graph.Node, error) {
	return newOp(kindMax, "MOVING_MAX", input, window, opts)
}

// MovingCount emits a single int32 feature "count": the number of input
// events inside the trailing window.
func MovingCount(input *graph.Node, window float64, opts *Options) (*graph.Node, error) {
	return newOp(kindCount, "MOVING_COUNT", input, window, opts)
}

// impl computes a window operator over event data.
type impl struct {
	op *Op
}

func (im impl) Run(ctx context.Context, inputs map[string]*series.EventSet) (map[string]*series.EventSet, error) {
	input := inputs["input"]
	sampling := input
	if im.op.hasSampling {
		sampling = inputs["sampling"]
	}
	outSchema := im.op.Output("output").Schema()
	out := series.FromSchema(outSchema)

	for _, key := range sampling.Keys() {
		samplingData, _ := sampling.Get(key)
		outTs := samplingData.Timestamps

		var srcTs []float64
		var srcCols []series.Column
		if inputData, ok := input.Get(key); ok {
			srcTs = inputData.Timestamps
			srcCols = inputData.Columns
		} else {
			// Key only present in the sampling; treat the input as empty.
			srcCols = make([]series.Column, len(input.Schema().Features))
			for i, f := range input.Schema().Features {
				srcCols[i] = series.MissingColumn(f.DType, 0)
			}
		}

		cols, err := im.columns(srcTs, srcCols, outTs)
		if err != nil {
			return nil, err
		}
		if err := out.Set(key, &series.IndexData{
			Index:      samplingData.Index,
			Timestamps: outTs,
			Columns:    cols,
		}); err != nil {
			return nil, err
		}
	}
	return map[string]*series.EventSet{"output": out}, nil
}

func (im impl) columns(srcTs []float64, srcCols []series.Column, outTs []float64) ([]series.Column, error) {
	w := im.op.window
	if im.op.kind == kindCount {
		return []series.Column{series.NewColumn(movingCount(srcTs, outTs, w))}, nil
	}

	cols := make([]series.Column, len(srcCols))
	for i, col := range srcCols {
		k := im.op.kind
		switch col.DType() {
		case series.Float64:
			if k == kindAverage {
				cols[i] = series.NewColumn(movingAverage(srcTs, series.Data[float64](col), outTs, w))
			} else {
				cols[i] = series.NewColumn(runKind(k, srcTs, series.Data[float64](col), outTs, w))
			}
		case series.Float32:
			if k == kindAverage {
				cols[i] = series.NewColumn(movingAverage(srcTs, series.Data[float32](col), outTs, w))
			} else {
				cols[i] = series.NewColumn(runKind(k, srcTs, series.Data[float32](col), outTs, w))
			}
		case series.Int64:
			cols[i] = series.NewColumn(runKind(k, srcTs, series.Data[int64](col), outTs, w))
		case series.Int32:
			cols[i] = series.NewColumn(runKind(k, srcTs, series.Data[int32](col), outTs, w))
		default:
			return nil, fmt.Errorf("%s: unsupported dtype %s", im.op.Key(), col.DType())
		}
	}
	return cols, nil
}

// runKind dispatches the sum/min/max kernels; the average is float-only and
// dispatched separately.
func runKind[T series.Number](k kind, srcTs []float64, values []T, outTs []float64, window float64) []T {
	switch k {
	case kindSum:
		return movingSum(srcTs, values, outTs, window)
	case kindMin:
		return movingExtremum(srcTs, values, outTs, window, func(a, b T) bool { return a < b })
	case kindMax:
		return movingExtremum(srcTs, values, outTs, window, func(a, b T) bool { return a > b })
	default:
		panic("window: unreachable kind")
	}
}
