package sampling

import (
	"context"
	"fmt"

	"github.com/vk/eventflow/graph"
	"github.com/vk/eventflow/series"
)

// ResampleOp re-samples its input at the timestamps of a second node: each
// output event carries the latest input value at or before its timestamp,
// or the missing value if no input event precedes it.
type ResampleOp struct {
	graph.Base
}

// Resample builds a RESAMPLE operator node.
func Resample(input, sampler *graph.Node) (*graph.Node, error) {
	in, sp := input.Schema(), sampler.Schema()
	if !in.SameIndex(sp) {
		return nil, fmt.Errorf("RESAMPLE: input index %v does not match sampling index %v", in.Indexes, sp.Indexes)
	}

	op := &ResampleOp{}
	op.InitBase("RESAMPLE")
	op.AddInput("input", input)
	op.AddInput("sampling", sampler)
	outSchema, err := series.NewSchema(in.Features, sp.Indexes, sp.IsUnixTimestamp)
	if err != nil {
		return nil, fmt.Errorf("RESAMPLE: %w", err)
	}
	return graph.NewOutput(&op.Base, op, "output", outSchema), nil
}

type resampleImpl struct {
	op *ResampleOp
}

func (im resampleImpl) Run(ctx context.Context, inputs map[string]*series.EventSet) (map[string]*series.EventSet, error) {
	input, sampler := inputs["input"], inputs["sampling"]
	out := series.FromSchema(im.op.Output("output").Schema())

	for _, key := range sampler.Keys() {
		samplingData, _ := sampler.Get(key)
		outTs := samplingData.Timestamps

		// positions[i] is the index of the latest input event at or before
		// outTs[i], or -1.
		positions := make([]int, len(outTs))
		var srcTs []float64
		var srcCols []series.Column
		if inputData, ok := input.Get(key); ok {
			srcTs = inputData.Timestamps
			srcCols = inputData.Columns
		}
		pos := 0
		for i, t := range outTs {
			for pos < len(srcTs) && srcTs[pos] <= t {
				pos++
			}
			positions[i] = pos - 1
		}

		cols := make([]series.Column, len(input.Schema().Features))
		for i, f := range input.Schema().Features {
			if srcCols == nil {
				cols[i] = series.MissingColumn(f.DType, len(outTs))
				continue
			}
			cols[i] = gatherOrMissing(srcCols[i], positions)
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

// gatherOrMissing gathers values at the given positions, emitting the dtype's
// missing value for position -1.
func gatherOrMissing(col series.Column, positions []int) series.Column {
	switch col.DType() {
	case series.Float64:
		return series.NewColumn(pick(series.Data[float64](col), positions))
	case series.Float32:
		return series.NewColumn(pick(series.Data[float32](col), positions))
	case series.Int64:
		return series.NewColumn(pick(series.Data[int64](col), positions))
	case series.Int32:
		return series.NewColumn(pick(series.Data[int32](col), positions))
	case series.String:
		return series.NewColumn(pick(series.Data[string](col), positions))
	case series.Bool:
		return series.NewColumn(pick(series.Data[bool](col), positions))
	default:
		panic("sampling: invalid column")
	}
}

func pick[T series.Value](values []T, positions []int) []T {
	out := make([]T, len(positions))
	for i, p := range positions {
		if p < 0 {
			out[i] = series.Missing[T]()
		} else {
			out[i] = values[p]
		}
	}
	return out
}
