package sampling

import (
	"context"
	"fmt"

	"github.com/vk/eventflow/graph"
	"github.com/vk/eventflow/series"
)

// PropagateOp duplicates its input's features over the finer index of a
// second node. The input's index levels must all appear in the sampling's
// index with the same dtype.
type PropagateOp struct {
	graph.Base
	// mapping[i] is the position in the sampling index of the input's i-th
	// index level.
	mapping []int
}

// Propagate builds a PROPAGATE operator node.
func Propagate(input, sampler *graph.Node) (*graph.Node, error) {
	in, sp := input.Schema(), sampler.Schema()

	mapping := make([]int, len(in.Indexes))
	for i, idx := range in.Indexes {
		pos := sp.IndexPos(idx.Name)
		if pos < 0 {
			return nil, fmt.Errorf("PROPAGATE: input index %q is not part of the sampling index %v", idx.Name, sp.Indexes)
		}
		if sp.Indexes[pos].DType != idx.DType {
			return nil, fmt.Errorf("PROPAGATE: index %q is %s in the input but %s in the sampling",
				idx.Name, idx.DType, sp.Indexes[pos].DType)
		}
		mapping[i] = pos
	}

	op := &PropagateOp{mapping: mapping}
	op.InitBase("PROPAGATE")
	op.AddInput("input", input)
	op.AddInput("sampling", sampler)
	outSchema, err := series.NewSchema(in.Features, sp.Indexes, in.IsUnixTimestamp)
	if err != nil {
		return nil, fmt.Errorf("PROPAGATE: %w", err)
	}
	return graph.NewOutput(&op.Base, op, "output", outSchema), nil
}

type propagateImpl struct {
	op *PropagateOp
}

func (im propagateImpl) Run(ctx context.Context, inputs map[string]*series.EventSet) (map[string]*series.EventSet, error) {
	input, sampler := inputs["input"], inputs["sampling"]
	out := series.FromSchema(im.op.Output("output").Schema())

	for _, key := range sampler.Keys() {
		samplingData, _ := sampler.Get(key)

		projected := make([]any, len(im.op.mapping))
		for i, pos := range im.op.mapping {
			projected[i] = samplingData.Index[pos]
		}
		inputKey, err := series.EncodeKey(projected)
		if err != nil {
			return nil, err
		}

		data := &series.IndexData{Index: samplingData.Index}
		if inputData, ok := input.Get(inputKey); ok {
			data.Timestamps = inputData.Timestamps
			data.Columns = inputData.Columns
		} else {
			// No matching input group; emit an empty group so the key still
			// exists downstream.
			data.Timestamps = nil
			data.Columns = make([]series.Column, len(input.Schema().Features))
			for i, f := range input.Schema().Features {
				data.Columns[i] = series.MissingColumn(f.DType, 0)
			}
		}
		if err := out.Set(key, data); err != nil {
			return nil, err
		}
	}
	return map[string]*series.EventSet{"output": out}, nil
}
