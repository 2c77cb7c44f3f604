package sampling

import (
	"context"
	"fmt"

	"github.com/vk/eventflow/graph"
	"github.com/vk/eventflow/series"
)

// LagOp shifts every event's timestamp by a fixed duration. A positive shift
// (lag) moves events into the future, making past values available at later
// timestamps; leak is the mirror image and moves events into the past.
type LagOp struct {
	graph.Base
	// shift in seconds; negative for leak.
	shift float64
}

func newShift(key string, input *graph.Node, duration float64, sign float64) (*graph.Node, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%s: duration must be positive, got %v", key, duration)
	}
	op := &LagOp{shift: sign * duration}
	op.InitBase(key)
	op.AddInput("input", input)
	in := input.Schema()
	outSchema, err := series.NewSchema(in.Features, in.Indexes, in.IsUnixTimestamp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return graph.NewOutput(&op.Base, op, "output", outSchema), nil
}

// Lag shifts events duration seconds into the future.
func Lag(input *graph.Node, duration float64) (*graph.Node, error) {
	return newShift("LAG", input, duration, 1)
}

// Leak shifts events duration seconds into the past. Useful to compute
// forward-looking labels; leaked nodes must not feed a production model.
func Leak(input *graph.Node, duration float64) (*graph.Node, error) {
	return newShift("LEAK", input, duration, -1)
}

type lagImpl struct {
	op *LagOp
}

func (im lagImpl) Run(ctx context.Context, inputs map[string]*series.EventSet) (map[string]*series.EventSet, error) {
	input := inputs["input"]
	out := series.FromSchema(im.op.Output("output").Schema())

	for _, key := range input.Keys() {
		data, _ := input.Get(key)
		ts := make([]float64, len(data.Timestamps))
		for i, t := range data.Timestamps {
			ts[i] = t + im.op.shift
		}
		if err := out.Set(key, &series.IndexData{
			Index:      data.Index,
			Timestamps: ts,
			Columns:    data.Columns,
		}); err != nil {
			return nil, err
		}
	}
	return map[string]*series.EventSet{"output": out}, nil
}
