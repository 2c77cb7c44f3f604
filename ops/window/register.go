package window

import (
	"fmt"

	"github.com/vk/eventflow/engine"
	"github.com/vk/eventflow/graph"
)

type constructor func(input *graph.Node, window float64, opts *Options) (*graph.Node, error)

func register(key string, build constructor) {
	graph.Register(graph.Definition{
		Key:       key,
		MinInputs: 1,
		MaxInputs: 2,
		Build: func(inputs []*graph.Node, args graph.Attrs) (*graph.Node, error) {
			window, err := args.Seconds("window")
			if err != nil {
				return nil, err
			}
			var opts *Options
			if len(inputs) == 2 {
				opts = &Options{Sampling: inputs[1]}
			}
			return build(inputs[0], window, opts)
		},
	})
	engine.RegisterImplementation(key, func(op graph.Operator) (engine.Implementation, error) {
		wop, ok := op.(*Op)
		if !ok {
			return nil, fmt.Errorf("window: expected *window.Op for %q, got %T", key, op)
		}
		return impl{op: wop}, nil
	})
}

func init() {
	register("MOVING_SUM", MovingSum)
	register("MOVING_AVERAGE", MovingAverage)
	register("MOVING_MIN", MovingMin)
	register("MOVING_MAX", MovingMax)
	register("MOVING_COUNT", MovingCount)
}
