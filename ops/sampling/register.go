package sampling

import (
	"fmt"

	"github.com/vk/eventflow/engine"
	"github.com/vk/eventflow/graph"
)

func init() {
	graph.Register(graph.Definition{
		Key:       "RESAMPLE",
		MinInputs: 2,
		MaxInputs: 2,
		Build: func(inputs []*graph.Node, args graph.Attrs) (*graph.Node, error) {
			return Resample(inputs[0], inputs[1])
		},
	})
	engine.RegisterImplementation("RESAMPLE", func(op graph.Operator) (engine.Implementation, error) {
		rop, ok := op.(*ResampleOp)
		if !ok {
			return nil, fmt.Errorf("sampling: expected *ResampleOp, got %T", op)
		}
		return resampleImpl{op: rop}, nil
	})

	graph.Register(graph.Definition{
		Key:       "PROPAGATE",
		MinInputs: 2,
		MaxInputs: 2,
		Build: func(inputs []*graph.Node, args graph.Attrs) (*graph.Node, error) {
			return Propagate(inputs[0], inputs[1])
		},
	})
	engine.RegisterImplementation("PROPAGATE", func(op graph.Operator) (engine.Implementation, error) {
		pop, ok := op.(*PropagateOp)
		if !ok {
			return nil, fmt.Errorf("sampling: expected *PropagateOp, got %T", op)
		}
		return propagateImpl{op: pop}, nil
	})

	graph.Register(graph.Definition{
		Key:       "COMBINE",
		MinInputs: 2,
		MaxInputs: -1,
		Build: func(inputs []*graph.Node, args graph.Attrs) (*graph.Node, error) {
			how := HowOuter
			if s, err := args.String("how"); err == nil {
				how = How(s)
			}
			return Combine(how, inputs...)
		},
	})
	engine.RegisterImplementation("COMBINE", func(op graph.Operator) (engine.Implementation, error) {
		cop, ok := op.(*CombineOp)
		if !ok {
			return nil, fmt.Errorf("sampling: expected *CombineOp, got %T", op)
		}
		return combineImpl{op: cop}, nil
	})

	for _, key := range []string{"LAG", "LEAK"} {
		key := key
		graph.Register(graph.Definition{
			Key:       key,
			MinInputs: 1,
			MaxInputs: 1,
			Build: func(inputs []*graph.Node, args graph.Attrs) (*graph.Node, error) {
				duration, err := args.Seconds("duration")
				if err != nil {
					return nil, err
				}
				if key == "LAG" {
					return Lag(inputs[0], duration)
				}
				return Leak(inputs[0], duration)
			},
		})
		engine.RegisterImplementation(key, func(op graph.Operator) (engine.Implementation, error) {
			lop, ok := op.(*LagOp)
			if !ok {
				return nil, fmt.Errorf("sampling: expected *LagOp, got %T", op)
			}
			return lagImpl{op: lop}, nil
		})
	}
}
