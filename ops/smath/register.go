package smath

import (
	"fmt"

	"github.com/vk/eventflow/engine"
	"github.com/vk/eventflow/graph"
)

type constructor func(input *graph.Node, value any) (*graph.Node, error)

func register(key string, build constructor) {
	graph.Register(graph.Definition{
		Key:       key,
		MinInputs: 1,
		MaxInputs: 1,
		Build: func(inputs []*graph.Node, args graph.Attrs) (*graph.Node, error) {
			value, ok := args["value"]
			if !ok {
				return nil, fmt.Errorf("missing argument %q", "value")
			}
			return build(inputs[0], value)
		},
	})
	engine.RegisterImplementation(key, func(op graph.Operator) (engine.Implementation, error) {
		sop, ok := op.(*Op)
		if !ok {
			return nil, fmt.Errorf("smath: expected *smath.Op for %q, got %T", key, op)
		}
		return impl{op: sop}, nil
	})
}

func init() {
	register("ADD_SCALAR", AddScalar)
	register("SUBTRACT_SCALAR", SubtractScalar)
	register("MULTIPLY_SCALAR", MultiplyScalar)
	register("DIVIDE_SCALAR", DivideScalar)
	register("GREATER_SCALAR", GreaterScalar)
	register("GREATER_EQUAL_SCALAR", GreaterEqualScalar)
	register("LESS_SCALAR", LessScalar)
	register("LESS_EQUAL_SCALAR", LessEqualScalar)
	register("EQUAL_SCALAR", EqualScalar)
	register("NOT_EQUAL_SCALAR", NotEqualScalar)
}
