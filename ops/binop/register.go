package binop

import (
	"fmt"

	"github.com/vk/eventflow/engine"
	"github.com/vk/eventflow/graph"
)

type constructor func(left, right *graph.Node) (*graph.Node, error)

func register(key string, build constructor) {
	graph.Register(graph.Definition{
		Key:       key,
		MinInputs: 2,
		MaxInputs: 2,
		Build: func(inputs []*graph.Node, args graph.Attrs) (*graph.Node, error) {
			return build(inputs[0], inputs[1])
		},
	})
	engine.RegisterImplementation(key, func(op graph.Operator) (engine.Implementation, error) {
		bop, ok := op.(*Op)
		if !ok {
			return nil, fmt.Errorf("binop: expected *binop.Op for %q, got %T", key, op)
		}
		return impl{op: bop}, nil
	})
}

func init() {
	register("ADD", Add)
	register("SUBTRACT", Subtract)
	register("MULTIPLY", Multiply)
	register("DIVIDE", Divide)
	register("GREATER", Greater)
	register("LESS", Less)
	register("EQUAL", Equal)
}
