package feature

import (
	"fmt"

	"github.com/vk/eventflow/engine"
	"github.com/vk/eventflow/graph"
)

func init() {
	graph.Register(graph.Definition{
		Key:       "SELECT",
		MinInputs: 1,
		MaxInputs: 1,
		Build: func(inputs []*graph.Node, args graph.Attrs) (*graph.Node, error) {
			names, err := args.Strings("features")
			if err != nil {
				return nil, err
			}
			return Select(inputs[0], names...)
		},
	})
	engine.RegisterImplementation("SELECT", func(op graph.Operator) (engine.Implementation, error) {
		sop, ok := op.(*SelectOp)
		if !ok {
			return nil, fmt.Errorf("feature: expected *SelectOp, got %T", op)
		}
		return selectImpl{op: sop}, nil
	})

	graph.Register(graph.Definition{
		Key:       "RENAME",
		MinInputs: 1,
		MaxInputs: 1,
		Build: func(inputs []*graph.Node, args graph.Attrs) (*graph.Node, error) {
			from, err := args.Strings("from")
			if err != nil {
				return nil, err
			}
			to, err := args.Strings("to")
			if err != nil {
				return nil, err
			}
			if len(from) != len(to) {
				return nil, fmt.Errorf("from has %d names, to has %d", len(from), len(to))
			}
			mapping := make(map[string]string, len(from))
			for i := range from {
				mapping[from[i]] = to[i]
			}
			return Rename(inputs[0], mapping)
		},
	})
	engine.RegisterImplementation("RENAME", func(op graph.Operator) (engine.Implementation, error) {
		rop, ok := op.(*RenameOp)
		if !ok {
			return nil, fmt.Errorf("feature: expected *RenameOp, got %T", op)
		}
		return renameImpl{op: rop}, nil
	})

	graph.Register(graph.Definition{
		Key:       "GLUE",
		MinInputs: 2,
		MaxInputs: -1,
		Build: func(inputs []*graph.Node, args graph.Attrs) (*graph.Node, error) {
			return Glue(inputs...)
		},
	})
	engine.RegisterImplementation("GLUE", func(op graph.Operator) (engine.Implementation, error) {
		gop, ok := op.(*GlueOp)
		if !ok {
			return nil, fmt.Errorf("feature: expected *GlueOp, got %T", op)
		}
		return glueImpl{op: gop}, nil
	})
}
