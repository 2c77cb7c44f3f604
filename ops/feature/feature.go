// Package feature implements the feature-plumbing operators: select, rename
// and glue. They rearrange columns without touching values or timestamps.
package feature

import (
	"context"
	"fmt"
	"slices"

	"github.com/vk/eventflow/graph"
	"github.com/vk/eventflow/series"
)

// SelectOp keeps a subset of its input's features, in the requested order.
type SelectOp struct {
	graph.Base
	positions []int
}

// Select builds a SELECT operator node keeping the named features.
func Select(input *graph.Node, names ...string) (*graph.Node, error) {
	in := input.Schema()
	if len(names) == 0 {
		return nil, fmt.Errorf("SELECT: no features named")
	}
	positions := make([]int, len(names))
	features := make([]series.Feature, len(names))
	for i, name := range names {
		pos := in.FeaturePos(name)
		if pos < 0 {
			return nil, fmt.Errorf("SELECT: unknown feature %q; input has %v", name, in.FeatureNames())
		}
		positions[i] = pos
		features[i] = in.Features[pos]
	}

	op := &SelectOp{positions: positions}
	op.InitBase("SELECT")
	op.AddInput("input", input)
	outSchema, err := series.NewSchema(features, in.Indexes, in.IsUnixTimestamp)
	if err != nil {
		return nil, fmt.Errorf("SELECT: %w", err)
	}
	return graph.NewOutput(&op.Base, op, "output", outSchema), nil
}

type selectImpl struct {
	op *SelectOp
}

func (im selectImpl) Run(ctx context.Context, inputs map[string]*series.EventSet) (map[string]*series.EventSet, error) {
	input := inputs["input"]
	out := series.FromSchema(im.op.Output("output").Schema())
	for _, key := range input.Keys() {
		data, _ := input.Get(key)
		cols := make([]series.Column, len(im.op.positions))
		for i, pos := range im.op.positions {
			cols[i] = data.Columns[pos]
		}
		if err := out.Set(key, &series.IndexData{
			Index:      data.Index,
			Timestamps: data.Timestamps,
			Columns:    cols,
		}); err != nil {
			return nil, err
		}
	}
	return map[string]*series.EventSet{"output": out}, nil
}

// RenameOp renames features. Data is passed through untouched.
type RenameOp struct {
	graph.Base
}

// Rename builds a RENAME operator node applying old-name to new-name.
func Rename(input *graph.Node, mapping map[string]string) (*graph.Node, error) {
	in := input.Schema()
	if len(mapping) == 0 {
		return nil, fmt.Errorf("RENAME: empty mapping")
	}
	for old := range mapping {
		if in.FeaturePos(old) < 0 {
			return nil, fmt.Errorf("RENAME: unknown feature %q; input has %v", old, in.FeatureNames())
		}
	}
	features := make([]series.Feature, len(in.Features))
	for i, f := range in.Features {
		if renamed, ok := mapping[f.Name]; ok {
			f.Name = renamed
		}
		features[i] = f
	}

	op := &RenameOp{}
	op.InitBase("RENAME")
	op.AddInput("input", input)
	outSchema, err := series.NewSchema(features, in.Indexes, in.IsUnixTimestamp)
	if err != nil {
		return nil, fmt.Errorf("RENAME: %w", err)
	}
	return graph.NewOutput(&op.Base, op, "output", outSchema), nil
}

type renameImpl struct {
	op *RenameOp
}

func (im renameImpl) Run(ctx context.Context, inputs map[string]*series.EventSet) (map[string]*series.EventSet, error) {
	input := inputs["input"]
	out := series.FromSchema(im.op.Output("output").Schema())
	for _, key := range input.Keys() {
		data, _ := input.Get(key)
		if err := out.Set(key, &series.IndexData{
			Index:      data.Index,
			Timestamps: data.Timestamps,
			Columns:    data.Columns,
		}); err != nil {
			return nil, err
		}
	}
	return map[string]*series.EventSet{"output": out}, nil
}

// GlueOp horizontally concatenates the features of two or more inputs with
// the same sampling.
type GlueOp struct {
	graph.Base
}

// Glue builds a GLUE operator node over the given inputs.
func Glue(inputs ...*graph.Node) (*graph.Node, error) {
	if len(inputs) < 2 {
		return nil, fmt.Errorf("GLUE: needs at least two inputs, got %d", len(inputs))
	}
	first := inputs[0].Schema()
	var features []series.Feature
	seen := make(map[string]bool)
	for i, input := range inputs {
		s := input.Schema()
		if !s.SameIndex(first) {
			return nil, fmt.Errorf("GLUE: input %d index %v does not match %v", i, s.Indexes, first.Indexes)
		}
		for _, f := range s.Features {
			if seen[f.Name] {
				return nil, fmt.Errorf("GLUE: duplicate feature %q", f.Name)
			}
			seen[f.Name] = true
			features = append(features, f)
		}
	}

	op := &GlueOp{}
	op.InitBase("GLUE")
	for i, input := range inputs {
		op.AddInput(fmt.Sprintf("input_%d", i), input)
	}
	outSchema, err := series.NewSchema(features, first.Indexes, first.IsUnixTimestamp)
	if err != nil {
		return nil, fmt.Errorf("GLUE: %w", err)
	}
	return graph.NewOutput(&op.Base, op, "output", outSchema), nil
}

type glueImpl struct {
	op *GlueOp
}

func (im glueImpl) Run(ctx context.Context, inputs map[string]*series.EventSet) (map[string]*series.EventSet, error) {
	ports := im.op.Inputs()
	first := inputs[ports[0].Name]
	out := series.FromSchema(im.op.Output("output").Schema())

	for _, p := range ports[1:] {
		if n := inputs[p.Name].NumKeys(); n != first.NumKeys() {
			return nil, fmt.Errorf("inputs do not share a sampling: %d keys in %s vs %d keys in %s",
				first.NumKeys(), ports[0].Name, n, p.Name)
		}
	}

	for _, key := range first.Keys() {
		firstData, _ := first.Get(key)
		var cols []series.Column
		for _, p := range ports {
			data, ok := inputs[p.Name].Get(key)
			if !ok {
				return nil, fmt.Errorf("inputs do not share a sampling: key %v missing in %s", firstData.Index, p.Name)
			}
			if !slices.Equal(data.Timestamps, firstData.Timestamps) {
				return nil, fmt.Errorf("inputs do not share a sampling: timestamps differ for key %v", firstData.Index)
			}
			cols = append(cols, data.Columns...)
		}
		if err := out.Set(key, &series.IndexData{
			Index:      firstData.Index,
			Timestamps: firstData.Timestamps,
			Columns:    cols,
		}); err != nil {
			return nil, err
		}
	}
	return map[string]*series.EventSet{"output": out}, nil
}
