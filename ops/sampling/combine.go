package sampling

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/eventflow/graph"
	"github.com/vk/eventflow/series"
)

// How selects which index keys survive a combine.
type How string

const (
	// HowLeft keeps the keys of the first input.
	HowLeft How = "left"
	// HowOuter keeps the union of all keys.
	HowOuter How = "outer"
	// HowInner keeps the intersection of all keys.
	HowInner How = "inner"
)

// CombineOp unions the events of two or more inputs with the same features
// and index levels, merging each key's events in timestamp order.
type CombineOp struct {
	graph.Base
	how How
	// remap[i][j] is the position in input i's schema of the first input's
	// j-th feature, so inputs may list the same features in any order.
	remap [][]int
}

// Combine builds a COMBINE operator node over the given inputs.
func Combine(how How, inputs ...*graph.Node) (*graph.Node, error) {
	switch how {
	case HowLeft, HowOuter, HowInner:
	default:
		return nil, fmt.Errorf("COMBINE: unknown how %q", how)
	}
	if len(inputs) < 2 {
		return nil, fmt.Errorf("COMBINE: needs at least two inputs, got %d", len(inputs))
	}

	first := inputs[0].Schema()
	remap := make([][]int, len(inputs))
	for i, input := range inputs {
		s := input.Schema()
		if !s.SameIndex(first) {
			return nil, fmt.Errorf("COMBINE: input %d index %v does not match %v", i, s.Indexes, first.Indexes)
		}
		if s.IsUnixTimestamp != first.IsUnixTimestamp {
			return nil, fmt.Errorf("COMBINE: input %d disagrees on unix timestamp semantics", i)
		}
		if len(s.Features) != len(first.Features) {
			return nil, fmt.Errorf("COMBINE: input %d has %d features, expected %d", i, len(s.Features), len(first.Features))
		}
		remap[i] = make([]int, len(first.Features))
		for j, f := range first.Features {
			pos := s.FeaturePos(f.Name)
			if pos < 0 {
				return nil, fmt.Errorf("COMBINE: input %d is missing feature %q", i, f.Name)
			}
			if s.Features[pos].DType != f.DType {
				return nil, fmt.Errorf("COMBINE: feature %q is %s in input %d, expected %s",
					f.Name, s.Features[pos].DType, i, f.DType)
			}
			remap[i][j] = pos
		}
	}

	op := &CombineOp{how: how, remap: remap}
	op.InitBase("COMBINE")
	for i, input := range inputs {
		op.AddInput(fmt.Sprintf("input_%d", i), input)
	}
	outSchema, err := series.NewSchema(first.Features, first.Indexes, first.IsUnixTimestamp)
	if err != nil {
		return nil, fmt.Errorf("COMBINE: %w", err)
	}
	return graph.NewOutput(&op.Base, op, "output", outSchema), nil
}

type combineImpl struct {
	op *CombineOp
}

func (im combineImpl) Run(ctx context.Context, inputs map[string]*series.EventSet) (map[string]*series.EventSet, error) {
	ports := im.op.Inputs()
	sets := make([]*series.EventSet, len(ports))
	for i, p := range ports {
		sets[i] = inputs[p.Name]
	}
	out := series.FromSchema(im.op.Output("output").Schema())

	for _, key := range im.combinedKeys(sets) {
		var ts []float64
		features := im.op.Output("output").Schema().Features
		parts := make([][]series.Column, len(features))
		var index []any

		for i, es := range sets {
			data, ok := es.Get(key)
			if !ok {
				continue
			}
			if index == nil {
				index = data.Index
			}
			ts = append(ts, data.Timestamps...)
			for j := range features {
				parts[j] = append(parts[j], data.Columns[im.op.remap[i][j]])
			}
		}

		// Stable sort keeps input order for equal timestamps.
		order := make([]int, len(ts))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return ts[order[a]] < ts[order[b]] })

		sortedTs := make([]float64, len(ts))
		for i, p := range order {
			sortedTs[i] = ts[p]
		}
		cols := make([]series.Column, len(features))
		for j, part := range parts {
			col := part[0]
			for _, more := range part[1:] {
				var err error
				if col, err = col.Concat(more); err != nil {
					return nil, err
				}
			}
			cols[j] = col.Gather(order)
		}
		if err := out.Set(key, &series.IndexData{Index: index, Timestamps: sortedTs, Columns: cols}); err != nil {
			return nil, err
		}
	}
	return map[string]*series.EventSet{"output": out}, nil
}

// combinedKeys applies the how policy over the inputs' key sets.
func (im combineImpl) combinedKeys(sets []*series.EventSet) []series.Key {
	switch im.op.how {
	case HowLeft:
		return sets[0].Keys()
	case HowInner:
		var keys []series.Key
		for _, key := range sets[0].Keys() {
			inAll := true
			for _, es := range sets[1:] {
				if _, ok := es.Get(key); !ok {
					inAll = false
					break
				}
			}
			if inAll {
				keys = append(keys, key)
			}
		}
		return keys
	default: // HowOuter
		seen := make(map[series.Key]bool)
		var keys []series.Key
		for _, es := range sets {
			for _, key := range es.Keys() {
				if !seen[key] {
					seen[key] = true
					keys = append(keys, key)
				}
			}
		}
		return keys
	}
}
