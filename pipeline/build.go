package pipeline

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/eventflow/graph"
	"github.com/vk/eventflow/internal/ctxlog"
)

// Build wires the transforms into an operator graph. sourceNodes maps source
// names to already-created input nodes; the returned map adds one node per
// transform.
func (p *Pipeline) Build(ctx context.Context, sourceNodes map[string]*graph.Node) (map[string]*graph.Node, error) {
	logger := ctxlog.FromContext(ctx)

	nodes := make(map[string]*graph.Node, len(sourceNodes)+len(p.Transforms))
	for name := range p.Sources {
		node, ok := sourceNodes[name]
		if !ok {
			return nil, fmt.Errorf("no node for source %q", name)
		}
		nodes[name] = node
	}

	order, err := p.transformOrder()
	if err != nil {
		return nil, err
	}

	for _, t := range order {
		def, ok := graph.Lookup(t.Op)
		if !ok {
			return nil, fmt.Errorf("transform %q: unknown operator %q (known: %v)", t.Name, t.Op, graph.Keys())
		}
		inputNames, err := t.inputNames()
		if err != nil {
			return nil, err
		}
		if len(inputNames) < def.MinInputs || (def.MaxInputs >= 0 && len(inputNames) > def.MaxInputs) {
			return nil, fmt.Errorf("transform %q: operator %q takes %d to %d inputs, got %d",
				t.Name, t.Op, def.MinInputs, def.MaxInputs, len(inputNames))
		}
		inputs := make([]*graph.Node, len(inputNames))
		for i, name := range inputNames {
			inputs[i] = nodes[name]
		}
		args, err := decodeArgs(t.Args)
		if err != nil {
			return nil, fmt.Errorf("transform %q: %w", t.Name, err)
		}
		node, err := def.Build(inputs, args)
		if err != nil {
			return nil, fmt.Errorf("transform %q: %w", t.Name, err)
		}
		nodes[t.Name] = node
		logger.Debug("Built transform.", "name", t.Name, "op", t.Op)
	}
	return nodes, nil
}

// transformOrder sorts transforms so that inputs come first, using the
// classic three-color depth-first walk to reject reference cycles.
func (p *Pipeline) transformOrder() ([]*Transform, error) {
	byName := make(map[string]*Transform, len(p.Transforms))
	for _, t := range p.Transforms {
		byName[t.Name] = t
	}

	permanent := make(map[string]bool)
	temporary := make(map[string]bool)
	var order []*Transform

	var visit func(t *Transform) error
	visit = func(t *Transform) error {
		if permanent[t.Name] {
			return nil
		}
		if temporary[t.Name] {
			return fmt.Errorf("cycle detected involving transform %q", t.Name)
		}
		temporary[t.Name] = true
		inputs, err := t.inputNames()
		if err != nil {
			return err
		}
		for _, name := range inputs {
			if dep, ok := byName[name]; ok {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		delete(temporary, t.Name)
		permanent[t.Name] = true
		order = append(order, t)
		return nil
	}

	for _, t := range p.Transforms {
		if err := visit(t); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// decodeArgs flattens an args block's attributes into graph.Attrs.
func decodeArgs(block *ArgsBlock) (graph.Attrs, error) {
	args := make(graph.Attrs)
	if block == nil {
		return args, nil
	}
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("decoding args: %s", diags.Error())
	}
	for name, attr := range attrs {
		value, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("evaluating argument %q: %s", name, diags.Error())
		}
		decoded, err := decodeValue(value)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		args[name] = decoded
	}
	return args, nil
}

// decodeValue lowers a cty value to the plain Go values graph.Attrs carries.
func decodeValue(v cty.Value) (any, error) {
	t := v.Type()
	switch {
	case t == cty.String:
		return v.AsString(), nil
	case t == cty.Bool:
		return v.True(), nil
	case t == cty.Number:
		f := v.AsBigFloat()
		if i, acc := f.Int64(); acc == 0 { // big.Exact
			return i, nil
		}
		x, _ := f.Float64()
		return x, nil
	case t.IsTupleType() || t.IsListType():
		var out []string
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			if elem.Type() != cty.String {
				return nil, fmt.Errorf("list elements must be strings, got %s", elem.Type().FriendlyName())
			}
			out = append(out, elem.AsString())
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported argument type %s", t.FriendlyName())
	}
}
