package engine

import (
	"context"
	"fmt"
	"runtime"

	"github.com/google/uuid"

	"github.com/vk/eventflow/graph"
	"github.com/vk/eventflow/internal/ctxlog"
	"github.com/vk/eventflow/series"
)

// Options configures a single evaluation run.
type Options struct {
	// Workers is the size of the executor's worker pool.
	// Zero means runtime.NumCPU().
	Workers int
}

// Evaluate computes the requested output nodes from the provided input event
// sets. Every provided event set must match its node's schema, and every
// produced event set is checked against its node's schema before being
// propagated.
func Evaluate(ctx context.Context, outputs []*graph.Node, inputs map[*graph.Node]*series.EventSet, opts Options) (map[*graph.Node]*series.EventSet, error) {
	logger := ctxlog.FromContext(ctx).With("runID", uuid.NewString())
	ctx = ctxlog.WithLogger(ctx, logger)

	provided := make(map[*graph.Node]bool, len(inputs))
	for node, es := range inputs {
		if !es.Schema().Equal(node.Schema()) {
			return nil, fmt.Errorf("input event set schema [%s] does not match node schema [%s]", es.Schema(), node.Schema())
		}
		provided[node] = true
	}

	order, err := graph.Schedule(outputs, provided)
	if err != nil {
		return nil, fmt.Errorf("scheduling graph: %w", err)
	}
	logger.Debug("Graph scheduled.", "steps", len(order))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(order) && len(order) > 0 {
		workers = len(order)
	}

	exec, err := newExecutor(order, inputs, workers)
	if err != nil {
		return nil, err
	}
	if err := exec.run(ctx); err != nil {
		return nil, err
	}

	results := make(map[*graph.Node]*series.EventSet, len(outputs))
	for _, node := range outputs {
		es, ok := exec.value(node)
		if !ok {
			return nil, fmt.Errorf("output node was not produced")
		}
		results[node] = es
	}
	logger.Debug("Evaluation complete.", "outputs", len(results))
	return results, nil
}

// EvaluateOne is a convenience wrapper for graphs with a single output.
func EvaluateOne(ctx context.Context, output *graph.Node, inputs map[*graph.Node]*series.EventSet, opts Options) (*series.EventSet, error) {
	results, err := Evaluate(ctx, []*graph.Node{output}, inputs, opts)
	if err != nil {
		return nil, err
	}
	return results[output], nil
}
