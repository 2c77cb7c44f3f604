package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vk/eventflow/graph"
	"github.com/vk/eventflow/internal/ctxlog"
	"github.com/vk/eventflow/series"
)

// step states, stored in an atomic for cross-worker visibility.
const (
	statePending int32 = iota
	stateRunning
	stateDone
	stateFailed
)

// step is one operator instance scheduled for execution.
type step struct {
	op   graph.Operator
	impl Implementation

	deps       []*step
	dependents []*step
	depCount   atomic.Int32
	state      atomic.Int32
	err        error
	skipOnce   sync.Once
}

// executor runs scheduled steps on a pool of workers.
type executor struct {
	steps   []*step
	workers int

	mu     sync.RWMutex
	values map[*graph.Node]*series.EventSet

	wg sync.WaitGroup
}

// newExecutor resolves implementations, links step dependencies and seeds the
// value store with the provided inputs.
func newExecutor(order []graph.Operator, inputs map[*graph.Node]*series.EventSet, workers int) (*executor, error) {
	exec := &executor{
		workers: workers,
		values:  make(map[*graph.Node]*series.EventSet, len(inputs)),
	}
	for node, es := range inputs {
		exec.values[node] = es
	}

	producer := make(map[*graph.Node]*step, len(order))
	for _, op := range order {
		impl, err := implementationFor(op)
		if err != nil {
			return nil, err
		}
		st := &step{op: op, impl: impl}
		exec.steps = append(exec.steps, st)
		for _, out := range op.Outputs() {
			producer[out.Node] = st
		}
	}

	for _, st := range exec.steps {
		seen := make(map[*step]bool)
		for _, in := range st.op.Inputs() {
			dep, ok := producer[in.Node]
			if !ok || dep == st || seen[dep] {
				continue
			}
			seen[dep] = true
			st.deps = append(st.deps, dep)
			dep.dependents = append(dep.dependents, st)
		}
		st.depCount.Store(int32(len(st.deps)))
	}
	return exec, nil
}

// value returns the event set produced for a node, if any.
func (e *executor) value(node *graph.Node) (*series.EventSet, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	es, ok := e.values[node]
	return es, ok
}

// run executes all steps and returns the root-cause error of a failed run.
func (e *executor) run(ctx context.Context) error {
	if len(e.steps) == 0 {
		return nil
	}
	logger := ctxlog.FromContext(ctx)

	readyChan := make(chan *step, len(e.steps))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	roots := 0
	for _, st := range e.steps {
		if st.depCount.Load() == 0 {
			readyChan <- st
			roots++
		}
	}
	logger.Debug("Executor starting.", "steps", len(e.steps), "roots", roots, "workers", e.workers)

	e.wg.Add(len(e.steps))
	for i := 0; i < e.workers; i++ {
		go e.worker(runCtx, readyChan, cancel, i)
	}
	e.wg.Wait()
	close(readyChan)

	var failed []string
	var rootCause error
	for _, st := range e.steps {
		if st.state.Load() != stateFailed {
			continue
		}
		// A skip is a symptom of an upstream failure, not a cause.
		if st.err != nil && !strings.HasPrefix(st.err.Error(), "skipped") && !errors.Is(st.err, context.Canceled) {
			failed = append(failed, st.op.Key())
			if rootCause == nil {
				rootCause = st.err
			}
		}
	}
	if rootCause != nil {
		return fmt.Errorf("evaluation failed for %s: %w", strings.Join(failed, ", "), rootCause)
	}
	return ctx.Err()
}

// skipDependents marks all downstream steps failed without running them.
func (e *executor) skipDependents(ctx context.Context, st *step) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range st.dependents {
		dependent.skipOnce.Do(func() {
			logger.Warn("Skipping operator due to upstream failure.", "op", dependent.op.Key(), "failed", st.op.Key())
			dependent.state.Store(stateFailed)
			dependent.err = fmt.Errorf("skipped due to upstream failure of %q", st.op.Key())
			e.wg.Done()
			e.skipDependents(ctx, dependent)
		})
	}
}

// worker is the processing loop of one concurrent worker.
func (e *executor) worker(ctx context.Context, readyChan chan *step, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)

	for st := range readyChan {
		stepLogger := logger.With("workerID", workerID, "op", st.op.Key())

		if ctx.Err() != nil {
			st.skipOnce.Do(func() {
				stepLogger.Warn("Context canceled, skipping operator.")
				st.state.Store(stateFailed)
				st.err = ctx.Err()
				e.wg.Done()
				e.skipDependents(ctx, st)
			})
			continue
		}

		st.state.Store(stateRunning)
		stepLogger.Debug("Running operator.")
		if err := e.runStep(ctx, st); err != nil {
			stepLogger.Error("Operator failed.", "error", err)
			st.state.Store(stateFailed)
			st.err = err
			cancel()
			e.skipDependents(ctx, st)
			e.wg.Done()
			continue
		}
		st.state.Store(stateDone)

		for _, dependent := range st.dependents {
			if dependent.depCount.Add(-1) == 0 {
				readyChan <- dependent
			}
		}
		e.wg.Done()
	}
}

// runStep gathers inputs, invokes the implementation and stores its outputs
// after checking them against the inferred schemas.
func (e *executor) runStep(ctx context.Context, st *step) error {
	inputs := make(map[string]*series.EventSet, len(st.op.Inputs()))
	e.mu.RLock()
	for _, in := range st.op.Inputs() {
		es, ok := e.values[in.Node]
		if !ok {
			e.mu.RUnlock()
			return fmt.Errorf("input %q of %q has no value", in.Name, st.op.Key())
		}
		inputs[in.Name] = es
	}
	e.mu.RUnlock()

	outputs, err := st.impl.Run(ctx, inputs)
	if err != nil {
		return fmt.Errorf("%s: %w", st.op.Key(), err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, out := range st.op.Outputs() {
		es, ok := outputs[out.Name]
		if !ok {
			return fmt.Errorf("%s produced no output %q", st.op.Key(), out.Name)
		}
		if !es.Schema().Equal(out.Node.Schema()) {
			return fmt.Errorf("%s produced schema [%s] for output %q, inferred [%s]",
				st.op.Key(), es.Schema(), out.Name, out.Node.Schema())
		}
		e.values[out.Node] = es
	}
	return nil
}
