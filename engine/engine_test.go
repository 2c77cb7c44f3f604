package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/eventflow/graph"
	"github.com/vk/eventflow/series"
)

// addOneOp adds 1 to every value of the single float64 feature "x".
type addOneOp struct {
	graph.Base
	out *graph.Node
}

func newAddOne(input *graph.Node) *addOneOp {
	op := &addOneOp{}
	op.InitBase("TEST_ADD_ONE")
	op.AddInput("input", input)
	op.out = graph.NewOutput(&op.Base, op, "output", input.Schema())
	return op
}

type addOneImpl struct{}

func (addOneImpl) Run(_ context.Context, inputs map[string]*series.EventSet) (map[string]*series.EventSet, error) {
	in := inputs["input"]
	out := series.FromSchema(in.Schema())
	for _, key := range in.Keys() {
		d, _ := in.Get(key)
		src := series.Data[float64](d.Columns[0])
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = v + 1
		}
		err := out.Set(key, &series.IndexData{
			Index:      d.Index,
			Timestamps: d.Timestamps,
			Columns:    []series.Column{series.NewColumn(dst)},
		})
		if err != nil {
			return nil, err
		}
	}
	return map[string]*series.EventSet{"output": out}, nil
}

// failOp always errors.
type failOp struct {
	graph.Base
	out *graph.Node
}

func newFail(input *graph.Node) *failOp {
	op := &failOp{}
	op.InitBase("TEST_FAIL")
	op.AddInput("input", input)
	op.out = graph.NewOutput(&op.Base, op, "output", input.Schema())
	return op
}

var errBoom = errors.New("boom")

type failImpl struct{}

func (failImpl) Run(context.Context, map[string]*series.EventSet) (map[string]*series.EventSet, error) {
	return nil, errBoom
}

// blockOp signals when it starts running and then blocks until its context is
// cancelled.
type blockOp struct {
	graph.Base
	out     *graph.Node
	started chan struct{}
}

func newBlock(input *graph.Node) *blockOp {
	op := &blockOp{started: make(chan struct{})}
	op.InitBase("TEST_BLOCK")
	op.AddInput("input", input)
	op.out = graph.NewOutput(&op.Base, op, "output", input.Schema())
	return op
}

type blockImpl struct{ op *blockOp }

func (b blockImpl) Run(ctx context.Context, _ map[string]*series.EventSet) (map[string]*series.EventSet, error) {
	close(b.op.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func init() {
	RegisterImplementation("TEST_ADD_ONE", func(graph.Operator) (Implementation, error) {
		return addOneImpl{}, nil
	})
	RegisterImplementation("TEST_FAIL", func(graph.Operator) (Implementation, error) {
		return failImpl{}, nil
	})
	RegisterImplementation("TEST_BLOCK", func(op graph.Operator) (Implementation, error) {
		return blockImpl{op: op.(*blockOp)}, nil
	})
}

func testInput(t *testing.T, values ...float64) *series.EventSet {
	t.Helper()
	ts := make([]float64, len(values))
	for i := range ts {
		ts[i] = float64(i)
	}
	es, err := series.New(series.NewOptions{
		Timestamps: ts,
		Fields:     []series.Field{{Name: "x", Column: series.NewColumn(values)}},
	})
	require.NoError(t, err)
	return es
}

func TestEvaluateChain(t *testing.T) {
	es := testInput(t, 1, 2, 3)
	in := graph.InputFor(es)
	opA := newAddOne(in)
	opB := newAddOne(opA.out)

	got, err := EvaluateOne(context.Background(), opB.out,
		map[*graph.Node]*series.EventSet{in: es}, Options{})
	require.NoError(t, err)

	d, ok := got.Get("")
	require.True(t, ok)
	assert.Equal(t, []float64{3, 4, 5}, series.Data[float64](d.Columns[0]))
}

func TestEvaluateMultipleOutputs(t *testing.T) {
	es := testInput(t, 5)
	in := graph.InputFor(es)
	opA := newAddOne(in)
	opB := newAddOne(opA.out)

	results, err := Evaluate(context.Background(), []*graph.Node{opA.out, opB.out},
		map[*graph.Node]*series.EventSet{in: es}, Options{Workers: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)

	dA, _ := results[opA.out].Get("")
	dB, _ := results[opB.out].Get("")
	assert.Equal(t, []float64{6}, series.Data[float64](dA.Columns[0]))
	assert.Equal(t, []float64{7}, series.Data[float64](dB.Columns[0]))
}

func TestEvaluateFailureSkipsDependents(t *testing.T) {
	es := testInput(t, 1)
	in := graph.InputFor(es)
	opFail := newFail(in)
	opAfter := newAddOne(opFail.out)

	_, err := EvaluateOne(context.Background(), opAfter.out,
		map[*graph.Node]*series.EventSet{in: es}, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	// The skipped dependent must not mask the root cause.
	assert.Contains(t, err.Error(), "TEST_FAIL")
	assert.NotContains(t, err.Error(), "TEST_ADD_ONE")
}

func TestEvaluateReturnsOnCancellation(t *testing.T) {
	esA := testInput(t, 1)
	esB := testInput(t, 2)
	inA := graph.InputFor(esA)
	inB := graph.InputFor(esB)
	opBlock := newBlock(inA)
	opQueued := newAddOne(inB)
	opAfter := newAddOne(opQueued.out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One worker: opQueued is still in the ready queue while opBlock runs.
	// Cancelling must skip it and release its dependent, or the run hangs.
	done := make(chan error, 1)
	go func() {
		_, err := Evaluate(ctx, []*graph.Node{opBlock.out, opAfter.out},
			map[*graph.Node]*series.EventSet{inA: esA, inB: esB}, Options{Workers: 1})
		done <- err
	}()

	<-opBlock.started
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("evaluation did not return after cancellation")
	}
}

func TestEvaluateRejectsSchemaMismatch(t *testing.T) {
	es := testInput(t, 1)

	other, err := series.New(series.NewOptions{
		Timestamps: []float64{1},
		Fields:     []series.Field{{Name: "y", Column: series.NewColumn([]float64{1})}},
	})
	require.NoError(t, err)

	in := graph.InputFor(es)
	op := newAddOne(in)

	_, err = EvaluateOne(context.Background(), op.out,
		map[*graph.Node]*series.EventSet{in: other}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match node schema")
}

func TestEvaluateUnknownImplementation(t *testing.T) {
	es := testInput(t, 1)
	in := graph.InputFor(es)

	op := &addOneOp{}
	op.InitBase("TEST_NOT_REGISTERED")
	op.AddInput("input", in)
	op.out = graph.NewOutput(&op.Base, op, "output", in.Schema())

	_, err := EvaluateOne(context.Background(), op.out,
		map[*graph.Node]*series.EventSet{in: es}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no implementation registered")
}
