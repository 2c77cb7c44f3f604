package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/eventflow/series"
)

// fakeOp is a minimal operator for schedule tests.
type fakeOp struct {
	Base
}

func newFakeOp(key string, inputs ...*Node) (*fakeOp, *Node) {
	op := &fakeOp{}
	op.InitBase(key)
	for _, in := range inputs {
		op.AddInput("input", in)
	}
	out := NewOutput(&op.Base, op, "output", inputs[0].Schema())
	return op, out
}

func testSchema(t *testing.T) *series.Schema {
	t.Helper()
	s, err := series.NewSchema([]series.Feature{{Name: "x", DType: series.Float64}}, nil, false)
	require.NoError(t, err)
	return s
}

func TestScheduleOrdersDependencies(t *testing.T) {
	in := Input(testSchema(t))
	opA, a := newFakeOp("A", in)
	opB, b := newFakeOp("B", a)
	opC, c := newFakeOp("C", b)

	order, err := Schedule([]*Node{c}, map[*Node]bool{in: true})
	require.NoError(t, err)
	assert.Equal(t, []Operator{opA, opB, opC}, order)
}

func TestScheduleSharedInput(t *testing.T) {
	in := Input(testSchema(t))
	_, a := newFakeOp("A", in)
	opB, _ := newFakeOp("B", a, a)

	order, err := Schedule([]*Node{opB.Output("output")}, map[*Node]bool{in: true})
	require.NoError(t, err)
	// A appears once even though B consumes it twice.
	assert.Len(t, order, 2)
}

func TestScheduleSkipsUnneededBranches(t *testing.T) {
	in := Input(testSchema(t))
	opA, a := newFakeOp("A", in)
	newFakeOp("B", a) // not requested

	order, err := Schedule([]*Node{a}, map[*Node]bool{in: true})
	require.NoError(t, err)
	assert.Equal(t, []Operator{opA}, order)
}

func TestScheduleUnprovidedInput(t *testing.T) {
	in := Input(testSchema(t))
	_, a := newFakeOp("A", in)

	_, err := Schedule([]*Node{a}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not provided")
}

func TestScheduleProvidedOutputShortCircuits(t *testing.T) {
	in := Input(testSchema(t))
	_, a := newFakeOp("A", in)

	// The intermediate value is provided directly, so A never runs.
	order, err := Schedule([]*Node{a}, map[*Node]bool{a: true})
	require.NoError(t, err)
	assert.Empty(t, order)
}
