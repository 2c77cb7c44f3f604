package binop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/eventflow/engine"
	"github.com/vk/eventflow/graph"
	"github.com/vk/eventflow/series"
)

func set(t *testing.T, name string, values []float64) *series.EventSet {
	t.Helper()
	ts := make([]float64, len(values))
	for i := range ts {
		ts[i] = float64(i)
	}
	es, err := series.New(series.NewOptions{
		Timestamps: ts,
		Fields:     []series.Field{{Name: name, Column: series.NewColumn(values)}},
	})
	require.NoError(t, err)
	return es
}

func eval(t *testing.T, out *graph.Node, inputs map[*graph.Node]*series.EventSet) *series.EventSet {
	t.Helper()
	got, err := engine.EvaluateOne(context.Background(), out, inputs, engine.Options{})
	require.NoError(t, err)
	return got
}

func TestAddNamesOutputFeatures(t *testing.T) {
	a := set(t, "sales", []float64{1, 2})
	b := set(t, "costs", []float64{10, 20})

	na, nb := graph.InputFor(a), graph.InputFor(b)
	out, err := Add(na, nb)
	require.NoError(t, err)
	assert.Equal(t, []string{"sales_add_costs"}, out.Schema().FeatureNames())

	got := eval(t, out, map[*graph.Node]*series.EventSet{na: a, nb: b})
	d, _ := got.Get("")
	assert.Equal(t, []float64{11, 22}, series.Data[float64](d.Columns[0]))
}

func TestArithmeticKinds(t *testing.T) {
	a := set(t, "x", []float64{6, 8})
	b := set(t, "y", []float64{2, 4})

	run := func(build func(left, right *graph.Node) (*graph.Node, error)) []float64 {
		na, nb := graph.InputFor(a), graph.InputFor(b)
		out, err := build(na, nb)
		require.NoError(t, err)
		got := eval(t, out, map[*graph.Node]*series.EventSet{na: a, nb: b})
		d, _ := got.Get("")
		return series.Data[float64](d.Columns[0])
	}

	assert.Equal(t, []float64{4, 4}, run(Subtract))
	assert.Equal(t, []float64{12, 32}, run(Multiply))
	assert.Equal(t, []float64{3, 2}, run(Divide))
}

func TestComparisons(t *testing.T) {
	a := set(t, "x", []float64{1, 5, 3})
	b := set(t, "y", []float64{3, 3, 3})

	run := func(build func(left, right *graph.Node) (*graph.Node, error)) []bool {
		na, nb := graph.InputFor(a), graph.InputFor(b)
		out, err := build(na, nb)
		require.NoError(t, err)
		assert.Equal(t, series.Bool, out.Schema().Features[0].DType)
		got := eval(t, out, map[*graph.Node]*series.EventSet{na: a, nb: b})
		d, _ := got.Get("")
		return series.Data[bool](d.Columns[0])
	}

	assert.Equal(t, []bool{false, true, false}, run(Greater))
	assert.Equal(t, []bool{true, false, false}, run(Less))
	assert.Equal(t, []bool{false, false, true}, run(Equal))
}

func TestConstructionErrors(t *testing.T) {
	a := set(t, "x", []float64{1})

	t.Run("index mismatch", func(t *testing.T) {
		indexed, err := series.New(series.NewOptions{
			Timestamps: []float64{0},
			Fields: []series.Field{
				{Name: "store", Column: series.NewColumn([]string{"a"})},
				{Name: "y", Column: series.NewColumn([]float64{1})},
			},
			Indexes: []string{"store"},
		})
		require.NoError(t, err)
		_, err = Add(graph.InputFor(a), graph.InputFor(indexed))
		assert.Error(t, err)
	})

	t.Run("dtype mismatch", func(t *testing.T) {
		ints, err := series.New(series.NewOptions{
			Timestamps: []float64{0},
			Fields:     []series.Field{{Name: "y", Column: series.NewColumn([]int64{1})}},
		})
		require.NoError(t, err)
		_, err = Add(graph.InputFor(a), graph.InputFor(ints))
		assert.Error(t, err)
	})

	t.Run("string features", func(t *testing.T) {
		strs, err := series.New(series.NewOptions{
			Timestamps: []float64{0},
			Fields:     []series.Field{{Name: "s", Column: series.NewColumn([]string{"a"})}},
		})
		require.NoError(t, err)
		_, err = Equal(graph.InputFor(strs), graph.InputFor(strs))
		assert.Error(t, err)
	})

	t.Run("integer division", func(t *testing.T) {
		ints, err := series.New(series.NewOptions{
			Timestamps: []float64{0},
			Fields:     []series.Field{{Name: "y", Column: series.NewColumn([]int64{1})}},
		})
		require.NoError(t, err)
		_, err = Divide(graph.InputFor(ints), graph.InputFor(ints))
		assert.Error(t, err)
	})
}

func TestRuntimeSamplingMismatch(t *testing.T) {
	a := set(t, "x", []float64{1, 2})
	b := set(t, "y", []float64{1})

	na, nb := graph.InputFor(a), graph.InputFor(b)
	out, err := Add(na, nb)
	require.NoError(t, err)

	_, err = engine.EvaluateOne(context.Background(), out,
		map[*graph.Node]*series.EventSet{na: a, nb: b}, engine.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not share a sampling")
}
