package sampling

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/eventflow/engine"
	"github.com/vk/eventflow/graph"
	"github.com/vk/eventflow/series"
)

func evalOne(t *testing.T, out *graph.Node, inputs map[*graph.Node]*series.EventSet) *series.EventSet {
	t.Helper()
	got, err := engine.EvaluateOne(context.Background(), out, inputs, engine.Options{})
	require.NoError(t, err)
	return got
}

func TestResampleLastValueAtOrBefore(t *testing.T) {
	input, err := series.New(series.NewOptions{
		Timestamps: []float64{1, 5, 8, 9},
		Fields:     []series.Field{{Name: "x", Column: series.NewColumn([]float64{1, 2, 3, 4})}},
	})
	require.NoError(t, err)

	sampler, err := series.New(series.NewOptions{
		Timestamps: []float64{-1, 1, 6, 10},
		Fields:     []series.Field{{Name: "y", Column: series.NewColumn([]int64{0, 0, 0, 0})}},
	})
	require.NoError(t, err)

	in, sp := graph.InputFor(input), graph.InputFor(sampler)
	out, err := Resample(in, sp)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, out.Schema().FeatureNames())

	got := evalOne(t, out, map[*graph.Node]*series.EventSet{in: input, sp: sampler})
	d, _ := got.Get("")
	assert.Equal(t, []float64{-1, 1, 6, 10}, d.Timestamps)

	values := series.Data[float64](d.Columns[0])
	assert.True(t, math.IsNaN(values[0])) // before the first input event
	assert.Equal(t, []float64{1, 2, 4}, values[1:])
}

func TestResamplePerDTypeMissingValues(t *testing.T) {
	input, err := series.New(series.NewOptions{
		Timestamps: []float64{5},
		Fields: []series.Field{
			{Name: "f", Column: series.NewColumn([]float64{1.5})},
			{Name: "i", Column: series.NewColumn([]int64{7})},
			{Name: "s", Column: series.NewColumn([]string{"hi"})},
			{Name: "b", Column: series.NewColumn([]bool{true})},
		},
	})
	require.NoError(t, err)

	sampler, err := series.New(series.NewOptions{
		Timestamps: []float64{1, 10},
		Fields:     []series.Field{{Name: "y", Column: series.NewColumn([]int64{0, 0})}},
	})
	require.NoError(t, err)

	in, sp := graph.InputFor(input), graph.InputFor(sampler)
	out, err := Resample(in, sp)
	require.NoError(t, err)

	got := evalOne(t, out, map[*graph.Node]*series.EventSet{in: input, sp: sampler})
	d, _ := got.Get("")

	f := series.Data[float64](d.Columns[0])
	assert.True(t, math.IsNaN(f[0]))
	assert.Equal(t, 1.5, f[1])
	assert.Equal(t, []int64{0, 7}, series.Data[int64](d.Columns[1]))
	assert.Equal(t, []string{"", "hi"}, series.Data[string](d.Columns[2]))
	assert.Equal(t, []bool{false, true}, series.Data[bool](d.Columns[3]))
}

func TestResampleMissingInputKey(t *testing.T) {
	input, err := series.New(series.NewOptions{
		Timestamps: []float64{1},
		Fields: []series.Field{
			{Name: "id", Column: series.NewColumn([]int64{1})},
			{Name: "x", Column: series.NewColumn([]float64{9})},
		},
		Indexes: []string{"id"},
	})
	require.NoError(t, err)

	sampler, err := series.New(series.NewOptions{
		Timestamps: []float64{1, 2},
		Fields: []series.Field{
			{Name: "id", Column: series.NewColumn([]int64{1, 3})},
			{Name: "y", Column: series.NewColumn([]int64{0, 0})},
		},
		Indexes: []string{"id"},
	})
	require.NoError(t, err)

	in, sp := graph.InputFor(input), graph.InputFor(sampler)
	out, err := Resample(in, sp)
	require.NoError(t, err)

	got := evalOne(t, out, map[*graph.Node]*series.EventSet{in: input, sp: sampler})

	// Key 3 exists only in the sampler; all its values are missing.
	key3, _ := series.EncodeKey([]any{int64(3)})
	d, ok := got.Get(key3)
	require.True(t, ok)
	require.Equal(t, 1, d.NumEvents())
	assert.True(t, math.IsNaN(series.Data[float64](d.Columns[0])[0]))
}

func TestResampleIndexMismatch(t *testing.T) {
	input, err := series.New(series.NewOptions{
		Timestamps: []float64{1},
		Fields: []series.Field{
			{Name: "id", Column: series.NewColumn([]int64{1})},
			{Name: "x", Column: series.NewColumn([]float64{9})},
		},
		Indexes: []string{"id"},
	})
	require.NoError(t, err)

	sampler, err := series.New(series.NewOptions{
		Timestamps: []float64{1},
		Fields:     []series.Field{{Name: "y", Column: series.NewColumn([]int64{0})}},
	})
	require.NoError(t, err)

	_, err = Resample(graph.InputFor(input), graph.InputFor(sampler))
	assert.Error(t, err)
}
