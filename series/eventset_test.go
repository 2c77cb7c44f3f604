package series

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGroupsByIndex(t *testing.T) {
	es, err := New(NewOptions{
		Timestamps: []float64{1, 2, 3, 4},
		Fields: []Field{
			{Name: "store", Column: NewColumn([]string{"a", "b", "a", "b"})},
			{Name: "sales", Column: NewColumn([]float64{10, 20, 30, 40})},
		},
		Indexes: []string{"store"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, es.NumKeys())
	assert.Equal(t, 4, es.NumEvents())

	keyA, err := EncodeKey([]any{"a"})
	require.NoError(t, err)
	d, ok := es.Get(keyA)
	require.True(t, ok)
	assert.Equal(t, []any{"a"}, d.Index)
	assert.Equal(t, []float64{1, 3}, d.Timestamps)
	assert.Equal(t, []float64{10, 30}, Data[float64](d.Columns[0]))

	// Index fields are removed from the feature list.
	assert.Equal(t, []string{"sales"}, es.Schema().FeatureNames())
	assert.Equal(t, []string{"store"}, es.Schema().IndexNames())
}

func TestNewSortsTimestamps(t *testing.T) {
	es, err := New(NewOptions{
		Timestamps: []float64{3, 1, 2},
		Fields: []Field{
			{Name: "x", Column: NewColumn([]int64{30, 10, 20})},
		},
	})
	require.NoError(t, err)

	d, ok := es.Get("")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, d.Timestamps)
	assert.Equal(t, []int64{10, 20, 30}, Data[int64](d.Columns[0]))
}

func TestNewSortIsStable(t *testing.T) {
	es, err := New(NewOptions{
		Timestamps: []float64{2, 1, 2, 2},
		Fields: []Field{
			{Name: "x", Column: NewColumn([]int64{1, 0, 2, 3})},
		},
	})
	require.NoError(t, err)

	d, _ := es.Get("")
	assert.Equal(t, []float64{1, 2, 2, 2}, d.Timestamps)
	assert.Equal(t, []int64{0, 1, 2, 3}, Data[int64](d.Columns[0]))
}

func TestNewErrors(t *testing.T) {
	t.Run("length mismatch", func(t *testing.T) {
		_, err := New(NewOptions{
			Timestamps: []float64{1, 2},
			Fields:     []Field{{Name: "x", Column: NewColumn([]int64{1})}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "2 timestamps")
	})

	t.Run("duplicate field", func(t *testing.T) {
		_, err := New(NewOptions{
			Timestamps: []float64{1},
			Fields: []Field{
				{Name: "x", Column: NewColumn([]int64{1})},
				{Name: "x", Column: NewColumn([]int64{2})},
			},
		})
		require.Error(t, err)
	})

	t.Run("unknown index", func(t *testing.T) {
		_, err := New(NewOptions{
			Timestamps: []float64{1},
			Fields:     []Field{{Name: "x", Column: NewColumn([]int64{1})}},
			Indexes:    []string{"store"},
		})
		require.Error(t, err)
	})

	t.Run("float index", func(t *testing.T) {
		_, err := New(NewOptions{
			Timestamps: []float64{1},
			Fields:     []Field{{Name: "x", Column: NewColumn([]float64{1})}},
			Indexes:    []string{"x"},
		})
		require.Error(t, err)
	})
}

func TestSetValidation(t *testing.T) {
	schema, err := NewSchema(
		[]Feature{{Name: "x", DType: Float64}},
		[]Index{{Name: "store", DType: String}},
		false,
	)
	require.NoError(t, err)
	es := FromSchema(schema)

	key, _ := EncodeKey([]any{"a"})

	t.Run("wrong column count", func(t *testing.T) {
		err := es.Set(key, &IndexData{Index: []any{"a"}, Timestamps: []float64{1}})
		assert.Error(t, err)
	})

	t.Run("wrong dtype", func(t *testing.T) {
		err := es.Set(key, &IndexData{
			Index:      []any{"a"},
			Timestamps: []float64{1},
			Columns:    []Column{NewColumn([]int64{1})},
		})
		assert.Error(t, err)
	})

	t.Run("ok", func(t *testing.T) {
		err := es.Set(key, &IndexData{
			Index:      []any{"a"},
			Timestamps: []float64{1},
			Columns:    []Column{NewColumn([]float64{1})},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, es.NumEvents())
	})
}

func TestEqualTreatsNaNAsEqual(t *testing.T) {
	build := func() *EventSet {
		es, err := New(NewOptions{
			Timestamps: []float64{1, 2},
			Fields: []Field{
				{Name: "x", Column: NewColumn([]float64{1, math.NaN()})},
			},
		})
		require.NoError(t, err)
		return es
	}
	assert.True(t, build().Equal(build()))
}

func TestKeysAreDeterministic(t *testing.T) {
	es, err := New(NewOptions{
		Timestamps: []float64{1, 1, 1},
		Fields: []Field{
			{Name: "store", Column: NewColumn([]string{"c", "a", "b"})},
			{Name: "x", Column: NewColumn([]int64{1, 2, 3})},
		},
		Indexes: []string{"store"},
	})
	require.NoError(t, err)

	first := es.Keys()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, es.Keys())
	}
}
