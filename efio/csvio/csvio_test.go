package csvio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/eventflow/series"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadInfersDTypes(t *testing.T) {
	path := writeFile(t, "timestamp,count,price,flag,label\n"+
		"1,10,1.5,true,a\n"+
		"2,20,2.5,false,b\n")

	es, err := Read(path, ReadOptions{})
	require.NoError(t, err)

	schema := es.Schema()
	assert.Equal(t, series.Int64, schema.Features[schema.FeaturePos("count")].DType)
	assert.Equal(t, series.Float64, schema.Features[schema.FeaturePos("price")].DType)
	assert.Equal(t, series.Bool, schema.Features[schema.FeaturePos("flag")].DType)
	assert.Equal(t, series.String, schema.Features[schema.FeaturePos("label")].DType)

	d, ok := es.Get("")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, d.Timestamps)
}

func TestReadWithIndexes(t *testing.T) {
	path := writeFile(t, "timestamp,store,sales\n"+
		"1,a,10\n"+
		"2,b,20\n"+
		"3,a,30\n")

	es, err := Read(path, ReadOptions{Indexes: []string{"store"}})
	require.NoError(t, err)
	assert.Equal(t, 2, es.NumKeys())
	assert.Equal(t, []string{"store"}, es.Schema().IndexNames())

	keyA, _ := series.EncodeKey([]any{"a"})
	d, ok := es.Get(keyA)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 3}, d.Timestamps)
	assert.Equal(t, []int64{10, 30}, series.Data[int64](d.Columns[0]))
}

func TestReadRFC3339TimestampsImplyUnix(t *testing.T) {
	path := writeFile(t, "timestamp,x\n"+
		"2023-03-24T00:00:00Z,1\n"+
		"2023-03-25,2\n")

	es, err := Read(path, ReadOptions{})
	require.NoError(t, err)
	assert.True(t, es.Schema().IsUnixTimestamp)

	d, _ := es.Get("")
	assert.Equal(t, 86400.0, d.Timestamps[1]-d.Timestamps[0])
}

func TestReadCustomTimestampColumn(t *testing.T) {
	path := writeFile(t, "when,x\n5,1\n")

	es, err := Read(path, ReadOptions{Timestamp: "when"})
	require.NoError(t, err)
	d, _ := es.Get("")
	assert.Equal(t, []float64{5}, d.Timestamps)
}

func TestReadDTypeOverride(t *testing.T) {
	path := writeFile(t, "timestamp,code\n1,7\n")

	es, err := Read(path, ReadOptions{DTypes: map[string]series.DType{"code": series.String}})
	require.NoError(t, err)
	d, _ := es.Get("")
	assert.Equal(t, []string{"7"}, series.Data[string](d.Columns[0]))
}

func TestReadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Read(filepath.Join(t.TempDir(), "nope.csv"), ReadOptions{})
		assert.Error(t, err)
	})

	t.Run("missing timestamp column", func(t *testing.T) {
		path := writeFile(t, "a,b\n1,2\n")
		_, err := Read(path, ReadOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `no column "timestamp"`)
	})

	t.Run("bad timestamp value", func(t *testing.T) {
		path := writeFile(t, "timestamp,x\nsoon,1\n")
		_, err := Read(path, ReadOptions{})
		assert.Error(t, err)
	})
}

func TestWriteReadRoundTrip(t *testing.T) {
	original, err := series.New(series.NewOptions{
		Timestamps: []float64{1, 2, 3},
		Fields: []series.Field{
			{Name: "store", Column: series.NewColumn([]string{"a", "b", "a"})},
			{Name: "sales", Column: series.NewColumn([]float64{1.5, 2.5, 3.5})},
			{Name: "open", Column: series.NewColumn([]bool{true, false, true})},
		},
		Indexes: []string{"store"},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "round.csv")
	require.NoError(t, Write(original, path))

	got, err := Read(path, ReadOptions{Indexes: []string{"store"}})
	require.NoError(t, err)
	assert.True(t, original.Equal(got), "round trip changed the event set:\n%s\nvs\n%s", original, got)
}
