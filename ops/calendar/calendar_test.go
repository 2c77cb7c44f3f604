package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/eventflow/engine"
	"github.com/vk/eventflow/graph"
	"github.com/vk/eventflow/series"
)

func unixSet(t *testing.T, timestamps ...float64) *series.EventSet {
	t.Helper()
	values := make([]int64, len(timestamps))
	es, err := series.New(series.NewOptions{
		Timestamps:      timestamps,
		Fields:          []series.Field{{Name: "x", Column: series.NewColumn(values)}},
		IsUnixTimestamp: true,
	})
	require.NoError(t, err)
	return es
}

func calendarValues(t *testing.T, build func(*graph.Node) (*graph.Node, error), es *series.EventSet) []int32 {
	t.Helper()
	in := graph.InputFor(es)
	out, err := build(in)
	require.NoError(t, err)

	got, err := engine.EvaluateOne(context.Background(), out,
		map[*graph.Node]*series.EventSet{in: es}, engine.Options{})
	require.NoError(t, err)

	d, ok := got.Get("")
	require.True(t, ok)
	return series.Data[int32](d.Columns[0])
}

func epoch(t *testing.T, value string) float64 {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return float64(ts.Unix())
}

func TestYearMonthDay(t *testing.T) {
	es := unixSet(t, epoch(t, "2023-03-24T13:45:30Z"))

	assert.Equal(t, []int32{2023}, calendarValues(t, Year, es))
	assert.Equal(t, []int32{3}, calendarValues(t, Month, es))
	assert.Equal(t, []int32{24}, calendarValues(t, DayOfMonth, es))
	assert.Equal(t, []int32{13}, calendarValues(t, Hour, es))
	assert.Equal(t, []int32{45}, calendarValues(t, Minute, es))
}

func TestDayOfWeekCountsFromMonday(t *testing.T) {
	es := unixSet(t,
		epoch(t, "2023-01-02T00:00:00Z"), // Monday
		epoch(t, "2023-01-05T00:00:00Z"), // Thursday
		epoch(t, "2023-01-08T00:00:00Z"), // Sunday
	)
	assert.Equal(t, []int32{0, 3, 6}, calendarValues(t, DayOfWeek, es))
}

func TestISOWeek(t *testing.T) {
	es := unixSet(t,
		epoch(t, "1970-01-01T00:00:00Z"), // Thursday of ISO week 1
		epoch(t, "1970-01-04T00:00:00Z"), // Sunday, still week 1
		epoch(t, "1970-01-05T00:00:00Z"), // Monday, week 2
		epoch(t, "2023-01-01T00:00:00Z"), // Sunday of the previous ISO year's week 52
		epoch(t, "2023-01-08T00:00:00Z"), // Sunday of week 1
		epoch(t, "2023-01-09T00:00:00Z"), // Monday, week 2
		epoch(t, "2023-03-24T00:00:00Z"),
		epoch(t, "2023-12-31T00:00:00Z"),
	)
	assert.Equal(t, []int32{1, 1, 2, 52, 1, 2, 12, 52}, calendarValues(t, ISOWeek, es))
}

func TestFractionalSecondsAreTruncated(t *testing.T) {
	es := unixSet(t, epoch(t, "2023-03-24T13:45:30Z")+0.75)
	assert.Equal(t, []int32{45}, calendarValues(t, Minute, es))
}

func TestCalendarKeepsIndexAndTimestamps(t *testing.T) {
	es, err := series.New(series.NewOptions{
		Timestamps: []float64{epoch(t, "2023-03-24T00:00:00Z")},
		Fields: []series.Field{
			{Name: "store", Column: series.NewColumn([]string{"a"})},
			{Name: "x", Column: series.NewColumn([]int64{0})},
		},
		Indexes:         []string{"store"},
		IsUnixTimestamp: true,
	})
	require.NoError(t, err)

	in := graph.InputFor(es)
	out, err := Year(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"calendar_year"}, out.Schema().FeatureNames())
	assert.Equal(t, []string{"store"}, out.Schema().IndexNames())

	got, err := engine.EvaluateOne(context.Background(), out,
		map[*graph.Node]*series.EventSet{in: es}, engine.Options{})
	require.NoError(t, err)

	key, _ := series.EncodeKey([]any{"a"})
	d, ok := got.Get(key)
	require.True(t, ok)
	assert.Equal(t, es.Schema().IsUnixTimestamp, got.Schema().IsUnixTimestamp)
	assert.Equal(t, []int32{2023}, series.Data[int32](d.Columns[0]))
}

func TestCalendarRequiresUnixTimestamps(t *testing.T) {
	es, err := series.New(series.NewOptions{
		Timestamps: []float64{1},
		Fields:     []series.Field{{Name: "x", Column: series.NewColumn([]int64{0})}},
	})
	require.NoError(t, err)

	_, err = Year(graph.InputFor(es))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unix")
}
