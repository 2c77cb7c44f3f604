// Package calendar implements the calendar operators: each event is mapped
// to a component of its UTC calendar date. The input's timestamps must be
// Unix timestamps.
package calendar

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/vk/eventflow/graph"
	"github.com/vk/eventflow/series"
)

type kind int

const (
	kindYear kind = iota
	kindMonth
	kindDayOfMonth
	kindHour
	kindMinute
	kindDayOfWeek
	kindISOWeek
)

var featureNames = map[kind]string{
	kindYear:       "calendar_year",
	kindMonth:      "calendar_month",
	kindDayOfMonth: "calendar_day_of_month",
	kindHour:       "calendar_hour",
	kindMinute:     "calendar_minute",
	kindDayOfWeek:  "calendar_day_of_week",
	kindISOWeek:    "calendar_iso_week",
}

// Op maps each event's timestamp to a calendar component, emitted as a
// single int32 feature.
type Op struct {
	graph.Base
	kind kind
}

func newOp(k kind, key string, input *graph.Node) (*graph.Node, error) {
	in := input.Schema()
	if !in.IsUnixTimestamp {
		return nil, fmt.Errorf("%s: input timestamps are not unix timestamps", key)
	}

	op := &Op{kind: k}
	op.InitBase(key)
	op.AddInput("input", input)
	outSchema, err := series.NewSchema(
		[]series.Feature{{Name: featureNames[k], DType: series.Int32}},
		in.Indexes, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return graph.NewOutput(&op.Base, op, "output", outSchema), nil
}

// Year emits the UTC calendar year of each event.
func Year(input *graph.Node) (*graph.Node, error) {
	return newOp(kindYear, "CALENDAR_YEAR", input)
}

// Month emits the UTC month, 1 to 12.
func Month(input *graph.Node) (*graph.Node, error) {
	return newOp(kindMonth, "CALENDAR_MONTH", input)
}

// DayOfMonth emits the UTC day of the month, 1 to 31.
func DayOfMonth(input *graph.Node) (*graph.Node, error) {
	return newOp(kindDayOfMonth, "CALENDAR_DAY_OF_MONTH", input)
}

// Hour emits the UTC hour, 0 to 23.
func Hour(input *graph.Node) (*graph.Node, error) {
	return newOp(kindHour, "CALENDAR_HOUR", input)
}

// Minute emits the UTC minute, 0 to 59.
func Minute(input *graph.Node) (*graph.Node, error) {
	return newOp(kindMinute, "CALENDAR_MINUTE", input)
}

// DayOfWeek emits the UTC day of the week, 0 for Monday through 6 for
// Sunday.
func DayOfWeek(input *graph.Node) (*graph.Node, error) {
	return newOp(kindDayOfWeek, "CALENDAR_DAY_OF_WEEK", input)
}

// ISOWeek emits the ISO-8601 week number, 1 to 53. Week 1 is the first week
// containing a Thursday, so early January days can fall in week 52 or 53 of
// the previous ISO year.
func ISOWeek(input *graph.Node) (*graph.Node, error) {
	return newOp(kindISOWeek, "CALENDAR_ISO_WEEK", input)
}

type impl struct {
	op *Op
}

func (im impl) Run(ctx context.Context, inputs map[string]*series.EventSet) (map[string]*series.EventSet, error) {
	input := inputs["input"]
	out := series.FromSchema(im.op.Output("output").Schema())

	for _, key := range input.Keys() {
		data, _ := input.Get(key)
		values := make([]int32, len(data.Timestamps))
		for i, ts := range data.Timestamps {
			values[i] = im.component(tsToTime(ts))
		}
		if err := out.Set(key, &series.IndexData{
			Index:      data.Index,
			Timestamps: data.Timestamps,
			Columns:    []series.Column{series.NewColumn(values)},
		}); err != nil {
			return nil, err
		}
	}
	return map[string]*series.EventSet{"output": out}, nil
}

func (im impl) component(t time.Time) int32 {
	switch im.op.kind {
	case kindYear:
		return int32(t.Year())
	case kindMonth:
		return int32(t.Month())
	case kindDayOfMonth:
		return int32(t.Day())
	case kindHour:
		return int32(t.Hour())
	case kindMinute:
		return int32(t.Minute())
	case kindDayOfWeek:
		// time.Weekday counts from Sunday; shift to Monday == 0.
		return int32((int(t.Weekday()) + 6) % 7)
	case kindISOWeek:
		_, week := t.ISOWeek()
		return int32(week)
	default:
		panic("calendar: unreachable kind")
	}
}

// tsToTime converts a unix timestamp in (possibly fractional) seconds.
func tsToTime(ts float64) time.Time {
	sec := math.Floor(ts)
	nsec := (ts - sec) * 1e9
	return time.Unix(int64(sec), int64(nsec)).UTC()
}
