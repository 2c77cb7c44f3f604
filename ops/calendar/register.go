package calendar

import (
	"fmt"

	"github.com/vk/eventflow/engine"
	"github.com/vk/eventflow/graph"
)

type constructor func(input *graph.Node) (*graph.Node, error)

func register(key string, build constructor) {
	graph.Register(graph.Definition{
		Key:       key,
		MinInputs: 1,
		MaxInputs: 1,
		Build: func(inputs []*graph.Node, args graph.Attrs) (*graph.Node, error) {
			return build(inputs[0])
		},
	})
	engine.RegisterImplementation(key, func(op graph.Operator) (engine.Implementation, error) {
		cop, ok := op.(*Op)
		if !ok {
			return nil, fmt.Errorf("calendar: expected *calendar.Op for %q, got %T", key, op)
		}
		return impl{op: cop}, nil
	})
}

func init() {
	register("CALENDAR_YEAR", Year)
	register("CALENDAR_MONTH", Month)
	register("CALENDAR_DAY_OF_MONTH", DayOfMonth)
	register("CALENDAR_HOUR", Hour)
	register("CALENDAR_MINUTE", Minute)
	register("CALENDAR_DAY_OF_WEEK", DayOfWeek)
	register("CALENDAR_ISO_WEEK", ISOWeek)
}
