package series

import (
	"fmt"
	"slices"
	"sort"
)

// Field pairs a name with a column of values. Fields keep their declaration
// order, which becomes the schema order.
type Field struct {
	Name   string
	Column Column
}

// IndexData holds the events of a single index key: the decoded index values,
// the sorted timestamps, and one column per schema feature. All columns have
// the same length as Timestamps.
type IndexData struct {
	Index      []any
	Timestamps []float64
	Columns    []Column
}

// NumEvents returns the number of events in this group.
func (d *IndexData) NumEvents() int {
	return len(d.Timestamps)
}

// EventSet is the in-memory representation of timestamped, indexed data.
type EventSet struct {
	schema *Schema
	data   map[Key]*IndexData
}

// NewOptions configures New.
type NewOptions struct {
	// Timestamps of the events, in seconds. They do not need to be sorted;
	// New sorts each index group stably by timestamp.
	Timestamps []float64

	// Fields holds all named columns, index levels included.
	Fields []Field

	// Indexes names the fields to use as index levels, in order. Named
	// fields must have an index-compatible dtype and are removed from the
	// feature list.
	Indexes []string

	// IsUnixTimestamp marks timestamps as seconds since the Unix epoch.
	IsUnixTimestamp bool
}

// New groups rows by index value, sorts each group by timestamp and returns
// the resulting EventSet.
func New(opts NewOptions) (*EventSet, error) {
	n := len(opts.Timestamps)
	byName := make(map[string]Column, len(opts.Fields))
	for _, f := range opts.Fields {
		if _, dup := byName[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		if f.Column.Len() != n {
			return nil, fmt.Errorf("field %q has %d values for %d timestamps", f.Name, f.Column.Len(), n)
		}
		byName[f.Name] = f.Column
	}

	indexCols := make([]Column, 0, len(opts.Indexes))
	indexes := make([]Index, 0, len(opts.Indexes))
	isIndex := make(map[string]bool, len(opts.Indexes))
	for _, name := range opts.Indexes {
		col, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("index %q does not name a field", name)
		}
		indexCols = append(indexCols, col)
		indexes = append(indexes, Index{Name: name, DType: col.DType()})
		isIndex[name] = true
	}

	features := make([]Feature, 0, len(opts.Fields))
	featureCols := make([]Column, 0, len(opts.Fields))
	for _, f := range opts.Fields {
		if isIndex[f.Name] {
			continue
		}
		features = append(features, Feature{Name: f.Name, DType: f.Column.DType()})
		featureCols = append(featureCols, f.Column)
	}

	schema, err := NewSchema(features, indexes, opts.IsUnixTimestamp)
	if err != nil {
		return nil, err
	}

	// Group row positions by encoded index key.
	groups := make(map[Key][]int)
	values := make(map[Key][]any)
	tuple := make([]any, len(indexCols))
	for row := 0; row < n; row++ {
		for level, col := range indexCols {
			tuple[level] = col.Value(row)
		}
		key, err := EncodeKey(tuple)
		if err != nil {
			return nil, err
		}
		if _, ok := groups[key]; !ok {
			values[key] = slices.Clone(tuple)
		}
		groups[key] = append(groups[key], row)
	}

	es := &EventSet{schema: schema, data: make(map[Key]*IndexData, len(groups))}
	for key, positions := range groups {
		sort.SliceStable(positions, func(a, b int) bool {
			return opts.Timestamps[positions[a]] < opts.Timestamps[positions[b]]
		})
		ts := make([]float64, len(positions))
		for i, p := range positions {
			ts[i] = opts.Timestamps[p]
		}
		cols := make([]Column, len(featureCols))
		for i, col := range featureCols {
			cols[i] = col.Gather(positions)
		}
		es.data[key] = &IndexData{Index: values[key], Timestamps: ts, Columns: cols}
	}
	return es, nil
}

// FromSchema returns an empty EventSet for the given schema. Operators build
// their output this way and fill it with Set.
func FromSchema(schema *Schema) *EventSet {
	return &EventSet{schema: schema, data: make(map[Key]*IndexData)}
}

// Schema returns the event set's schema.
func (es *EventSet) Schema() *Schema {
	return es.schema
}

// Get returns the data for an index key.
func (es *EventSet) Get(key Key) (*IndexData, bool) {
	d, ok := es.data[key]
	return d, ok
}

// Set stores the data for an index key, validating column counts and lengths
// against the schema.
func (es *EventSet) Set(key Key, d *IndexData) error {
	if len(d.Columns) != len(es.schema.Features) {
		return fmt.Errorf("key %s: %d columns for %d schema features", keyString(d.Index), len(d.Columns), len(es.schema.Features))
	}
	if len(d.Index) != len(es.schema.Indexes) {
		return fmt.Errorf("key %s: %d index values for %d index levels", keyString(d.Index), len(d.Index), len(es.schema.Indexes))
	}
	for i, col := range d.Columns {
		if col.Len() != len(d.Timestamps) {
			return fmt.Errorf("key %s: column %q has %d values for %d timestamps",
				keyString(d.Index), es.schema.Features[i].Name, col.Len(), len(d.Timestamps))
		}
		if col.DType() != es.schema.Features[i].DType {
			return fmt.Errorf("key %s: column %q is %s, schema says %s",
				keyString(d.Index), es.schema.Features[i].Name, col.DType(), es.schema.Features[i].DType)
		}
	}
	es.data[key] = d
	return nil
}

// Keys returns all index keys in deterministic (encoded) order.
func (es *EventSet) Keys() []Key {
	keys := make([]Key, 0, len(es.data))
	for key := range es.data {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// NumKeys returns the number of index groups.
func (es *EventSet) NumKeys() int {
	return len(es.data)
}

// NumEvents returns the total number of events across all keys.
func (es *EventSet) NumEvents() int {
	total := 0
	for _, d := range es.data {
		total += len(d.Timestamps)
	}
	return total
}

// Equal compares schema, key sets, timestamps and values. Float NaNs compare
// equal (see Column.Equal).
func (es *EventSet) Equal(other *EventSet) bool {
	if !es.schema.Equal(other.schema) {
		return false
	}
	if len(es.data) != len(other.data) {
		return false
	}
	for key, d := range es.data {
		od, ok := other.data[key]
		if !ok {
			return false
		}
		if !slices.Equal(d.Timestamps, od.Timestamps) {
			return false
		}
		for i := range d.Columns {
			if !d.Columns[i].Equal(od.Columns[i]) {
				return false
			}
		}
	}
	return true
}

func (es *EventSet) String() string {
	return fmt.Sprintf("EventSet(%s, keys=%d, events=%d)", es.schema, es.NumKeys(), es.NumEvents())
}
