// Package csvio reads and writes event sets as CSV files with a header row.
// One column holds the timestamp; the remaining columns become index levels
// or features.
package csvio

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/vk/eventflow/series"
)

// DefaultTimestampColumn is used when ReadOptions.Timestamp is empty.
const DefaultTimestampColumn = "timestamp"

// ReadOptions configures Read.
type ReadOptions struct {
	// Timestamp names the timestamp column. Defaults to "timestamp".
	Timestamp string

	// Indexes names the columns to use as index levels.
	Indexes []string

	// IsUnixTimestamp marks numeric timestamps as Unix seconds. RFC 3339
	// timestamps always are.
	IsUnixTimestamp bool

	// DTypes overrides the inferred dtype of specific columns.
	DTypes map[string]series.DType
}

// Read loads a CSV file into an event set. Column dtypes are inferred per
// column: int64, then float64, then bool, falling back to string. Timestamps
// are parsed as numbers of seconds, or as RFC 3339 dates (which implies Unix
// timestamps).
func Read(path string, opts ReadOptions) (*series.EventSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header row", path)
	}
	header := records[0]
	rows := records[1:]

	tsName := opts.Timestamp
	if tsName == "" {
		tsName = DefaultTimestampColumn
	}
	tsCol := -1
	for i, name := range header {
		if name == tsName {
			tsCol = i
			break
		}
	}
	if tsCol < 0 {
		return nil, fmt.Errorf("%s: no column %q in header %v", path, tsName, header)
	}

	timestamps := make([]float64, len(rows))
	isUnix := opts.IsUnixTimestamp
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("%s: row %d has %d values for %d columns", path, i+2, len(row), len(header))
		}
		ts, sawDate, err := parseTimestamp(row[tsCol])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i+2, err)
		}
		if sawDate {
			isUnix = true
		}
		timestamps[i] = ts
	}

	var fields []series.Field
	for c, name := range header {
		if c == tsCol {
			continue
		}
		raw := make([]string, len(rows))
		for i, row := range rows {
			raw[i] = row[c]
		}
		col, err := buildColumn(raw, opts.DTypes[name])
		if err != nil {
			return nil, fmt.Errorf("%s: column %q: %w", path, name, err)
		}
		fields = append(fields, series.Field{Name: name, Column: col})
	}

	return series.New(series.NewOptions{
		Timestamps:      timestamps,
		Fields:          fields,
		Indexes:         opts.Indexes,
		IsUnixTimestamp: isUnix,
	})
}

// parseTimestamp accepts a plain number of seconds or an RFC 3339 date.
func parseTimestamp(s string) (float64, bool, error) {
	if ts, err := strconv.ParseFloat(s, 64); err == nil {
		return ts, false, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return float64(t.UnixNano()) / 1e9, true, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return float64(t.Unix()), true, nil
	}
	return 0, false, fmt.Errorf("cannot parse timestamp %q", s)
}

// buildColumn infers a column's dtype from its values, unless an explicit
// dtype is given.
func buildColumn(raw []string, dtype series.DType) (series.Column, error) {
	if dtype == series.DTypeInvalid {
		dtype = inferDType(raw)
	}
	switch dtype {
	case series.Int64:
		return parseColumn(raw, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
	case series.Int32:
		return parseColumn(raw, func(s string) (int32, error) {
			v, err := strconv.ParseInt(s, 10, 32)
			return int32(v), err
		})
	case series.Float64:
		return parseColumn(raw, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
	case series.Float32:
		return parseColumn(raw, func(s string) (float32, error) {
			v, err := strconv.ParseFloat(s, 32)
			return float32(v), err
		})
	case series.Bool:
		return parseColumn(raw, strconv.ParseBool)
	case series.String:
		return series.NewColumn(raw), nil
	default:
		return series.Column{}, fmt.Errorf("unsupported dtype %s", dtype)
	}
}

func parseColumn[T series.Value](raw []string, parse func(string) (T, error)) (series.Column, error) {
	data := make([]T, len(raw))
	for i, s := range raw {
		v, err := parse(s)
		if err != nil {
			return series.Column{}, fmt.Errorf("row %d: %w", i+2, err)
		}
		data[i] = v
	}
	return series.NewColumn(data), nil
}

func inferDType(raw []string) series.DType {
	isInt, isFloat, isBool := true, true, true
	for _, s := range raw {
		if isInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			if _, err := strconv.ParseBool(s); err != nil {
				isBool = false
			}
		}
	}
	switch {
	case isInt:
		return series.Int64
	case isFloat:
		return series.Float64
	case isBool:
		return series.Bool
	default:
		return series.String
	}
}

// Write stores an event set as CSV: index columns, the timestamp column,
// then the feature columns. Keys are written in deterministic order, events
// in timestamp order.
func Write(es *series.EventSet, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	schema := es.Schema()
	header := append(append(schema.IndexNames(), DefaultTimestampColumn), schema.FeatureNames()...)
	if err := writer.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, key := range es.Keys() {
		data, _ := es.Get(key)
		for i := range data.Timestamps {
			col := 0
			for _, v := range data.Index {
				row[col] = formatValue(v)
				col++
			}
			row[col] = strconv.FormatFloat(data.Timestamps[i], 'g', -1, 64)
			col++
			for _, c := range data.Columns {
				row[col] = formatValue(c.Value(i))
				col++
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	default:
		return fmt.Sprint(v)
	}
}
