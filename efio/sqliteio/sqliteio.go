// Package sqliteio stores event sets in SQLite tables, one row per event:
// index columns, a timestamp column, then feature columns.
package sqliteio

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/vk/eventflow/series"
)

// timestampColumn is the reserved timestamp column name.
const timestampColumn = "timestamp"

// Open opens (or creates) a SQLite database file with the pragmas the
// adapter expects.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// Write creates the table (replacing an existing one) and inserts every
// event in a single transaction.
func Write(ctx context.Context, db *sql.DB, table string, es *series.EventSet) error {
	schema := es.Schema()

	var defs []string
	for _, idx := range schema.Indexes {
		defs = append(defs, fmt.Sprintf("%s %s", quoteIdent(idx.Name), sqlType(idx.DType)))
	}
	defs = append(defs, quoteIdent(timestampColumn)+" REAL NOT NULL")
	for _, f := range schema.Features {
		defs = append(defs, fmt.Sprintf("%s %s", quoteIdent(f.Name), sqlType(f.DType)))
	}

	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return fmt.Errorf("dropping table %s: %w", table, err)
	}
	createStmt := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
	if _, err := db.ExecContext(ctx, createStmt); err != nil {
		return fmt.Errorf("creating table %s: %w", table, err)
	}

	cols := len(schema.Indexes) + 1 + len(schema.Features)
	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?,", cols), ",") + ")"
	insertStmt := fmt.Sprintf("INSERT INTO %s VALUES %s", quoteIdent(table), placeholders)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertStmt)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, cols)
	for _, key := range es.Keys() {
		data, _ := es.Get(key)
		for i := range data.Timestamps {
			n := 0
			for _, v := range data.Index {
				args[n] = v
				n++
			}
			args[n] = data.Timestamps[i]
			n++
			for _, col := range data.Columns {
				args[n] = col.Value(i)
				n++
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("inserting into %s: %w", table, err)
			}
		}
	}
	return tx.Commit()
}

// ReadOptions configures Read.
type ReadOptions struct {
	// Indexes names the columns to use as index levels.
	Indexes []string

	// IsUnixTimestamp marks timestamps as Unix seconds.
	IsUnixTimestamp bool

	// DTypes overrides the dtype of specific columns.
	DTypes map[string]series.DType
}

// Read loads a whole table into an event set. Column dtypes come from the
// values the driver returns: INTEGER becomes int64, REAL float64 and TEXT
// string, unless overridden in opts.
func Read(ctx context.Context, db *sql.DB, table string, opts ReadOptions) (*series.EventSet, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table)+" ORDER BY "+quoteIdent(timestampColumn))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	tsCol := -1
	for i, name := range names {
		if name == timestampColumn {
			tsCol = i
		}
	}
	if tsCol < 0 {
		return nil, fmt.Errorf("table %s has no %q column", table, timestampColumn)
	}

	values := make([][]any, len(names))
	scan := make([]any, len(names))
	for rows.Next() {
		for i := range scan {
			scan[i] = new(any)
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		for i := range scan {
			values[i] = append(values[i], *scan[i].(*any))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}

	timestamps := make([]float64, len(values[tsCol]))
	for i, v := range values[tsCol] {
		switch x := v.(type) {
		case float64:
			timestamps[i] = x
		case int64:
			timestamps[i] = float64(x)
		default:
			return nil, fmt.Errorf("table %s: non-numeric timestamp %v (%T)", table, v, v)
		}
	}

	var fields []series.Field
	for i, name := range names {
		if i == tsCol {
			continue
		}
		col, err := buildColumn(values[i], opts.DTypes[name])
		if err != nil {
			return nil, fmt.Errorf("table %s, column %q: %w", table, name, err)
		}
		fields = append(fields, series.Field{Name: name, Column: col})
	}

	return series.New(series.NewOptions{
		Timestamps:      timestamps,
		Fields:          fields,
		Indexes:         opts.Indexes,
		IsUnixTimestamp: opts.IsUnixTimestamp,
	})
}

// buildColumn converts driver values into a typed column.
func buildColumn(values []any, dtype series.DType) (series.Column, error) {
	if dtype == series.DTypeInvalid {
		dtype = series.Int64
		for _, v := range values {
			switch v.(type) {
			case int64:
			case nil:
				// NULL carries no type; a missing value fits any dtype.
			case float64:
				if dtype == series.Int64 {
					dtype = series.Float64
				}
			default:
				dtype = series.String
			}
		}
	}
	switch dtype {
	case series.Int64:
		return convertColumn(values, toInt64)
	case series.Int32:
		return convertColumn(values, func(v any) (int32, bool) {
			x, ok := toInt64(v)
			return int32(x), ok
		})
	case series.Float64:
		return convertColumn(values, toFloat64)
	case series.Float32:
		return convertColumn(values, func(v any) (float32, bool) {
			x, ok := toFloat64(v)
			return float32(x), ok
		})
	case series.Bool:
		return convertColumn(values, func(v any) (bool, bool) {
			x, ok := toInt64(v)
			return x != 0, ok
		})
	case series.String:
		return convertColumn(values, toString)
	default:
		return series.Column{}, fmt.Errorf("unsupported dtype %s", dtype)
	}
}

func convertColumn[T series.Value](values []any, conv func(any) (T, bool)) (series.Column, error) {
	data := make([]T, len(values))
	for i, v := range values {
		if v == nil {
			// NULL round-trips a missing value, e.g. a NaN bound on write.
			data[i] = series.Missing[T]()
			continue
		}
		x, ok := conv(v)
		if !ok {
			return series.Column{}, fmt.Errorf("cannot convert %v (%T)", v, v)
		}
		data[i] = x
	}
	return series.NewColumn(data), nil
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

func toString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	default:
		return "", false
	}
}

func sqlType(d series.DType) string {
	switch d {
	case series.Float64, series.Float32:
		return "REAL"
	case series.Int64, series.Int32, series.Bool:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// quoteIdent quotes a SQL identifier; table and column names come from
// schemas, not from query parameters.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
