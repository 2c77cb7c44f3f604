package pipeline

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vk/eventflow/efio/csvio"
	"github.com/vk/eventflow/efio/sqliteio"
	"github.com/vk/eventflow/engine"
	"github.com/vk/eventflow/graph"
	"github.com/vk/eventflow/internal/ctxlog"
	"github.com/vk/eventflow/series"
)

// RunOptions tune pipeline execution.
type RunOptions struct {
	// Workers caps operator concurrency. Zero means one worker per CPU,
	// capped at the number of steps.
	Workers int
}

// Run executes the pipeline end to end: load every source, evaluate the
// transform graph, write every sink.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) error {
	logger := ctxlog.FromContext(ctx)

	dbs := newDBCache()
	defer dbs.closeAll()

	sourceSets := make(map[string]*series.EventSet, len(p.Sources))
	sourceNodes := make(map[string]*graph.Node, len(p.Sources))
	for name, src := range p.Sources {
		es, err := loadSource(ctx, src, dbs)
		if err != nil {
			return fmt.Errorf("loading source %q: %w", name, err)
		}
		logger.Info("Loaded source.", "name", name, "events", es.NumEvents(), "keys", es.NumKeys())
		sourceSets[name] = es
		sourceNodes[name] = graph.InputFor(es)
	}

	nodes, err := p.Build(ctx, sourceNodes)
	if err != nil {
		return err
	}

	// Only sink inputs need to survive evaluation.
	var outputs []*graph.Node
	seen := make(map[*graph.Node]bool)
	for _, sink := range p.Sinks {
		node := nodes[sink.Input]
		if !seen[node] {
			seen[node] = true
			outputs = append(outputs, node)
		}
	}

	inputs := make(map[*graph.Node]*series.EventSet, len(sourceSets))
	for name, es := range sourceSets {
		inputs[sourceNodes[name]] = es
	}

	results, err := engine.Evaluate(ctx, outputs, inputs, engine.Options{Workers: opts.Workers})
	if err != nil {
		return err
	}

	for _, sink := range p.Sinks {
		es := results[nodes[sink.Input]]
		if err := writeSink(ctx, sink, es, dbs); err != nil {
			return fmt.Errorf("writing sink %q: %w", sink.Name, err)
		}
		logger.Info("Wrote sink.", "name", sink.Name, "events", es.NumEvents())
	}
	return nil
}

func loadSource(ctx context.Context, src *Source, dbs *dbCache) (*series.EventSet, error) {
	switch {
	case src.CSV != nil:
		opts := csvio.ReadOptions{Indexes: src.Indexes}
		if src.Timestamp != nil {
			opts.Timestamp = *src.Timestamp
		}
		if src.UnixTime != nil {
			opts.IsUnixTimestamp = *src.UnixTime
		}
		return csvio.Read(*src.CSV, opts)
	case src.SQLite != nil:
		db, err := dbs.open(*src.SQLite)
		if err != nil {
			return nil, err
		}
		opts := sqliteio.ReadOptions{Indexes: src.Indexes}
		if src.UnixTime != nil {
			opts.IsUnixTimestamp = *src.UnixTime
		}
		return sqliteio.Read(ctx, db, *src.Table, opts)
	default:
		return nil, fmt.Errorf("source %q has no storage", src.Name)
	}
}

func writeSink(ctx context.Context, sink *Sink, es *series.EventSet, dbs *dbCache) error {
	switch {
	case sink.CSV != nil:
		return csvio.Write(es, *sink.CSV)
	case sink.SQLite != nil:
		db, err := dbs.open(*sink.SQLite)
		if err != nil {
			return err
		}
		return sqliteio.Write(ctx, db, *sink.Table, es)
	default:
		return fmt.Errorf("sink %q has no storage", sink.Name)
	}
}

// dbCache shares one handle per database path across sources and sinks.
type dbCache struct {
	handles map[string]*sql.DB
}

func newDBCache() *dbCache {
	return &dbCache{handles: make(map[string]*sql.DB)}
}

func (c *dbCache) open(path string) (*sql.DB, error) {
	if db, ok := c.handles[path]; ok {
		return db, nil
	}
	db, err := sqliteio.Open(path)
	if err != nil {
		return nil, err
	}
	c.handles[path] = db
	return db, nil
}

func (c *dbCache) closeAll() {
	for _, db := range c.handles {
		db.Close()
	}
}
