package pipeline

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// ArgsBlock carries op-specific arguments as an undecoded HCL body; Build
// turns it into graph.Attrs for the operator's builder.
type ArgsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Source declares where an input event set comes from.
type Source struct {
	Name      string   `hcl:"name,label"`
	CSV       *string  `hcl:"csv,optional"`
	SQLite    *string  `hcl:"sqlite,optional"`
	Table     *string  `hcl:"table,optional"`
	Indexes   []string `hcl:"indexes,optional"`
	Timestamp *string  `hcl:"timestamp,optional"`
	UnixTime  *bool    `hcl:"unix_time,optional"`
}

// Transform declares one operator application. Either Input or Inputs must
// be set; Inputs preserves order for multi-input operators.
type Transform struct {
	Name   string     `hcl:"name,label"`
	Op     string     `hcl:"op"`
	Input  *string    `hcl:"input,optional"`
	Inputs []string   `hcl:"inputs,optional"`
	Args   *ArgsBlock `hcl:"args,block"`
}

// inputNames normalizes Input / Inputs into one ordered list.
func (t *Transform) inputNames() ([]string, error) {
	switch {
	case t.Input != nil && len(t.Inputs) > 0:
		return nil, fmt.Errorf("transform %q: set either input or inputs, not both", t.Name)
	case t.Input != nil:
		return []string{*t.Input}, nil
	case len(t.Inputs) > 0:
		return t.Inputs, nil
	default:
		return nil, fmt.Errorf("transform %q: missing input", t.Name)
	}
}

// Sink declares where a node's event set is written.
type Sink struct {
	Name   string  `hcl:"name,label"`
	Input  string  `hcl:"input"`
	CSV    *string `hcl:"csv,optional"`
	SQLite *string `hcl:"sqlite,optional"`
	Table  *string `hcl:"table,optional"`
}

// fileRoot decodes all top-level blocks of one manifest file.
type fileRoot struct {
	Sources    []*Source    `hcl:"source,block"`
	Transforms []*Transform `hcl:"transform,block"`
	Sinks      []*Sink      `hcl:"sink,block"`
	Remain     hcl.Body     `hcl:",remain"`
}

// Pipeline is the merged model of all loaded manifest files.
type Pipeline struct {
	Sources    map[string]*Source
	Transforms []*Transform
	Sinks      []*Sink
}

// validate checks name uniqueness, references and storage declarations.
func (p *Pipeline) validate() error {
	names := make(map[string]string)
	for name := range p.Sources {
		names[name] = "source"
	}
	for _, t := range p.Transforms {
		if kind, dup := names[t.Name]; dup {
			return fmt.Errorf("transform %q collides with a %s of the same name", t.Name, kind)
		}
		names[t.Name] = "transform"
	}

	for name, s := range p.Sources {
		if err := checkStorage(s.CSV, s.SQLite, s.Table); err != nil {
			return fmt.Errorf("source %q: %w", name, err)
		}
	}
	for _, t := range p.Transforms {
		inputs, err := t.inputNames()
		if err != nil {
			return err
		}
		for _, in := range inputs {
			if _, ok := names[in]; !ok {
				return fmt.Errorf("transform %q: unknown input %q", t.Name, in)
			}
		}
	}
	if len(p.Sinks) == 0 {
		return fmt.Errorf("pipeline declares no sinks")
	}
	for _, s := range p.Sinks {
		if _, ok := names[s.Input]; !ok {
			return fmt.Errorf("sink %q: unknown input %q", s.Name, s.Input)
		}
		if err := checkStorage(s.CSV, s.SQLite, s.Table); err != nil {
			return fmt.Errorf("sink %q: %w", s.Name, err)
		}
	}
	return nil
}

func checkStorage(csv, sqlite, table *string) error {
	switch {
	case csv != nil && sqlite != nil:
		return fmt.Errorf("set either csv or sqlite, not both")
	case csv == nil && sqlite == nil:
		return fmt.Errorf("set csv or sqlite")
	case sqlite != nil && table == nil:
		return fmt.Errorf("sqlite storage needs a table")
	case csv != nil && table != nil:
		return fmt.Errorf("table is only valid with sqlite storage")
	}
	return nil
}
