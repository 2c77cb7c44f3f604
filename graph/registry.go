package graph

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// Attrs is a bag of operator arguments decoded from a pipeline manifest.
// Typed accessors validate presence and type, so builders stay short.
type Attrs map[string]any

// String returns a required string attribute.
func (a Attrs) String(name string) (string, error) {
	v, ok := a[name]
	if !ok {
		return "", fmt.Errorf("missing argument %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", name, v)
	}
	return s, nil
}

// Strings returns a required list-of-strings attribute.
func (a Attrs) Strings(name string) ([]string, error) {
	v, ok := a[name]
	if !ok {
		return nil, fmt.Errorf("missing argument %q", name)
	}
	s, ok := v.([]string)
	if !ok {
		return nil, fmt.Errorf("argument %q must be a list of strings, got %T", name, v)
	}
	return s, nil
}

// Float returns a required numeric attribute as float64.
func (a Attrs) Float(name string) (float64, error) {
	v, ok := a[name]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", name)
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("argument %q must be a number, got %T", name, v)
	}
}

// Seconds returns a required duration attribute, given either as a Go
// duration string ("90m", "168h") or as a plain number of seconds, converted
// to seconds.
func (a Attrs) Seconds(name string) (float64, error) {
	v, ok := a[name]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", name)
	}
	switch x := v.(type) {
	case string:
		d, err := time.ParseDuration(x)
		if err != nil {
			return 0, fmt.Errorf("argument %q: %w", name, err)
		}
		return d.Seconds(), nil
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("argument %q must be a duration, got %T", name, v)
	}
}

// Builder constructs an operator from already-built input nodes and manifest
// arguments, returning its primary output node.
type Builder func(inputs []*Node, args Attrs) (*Node, error)

// Definition describes a registered operator type.
type Definition struct {
	// Key is the registry name, e.g. "MOVING_SUM".
	Key string

	// MinInputs and MaxInputs bound the number of manifest inputs.
	// MaxInputs < 0 means unbounded.
	MinInputs, MaxInputs int

	// Build constructs the operator for the pipeline loader.
	Build Builder
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Definition)
)

// Register adds an operator definition. It panics on duplicate keys; ops
// packages register themselves in init, so a duplicate is a programming
// error.
func Register(def Definition) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if def.Key == "" || def.Build == nil {
		panic("graph: Register requires a key and a builder")
	}
	if _, dup := registry[def.Key]; dup {
		panic(fmt.Sprintf("graph: operator %q registered twice", def.Key))
	}
	registry[def.Key] = def
}

// Lookup returns the definition registered under key.
func Lookup(key string) (Definition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	def, ok := registry[key]
	return def, ok
}

// Keys returns all registered operator keys, sorted.
func Keys() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	keys := make([]string, 0, len(registry))
	for key := range registry {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
