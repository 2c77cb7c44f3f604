package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/eventflow/graph"
	"github.com/vk/eventflow/series"
)

// Implementation computes one operator's outputs from its inputs, both keyed
// by port name.
type Implementation interface {
	Run(ctx context.Context, inputs map[string]*series.EventSet) (map[string]*series.EventSet, error)
}

// Factory builds the implementation for one operator instance. Factories may
// reject operators they do not recognize.
type Factory func(op graph.Operator) (Implementation, error)

var (
	implMu       sync.RWMutex
	implRegistry = make(map[string]Factory)
)

// RegisterImplementation binds an operator key to an implementation factory.
// Ops packages call this in init; duplicates panic.
func RegisterImplementation(key string, factory Factory) {
	implMu.Lock()
	defer implMu.Unlock()
	if _, dup := implRegistry[key]; dup {
		panic(fmt.Sprintf("engine: implementation for %q registered twice", key))
	}
	implRegistry[key] = factory
}

// implementationFor resolves the implementation for an operator instance.
func implementationFor(op graph.Operator) (Implementation, error) {
	implMu.RLock()
	factory, ok := implRegistry[op.Key()]
	implMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no implementation registered for operator %q", op.Key())
	}
	return factory(op)
}
