package graph

import (
	"github.com/vk/eventflow/series"
)

// Node is a placeholder for an event set inside an operator graph. It carries
// the schema the data will have, and the operator that produces it (nil for
// graph inputs).
type Node struct {
	schema  *series.Schema
	creator Operator
}

// Input creates a graph input node for data with the given schema.
func Input(schema *series.Schema) *Node {
	return &Node{schema: schema}
}

// InputFor creates a graph input node matching an existing event set.
func InputFor(es *series.EventSet) *Node {
	return Input(es.Schema())
}

// Schema returns the node's schema.
func (n *Node) Schema() *series.Schema {
	return n.schema
}

// Creator returns the operator that produces this node, or nil for inputs.
func (n *Node) Creator() Operator {
	return n.creator
}

// Port is a named edge endpoint of an operator.
type Port struct {
	Name string
	Node *Node
}

// NewOutput creates an output node with the given schema, records op as its
// creator and registers it as one of op's output ports. Concrete operators
// call this at the end of their constructors.
func NewOutput(base *Base, op Operator, name string, schema *series.Schema) *Node {
	n := &Node{schema: schema, creator: op}
	base.addOutput(name, n)
	return n
}
