package graph

import (
	"fmt"
)

// Schedule returns the operators needed to produce the requested outputs from
// the provided input nodes, in a valid execution order. It fails on nodes
// that are neither provided nor produced by an operator, and on cycles.
func Schedule(outputs []*Node, provided map[*Node]bool) ([]Operator, error) {
	// Depth-first walk with the classic three-color scheme: permanent nodes
	// are fully resolved, temporary nodes are on the current stack.
	permanent := make(map[*Node]bool)
	temporary := make(map[*Node]bool)
	var order []Operator
	scheduled := make(map[Operator]bool)

	var visit func(n *Node) error
	visit = func(n *Node) error {
		if permanent[n] {
			return nil
		}
		if temporary[n] {
			return fmt.Errorf("cycle detected in operator graph")
		}
		if provided[n] {
			permanent[n] = true
			return nil
		}
		op := n.Creator()
		if op == nil {
			return fmt.Errorf("input node with schema [%s] was not provided", n.Schema())
		}
		temporary[n] = true
		for _, in := range op.Inputs() {
			if err := visit(in.Node); err != nil {
				return err
			}
		}
		delete(temporary, n)
		// One operator may produce several outputs; resolve them all at once.
		if !scheduled[op] {
			scheduled[op] = true
			order = append(order, op)
		}
		for _, out := range op.Outputs() {
			permanent[out.Node] = true
		}
		return nil
	}

	for _, n := range outputs {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	return order, nil
}
