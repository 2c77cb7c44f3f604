package graph

// Operator is a computation step connecting input nodes to output nodes.
// Concrete operators live in the ops packages; they validate their input
// schemas and infer output schemas when constructed.
type Operator interface {
	// Key identifies the operator type in the definition and implementation
	// registries, e.g. "MOVING_SUM".
	Key() string

	// Inputs returns the named input nodes, in declaration order.
	Inputs() []Port

	// Outputs returns the named output nodes, in declaration order.
	Outputs() []Port
}

// Base provides the bookkeeping shared by all operators. Concrete operators
// embed it and call AddInput / AddOutput during construction.
type Base struct {
	key     string
	inputs  []Port
	outputs []Port
}

// InitBase sets the operator key. Must be called before adding ports.
func (b *Base) InitBase(key string) {
	b.key = key
}

// Key implements Operator.
func (b *Base) Key() string {
	return b.key
}

// Inputs implements Operator.
func (b *Base) Inputs() []Port {
	return b.inputs
}

// Outputs implements Operator.
func (b *Base) Outputs() []Port {
	return b.outputs
}

// AddInput attaches an input node under the given port name.
func (b *Base) AddInput(name string, node *Node) {
	b.inputs = append(b.inputs, Port{Name: name, Node: node})
}

// Input returns the input node with the given port name, or nil.
func (b *Base) Input(name string) *Node {
	for _, p := range b.inputs {
		if p.Name == name {
			return p.Node
		}
	}
	return nil
}

// Output returns the output node with the given port name, or nil.
func (b *Base) Output(name string) *Node {
	for _, p := range b.outputs {
		if p.Name == name {
			return p.Node
		}
	}
	return nil
}

func (b *Base) addOutput(name string, node *Node) {
	b.outputs = append(b.outputs, Port{Name: name, Node: node})
}
