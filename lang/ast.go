package lang

// Kind identifies the variant of a [Node].
type Kind int

const (
	KindProgram Kind = iota
	KindLiteral
	KindIdentifier
	KindThis
	KindMember
	KindCall
	KindAssignment
	KindUnary
	KindBinary
	KindLogical
	KindConditional
	KindArray
	KindObject
	KindProperty
)

// String returns the name of the node kind.
func (k Kind) String() string {
	switch k {
	case KindProgram:
		return "Program"
	case KindLiteral:
		return "Literal"
	case KindIdentifier:
		return "Identifier"
	case KindThis:
		return "ThisExpression"
	case KindMember:
		return "MemberExpression"
	case KindCall:
		return "CallExpression"
	case KindAssignment:
		return "AssignmentExpression"
	case KindUnary:
		return "UnaryExpression"
	case KindBinary:
		return "BinaryExpression"
	case KindLogical:
		return "LogicalExpression"
	case KindConditional:
		return "ConditionalExpression"
	case KindArray:
		return "ArrayExpression"
	case KindObject:
		return "ObjectExpression"
	case KindProperty:
		return "Property"
	default:
		return "Unknown"
	}
}

// Node is an expression syntax tree node.
type Node interface {
	Kind() Kind
	Annotation() *Annotations
}

// Annotations are filled in by static analysis.
type Annotations struct {
	// Constant is set when the node's value does not depend on any scope.
	Constant bool
	// ToWatch is the minimal set of nodes whose change may change this node.
	ToWatch []Node
}

// Annotation returns the node's analysis results.
func (a *Annotations) Annotation() *Annotations { return a }

type (
	// Program is a sequence of ';'-separated statements.
	Program struct {
		Annotations
		Body []Node
	}

	// Literal is a number, string, boolean or null.
	Literal struct {
		Annotations
		Value any
	}

	Identifier struct {
		Annotations
		Name string
	}

	ThisExpression struct {
		Annotations
	}

	// MemberExpression is object.property or object[property].
	MemberExpression struct {
		Annotations
		Object   Node
		Property Node // *Identifier unless Computed
		Computed bool
	}

	// CallExpression is a function call, or a filter application when
	// Filter is set. Filter calls always have an *Identifier callee and
	// the filtered input as their first argument.
	CallExpression struct {
		Annotations
		Callee Node
		Args   []Node
		Filter bool
	}

	AssignmentExpression struct {
		Annotations
		Left  Node
		Right Node
	}

	UnaryExpression struct {
		Annotations
		Operator string
		Argument Node
	}

	BinaryExpression struct {
		Annotations
		Operator string
		Left     Node
		Right    Node
	}

	// LogicalExpression is && or ||.
	LogicalExpression struct {
		Annotations
		Operator string
		Left     Node
		Right    Node
	}

	ConditionalExpression struct {
		Annotations
		Test       Node
		Consequent Node
		Alternate  Node
	}

	ArrayExpression struct {
		Annotations
		Elements []Node
	}

	ObjectExpression struct {
		Annotations
		Properties []*Property
	}

	// Property is a key: value pair of an object literal. Key is an
	// *Identifier or a *Literal.
	Property struct {
		Annotations
		Key   Node
		Value Node
	}
)

func (*Program) Kind() Kind               { return KindProgram }
func (*Literal) Kind() Kind               { return KindLiteral }
func (*Identifier) Kind() Kind            { return KindIdentifier }
func (*ThisExpression) Kind() Kind        { return KindThis }
func (*MemberExpression) Kind() Kind      { return KindMember }
func (*CallExpression) Kind() Kind        { return KindCall }
func (*AssignmentExpression) Kind() Kind  { return KindAssignment }
func (*UnaryExpression) Kind() Kind       { return KindUnary }
func (*BinaryExpression) Kind() Kind      { return KindBinary }
func (*LogicalExpression) Kind() Kind     { return KindLogical }
func (*ConditionalExpression) Kind() Kind { return KindConditional }
func (*ArrayExpression) Kind() Kind       { return KindArray }
func (*ObjectExpression) Kind() Kind      { return KindObject }
func (*Property) Kind() Kind              { return KindProperty }

// propertyKey returns the property name an object literal key denotes.
func propertyKey(key Node) string {
	switch k := key.(type) {
	case *Identifier:
		return k.Name
	case *Literal:
		return toKey(k.Value)
	}

	return ""
}

// Walk calls fn for node and each of its descendants in depth-first
// pre-order. Returning false from fn skips the node's children.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}

	switch n := node.(type) {
	case *Program:
		for _, s := range n.Body {
			Walk(s, fn)
		}
	case *MemberExpression:
		Walk(n.Object, fn)
		Walk(n.Property, fn)
	case *CallExpression:
		Walk(n.Callee, fn)

		for _, a := range n.Args {
			Walk(a, fn)
		}
	case *AssignmentExpression:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *UnaryExpression:
		Walk(n.Argument, fn)
	case *BinaryExpression:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *LogicalExpression:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *ConditionalExpression:
		Walk(n.Test, fn)
		Walk(n.Consequent, fn)
		Walk(n.Alternate, fn)
	case *ArrayExpression:
		for _, e := range n.Elements {
			Walk(e, fn)
		}
	case *ObjectExpression:
		for _, p := range n.Properties {
			Walk(p, fn)
		}
	case *Property:
		Walk(n.Key, fn)
		Walk(n.Value, fn)
	}
}
