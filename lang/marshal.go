package lang

import (
	"encoding/json"
)

// MarshalJSON implements json.Marshaler for Expression.
func (e *Expression) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToMap())
}

// ToMap describes e as a native Go map. Its source keeps the one-time
// marker.
func (e *Expression) ToMap() map[string]any {
	inputs := make([]any, len(e.Inputs))
	for i, in := range e.Inputs {
		inputs[i] = FormatString(in.AST)
	}

	return map[string]any{
		"source":   e.String(),
		"constant": e.Constant,
		"literal":  e.Literal,
		"oneTime":  e.OneTime,
		"inputs":   inputs,
		"ast":      Dump(e.AST),
	}
}

// Dump converts the annotated tree rooted at node to native Go maps and
// slices, suitable for JSON and YAML encoding.
func Dump(node Node) map[string]any {
	if node == nil {
		return nil
	}

	a := node.Annotation()
	m := map[string]any{
		"type":     node.Kind().String(),
		"constant": a.Constant,
	}

	if a.ToWatch != nil {
		watch := make([]any, len(a.ToWatch))
		for i, w := range a.ToWatch {
			if w == node {
				watch[i] = "(self)"
			} else {
				watch[i] = FormatString(w)
			}
		}

		m["toWatch"] = watch
	}

	switch n := node.(type) {
	case *Program:
		m["body"] = dumpList(n.Body)

	case *Literal:
		m["value"] = n.Value

	case *Identifier:
		m["name"] = n.Name

	case *MemberExpression:
		m["object"] = Dump(n.Object)
		m["property"] = Dump(n.Property)
		m["computed"] = n.Computed

	case *CallExpression:
		m["callee"] = Dump(n.Callee)
		m["arguments"] = dumpList(n.Args)
		m["filter"] = n.Filter

	case *AssignmentExpression:
		m["left"] = Dump(n.Left)
		m["right"] = Dump(n.Right)

	case *UnaryExpression:
		m["operator"] = n.Operator
		m["argument"] = Dump(n.Argument)

	case *BinaryExpression:
		m["operator"] = n.Operator
		m["left"] = Dump(n.Left)
		m["right"] = Dump(n.Right)

	case *LogicalExpression:
		m["operator"] = n.Operator
		m["left"] = Dump(n.Left)
		m["right"] = Dump(n.Right)

	case *ConditionalExpression:
		m["test"] = Dump(n.Test)
		m["consequent"] = Dump(n.Consequent)
		m["alternate"] = Dump(n.Alternate)

	case *ArrayExpression:
		m["elements"] = dumpList(n.Elements)

	case *ObjectExpression:
		props := make([]any, len(n.Properties))
		for i, p := range n.Properties {
			props[i] = Dump(p)
		}

		m["properties"] = props

	case *Property:
		m["key"] = Dump(n.Key)
		m["value"] = Dump(n.Value)
	}

	return m
}

func dumpList(nodes []Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = Dump(n)
	}

	return out
}
