package lang

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Builder provides a programmatic API for constructing syntax trees without
// parsing source text. The result can be compiled with [Parser.Compile].
//
// Example:
//
//	b := lang.NewBuilder()
//	prog := b.Program(
//	    b.Assign(b.Member(b.Ident("user"), "name"), b.String("ada")),
//	)
type Builder struct{}

// NewBuilder creates a new syntax tree builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Program creates a [Program] of the given statements.
func (b *Builder) Program(body ...Node) *Program {
	return &Program{Body: body}
}

// Ident creates an [Identifier].
func (b *Builder) Ident(name string) *Identifier {
	return &Identifier{Name: name}
}

// String creates a string [Literal].
func (b *Builder) String(s string) *Literal {
	return &Literal{Value: s}
}

// Number creates a number [Literal].
func (b *Builder) Number(n float64) *Literal {
	return &Literal{Value: n}
}

// Bool creates a boolean [Literal].
func (b *Builder) Bool(v bool) *Literal {
	return &Literal{Value: v}
}

// Null creates a null [Literal].
func (b *Builder) Null() *Literal {
	return &Literal{}
}

// Member creates a dotted [MemberExpression].
func (b *Builder) Member(object Node, name string) *MemberExpression {
	return &MemberExpression{Object: object, Property: b.Ident(name)}
}

// Index creates a computed [MemberExpression].
func (b *Builder) Index(object, property Node) *MemberExpression {
	return &MemberExpression{Object: object, Property: property, Computed: true}
}

// Call creates a function call.
func (b *Builder) Call(callee Node, args ...Node) *CallExpression {
	return &CallExpression{Callee: callee, Args: args}
}

// Filter creates a filter application of name to input.
func (b *Builder) Filter(input Node, name string, args ...Node) *CallExpression {
	return &CallExpression{
		Callee: b.Ident(name),
		Args:   append([]Node{input}, args...),
		Filter: true,
	}
}

// Assign creates an [AssignmentExpression].
func (b *Builder) Assign(left, right Node) *AssignmentExpression {
	return &AssignmentExpression{Left: left, Right: right}
}

// Binary creates a binary or logical expression for op.
func (b *Builder) Binary(op string, left, right Node) Node {
	if op == "&&" || op == "||" {
		return &LogicalExpression{Operator: op, Left: left, Right: right}
	}

	return &BinaryExpression{Operator: op, Left: left, Right: right}
}

// Unary creates a [UnaryExpression].
func (b *Builder) Unary(op string, arg Node) *UnaryExpression {
	return &UnaryExpression{Operator: op, Argument: arg}
}

// Cond creates a [ConditionalExpression].
func (b *Builder) Cond(test, consequent, alternate Node) *ConditionalExpression {
	return &ConditionalExpression{
		Test:       test,
		Consequent: consequent,
		Alternate:  alternate,
	}
}

// Array creates an [ArrayExpression].
func (b *Builder) Array(elements ...Node) *ArrayExpression {
	return &ArrayExpression{Elements: elements}
}

// Object creates an [ObjectExpression] from alternating keys and values.
// Keys must be strings.
func (b *Builder) Object(kv ...any) *ObjectExpression {
	obj := &ObjectExpression{}

	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		value, _ := kv[i+1].(Node)

		var k Node = b.String(key)
		if validIdent(key) {
			k = b.Ident(key)
		}

		obj.Properties = append(obj.Properties, &Property{Key: k, Value: value})
	}

	return obj
}

// Path creates the member chain named by a dotted path such as
// "user.name". Segments that are not identifiers become computed members.
func (b *Builder) Path(path string) Node {
	parts := strings.Split(path, ".")

	var node Node = b.Ident(parts[0])

	for _, p := range parts[1:] {
		if validIdent(p) {
			node = b.Member(node, p)
		} else {
			node = b.Index(node, b.String(p))
		}
	}

	return node
}

// Value creates a literal node for a normalized value: nil, bool, float64,
// string, []any or map[string]any. Object keys are emitted in sorted order.
func (b *Builder) Value(v any) (Node, error) {
	switch t := Normalize(v).(type) {
	case nil:
		return b.Null(), nil
	case bool:
		return b.Bool(t), nil
	case float64:
		return b.Number(t), nil
	case string:
		return b.String(t), nil

	case []any:
		elems := make([]Node, len(t))
		for i, e := range t {
			n, err := b.Value(e)
			if err != nil {
				return nil, err
			}

			elems[i] = n
		}

		return b.Array(elems...), nil

	case map[string]any:
		kv := make([]any, 0, 2*len(t))
		for _, k := range slices.Sorted(maps.Keys(t)) {
			n, err := b.Value(t[k])
			if err != nil {
				return nil, err
			}

			kv = append(kv, k, n)
		}

		return b.Object(kv...), nil
	}

	return nil, ErrEvaluate.Reason(fmt.Sprintf("no literal for %T", v))
}

func validIdent(s string) bool {
	for i, r := range s {
		if !isIdentStart(r) && (i == 0 || !isDigit(r)) {
			return false
		}
	}

	return s != ""
}
