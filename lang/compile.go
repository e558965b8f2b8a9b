package lang

import (
	"errors"
	"log/slog"
	"math"
	"strings"
)

// evalFunc is a compiled node.
type evalFunc func(ctx Context, locals Locals) any

// refFunc resolves a node to the value it denotes and the object holding
// it, which a call uses as its context.
type refFunc func(ctx Context, locals Locals) (holder, value any)

// targetFunc resolves an assignment target to its holder and member name.
type targetFunc func(ctx Context, locals Locals) (holder any, name string)

// Expression is a compiled expression.
type Expression struct {
	// Source is the expression text without any one-time marker.
	Source string
	// AST is the annotated syntax tree.
	AST *Program

	// Constant is set when the value never depends on a scope.
	Constant bool
	// Literal is set when the value is a literal, array or object
	// expression.
	Literal bool
	// OneTime is set when the source began with "::".
	OneTime bool

	// Inputs are independently compiled expressions whose values fully
	// determine the value of this one. Inputs is nil when no such set
	// exists.
	Inputs []*Expression

	eval evalFunc
}

// Eval evaluates e against ctx with locals taking precedence.
func (e *Expression) Eval(ctx Context, locals Locals) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			ee, ok := r.(*Error)
			if !ok {
				panic(r)
			}

			result, err = Undefined, ee.With(slog.String("source", e.Source))
		}
	}()

	return e.eval(ctx, locals), nil
}

// String returns the source of e.
func (e *Expression) String() string {
	prefix := ""
	if e.OneTime {
		prefix = "::"
	}

	return prefix + e.Source
}

// raise aborts evaluation with err.
func raise(err error) {
	var ee *Error
	if errors.As(err, &ee) {
		panic(ee)
	}

	panic(ErrEvaluate.Wrap(err))
}

// must raises err if it is not nil.
func must(err error) {
	if err != nil {
		raise(err)
	}
}

// compile parses, analyzes and compiles source.
func compile(source string, filters FilterRegistry) (*Expression, error) {
	oneTime := false
	if strings.HasPrefix(source, "::") {
		oneTime = true
		source = source[2:]
	}

	prog, err := parse(source)
	if err != nil {
		return nil, err
	}

	return compileProgram(source, prog, oneTime, filters)
}

// compileProgram analyzes and compiles prog.
func compileProgram(
	source string,
	prog *Program,
	oneTime bool,
	filters FilterRegistry,
) (*Expression, error) {
	analyze(prog, filters)

	c := &compiler{filters: filters}

	eval, err := c.node(prog, false)
	if err != nil {
		return nil, err
	}

	e := &Expression{
		Source:   source,
		AST:      prog,
		Constant: prog.Constant,
		Literal:  isLiteral(prog),
		OneTime:  oneTime,
		eval:     eval,
	}

	if in := inputs(prog); in != nil {
		e.Inputs = make([]*Expression, len(in))

		for i, node := range in {
			eval, err := c.node(node, false)
			if err != nil {
				return nil, err
			}

			e.Inputs[i] = &Expression{
				Source:   source,
				AST:      &Program{Body: []Node{node}},
				Constant: node.Annotation().Constant,
				eval:     eval,
			}
		}
	}

	return e, nil
}

func isLiteral(prog *Program) bool {
	switch len(prog.Body) {
	case 0:
		return true
	case 1:
		switch prog.Body[0].(type) {
		case *Literal, *ArrayExpression, *ObjectExpression:
			return true
		}
	}

	return false
}

// compiler maps syntax tree nodes to closures.
type compiler struct {
	filters FilterRegistry
}

func (c *compiler) nodes(nodes []Node) ([]evalFunc, error) {
	out := make([]evalFunc, len(nodes))

	for i, n := range nodes {
		f, err := c.node(n, false)
		if err != nil {
			return nil, err
		}

		out[i] = f
	}

	return out, nil
}

// node compiles n. In create mode, missing identifiers and members along
// the path are initialized to empty objects.
func (c *compiler) node(n Node, create bool) (evalFunc, error) {
	switch n := n.(type) {
	case *Program:
		return c.program(n)

	case *Literal:
		value := n.Value

		return func(Context, Locals) any { return value }, nil

	case *Identifier, *MemberExpression:
		ref, err := c.ref(n, create)
		if err != nil {
			return nil, err
		}

		return func(ctx Context, locals Locals) any {
			_, v := ref(ctx, locals)

			return v
		}, nil

	case *ThisExpression:
		return func(ctx Context, _ Locals) any {
			if ctx == nil {
				return Undefined
			}

			return ctx
		}, nil

	case *CallExpression:
		if n.Filter {
			return c.filter(n)
		}

		return c.call(n)

	case *AssignmentExpression:
		return c.assignment(n)

	case *UnaryExpression:
		return c.unary(n)

	case *BinaryExpression:
		return c.binary(n)

	case *LogicalExpression:
		return c.logical(n)

	case *ConditionalExpression:
		return c.conditional(n)

	case *ArrayExpression:
		elems, err := c.nodes(n.Elements)
		if err != nil {
			return nil, err
		}

		return func(ctx Context, locals Locals) any {
			arr := make([]any, len(elems))
			for i, e := range elems {
				arr[i] = e(ctx, locals)
			}

			return arr
		}, nil

	case *ObjectExpression:
		keys := make([]string, len(n.Properties))
		values := make([]evalFunc, len(n.Properties))

		for i, p := range n.Properties {
			keys[i] = propertyKey(p.Key)

			v, err := c.node(p.Value, false)
			if err != nil {
				return nil, err
			}

			values[i] = v
		}

		return func(ctx Context, locals Locals) any {
			obj := make(map[string]any, len(keys))
			for i, k := range keys {
				obj[k] = values[i](ctx, locals)
			}

			return obj
		}, nil
	}

	return nil, ErrParse.Reason("Unknown node type").
		With(slog.String("kind", n.Kind().String()))
}

func (c *compiler) program(n *Program) (evalFunc, error) {
	body, err := c.nodes(n.Body)
	if err != nil {
		return nil, err
	}

	return func(ctx Context, locals Locals) any {
		var last any = Undefined
		for _, stmt := range body {
			last = stmt(ctx, locals)
		}

		return last
	}, nil
}

// ref compiles an identifier or member expression into a resolver that
// also reports the holder of the value. Other nodes have no holder.
func (c *compiler) ref(n Node, create bool) (refFunc, error) {
	switch n := n.(type) {
	case *Identifier:
		if err := RejectMemberName(n.Name); err != nil {
			return nil, err
		}

		name := n.Name

		return func(ctx Context, locals Locals) (any, any) {
			if v, ok := locals[name]; ok {
				must(RejectUnsafeObject(v))

				return locals, v
			}

			if ctx == nil {
				return nil, Undefined
			}

			v, ok := ctx.Lookup(name)
			if !ok {
				v = Undefined

				if create {
					v = map[string]any{}
					ctx.Assign(name, v)
				}
			}

			must(RejectUnsafeObject(v))

			return ctx, v
		}, nil

	case *MemberExpression:
		object, err := c.node(n.Object, create)
		if err != nil {
			return nil, err
		}

		key, err := c.memberKey(n)
		if err != nil {
			return nil, err
		}

		return func(ctx Context, locals Locals) (any, any) {
			obj := object(ctx, locals)
			name := key(ctx, locals)

			if create && Truthy(obj) && !Truthy(member(obj, name)) {
				must(setMember(obj, name, map[string]any{}))
			}

			if !Truthy(obj) {
				return obj, Undefined
			}

			v := member(obj, name)
			must(RejectUnsafeObject(v))

			return obj, v
		}, nil
	}

	eval, err := c.node(n, create)
	if err != nil {
		return nil, err
	}

	return func(ctx Context, locals Locals) (any, any) {
		return nil, eval(ctx, locals)
	}, nil
}

// memberKey compiles the property of a member expression.
func (c *compiler) memberKey(n *MemberExpression) (func(Context, Locals) string, error) {
	if !n.Computed {
		id, ok := n.Property.(*Identifier)
		if !ok {
			return nil, ErrParse.Reason("Unexpected token. Expecting: identifier")
		}

		if err := RejectMemberName(id.Name); err != nil {
			return nil, err
		}

		name := id.Name

		return func(Context, Locals) string { return name }, nil
	}

	prop, err := c.node(n.Property, false)
	if err != nil {
		return nil, err
	}

	return func(ctx Context, locals Locals) string {
		name := toKey(prop(ctx, locals))
		must(RejectMemberName(name))

		return name
	}, nil
}

// target compiles the left side of an assignment.
func (c *compiler) target(n Node) (targetFunc, error) {
	switch n := n.(type) {
	case *Identifier:
		if err := RejectMemberName(n.Name); err != nil {
			return nil, err
		}

		name := n.Name

		return func(ctx Context, locals Locals) (any, string) {
			if _, ok := locals[name]; ok {
				return locals, name
			}

			if ctx == nil {
				raise(ErrEvaluate.Reason("no context to assign " + name))
			}

			return ctx, name
		}, nil

	case *MemberExpression:
		object, err := c.node(n.Object, true)
		if err != nil {
			return nil, err
		}

		key, err := c.memberKey(n)
		if err != nil {
			return nil, err
		}

		return func(ctx Context, locals Locals) (any, string) {
			obj := object(ctx, locals)
			name := key(ctx, locals)

			if !Truthy(obj) {
				raise(ErrEvaluate.Reason("cannot set property " + name +
					" of " + ToString(obj)))
			}

			return obj, name
		}, nil
	}

	return nil, ErrParse.Reason("Trying to assign a value to a non l-value").
		With(slog.String("kind", n.Kind().String()))
}

func (c *compiler) assignment(n *AssignmentExpression) (evalFunc, error) {
	right, err := c.node(n.Right, false)
	if err != nil {
		return nil, err
	}

	target, err := c.target(n.Left)
	if err != nil {
		return nil, err
	}

	return func(ctx Context, locals Locals) any {
		holder, name := target(ctx, locals)

		v := right(ctx, locals)
		must(RejectUnsafeObject(v))
		must(setMember(holder, name, v))

		return v
	}, nil
}

func (c *compiler) filter(n *CallExpression) (evalFunc, error) {
	id, ok := n.Callee.(*Identifier)
	if !ok {
		return nil, ErrParse.Reason("Unexpected token. Expecting: identifier")
	}

	var (
		f     Filter
		found bool
	)

	if c.filters != nil {
		f, found = c.filters.Lookup(id.Name)
	}

	if !found || f.Func == nil {
		return nil, ErrFilter.Reason("unknown filter " + id.Name).
			With(slog.String("filter", id.Name))
	}

	args, err := c.nodes(n.Args)
	if err != nil {
		return nil, err
	}

	name, fn := id.Name, f.Func

	return func(ctx Context, locals Locals) any {
		input := args[0](ctx, locals)

		rest := make([]any, len(args)-1)
		for i, a := range args[1:] {
			rest[i] = a(ctx, locals)
		}

		v, err := fn(input, rest...)
		if err != nil {
			var ee *Error
			if !errors.As(err, &ee) {
				ee = ErrFilter.Wrap(err)
			}

			raise(ee.With(slog.String("filter", name)))
		}

		return v
	}, nil
}

func (c *compiler) call(n *CallExpression) (evalFunc, error) {
	callee, err := c.ref(n.Callee, false)
	if err != nil {
		return nil, err
	}

	args, err := c.nodes(n.Args)
	if err != nil {
		return nil, err
	}

	return func(ctx Context, locals Locals) any {
		holder, fn := callee(ctx, locals)
		if holder != nil {
			must(RejectUnsafeObject(holder))
		}

		must(RejectUnsafeFunction(fn))

		if isNullish(fn) {
			return Undefined
		}

		values := make([]any, len(args))
		for i, a := range args {
			values[i] = a(ctx, locals)
			must(RejectUnsafeObject(values[i]))
		}

		if !callable(fn) {
			raise(ErrEvaluate.Reason(typeName(fn) + " is not a function"))
		}

		v, err := call(fn, values)
		if err != nil {
			raise(ErrEvaluate.Wrap(err))
		}

		must(RejectUnsafeObject(v))

		return v
	}, nil
}

func (c *compiler) unary(n *UnaryExpression) (evalFunc, error) {
	arg, err := c.node(n.Argument, false)
	if err != nil {
		return nil, err
	}

	switch n.Operator {
	case "+":
		return func(ctx Context, locals Locals) any {
			return ToNumber(ifDefined(arg(ctx, locals), 0))
		}, nil
	case "-":
		return func(ctx Context, locals Locals) any {
			return -ToNumber(ifDefined(arg(ctx, locals), 0))
		}, nil
	case "!":
		return func(ctx Context, locals Locals) any {
			return !Truthy(ifDefined(arg(ctx, locals), 0))
		}, nil
	}

	return nil, ErrParse.Reason("Unknown unary operator " + n.Operator)
}

// binaryOps implement every binary operator except + and -, which
// coalesce undefined operands.
var binaryOps = map[string]func(a, b any) any{
	"*":   func(a, b any) any { return ToNumber(a) * ToNumber(b) },
	"/":   func(a, b any) any { return ToNumber(a) / ToNumber(b) },
	"%":   func(a, b any) any { return math.Mod(ToNumber(a), ToNumber(b)) },
	"==":  func(a, b any) any { return LooseEqual(a, b) },
	"!=":  func(a, b any) any { return !LooseEqual(a, b) },
	"===": func(a, b any) any { return StrictEqual(a, b) },
	"!==": func(a, b any) any { return !StrictEqual(a, b) },
	"<":   func(a, b any) any { return compare(a, b, func(c int) bool { return c < 0 }) },
	">":   func(a, b any) any { return compare(a, b, func(c int) bool { return c > 0 }) },
	"<=":  func(a, b any) any { return compare(a, b, func(c int) bool { return c <= 0 }) },
	">=":  func(a, b any) any { return compare(a, b, func(c int) bool { return c >= 0 }) },
}

func (c *compiler) binary(n *BinaryExpression) (evalFunc, error) {
	left, err := c.node(n.Left, false)
	if err != nil {
		return nil, err
	}

	right, err := c.node(n.Right, false)
	if err != nil {
		return nil, err
	}

	switch n.Operator {
	case "+":
		return func(ctx Context, locals Locals) any {
			return add(ifDefined(left(ctx, locals), 0), ifDefined(right(ctx, locals), 0))
		}, nil
	case "-":
		return func(ctx Context, locals Locals) any {
			a := ToNumber(ifDefined(left(ctx, locals), 0))

			return a - ToNumber(ifDefined(right(ctx, locals), 0))
		}, nil
	}

	op, ok := binaryOps[n.Operator]
	if !ok {
		return nil, ErrParse.Reason("Unknown binary operator " + n.Operator)
	}

	return func(ctx Context, locals Locals) any {
		a := left(ctx, locals)

		return op(a, right(ctx, locals))
	}, nil
}

func (c *compiler) logical(n *LogicalExpression) (evalFunc, error) {
	left, err := c.node(n.Left, false)
	if err != nil {
		return nil, err
	}

	right, err := c.node(n.Right, false)
	if err != nil {
		return nil, err
	}

	and := n.Operator == "&&"

	return func(ctx Context, locals Locals) any {
		v := left(ctx, locals)
		if Truthy(v) == and {
			return right(ctx, locals)
		}

		return v
	}, nil
}

func (c *compiler) conditional(n *ConditionalExpression) (evalFunc, error) {
	test, err := c.node(n.Test, false)
	if err != nil {
		return nil, err
	}

	consequent, err := c.node(n.Consequent, false)
	if err != nil {
		return nil, err
	}

	alternate, err := c.node(n.Alternate, false)
	if err != nil {
		return nil, err
	}

	return func(ctx Context, locals Locals) any {
		if Truthy(test(ctx, locals)) {
			return consequent(ctx, locals)
		}

		return alternate(ctx, locals)
	}, nil
}

func ifDefined(v, def any) any {
	if IsUndefined(v) {
		return def
	}

	return v
}

// add implements +. Strings and non-primitive operands concatenate.
func add(a, b any) any {
	_, as := a.(string)
	_, bs := b.(string)

	if as || bs || !primitive(a) || !primitive(b) {
		return ToString(a) + ToString(b)
	}

	return ToNumber(a) + ToNumber(b)
}

// compare applies the relational test to the ordering of a and b. Two
// strings compare lexically. Otherwise both operands compare as numbers,
// and any comparison involving NaN is false.
func compare(a, b any, test func(int) bool) bool {
	sa, aok := a.(string)
	sb, bok := b.(string)

	if aok && bok {
		return test(strings.Compare(sa, sb))
	}

	na, nb := ToNumber(a), ToNumber(b)

	switch {
	case math.IsNaN(na) || math.IsNaN(nb):
		return false
	case na < nb:
		return test(-1)
	case na > nb:
		return test(1)
	}

	return test(0)
}
