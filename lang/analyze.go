package lang

// analyze annotates node and its descendants with constant and dependency
// information. Filter calls consult filters for statefulness.
func analyze(node Node, filters FilterRegistry) {
	a := node.Annotation()

	switch n := node.(type) {
	case *Program:
		a.Constant = true

		for _, stmt := range n.Body {
			analyze(stmt, filters)
			a.Constant = a.Constant && stmt.Annotation().Constant
		}

	case *Literal:
		a.Constant = true
		a.ToWatch = []Node{}

	case *Identifier, *ThisExpression:
		a.Constant = false
		a.ToWatch = []Node{node}

	case *MemberExpression:
		analyze(n.Object, filters)

		if n.Computed {
			analyze(n.Property, filters)
		}

		a.Constant = false
		a.ToWatch = []Node{node}

	case *CallExpression:
		stateless := n.Filter && !statefulFilter(n.Callee, filters)
		a.Constant = stateless
		a.ToWatch = []Node{}

		for _, arg := range n.Args {
			analyze(arg, filters)

			aa := arg.Annotation()
			a.Constant = a.Constant && aa.Constant

			if stateless && !aa.Constant {
				a.ToWatch = append(a.ToWatch, aa.ToWatch...)
			}
		}

		if !stateless {
			a.ToWatch = []Node{node}
		}

	case *AssignmentExpression:
		analyze(n.Left, filters)
		analyze(n.Right, filters)
		a.Constant = n.Left.Annotation().Constant && n.Right.Annotation().Constant
		a.ToWatch = []Node{node}

	case *UnaryExpression:
		analyze(n.Argument, filters)
		a.Constant = n.Argument.Annotation().Constant
		a.ToWatch = n.Argument.Annotation().ToWatch

	case *BinaryExpression:
		analyze(n.Left, filters)
		analyze(n.Right, filters)
		a.Constant, a.ToWatch = union(n.Left, n.Right)

	case *LogicalExpression:
		analyze(n.Left, filters)
		analyze(n.Right, filters)
		a.Constant, _ = union(n.Left, n.Right)
		a.ToWatch = selfUnlessConstant(node)

	case *ConditionalExpression:
		analyze(n.Test, filters)
		analyze(n.Consequent, filters)
		analyze(n.Alternate, filters)
		a.Constant, _ = union(n.Test, n.Consequent, n.Alternate)
		a.ToWatch = selfUnlessConstant(node)

	case *ArrayExpression:
		for _, e := range n.Elements {
			analyze(e, filters)
		}

		a.Constant, a.ToWatch = union(n.Elements...)

	case *ObjectExpression:
		values := make([]Node, len(n.Properties))
		for i, p := range n.Properties {
			analyze(p.Value, filters)
			values[i] = p.Value
		}

		a.Constant, a.ToWatch = union(values...)
	}
}

// union reports whether all nodes are constant and concatenates the
// dependencies of the ones that are not.
func union(nodes ...Node) (bool, []Node) {
	constant := true
	watch := []Node{}

	for _, n := range nodes {
		a := n.Annotation()
		if a.Constant {
			continue
		}

		constant = false
		watch = append(watch, a.ToWatch...)
	}

	return constant, watch
}

func selfUnlessConstant(node Node) []Node {
	if node.Annotation().Constant {
		return []Node{}
	}

	return []Node{node}
}

func statefulFilter(callee Node, filters FilterRegistry) bool {
	id, ok := callee.(*Identifier)
	if !ok || filters == nil {
		return false
	}

	f, ok := filters.Lookup(id.Name)

	return ok && f.Stateful
}

// inputs returns the nodes whose values determine the value of prog, or
// nil when prog must be re-evaluated as a whole.
func inputs(prog *Program) []Node {
	if len(prog.Body) != 1 {
		return nil
	}

	stmt := prog.Body[0]
	watch := stmt.Annotation().ToWatch

	if len(watch) == 1 && watch[0] == stmt {
		return nil
	}

	return watch
}
