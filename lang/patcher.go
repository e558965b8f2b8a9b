package lang

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/expr-lang/expr/ast"

	"github.com/ardnew/digest/log"
)

const maxPatchDepth = 8

// hyphenPatcher rejoins names like "unit-price" that expr-lang parses as
// subtraction. A chain a-b-c is rewritten to one identifier or member
// access only when the joined name exists in env at that position.
type hyphenPatcher struct {
	env    map[string]any
	logger log.Logger
}

// Visit implements [ast.Visitor]. Children are visited first, so a chain
// is rejoined from its innermost subtraction outward.
func (p *hyphenPatcher) Visit(node *ast.Node) {
	bin, ok := (*node).(*ast.BinaryNode)
	if !ok {
		return
	}

	base, name, ok := hyphenName(bin)
	if !ok {
		return
	}

	var patched ast.Node

	switch path, member := memberPath(base); {
	case base == nil:
		if _, found := p.env[name]; found {
			patched = &ast.IdentifierNode{Value: name}
		}

	case member && p.hasChild(path, name):
		patched = &ast.MemberNode{Node: base, Property: &ast.StringNode{Value: name}}
	}

	if patched == nil {
		return
	}

	ast.Patch(node, patched)
	p.logger.Trace("patch hyphenated",
		slog.String("name", name),
		slog.Bool("member", base != nil))
}

// hyphenName splits bin, a subtraction chain ending in an identifier, into
// the node the name hangs off (nil at top level) and the joined name.
func hyphenName(bin *ast.BinaryNode) (base ast.Node, name string, ok bool) {
	if bin.Operator != "-" {
		return nil, "", false
	}

	right, ok := bin.Right.(*ast.IdentifierNode)
	if !ok {
		return nil, "", false
	}

	switch left := bin.Left.(type) {
	case *ast.IdentifierNode:
		return nil, left.Value + "-" + right.Value, true

	case *ast.MemberNode:
		prop, ok := left.Property.(*ast.StringNode)
		if !ok {
			return nil, "", false
		}

		return left.Node, prop.Value + "-" + right.Value, true

	case *ast.BinaryNode:
		base, name, ok := hyphenName(left)
		if !ok {
			return nil, "", false
		}

		return base, name + "-" + right.Value, true
	}

	return nil, "", false
}

// memberPath returns the names along an identifier or member chain with
// constant properties.
func memberPath(node ast.Node) ([]string, bool) {
	switch n := node.(type) {
	case *ast.IdentifierNode:
		return []string{n.Value}, true

	case *ast.MemberNode:
		prop, ok := n.Property.(*ast.StringNode)
		if !ok {
			return nil, false
		}

		path, ok := memberPath(n.Node)

		return append(path, prop.Value), ok
	}

	return nil, false
}

// hasChild reports whether the map reached through path in env has name.
func (p *hyphenPatcher) hasChild(path []string, name string) bool {
	m := p.env

	for _, seg := range path {
		next, ok := m[seg].(map[string]any)
		if !ok {
			return false
		}

		m = next
	}

	_, ok := m[name]

	return ok
}

// hyphenPaths returns the sorted dotted paths of the hyphenated keys in env
// and its nested maps. Predicates compiled against environments with equal
// paths are patched identically.
func hyphenPaths(env map[string]any) []string {
	var paths []string

	collectHyphenPaths(&paths, "", env, 0)
	slices.Sort(paths)

	return paths
}

func collectHyphenPaths(paths *[]string, prefix string, m map[string]any, depth int) {
	if depth > maxPatchDepth {
		return
	}

	for key, v := range m {
		if strings.Contains(key, "-") {
			*paths = append(*paths, prefix+key)
		}

		if child, ok := v.(map[string]any); ok {
			collectHyphenPaths(paths, prefix+key+".", child, depth+1)
		}
	}
}
