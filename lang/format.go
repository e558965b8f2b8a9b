package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Operator precedence, lowest first.
const (
	precProgram = iota
	precFilter
	precAssign
	precTernary
	precOr
	precAnd
	precEquality
	precRelational
	precAdditive
	precMultiplicative
	precUnary
	precPrimary
)

var binaryPrec = map[string]int{
	"||":  precOr,
	"&&":  precAnd,
	"==":  precEquality,
	"!=":  precEquality,
	"===": precEquality,
	"!==": precEquality,
	"<":   precRelational,
	">":   precRelational,
	"<=":  precRelational,
	">=":  precRelational,
	"+":   precAdditive,
	"-":   precAdditive,
	"*":   precMultiplicative,
	"/":   precMultiplicative,
	"%":   precMultiplicative,
}

func precedence(n Node) int {
	switch n := n.(type) {
	case *Program:
		return precProgram
	case *CallExpression:
		if n.Filter {
			return precFilter
		}
	case *AssignmentExpression:
		return precAssign
	case *ConditionalExpression:
		return precTernary
	case *LogicalExpression:
		return binaryPrec[n.Operator]
	case *BinaryExpression:
		return binaryPrec[n.Operator]
	case *UnaryExpression:
		return precUnary
	}

	return precPrimary
}

// Format writes node in canonical expression syntax. Parentheses are
// emitted only where precedence requires them.
func Format(w io.Writer, node Node) error {
	var sb strings.Builder

	formatNode(&sb, node, precProgram)

	_, err := io.WriteString(w, sb.String())

	return err
}

// FormatString returns node in canonical expression syntax.
func FormatString(node Node) string {
	var sb strings.Builder

	formatNode(&sb, node, precProgram)

	return sb.String()
}

func formatNode(sb *strings.Builder, node Node, prec int) {
	if precedence(node) < prec {
		sb.WriteByte('(')
		formatNode(sb, node, precProgram)
		sb.WriteByte(')')

		return
	}

	switch n := node.(type) {
	case *Program:
		for i, stmt := range n.Body {
			if i > 0 {
				sb.WriteString("; ")
			}

			formatNode(sb, stmt, precFilter)
		}

	case *Literal:
		sb.WriteString(formatLiteral(n.Value))

	case *Identifier:
		sb.WriteString(n.Name)

	case *ThisExpression:
		sb.WriteString("this")

	case *MemberExpression:
		formatNode(sb, n.Object, precPrimary)

		if n.Computed {
			sb.WriteByte('[')
			formatNode(sb, n.Property, precAssign)
			sb.WriteByte(']')
		} else {
			sb.WriteByte('.')
			formatNode(sb, n.Property, precPrimary)
		}

	case *CallExpression:
		if n.Filter {
			formatNode(sb, n.Args[0], precFilter)
			sb.WriteString(" | ")
			formatNode(sb, n.Callee, precPrimary)

			for _, arg := range n.Args[1:] {
				sb.WriteByte(':')
				formatNode(sb, arg, precAssign)
			}

			return
		}

		formatNode(sb, n.Callee, precPrimary)
		sb.WriteByte('(')
		formatList(sb, n.Args)
		sb.WriteByte(')')

	case *AssignmentExpression:
		formatNode(sb, n.Left, precPrimary)
		sb.WriteString(" = ")
		formatNode(sb, n.Right, precTernary)

	case *ConditionalExpression:
		formatNode(sb, n.Test, precOr)
		sb.WriteString(" ? ")
		formatNode(sb, n.Consequent, precAssign)
		sb.WriteString(" : ")
		formatNode(sb, n.Alternate, precAssign)

	case *LogicalExpression:
		p := binaryPrec[n.Operator]
		formatNode(sb, n.Left, p)
		sb.WriteString(" " + n.Operator + " ")
		formatNode(sb, n.Right, p+1)

	case *BinaryExpression:
		p := binaryPrec[n.Operator]
		formatNode(sb, n.Left, p)
		sb.WriteString(" " + n.Operator + " ")
		formatNode(sb, n.Right, p+1)

	case *UnaryExpression:
		sb.WriteString(n.Operator)
		formatNode(sb, n.Argument, precUnary)

	case *ArrayExpression:
		sb.WriteByte('[')
		formatList(sb, n.Elements)
		sb.WriteByte(']')

	case *ObjectExpression:
		sb.WriteByte('{')

		for i, p := range n.Properties {
			if i > 0 {
				sb.WriteString(", ")
			}

			formatNode(sb, p, precPrimary)
		}

		sb.WriteByte('}')

	case *Property:
		formatNode(sb, n.Key, precPrimary)
		sb.WriteString(": ")
		formatNode(sb, n.Value, precAssign)
	}
}

func formatList(sb *strings.Builder, nodes []Node) {
	for i, n := range nodes {
		if i > 0 {
			sb.WriteString(", ")
		}

		formatNode(sb, n, precAssign)
	}
}

func formatLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return quote(t)
	}

	return ToString(v)
}

// quote returns s as a single-quoted string literal the lexer accepts.
func quote(s string) string {
	var sb strings.Builder

	sb.WriteByte('\'')

	for _, r := range s {
		switch r {
		case '\'', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\f':
			sb.WriteString(`\f`)
		case '\v':
			sb.WriteString(`\v`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\u%04x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}

	sb.WriteByte('\'')

	return sb.String()
}

// FormatValue renders a value the way an expression literal would spell
// it. Map keys are sorted.
func FormatValue(v any) string {
	switch t := v.(type) {
	case undefined:
		return "undefined"
	case nil:
		return "null"
	case string:
		return strconv.Quote(t)
	case []any:
		part := make([]string, len(t))
		for i, e := range t {
			part[i] = FormatValue(e)
		}

		return "[" + strings.Join(part, ", ") + "]"
	case map[string]any:
		part := make([]string, 0, len(t))
		for _, k := range sortedKeys(t) {
			part = append(part, k+": "+FormatValue(t[k]))
		}

		return "{" + strings.Join(part, ", ") + "}"
	case Locals:
		return FormatValue(map[string]any(t))
	}

	return ToString(v)
}

// FormatJSON writes the annotated tree of node as JSON.
func FormatJSON(_ context.Context, w io.Writer, node Node, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(Dump(node), "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(Dump(node))
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes the annotated tree of node as YAML.
func FormatYAML(ctx context.Context, w io.Writer, node Node, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, Dump(node), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}
