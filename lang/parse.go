package lang

import (
	"log/slog"
	"slices"
	"unicode/utf8"
)

// constants are the identifier tokens recognized as literals.
var constants = map[string]any{
	"null":  nil,
	"true":  true,
	"false": false,
}

// parser builds an AST from a token stream by recursive descent.
type parser struct {
	source string
	tokens []Token
	pos    int
}

// parse lexes and parses source into a program.
func parse(source string) (*Program, error) {
	tokens, err := Lex(source)
	if err != nil {
		return nil, err
	}

	p := &parser{source: source, tokens: tokens}

	prog, err := p.program()
	if err != nil {
		return nil, err
	}

	if tok, ok := p.peek(); ok {
		return nil, p.fail("Unexpected token", tok)
	}

	return prog, nil
}

// fail returns a parse error positioned at tok.
func (p *parser) fail(reason string, tok Token) error {
	return ErrParse.Reason(reason).With(
		slog.String("source", p.source),
		slog.String("token", tok.Text),
		slog.Int("pos", tok.Pos),
	)
}

// failEOF returns a parse error for input that ended too early.
func (p *parser) failEOF() error {
	return ErrParse.Reason("Unexpected end of expression").With(
		slog.String("source", p.source),
		slog.Int("pos", utf8.RuneCountInString(p.source)),
	)
}

// peek returns the next token if it matches any of texts, or any next
// token when texts is empty.
func (p *parser) peek(texts ...string) (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}

	tok := p.tokens[p.pos]
	if len(texts) == 0 || slices.Contains(texts, tok.Text) {
		return tok, true
	}

	return Token{}, false
}

// expect consumes and returns the next token if it matches.
func (p *parser) expect(texts ...string) (Token, bool) {
	tok, ok := p.peek(texts...)
	if ok {
		p.pos++
	}

	return tok, ok
}

// consume requires the next token to be text.
func (p *parser) consume(text string) (Token, error) {
	if p.pos >= len(p.tokens) {
		return Token{}, p.failEOF()
	}

	tok, ok := p.expect(text)
	if !ok {
		return Token{}, p.fail("Unexpected token. Expecting: "+text, p.tokens[p.pos])
	}

	return tok, nil
}

// next consumes any token.
func (p *parser) next() (Token, error) {
	tok, ok := p.expect()
	if !ok {
		return Token{}, p.failEOF()
	}

	return tok, nil
}

func (p *parser) program() (*Program, error) {
	prog := &Program{}

	for {
		if _, ok := p.peek("}", ")", ";", "]"); !ok && p.pos < len(p.tokens) {
			stmt, err := p.filterChain()
			if err != nil {
				return nil, err
			}

			prog.Body = append(prog.Body, stmt)
		}

		if _, ok := p.expect(";"); !ok {
			return prog, nil
		}
	}
}

func (p *parser) filterChain() (Node, error) {
	left, err := p.assignment()
	if err != nil {
		return nil, err
	}

	for {
		if _, ok := p.expect("|"); !ok {
			return left, nil
		}

		if left, err = p.filter(left); err != nil {
			return nil, err
		}
	}
}

func (p *parser) filter(input Node) (Node, error) {
	callee, err := p.identifier()
	if err != nil {
		return nil, err
	}

	args := []Node{input}

	for {
		if _, ok := p.expect(":"); !ok {
			break
		}

		arg, err := p.assignment()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)
	}

	return &CallExpression{Callee: callee, Args: args, Filter: true}, nil
}

func (p *parser) assignment() (Node, error) {
	left, err := p.ternary()
	if err != nil {
		return nil, err
	}

	eq, ok := p.expect("=")
	if !ok {
		return left, nil
	}

	switch left.(type) {
	case *Identifier, *MemberExpression:
	default:
		return nil, p.fail("Trying to assign a value to a non l-value", eq)
	}

	right, err := p.ternary()
	if err != nil {
		return nil, err
	}

	return &AssignmentExpression{Left: left, Right: right}, nil
}

func (p *parser) ternary() (Node, error) {
	test, err := p.logicalOR()
	if err != nil {
		return nil, err
	}

	if _, ok := p.expect("?"); !ok {
		return test, nil
	}

	consequent, err := p.assignment()
	if err != nil {
		return nil, err
	}

	if _, err := p.consume(":"); err != nil {
		return nil, err
	}

	alternate, err := p.assignment()
	if err != nil {
		return nil, err
	}

	return &ConditionalExpression{
		Test:       test,
		Consequent: consequent,
		Alternate:  alternate,
	}, nil
}

// binary parses a left-associative chain of operand separated by ops.
func (p *parser) binary(
	operand func() (Node, error),
	build func(op string, left, right Node) Node,
	ops ...string,
) (Node, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.expect(ops...)
		if !ok {
			return left, nil
		}

		right, err := operand()
		if err != nil {
			return nil, err
		}

		left = build(tok.Text, left, right)
	}
}

func logical(op string, left, right Node) Node {
	return &LogicalExpression{Operator: op, Left: left, Right: right}
}

func arithmetic(op string, left, right Node) Node {
	return &BinaryExpression{Operator: op, Left: left, Right: right}
}

func (p *parser) logicalOR() (Node, error) {
	return p.binary(p.logicalAND, logical, "||")
}

func (p *parser) logicalAND() (Node, error) {
	return p.binary(p.equality, logical, "&&")
}

func (p *parser) equality() (Node, error) {
	return p.binary(p.relational, arithmetic, "==", "!=", "===", "!==")
}

func (p *parser) relational() (Node, error) {
	return p.binary(p.additive, arithmetic, "<", ">", "<=", ">=")
}

func (p *parser) additive() (Node, error) {
	return p.binary(p.multiplicative, arithmetic, "+", "-")
}

func (p *parser) multiplicative() (Node, error) {
	return p.binary(p.unary, arithmetic, "*", "/", "%")
}

func (p *parser) unary() (Node, error) {
	tok, ok := p.expect("+", "!", "-")
	if !ok {
		return p.primary()
	}

	arg, err := p.unary()
	if err != nil {
		return nil, err
	}

	return &UnaryExpression{Operator: tok.Text, Argument: arg}, nil
}

func (p *parser) primary() (Node, error) {
	node, err := p.operand()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.expect(".", "[", "(")
		if !ok {
			return node, nil
		}

		switch tok.Text {
		case ".":
			prop, err := p.identifier()
			if err != nil {
				return nil, err
			}

			node = &MemberExpression{Object: node, Property: prop}

		case "[":
			prop, err := p.assignment()
			if err != nil {
				return nil, err
			}

			if _, err := p.consume("]"); err != nil {
				return nil, err
			}

			node = &MemberExpression{Object: node, Property: prop, Computed: true}

		case "(":
			args, err := p.arguments()
			if err != nil {
				return nil, err
			}

			node = &CallExpression{Callee: node, Args: args}
		}
	}
}

// operand parses the head of a primary expression.
func (p *parser) operand() (Node, error) {
	if _, ok := p.expect("("); ok {
		node, err := p.filterChain()
		if err != nil {
			return nil, err
		}

		if _, err := p.consume(")"); err != nil {
			return nil, err
		}

		return node, nil
	}

	if _, ok := p.expect("["); ok {
		return p.array()
	}

	if _, ok := p.expect("{"); ok {
		return p.object()
	}

	tok, err := p.next()
	if err != nil {
		return nil, err
	}

	switch {
	case tok.Identifier && tok.Text == "this":
		return &ThisExpression{}, nil

	case tok.Identifier:
		if v, ok := constants[tok.Text]; ok {
			return &Literal{Value: v}, nil
		}

		return &Identifier{Name: tok.Text}, nil

	case tok.literal():
		return &Literal{Value: tok.Value}, nil
	}

	return nil, p.fail("Unexpected token", tok)
}

func (p *parser) identifier() (*Identifier, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}

	if !tok.Identifier {
		return nil, p.fail("Unexpected token. Expecting: identifier", tok)
	}

	return &Identifier{Name: tok.Text}, nil
}

func (p *parser) arguments() ([]Node, error) {
	var args []Node

	if _, ok := p.peek(")"); !ok {
		for {
			arg, err := p.assignment()
			if err != nil {
				return nil, err
			}

			args = append(args, arg)

			if _, ok := p.expect(","); !ok {
				break
			}
		}
	}

	if _, err := p.consume(")"); err != nil {
		return nil, err
	}

	return args, nil
}

func (p *parser) array() (Node, error) {
	arr := &ArrayExpression{}

	for {
		if _, ok := p.peek("]"); ok {
			break
		}

		elem, err := p.assignment()
		if err != nil {
			return nil, err
		}

		arr.Elements = append(arr.Elements, elem)

		if _, ok := p.expect(","); !ok {
			break
		}
	}

	if _, err := p.consume("]"); err != nil {
		return nil, err
	}

	return arr, nil
}

func (p *parser) object() (Node, error) {
	obj := &ObjectExpression{}

	for {
		if _, ok := p.peek("}"); ok {
			break
		}

		tok, err := p.next()
		if err != nil {
			return nil, err
		}

		prop := &Property{}

		switch {
		case tok.Identifier:
			prop.Key = &Identifier{Name: tok.Text}
		case tok.literal():
			prop.Key = &Literal{Value: tok.Value}
		default:
			return nil, p.fail("Unexpected token. Expecting: property key", tok)
		}

		if _, err := p.consume(":"); err != nil {
			return nil, err
		}

		if prop.Value, err = p.assignment(); err != nil {
			return nil, err
		}

		obj.Properties = append(obj.Properties, prop)

		if _, ok := p.expect(","); !ok {
			break
		}
	}

	if _, err := p.consume("}"); err != nil {
		return nil, err
	}

	return obj, nil
}
