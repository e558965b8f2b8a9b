package lang

import (
	"log/slog"
	"strconv"
	"strings"
)

// Token is a lexical unit of an expression.
type Token struct {
	// Text is the raw source text of the token.
	Text string
	// Value is the literal value of number and string tokens, nil otherwise.
	Value any
	// Identifier marks name tokens.
	Identifier bool
	// Pos is the rune offset of the token in the source.
	Pos int
}

// literal reports whether t carries a literal value.
func (t Token) literal() bool { return t.Value != nil }

var escapes = map[rune]rune{
	'n':  '\n',
	'f':  '\f',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
	'\'': '\'',
	'"':  '"',
}

// operators are matched longest first.
var operators = map[string]bool{
	"+":   true,
	"!":   true,
	"-":   true,
	"*":   true,
	"/":   true,
	"%":   true,
	"=":   true,
	"==":  true,
	"!=":  true,
	"===": true,
	"!==": true,
	"<":   true,
	">":   true,
	"<=":  true,
	">=":  true,
	"&&":  true,
	"||":  true,
	"|":   true,
}

const punctuation = "[],{}:.()?;"

// Lexer splits expression source into tokens.
type Lexer struct {
	text   []rune
	index  int
	tokens []Token
}

// Lex tokenizes source.
func Lex(source string) ([]Token, error) {
	l := &Lexer{text: []rune(source)}

	return l.lex()
}

func (l *Lexer) lex() ([]Token, error) {
	for l.index < len(l.text) {
		ch := l.text[l.index]

		var err error

		switch {
		case isDigit(ch) || (ch == '.' && isDigit(l.peek(1))):
			err = l.readNumber()

		case ch == '\'' || ch == '"':
			err = l.readString(ch)

		case strings.ContainsRune(punctuation, ch):
			l.tokens = append(l.tokens, Token{Text: string(ch), Pos: l.index})
			l.index++

		case isIdentStart(ch):
			l.readIdent()

		case isWhitespace(ch):
			l.index++

		default:
			err = l.readOperator()
		}

		if err != nil {
			return nil, err
		}
	}

	return l.tokens, nil
}

// peek returns the rune n positions ahead, or 0 past the end.
func (l *Lexer) peek(n int) rune {
	if l.index+n < len(l.text) {
		return l.text[l.index+n]
	}

	return 0
}

func (l *Lexer) fail(reason string, pos int) error {
	return ErrLex.Reason(reason).With(
		slog.String("source", string(l.text)),
		slog.Int("pos", pos),
	)
}

func (l *Lexer) readOperator() error {
	start := l.index
	for n := 3; n > 0; n-- {
		if start+n > len(l.text) {
			continue
		}

		op := string(l.text[start : start+n])
		if operators[op] {
			l.tokens = append(l.tokens, Token{Text: op, Pos: start})
			l.index += n

			return nil
		}
	}

	return l.fail("Unexpected next character: "+string(l.text[start]), start)
}

func (l *Lexer) readNumber() error {
	start := l.index

	var num strings.Builder

	for l.index < len(l.text) {
		ch := l.text[l.index]
		if ch == 'E' {
			ch = 'e'
		}

		if ch == '.' || isDigit(ch) {
			num.WriteRune(ch)
			l.index++

			continue
		}

		next := l.peek(1)

		var prev rune
		if s := num.String(); s != "" {
			prev = rune(s[len(s)-1])
		}

		switch {
		case ch == 'e' && isExpOperator(next):
			num.WriteRune(ch)

		case isExpOperator(ch) && prev == 'e' && isDigit(next):
			num.WriteRune(ch)

		case isExpOperator(ch) && prev == 'e':
			return l.fail("Invalid exponent", l.index)

		default:
			return l.pushNumber(num.String(), start)
		}

		l.index++
	}

	return l.pushNumber(num.String(), start)
}

func (l *Lexer) pushNumber(text string, pos int) error {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return l.fail("Invalid number: "+text, pos)
	}

	l.tokens = append(l.tokens, Token{Text: text, Value: v, Pos: pos})

	return nil
}

func (l *Lexer) readString(delim rune) error {
	start := l.index
	l.index++

	var (
		str    strings.Builder
		escape bool
	)

	for l.index < len(l.text) {
		ch := l.text[l.index]

		switch {
		case escape:
			if ch == 'u' {
				if l.index+5 > len(l.text) {
					return l.fail("Invalid unicode escape", l.index)
				}

				hex := string(l.text[l.index+1 : l.index+5])

				code, err := strconv.ParseUint(hex, 16, 16)
				if err != nil {
					return l.fail("Invalid unicode escape", l.index)
				}

				str.WriteRune(rune(code))
				l.index += 4
			} else if r, ok := escapes[ch]; ok {
				str.WriteRune(r)
			} else {
				str.WriteRune(ch)
			}

			escape = false

		case ch == delim:
			l.index++
			l.tokens = append(l.tokens, Token{
				Text:  string(l.text[start:l.index]),
				Value: str.String(),
				Pos:   start,
			})

			return nil

		case ch == '\\':
			escape = true

		default:
			str.WriteRune(ch)
		}

		l.index++
	}

	return l.fail("Unterminated string", start)
}

func (l *Lexer) readIdent() {
	start := l.index
	for l.index < len(l.text) &&
		(isIdentStart(l.text[l.index]) || isDigit(l.text[l.index])) {
		l.index++
	}

	l.tokens = append(l.tokens, Token{
		Text:       string(l.text[start:l.index]),
		Identifier: true,
		Pos:        start,
	})
}

func isDigit(ch rune) bool { return '0' <= ch && ch <= '9' }

func isExpOperator(ch rune) bool { return ch == '-' || ch == '+' || isDigit(ch) }

func isIdentStart(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
		ch == '_' || ch == '$'
}

func isWhitespace(ch rune) bool {
	switch ch {
	case ' ', '\r', '\t', '\n', '\v', '\u00a0':
		return true
	}

	return false
}
