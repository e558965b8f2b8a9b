package lang

import (
	"errors"
	"strings"
	"testing"
)

func TestLex_Tokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "member and arithmetic",
			input: "a.b + 1.5e3",
			want:  []string{"a", ".", "b", "+", "1.5e3"},
		},
		{
			name:  "longest operator first",
			input: "a!==b===c<=d",
			want:  []string{"a", "!==", "b", "===", "c", "<=", "d"},
		},
		{
			name:  "filter pipe and logical or",
			input: "a || b | f:1",
			want:  []string{"a", "||", "b", "|", "f", ":", "1"},
		},
		{
			name:  "punctuation",
			input: "[{}](),?:;",
			want:  []string{"[", "{", "}", "]", "(", ")", ",", "?", ":", ";"},
		},
		{
			name:  "identifier characters",
			input: "$scope _x a1",
			want:  []string{"$scope", "_x", "a1"},
		},
		{
			name:  "non-breaking space is whitespace",
			input: "a\u00a0b",
			want:  []string{"a", "b"},
		},
		{
			name:  "upper-case exponent is normalized",
			input: "2E2",
			want:  []string{"2e2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("Lex(%q) failed: %v", tt.input, err)
			}

			got := make([]string, len(tokens))
			for i, tok := range tokens {
				got[i] = tok.Text
			}

			if strings.Join(got, " ") != strings.Join(tt.want, " ") {
				t.Errorf("Lex(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLex_Literals(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{"42", 42.0},
		{".5", 0.5},
		{"1e3", 1000.0},
		{"1e+2", 100.0},
		{"25e-1", 2.5},
		{`'single'`, "single"},
		{`"double"`, "double"},
		{`'a\nb'`, "a\nb"},
		{`'tab\there'`, "tab\there"},
		{`'it\'s'`, "it's"},
		{`"say \"hi\""`, `say "hi"`},
		{`'été'`, "été"},
		{`'\q'`, "q"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("Lex(%q) failed: %v", tt.input, err)
			}

			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}

			if tokens[0].Value != tt.want {
				t.Errorf("value = %#v, want %#v", tokens[0].Value, tt.want)
			}

			if tokens[0].Identifier {
				t.Error("literal token marked as identifier")
			}
		})
	}
}

func TestLex_Positions(t *testing.T) {
	tokens, err := Lex("ab + 'c'")
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}

	want := []int{0, 3, 5}
	for i, tok := range tokens {
		if tok.Pos != want[i] {
			t.Errorf("token %q at %d, want %d", tok.Text, tok.Pos, want[i])
		}
	}

	if !tokens[0].Identifier {
		t.Error("expected identifier token")
	}
}

func TestLex_Errors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1e-", "Invalid exponent"},
		{"1e+a", "Invalid exponent"},
		{`'\u12'`, "Invalid unicode escape"},
		{`'\u12zz'`, "Invalid unicode escape"},
		{"'open", "Unterminated string"},
		{"a # b", "Unexpected next character: #"},
		{"a & b", "Unexpected next character: &"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Lex(tt.input)
			if err == nil {
				t.Fatalf("Lex(%q) succeeded, want error", tt.input)
			}

			if !errors.Is(err, ErrLex) {
				t.Errorf("expected ErrLex, got %v", err)
			}

			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}
