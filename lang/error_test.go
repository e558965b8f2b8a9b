package lang

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func TestError_IsByKind(t *testing.T) {
	a := NewError("same")
	b := NewError("same")

	derived := a.With(slog.Int("pos", 3)).Reason("bad token")

	if !errors.Is(derived, a) {
		t.Error("derived error should match its sentinel")
	}

	if errors.Is(derived, b) {
		t.Error("sentinels with equal messages should stay distinct")
	}

	if errors.Is(WrapError(io.EOF), a) {
		t.Error("a kindless error matched a sentinel")
	}
}

func TestWrapError(t *testing.T) {
	inner := ErrFilter.Wrap(io.EOF)

	if got := WrapError(inner); got != inner {
		t.Errorf("WrapError should return an existing *Error, got %v", got)
	}

	if got := WrapError(io.EOF); !errors.Is(got, io.EOF) || got.Error() != "EOF" {
		t.Errorf("WrapError(io.EOF) = %v", got)
	}
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{ErrParse, "parse error"},
		{ErrParse.Reason("unexpected ')'"), "parse error: unexpected ')'"},
		{WrapError(io.EOF), "EOF"},
		{&Error{}, ""},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestError_AttrsAreCopied(t *testing.T) {
	base := ErrLex.With(slog.Int("line", 1))
	left := base.With(slog.String("side", "left"))
	right := base.With(slog.String("side", "right"))

	if got := left.Attrs()[1].Value.String(); got != "left" {
		t.Errorf("left side = %q", got)
	}

	if got := right.Attrs()[1].Value.String(); got != "right" {
		t.Errorf("right side = %q", got)
	}

	if n := len(base.Attrs()); n != 1 {
		t.Errorf("base has %d attrs, want 1", n)
	}
}
