package cmd

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"message", NewError("read script"), "read script"},
		{"wrapped", NewError("read script").Wrap(io.EOF), "read script: EOF"},
		{"cause only", WrapError(io.EOF), "EOF"},
		{"empty", &Error{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err := ErrReadScope.With(slog.String("file", "a.yaml")).Wrap(io.ErrUnexpectedEOF)

	if !errors.Is(err, ErrReadScope) {
		t.Error("derived error should match its sentinel")
	}

	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("derived error should match its cause")
	}

	if errors.Is(err, ErrReadScript) {
		t.Error("derived error matched an unrelated sentinel")
	}
}

func TestError_WithDoesNotShare(t *testing.T) {
	base := ErrWatch.With(slog.Int("watch", 0))
	a := base.With(slog.String("expr", "a"))
	b := base.With(slog.String("expr", "b"))

	got := func(e *Error) string {
		attrs := e.LogValue().Group()

		return attrs[len(attrs)-1].Value.String()
	}

	if got(a) != "a" || got(b) != "b" {
		t.Errorf("siblings share attributes: a=%q b=%q", got(a), got(b))
	}

	if n := len(ErrWatch.LogValue().Group()); n != 1 {
		t.Errorf("sentinel gained attributes: %d", n)
	}
}
