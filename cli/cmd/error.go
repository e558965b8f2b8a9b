package cmd

import (
	"log/slog"
	"slices"
)

// Error is a command failure that carries log attributes. Sentinels are
// made with [NewError] and refined with [Error.With] and [Error.Wrap]; the
// result still matches its sentinel under [errors.Is].
type Error struct {
	msg   string
	cause error
	attrs []slog.Attr
}

func NewError(msg string) *Error { return &Error{msg: msg} }

// WrapError returns an Error with no message of its own around err.
func WrapError(err error) *Error { return &Error{cause: err} }

// Error returns "msg: cause", or whichever of the two is set.
func (e *Error) Error() string {
	switch {
	case e.cause == nil:
		return e.msg
	case e.msg == "":
		return e.cause.Error()
	}

	return e.msg + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any Error with the same message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.msg == e.msg
}

// Wrap returns a copy of e caused by err.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.cause = err

	return &c
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := *e
	c.attrs = append(slices.Clip(e.attrs), attrs...)

	return &c
}

// LogValue groups the message, cause and attributes.
func (e *Error) LogValue() slog.Value {
	var head []slog.Attr

	if e.msg != "" {
		head = append(head, slog.String("error", e.msg))
	}

	if e.cause != nil {
		head = append(head, slog.String("cause", e.cause.Error()))
	}

	return slog.GroupValue(slices.Concat(head, e.attrs)...)
}

var (
	ErrJSONMarshal   = NewError("marshal JSON")
	ErrYAMLMarshal   = NewError("marshal YAML")
	ErrWriteConfig   = NewError("write configuration file")
	ErrFileExists    = NewError("file exists (use --force to overwrite)")
	ErrReadScope     = NewError("read scope document")
	ErrReadScript    = NewError("read script")
	ErrInvalidScript = NewError("invalid script")
	ErrInvalidFormat = NewError("invalid output format")
	ErrNoExpressions = NewError("no expressions to evaluate")
	ErrWatch         = NewError("register watch")
)
