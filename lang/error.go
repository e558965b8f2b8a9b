package lang

import (
	"errors"
	"log/slog"
	"slices"
)

var (
	ErrLex       = NewError("lex error")
	ErrParse     = NewError("parse error")
	ErrFilter    = NewError("filter error")
	ErrSecurity  = NewError("security violation")
	ErrEvaluate  = NewError("evaluation failed")
	ErrReadInput = NewError("failed to read input")
)

// Error is an error that carries log attributes and renders them through
// [slog.LogValuer].
//
// Errors derived from a sentinel by [Error.Wrap], [Error.With] or
// [Error.Reason] match that sentinel under [errors.Is], even when two
// sentinels share a message.
type Error struct {
	kind  *Error // originating sentinel
	msg   string
	cause error
	attrs []slog.Attr
}

// NewError returns a sentinel.
func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.kind = e

	return e
}

// WrapError returns err itself if it already is an [*Error], or an Error
// with no kind around it.
func WrapError(err error) *Error {
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{cause: err}
}

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

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t != nil && e.kind != nil && e.kind == t.kind
}

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

// Attrs returns the attributes attached to e.
func (e *Error) Attrs() []slog.Attr { return e.attrs }

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

// Reason returns a copy of e caused by a plain message.
func (e *Error) Reason(msg string) *Error { return e.Wrap(errors.New(msg)) }
