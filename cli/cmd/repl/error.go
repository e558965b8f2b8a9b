package repl

import "errors"

// Sentinel errors.
var (
	ErrOutOfBounds     = errors.New("index out of range")
	ErrEditDeclined    = errors.New("decline edit")
	ErrNoScope         = errors.New("no root scope")
	ErrMissingArgument = errors.New("missing or invalid argument")
	ErrNoWatch         = errors.New("no such watch")
	ErrNotMapping      = errors.New("document is not a mapping")
)
