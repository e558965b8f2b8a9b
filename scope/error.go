package scope

import "github.com/ardnew/digest/lang"

// Predefined errors (sentinel values).
var (
	ErrNotConverging = lang.NewError("digest did not converge")
	ErrPhaseConflict = lang.NewError("phase already in progress")
	ErrInvalidTask   = lang.NewError("unsupported task type")
	ErrCallback      = lang.NewError("callback failed")
	ErrDestroyed     = lang.NewError("scope destroyed")
)
