package execctx

import "errors"

// Context validation errors.
var (
	// ErrMissingBuffer indicates the edit buffer is required but not set.
	ErrMissingBuffer = errors.New("execution context: buffer is required")

	// ErrMissingModifier indicates the modifier is required but not set.
	ErrMissingModifier = errors.New("execution context: modifier is required")

	// ErrMissingDisplay indicates the display is required but not set.
	ErrMissingDisplay = errors.New("execution context: display is required")

	// ErrMissingInput indicates input is required but not set.
	ErrMissingInput = errors.New("execution context: input is required")

	// ErrMissingEditor indicates the editor is required but not set.
	ErrMissingEditor = errors.New("execution context: editor is required")
)
