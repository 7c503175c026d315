package quant

import "errors"

// Sentinel errors for the analytics operations. Wrapped with operation
// context on return; callers branch with errors.Is.
var (
	// ErrInsufficientData means the series is too short or empty for the
	// requested computation.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidParameter means a caller-supplied parameter is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrDegenerateInput means the input has zero variance where a ratio
	// needs a nonzero denominator.
	ErrDegenerateInput = errors.New("degenerate input")
)
