package physics

import "errors"

var (
	// ErrDegenerateInput indicates coincident positions where a distance is
	// needed as a divisor or to define a direction.
	ErrDegenerateInput = errors.New("physics: degenerate input (coincident positions)")

	// ErrInvalidSettings indicates a Settings value outside its valid range.
	ErrInvalidSettings = errors.New("physics: invalid settings")
)
