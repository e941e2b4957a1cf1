package body

import "errors"

// ErrInvalidGeometry indicates a body that violates its shape invariants
// (non-positive radius or mass, zero-length wall, NaN coordinates).
var ErrInvalidGeometry = errors.New("body: invalid geometry")
