package sim

import "errors"

var (
	ErrInvalidConfig = errors.New("sim: invalid config")
	ErrUnstable      = errors.New("sim: simulation became unstable")
)
