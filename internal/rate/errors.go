package rate

import "errors"

var (
	// ErrInvalidConfig is returned by New for a nil store, negative limit, or non-positive window.
	ErrInvalidConfig = errors.New("invalid rate limit configuration")
)
