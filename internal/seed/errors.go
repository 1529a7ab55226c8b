package seed

import "errors"

// ErrInvalidConfig reports a dataset size the generator cannot satisfy.
var ErrInvalidConfig = errors.New("invalid seed config")
