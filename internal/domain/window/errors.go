package window

import "errors"

// ErrInvalidWindowSpec marks a selector that could not be parsed. The
// accompanying window is always the all-time window.
var ErrInvalidWindowSpec = errors.New("invalid window spec")
