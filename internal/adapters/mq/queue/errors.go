package queue

import "errors"

// ErrClosed is returned when an operation needs an open queue.
var ErrClosed = errors.New("queue closed")
