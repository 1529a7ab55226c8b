package service

import "errors"

// Sentinel kinds returned by the service.
var (
	// ErrBackpressure means the ingest queue is full; retry later.
	ErrBackpressure = errors.New("ingest queue full")
	ErrNotStarted   = errors.New("service not started")
)
