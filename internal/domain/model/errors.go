package model

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidRound       = errors.New("invalid round")
	ErrInvalidBracketType = errors.New("invalid bracket type")
)
