package scoring

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrDataInconsistency means a ranked player belongs to no team roster.
	ErrDataInconsistency = errors.New("data inconsistency")
	ErrInvalidScoreTable = errors.New("invalid score table")
)
