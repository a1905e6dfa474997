package data

import "errors"

var (
	// ErrDataUnavailable means the source has nothing for the requested
	// ticker and date. It is not a failure of the source itself.
	ErrDataUnavailable = errors.New("data unavailable")
	ErrInvalidSymbol   = errors.New("invalid option symbol")
	ErrNoSnapshots     = errors.New("no snapshot files found")
)
