package pricing

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid pricing input")
	ErrInvalidOptionType = errors.New("invalid option type")
)
