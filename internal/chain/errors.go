package chain

import "errors"

var (
	ErrNothingToMerge = errors.New("no contract to merge")
	ErrMergeMismatch  = errors.New("contracts differ in strike or type")
)
