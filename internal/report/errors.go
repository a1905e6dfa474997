package report

import (
	"errors"
	"fmt"

	"github.com/dgnsrekt/optchain-analytics/internal/data"
)

var (
	ErrUnderlyingUnavailable = fmt.Errorf("underlying price: %w", data.ErrDataUnavailable)
	ErrInvalidRequest        = errors.New("invalid report request")
)
