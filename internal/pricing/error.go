package pricing

import "errors"

var (
	ErrRateUnavailable = errors.New("exchange rate unavailable")
	ErrRateNotFound    = errors.New("exchange rate not found")
)
