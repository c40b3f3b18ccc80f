package cart

import "errors"

var (
	ErrCartEmpty       = errors.New("cart is empty")
	ErrUnknownChange   = errors.New("unknown cart change")
	ErrFailedLoadCart  = errors.New("failed to load cart")
	ErrFailedSaveCart  = errors.New("failed to save cart")
	ErrListingNotFound = errors.New("listing not found")
)
