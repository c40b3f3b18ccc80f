package payment

import "errors"

var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrNoOrderInSession = errors.New("no order in session")
	ErrCartStillPresent = errors.New("cart still present in session")
	ErrInvalidAccount   = errors.New("invalid account number")
	ErrUnknownCategory  = errors.New("unknown payment category")
)
