package order

import "errors"

var (
	ErrOrderNotFound            = errors.New("order not found")
	ErrDeliveryCategoryNotFound = errors.New("delivery category not found")
	ErrForbidden                = errors.New("order access forbidden")
)
