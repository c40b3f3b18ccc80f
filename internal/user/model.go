package user

import "time"

// Profile is the buyer data kept by the identity service. This service only
// reads it to prefill the checkout form.
type Profile struct {
	UserID    int64
	FullName  *string
	Phone     *string
	Email     string
	UpdatedAt time.Time
}

// CheckoutDefaults are the initial checkout form values for a buyer.
type CheckoutDefaults struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}
