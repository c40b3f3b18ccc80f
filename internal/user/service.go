package user

import (
	"context"
	"errors"
)

type Service interface {
	CheckoutDefaults(ctx context.Context, userID int64, fallbackEmail string) (CheckoutDefaults, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// CheckoutDefaults returns name, phone and email for the checkout form. A
// buyer without a profile still gets the email carried by their token.
func (s *service) CheckoutDefaults(ctx context.Context, userID int64, fallbackEmail string) (CheckoutDefaults, error) {
	defaults := CheckoutDefaults{Email: fallbackEmail}

	p, err := s.repo.GetProfile(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return defaults, nil
	}
	if err != nil {
		return defaults, err
	}

	if p.FullName != nil {
		defaults.Name = *p.FullName
	}
	if p.Phone != nil {
		defaults.Phone = *p.Phone
	}
	if p.Email != "" {
		defaults.Email = p.Email
	}
	return defaults, nil
}
