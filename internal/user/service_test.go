package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*Profile)
	return p, args.Error(1)
}

func strPtr(s string) *string { return &s }

func TestService_CheckoutDefaults(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetProfile", ctx, int64(1)).Return(&Profile{
			UserID:   1,
			FullName: strPtr("Anna"),
			Phone:    strPtr("+79990001122"),
			Email:    "anna@example.com",
		}, nil)

		got, err := NewService(repo).CheckoutDefaults(ctx, 1, "token@example.com")

		assert.NoError(t, err)
		assert.Equal(t, CheckoutDefaults{Name: "Anna", Phone: "+79990001122", Email: "anna@example.com"}, got)
	})

	t.Run("No profile falls back to token email", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetProfile", ctx, int64(2)).Return(nil, ErrProfileNotFound)

		got, err := NewService(repo).CheckoutDefaults(ctx, 2, "token@example.com")

		assert.NoError(t, err)
		assert.Equal(t, CheckoutDefaults{Email: "token@example.com"}, got)
	})

	t.Run("Partial profile", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetProfile", ctx, int64(4)).Return(&Profile{UserID: 4, Email: "p@example.com"}, nil)

		got, err := NewService(repo).CheckoutDefaults(ctx, 4, "")

		assert.NoError(t, err)
		assert.Equal(t, "", got.Name)
		assert.Equal(t, "p@example.com", got.Email)
	})

	t.Run("DBError", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetProfile", ctx, int64(5)).Return(nil, errors.New("db error"))

		_, err := NewService(repo).CheckoutDefaults(ctx, 5, "x@example.com")

		assert.Error(t, err)
	})
}
