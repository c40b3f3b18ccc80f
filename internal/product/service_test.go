package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace-be/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetListing(ctx context.Context, id int64) (*Listing, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).(*Listing)
	return l, args.Error(1)
}

func (m *MockRepository) GetListings(ctx context.Context, ids []int64) (map[int64]*Listing, error) {
	args := m.Called(ctx, ids)
	l, _ := args.Get(0).(map[int64]*Listing)
	return l, args.Error(1)
}

func (m *MockRepository) ExpireDiscounts(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) {
	p.events = append(p.events, e)
}

func TestService_InvalidateDiscounts(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC)

	t.Run("Expires and publishes", func(t *testing.T) {
		repo := new(MockRepository)
		pub := &recordingPublisher{}
		svc := NewService(repo, pub).(*service)
		svc.now = func() time.Time { return now }

		repo.On("ExpireDiscounts", ctx, now).Return(int64(2), nil).Once()
		repo.On("ExpireDiscounts", ctx, now).Return(int64(0), nil).Once()

		count, err := svc.InvalidateDiscounts(ctx)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), count)

		// second run is a no-op
		count, err = svc.InvalidateDiscounts(ctx)
		assert.NoError(t, err)
		assert.Zero(t, count)

		assert.Len(t, pub.events, 1)
		assert.Equal(t, int64(2), pub.events[0].(events.DiscountsExpired).Count)
		repo.AssertExpectations(t)
	})

	t.Run("RepoError", func(t *testing.T) {
		repo := new(MockRepository)
		pub := &recordingPublisher{}
		svc := NewService(repo, pub)

		repo.On("ExpireDiscounts", ctx, mock.Anything).Return(int64(0), errors.New("db error"))

		_, err := svc.InvalidateDiscounts(ctx)

		assert.Error(t, err)
		assert.Empty(t, pub.events)
	})
}

func TestService_GetListing(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := NewService(repo, nil)

	repo.On("GetListing", ctx, int64(9)).Return(nil, ErrListingNotFound)

	_, err := svc.GetListing(ctx, 9)

	assert.ErrorIs(t, err, ErrListingNotFound)
}
