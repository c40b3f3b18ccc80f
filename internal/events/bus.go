package events

import (
	"context"
	"sync"

	"marketplace-be/internal/logger"

	"go.uber.org/zap"
)

type Handler func(ctx context.Context, e Event) error

// Publisher is what services depend on.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Bus delivers events synchronously to every handler in subscription order.
// A failing handler is logged and does not stop the others.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for i, h := range handlers {
		if err := h(ctx, e); err != nil {
			logger.FromCtx(ctx).Error("event handler failed",
				zap.String("layer", "events"),
				zap.String("event", e.Name()),
				zap.String("key", e.Key()),
				zap.Int("handler", i),
				zap.Error(err),
			)
		}
	}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
