package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace-be/internal/logger"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

const (
	topicPrefix = "marketplace."

	// PublishTimeout bounds one synchronous send so an unreachable broker
	// cannot hold a request or a cron job.
	PublishTimeout = 3 * time.Second
)

// LogSubscriber writes every event to the structured log.
func LogSubscriber(ctx context.Context, e Event) error {
	logger.FromCtx(ctx).Info("domain event",
		zap.String("layer", "events"),
		zap.String("event", e.Name()),
		zap.String("key", e.Key()),
		zap.Any("payload", e),
	)
	return nil
}

type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaSubscriber forwards events as JSON to the topic marketplace.<event-name>.
type KafkaSubscriber struct {
	client  producer
	timeout time.Duration
}

func NewKafkaSubscriber(client producer) *KafkaSubscriber {
	return &KafkaSubscriber{client: client, timeout: PublishTimeout}
}

func NewKafkaClient(brokers []string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.ProduceRequestTimeout(PublishTimeout),
		kgo.RecordDeliveryTimeout(PublishTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return client, nil
}

func Topic(e Event) string {
	return topicPrefix + e.Name()
}

func (k *KafkaSubscriber) Handle(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.Name(), err)
	}

	record := &kgo.Record{
		Topic: Topic(e),
		Key:   []byte(e.Key()),
		Value: value,
	}

	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s: %w", e.Name(), err)
	}
	return nil
}
