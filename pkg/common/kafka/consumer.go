package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/synaptica-ai/cardiorisk/pkg/common/config"
	"github.com/synaptica-ai/cardiorisk/pkg/common/logger"
	"github.com/synaptica-ai/cardiorisk/pkg/common/models"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 500 * time.Millisecond
)

type Consumer struct {
	reader      *kafka.Reader
	maxAttempts int
	retryDelay  time.Duration
}

// EventHandler processes one event. A consumer group reader moves past a
// fetched offset whether or not it is committed, so a failing event is
// retried in place up to maxAttempts times and then skipped.
type EventHandler func(ctx context.Context, event models.Event) error

func NewConsumer(cfg *config.Config, topic string, groupID string) *Consumer {
	if groupID == "" {
		groupID = cfg.KafkaGroupID
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	return &Consumer{reader: reader, maxAttempts: defaultMaxAttempts, retryDelay: defaultRetryDelay}
}

func (c *Consumer) Consume(ctx context.Context, handler EventHandler) error {
	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Log.WithError(err).Error("Failed to fetch message")
			continue
		}

		event, err := DecodeEvent(message.Value)
		if err != nil {
			logger.Log.WithError(err).WithField("offset", message.Offset).Error("Failed to unmarshal event")
			c.commit(ctx, message)
			continue
		}

		if err := c.handle(ctx, handler, event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"event_id":   event.ID,
				"event_type": event.Type,
				"offset":     message.Offset,
				"attempts":   c.maxAttempts,
			}).Error("Dropping event after retries")
		}

		c.commit(ctx, message)
	}
}

// handle runs handler with a doubling delay between failed attempts.
func (c *Consumer) handle(ctx context.Context, handler EventHandler, event models.Event) error {
	attempts := c.maxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := c.retryDelay

	var err error
	for i := 0; i < attempts; i++ {
		if err = handler(ctx, event); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"event_id": event.ID,
			"attempt":  i + 1,
		}).Warn("Failed to process event, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return err
}

func (c *Consumer) commit(ctx context.Context, message kafka.Message) {
	if err := c.reader.CommitMessages(ctx, message); err != nil {
		logger.Log.WithError(err).Error("Failed to commit message")
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func DecodeEvent(value []byte) (models.Event, error) {
	var event models.Event
	err := json.Unmarshal(value, &event)
	return event, err
}
