package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Brokers       string
	Topic         string
	ConsumerGroup string
}

// Consumer reads document events from Kafka and hands them to a Processor
type Consumer struct {
	consumer  *kafka.Consumer
	processor *Processor
	config    *ConsumerConfig
	logger    *slog.Logger
}

// NewConsumer creates a new Kafka consumer with manual offset commits
func NewConsumer(config *ConsumerConfig, processor *Processor, logger *slog.Logger) (*Consumer, error) {
	consumerConfig := &kafka.ConfigMap{
		"bootstrap.servers":  config.Brokers,
		"group.id":           config.ConsumerGroup,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	}

	c, err := kafka.NewConsumer(consumerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	logger.Info("Kafka consumer initialized",
		"brokers", config.Brokers,
		"topic", config.Topic,
		"group", config.ConsumerGroup)

	return &Consumer{
		consumer:  c,
		processor: processor,
		config:    config,
		logger:    logger,
	}, nil
}

// Start consumes messages until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.consumer.Subscribe(c.config.Topic, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic: %w", err)
	}

	c.logger.Info("Starting to consume document events", "topic", c.config.Topic)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Consumer shutting down...")
			return nil
		default:
		}

		msg, err := c.consumer.ReadMessage(1 * time.Second)
		if err != nil {
			var kerr kafka.Error
			if errors.As(err, &kerr) && kerr.Code() == kafka.ErrTimedOut {
				continue
			}
			c.logger.Error("Error reading message", "error", err)
			continue
		}

		c.logger.Debug("Received document event",
			"topic", *msg.TopicPartition.Topic,
			"partition", msg.TopicPartition.Partition,
			"offset", msg.TopicPartition.Offset)

		if err := c.processor.Process(ctx, msg.Value); err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Consumer shutting down, event left uncommitted",
					"partition", msg.TopicPartition.Partition,
					"offset", msg.TopicPartition.Offset)
				return nil
			}
			c.logger.Error("Document event left uncommitted, rewinding",
				"partition", msg.TopicPartition.Partition,
				"offset", msg.TopicPartition.Offset,
				"error", err)
			c.rewind(ctx, msg)
			continue
		}

		c.commitMessage(msg)
	}
}

// commitMessage commits the Kafka offset
func (c *Consumer) commitMessage(msg *kafka.Message) {
	if _, err := c.consumer.CommitMessage(msg); err != nil {
		c.logger.Error("Failed to commit offset",
			"topic", *msg.TopicPartition.Topic,
			"partition", msg.TopicPartition.Partition,
			"offset", msg.TopicPartition.Offset,
			"error", err)
	}
}

// rewind seeks back to msg so it is read again after a short pause
func (c *Consumer) rewind(ctx context.Context, msg *kafka.Message) {
	if err := c.consumer.Seek(msg.TopicPartition, 0); err != nil {
		c.logger.Error("Failed to seek back to uncommitted event",
			"partition", msg.TopicPartition.Partition,
			"offset", msg.TopicPartition.Offset,
			"error", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
	}
}

// Close closes the consumer
func (c *Consumer) Close() {
	c.logger.Info("Closing Kafka consumer...")
	if err := c.consumer.Close(); err != nil {
		c.logger.Error("Failed to close consumer", "error", err)
	}
	c.logger.Info("Kafka consumer closed")
}
