package kafka

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Producer wraps Kafka producer with helper methods
type Producer struct {
	producer *kafka.Producer
	config   *Config
	logger   *slog.Logger
}

// NewProducer creates a new idempotent Kafka producer
func NewProducer(config *Config, logger *slog.Logger) (*Producer, error) {
	producerConfig := &kafka.ConfigMap{
		"bootstrap.servers":                     config.Brokers,
		"enable.idempotence":                    config.EnableIdempotence,
		"acks":                                  config.Acks,
		"max.in.flight.requests.per.connection": 5,
		"retries":                               2147483647,
	}

	p, err := kafka.NewProducer(producerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	producer := &Producer{
		producer: p,
		config:   config,
		logger:   logger,
	}

	// Drain events not tied to a delivery channel
	go producer.handleDeliveryReports()

	logger.Info("Kafka producer initialized",
		"brokers", config.Brokers,
		"idempotence", config.EnableIdempotence)

	return producer, nil
}

// PublishSync publishes a JSON encoded value and waits for the delivery report
func (p *Producer) PublishSync(topic, key string, value any) error {
	msg, err := newMessage(topic, key, value)
	if err != nil {
		return err
	}

	deliveryChan := make(chan kafka.Event, 1)
	defer close(deliveryChan)

	if err := p.producer.Produce(msg, deliveryChan); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	e := <-deliveryChan
	m, ok := e.(*kafka.Message)
	if !ok {
		return fmt.Errorf("unexpected delivery event: %v", e)
	}
	if m.TopicPartition.Error != nil {
		return fmt.Errorf("delivery failed: %w", m.TopicPartition.Error)
	}

	p.logger.Info("Message published to Kafka (sync)",
		"topic", *m.TopicPartition.Topic,
		"partition", m.TopicPartition.Partition,
		"offset", m.TopicPartition.Offset)

	return nil
}

func newMessage(topic, key string, value any) (*kafka.Message, error) {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Value: jsonData,
	}
	if key != "" {
		msg.Key = []byte(key)
	}
	return msg, nil
}

// handleDeliveryReports processes asynchronous delivery reports
func (p *Producer) handleDeliveryReports() {
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				p.logger.Error("Delivery failed",
					"topic", *ev.TopicPartition.Topic,
					"error", ev.TopicPartition.Error)
			} else {
				p.logger.Debug("Message delivered",
					"topic", *ev.TopicPartition.Topic,
					"partition", ev.TopicPartition.Partition,
					"offset", ev.TopicPartition.Offset)
			}
		}
	}
}

// Flush waits for all messages to be delivered
func (p *Producer) Flush(timeoutMs int) int {
	remaining := p.producer.Flush(timeoutMs)
	if remaining > 0 {
		p.logger.Warn("Failed to flush all messages",
			"remaining", remaining)
	}
	return remaining
}

// Close flushes outstanding messages and closes the producer
func (p *Producer) Close() {
	p.logger.Info("Closing Kafka producer...")

	remaining := p.Flush(10000)
	if remaining > 0 {
		p.logger.Error("Some messages were not delivered",
			"count", remaining)
	}

	p.producer.Close()
	p.logger.Info("Kafka producer closed")
}
