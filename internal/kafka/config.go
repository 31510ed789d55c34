package kafka

import (
	"fmt"
	"os"
	"strings"
)

// Config holds Kafka configuration
type Config struct {
	Brokers           string
	EventsTopic       string
	DLQTopic          string
	ConsumerGroup     string
	EnableIdempotence bool
	Acks              string
}

// LoadConfig loads Kafka configuration from environment variables
func LoadConfig() (*Config, error) {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}

	cfg := &Config{
		Brokers:           brokers,
		EventsTopic:       getEnv("KAFKA_TOPIC_DOCUMENT_EVENTS", "document-events"),
		DLQTopic:          getEnv("KAFKA_TOPIC_DOCUMENT_DLQ", "document-events-dlq"),
		ConsumerGroup:     getEnv("KAFKA_CONSUMER_GROUP", "notifier-service-group"),
		EnableIdempotence: true,
		Acks:              "all",
	}

	list := cfg.GetBrokersList()
	for _, b := range list {
		if b == "" {
			return nil, fmt.Errorf("KAFKA_BROKERS contains an empty broker address: %q", brokers)
		}
	}
	cfg.Brokers = strings.Join(list, ",")

	return cfg, nil
}

// GetBrokersList returns brokers as a slice
func (c *Config) GetBrokersList() []string {
	brokers := strings.Split(c.Brokers, ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}
	return brokers
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
