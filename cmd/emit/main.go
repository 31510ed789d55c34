// Emit tool: publishes one document change to the events topic so the
// notifier can be exercised locally.
//
//	emit -kind created -document posts/p1/comments/c1 -after comment.json
//	emit -kind updated -document posts/p1 -before old.json -after new.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"notifier/internal/kafka"
	"notifier/internal/logger"
	"notifier/internal/trigger"
)

func main() {
	var kind, document, beforeFile, afterFile, brokers, topic string
	flag.StringVar(&kind, "kind", "updated", "change kind: created | updated | deleted")
	flag.StringVar(&document, "document", "", "document path, e.g. posts/p1")
	flag.StringVar(&beforeFile, "before", "", "JSON file with the document before the change")
	flag.StringVar(&afterFile, "after", "", "JSON file with the document after the change")
	flag.StringVar(&brokers, "brokers", "", "Kafka brokers (defaults to KAFKA_BROKERS)")
	flag.StringVar(&topic, "topic", "", "events topic (defaults to KAFKA_TOPIC_DOCUMENT_EVENTS)")
	flag.Parse()

	if brokers != "" {
		os.Setenv("KAFKA_BROKERS", brokers)
	}
	cfg, err := kafka.LoadConfig()
	if err != nil {
		log.Fatalf("kafka config: %v", err)
	}
	if topic != "" {
		cfg.EventsTopic = topic
	}

	before, err := readDocument(beforeFile)
	if err != nil {
		log.Fatalf("read before: %v", err)
	}
	after, err := readDocument(afterFile)
	if err != nil {
		log.Fatalf("read after: %v", err)
	}

	env, err := trigger.NewEnvelope(trigger.Kind(kind), document, before, after)
	if err != nil {
		log.Fatalf("build event: %v", err)
	}

	lgr := logger.NewWithOptions(logger.Options{Level: slog.LevelWarn, Format: logger.FormatText})
	producer, err := kafka.NewProducer(cfg, lgr)
	if err != nil {
		log.Fatalf("producer: %v", err)
	}
	defer producer.Close()

	// Keyed by document so changes to one document stay ordered on a partition
	if err := producer.PublishSync(cfg.EventsTopic, env.Document, env); err != nil {
		log.Fatalf("publish: %v", err)
	}
	fmt.Printf("published %s %s (%s) to %s\n", env.Kind, env.Document, env.ID, cfg.EventsTopic)
}

func readDocument(path string) (json.RawMessage, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
