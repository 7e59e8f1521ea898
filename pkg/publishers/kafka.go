package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// kafkaWriter is the subset of *kafka.Writer used by kafkaPublisher.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// kafkaPublisher implements the Publisher interface for a Kafka topic.
type kafkaPublisher struct {
	id     string
	typ    string
	writer kafkaWriter
	log    Logger
}

func newKafkaPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.Kafka == nil {
		return nil, fmt.Errorf("publisher %q missing kafka configuration", cfg.ID)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &kafkaPublisher{
		id:     cfg.ID,
		typ:    TypeKafka,
		writer: writer,
		log:    ensureLogger(log),
	}, nil
}

func (k *kafkaPublisher) ID() string   { return k.id }
func (k *kafkaPublisher) Type() string { return k.typ }

// Publish writes the event keyed by article id so one article always lands on the same partition.
func (k *kafkaPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	headers := make([]kafka.Header, 0, 4)
	for key, v := range evt.attributes() {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(v)})
	}

	msg := kafka.Message{
		Key:     []byte(evt.Record.ID),
		Value:   payload,
		Headers: headers,
		Time:    time.Now(),
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		k.log.ErrorObj("kafka publisher send failed", "publisher_kafka_error", map[string]any{
			"publisher_id": k.id,
			"error":        err.Error(),
		})
		return fmt.Errorf("write message to kafka: %w", err)
	}
	k.log.DebugObj("kafka publisher delivered event", "publisher_kafka_delivery", map[string]any{
		"publisher_id": k.id,
		"event_id":     evt.ID,
	})
	return nil
}

func (k *kafkaPublisher) Close() error {
	return k.writer.Close()
}
