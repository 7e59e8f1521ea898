package publishers

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeKafkaWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeKafkaWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisherKeysByArticleID(t *testing.T) {
	w := &fakeKafkaWriter{}
	pub := &kafkaPublisher{id: "kafka", typ: TypeKafka, writer: w, log: ensureLogger(nil)}

	if err := pub.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "41311336" {
		t.Fatalf("unexpected key %q", w.msgs[0].Key)
	}
	var provider string
	for _, h := range w.msgs[0].Headers {
		if h.Key == "provider_id" {
			provider = string(h.Value)
		}
	}
	if provider != "provider-1" {
		t.Fatalf("provider_id header = %q", provider)
	}

	if err := pub.Close(); err != nil || !w.closed {
		t.Fatalf("expected writer closed, err=%v", err)
	}
}

func TestKafkaPublisherWriteError(t *testing.T) {
	pub := &kafkaPublisher{writer: &fakeKafkaWriter{err: errors.New("leader not available")}, log: ensureLogger(nil)}
	if err := pub.Publish(context.Background(), testEvent()); err == nil {
		t.Fatalf("expected error from Publish")
	}
}

func TestNewKafkaPublisherBuildsWriter(t *testing.T) {
	pub, err := newKafkaPublisher(context.Background(), PublisherConfig{
		ID:    "kafka",
		Type:  TypeKafka,
		Kafka: &KafkaPublisherConfig{Brokers: []string{"localhost:9092"}, Topic: "news"},
	}, nil)
	if err != nil {
		t.Fatalf("newKafkaPublisher: %v", err)
	}
	w, ok := pub.(*kafkaPublisher).writer.(*kafka.Writer)
	if !ok || w.Topic != "news" {
		t.Fatalf("unexpected writer %#v", pub.(*kafkaPublisher).writer)
	}
	_ = pub.(*kafkaPublisher).Close()
}
