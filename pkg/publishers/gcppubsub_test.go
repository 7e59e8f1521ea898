package publishers

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
)

func TestGCPPubSubPublisherPublishes(t *testing.T) {
	// Use the in-memory Pub/Sub emulator.
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	client, err := pubsub.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer client.Close()
	if _, err := client.CreateTopic(ctx, "topic-1"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	pub, err := newGCPPubSubPublisher(ctx, PublisherConfig{
		ID:   "pubsub",
		Type: TypeGCPPubSub,
		GCPPubSub: &GCPPubSubPublisherConfig{
			ProjectID: "test-project",
			Topic:     "topic-1",
		},
	}, nil)
	if err != nil {
		t.Fatalf("newGCPPubSubPublisher: %v", err)
	}
	defer pub.(*pubsubPublisher).Close()

	evt := testEvent()
	if err := pub.Publish(ctx, evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msgs := server.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if got := msgs[0].Attributes["article_id"]; got != "41311336" {
		t.Fatalf("article_id attribute = %q", got)
	}
	var decoded Event
	if err := json.Unmarshal(msgs[0].Data, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded.ID != evt.ID || decoded.Record.Title != "Team wins" {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}
