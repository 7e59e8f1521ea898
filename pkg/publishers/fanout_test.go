package publishers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type stubPublisher struct {
	id    string
	typ   string
	err   error
	calls int
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	fanout := NewFanout([]Publisher{
		&stubPublisher{id: "ok", typ: "http"},
		&stubPublisher{id: "bad", typ: "http", err: errors.New("failed")},
	})

	count, err := fanout.Publish(context.Background(), Event{})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	pubs, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 {
		t.Fatalf("expected 1 publisher, got %d", len(pubs))
	}
}

type closingPublisher struct {
	stubPublisher
	closed bool
}

func (c *closingPublisher) Close() error {
	c.closed = true
	return nil
}

func TestFanoutCloseReleasesClosers(t *testing.T) {
	closer := &closingPublisher{stubPublisher: stubPublisher{id: "k", typ: TypeKafka}}
	fanout := NewFanout([]Publisher{&stubPublisher{id: "h", typ: TypeHTTP}, nil, closer})

	if fanout.Size() != 2 {
		t.Fatalf("expected nil publishers to be dropped, size=%d", fanout.Size())
	}
	if err := fanout.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !closer.closed {
		t.Fatalf("expected closer to be closed")
	}
}

func TestEmptyFanoutPublishesNothing(t *testing.T) {
	var fanout *Fanout
	count, err := fanout.Publish(context.Background(), testEvent())
	if count != 0 || err != nil {
		t.Fatalf("expected no-op, got %d %v", count, err)
	}
}

func TestBuildAllFailsOnUnknownType(t *testing.T) {
	_, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
		{ID: "carrier-pigeon", Type: "pigeon"},
	}, nil)
	if err == nil {
		t.Fatalf("expected error for unknown publisher type")
	}
}

type barrierPublisher struct {
	stubPublisher
	ready *sync.WaitGroup
}

// Publish returns only once every publisher sharing the barrier has started.
func (b *barrierPublisher) Publish(context.Context, Event) error {
	b.ready.Done()
	done := make(chan struct{})
	go func() {
		b.ready.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(2 * time.Second):
		return errors.New("publishers ran one at a time")
	}
}

func TestFanoutPublishesConcurrently(t *testing.T) {
	var ready sync.WaitGroup
	ready.Add(3)
	var pubs []Publisher
	for _, id := range []string{"a", "b", "c"} {
		pubs = append(pubs, &barrierPublisher{stubPublisher: stubPublisher{id: id, typ: TypeHTTP}, ready: &ready})
	}

	count, err := NewFanout(pubs).Publish(context.Background(), testEvent())
	if err != nil || count != 3 {
		t.Fatalf("expected 3 deliveries, got %d %v", count, err)
	}
}

func TestFanoutJoinsErrorsInPublisherOrder(t *testing.T) {
	fanout := NewFanout([]Publisher{
		&stubPublisher{id: "first", typ: TypeSQS, err: errors.New("one")},
		&stubPublisher{id: "ok", typ: TypeHTTP},
		&stubPublisher{id: "second", typ: TypeKafka, err: errors.New("two")},
	})

	count, err := fanout.Publish(context.Background(), testEvent())
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	want := "sqs publisher[first]: one\nkafka publisher[second]: two"
	if err == nil || err.Error() != want {
		t.Fatalf("unexpected error %q", err)
	}
}

func TestRegistryBuildMatchesTypeCaseInsensitively(t *testing.T) {
	var got PublisherConfig
	reg := Registry{TypeHTTP: func(_ context.Context, cfg PublisherConfig, _ Logger) (Publisher, error) {
		got = cfg
		return &stubPublisher{id: cfg.ID, typ: TypeHTTP}, nil
	}}

	pub, err := reg.Build(context.Background(), PublisherConfig{ID: "hook", Type: " HTTP "}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if pub.ID() != "hook" || got.ID != "hook" {
		t.Fatalf("unexpected publisher %#v", pub)
	}
}

func TestBuildAllClosesBuiltPublishersOnFailure(t *testing.T) {
	closer := &closingPublisher{stubPublisher: stubPublisher{id: "k", typ: TypeKafka}}
	buildKafka := func(context.Context, PublisherConfig, Logger) (Publisher, error) { return closer, nil }
	buildHTTP := func(context.Context, PublisherConfig, Logger) (Publisher, error) {
		return nil, errors.New("bad url")
	}
	reg := Registry{TypeKafka: buildKafka, TypeHTTP: buildHTTP}

	pubs, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "stream", Type: TypeKafka},
		{ID: "hook", Type: TypeHTTP},
	}, nil)
	if err == nil || pubs != nil {
		t.Fatalf("expected failure, got %v %v", pubs, err)
	}
	if !strings.Contains(err.Error(), `build http publisher "hook": bad url`) {
		t.Fatalf("unexpected error %q", err)
	}
	if !closer.closed {
		t.Fatalf("expected built publisher to be closed")
	}
}
