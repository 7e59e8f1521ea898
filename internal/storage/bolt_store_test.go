package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Adda-Baaj/onefootball-harvester/internal/domain"
)

func newsRecord(id string) domain.NewsRecord {
	return domain.NewRecord(
		domain.ArticleSummary{Title: "Title " + id, Link: "https://onefootball.com/noticias/x-" + id, Source: "OneFootball", ID: id},
		domain.ArticleDetail{BodyText: "body " + id, PublishedAt: "2024-05-12T13:00:00Z"},
	)
}

func TestBoltStoreSavesAndExpiresArticles(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		ArticleTTL:      time.Hour,
		CleanupInterval: time.Minute,
	}

	store, err := openBolt(filepath.Join(dir, "cache.db"), opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	clock := time.Date(2024, 5, 12, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	store.lastCleanup.Store(clock.Unix())
	ctx := context.Background()

	known, err := store.KnownIDs(ctx, []string{"1", "2"})
	if err != nil || len(known) != 0 {
		t.Fatalf("expected no known ids, got %v err=%v", known, err)
	}

	if err := store.SaveRecords(ctx, []domain.NewsRecord{newsRecord("1")}); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}

	known, err = store.KnownIDs(ctx, []string{"1", "2"})
	if err != nil {
		t.Fatalf("KnownIDs: %v", err)
	}
	if _, ok := known["1"]; !ok || len(known) != 1 {
		t.Fatalf("expected only id 1 known, got %v", known)
	}

	clock = clock.Add(2 * time.Hour)

	known, err = store.KnownIDs(ctx, []string{"1"})
	if err != nil {
		t.Fatalf("KnownIDs after expiry: %v", err)
	}
	if len(known) != 0 {
		t.Fatalf("expected entry to expire, got %v", known)
	}

	err = store.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(articleBucket)).Get([]byte("1")); v != nil {
			t.Fatalf("expected cleanup to remove expired entry")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestBoltStoreKeepsFirstRecord(t *testing.T) {
	store, err := openBolt(filepath.Join(t.TempDir(), "cache.db"), normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	first := newsRecord("7")
	second := newsRecord("7")
	second.Title = "changed"

	if err := store.SaveRecords(ctx, []domain.NewsRecord{first}); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}
	if err := store.SaveRecords(ctx, []domain.NewsRecord{second, {}}); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}

	var got domain.NewsRecord
	err = store.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(articleBucket)).Get([]byte("7"))
		if _, ok := decodeExpiry(v); !ok {
			t.Fatalf("missing expiry prefix")
		}
		return json.Unmarshal(v[expiryValueBytes:], &got)
	})
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	if got != first {
		t.Fatalf("expected first record to be kept, got %+v", got)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore(context.Background(), "none", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.SaveRecords(context.Background(), []domain.NewsRecord{newsRecord("x")}); err != nil {
		t.Fatalf("noop store SaveRecords: %v", err)
	}
	known, err := store.KnownIDs(context.Background(), []string{"x"})
	if err != nil || len(known) != 0 {
		t.Fatalf("noop store must know nothing, got %v err=%v", known, err)
	}
}

func TestNewStoreValidatesBackends(t *testing.T) {
	ctx := context.Background()
	if _, err := NewStore(ctx, "bbolt", Options{}); err == nil {
		t.Fatalf("expected bbolt path error")
	}
	if _, err := NewStore(ctx, "postgres", Options{}); err == nil {
		t.Fatalf("expected postgres dsn error")
	}
	if _, err := NewStore(ctx, "redis", Options{}); err == nil {
		t.Fatalf("expected unsupported type error")
	}

	store, err := NewStore(ctx, "BBolt", Options{BBoltPath: filepath.Join(t.TempDir(), "nested", "cache.db")})
	if err != nil {
		t.Fatalf("NewStore bbolt: %v", err)
	}
	store.Close()
}
