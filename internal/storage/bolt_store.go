package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Adda-Baaj/onefootball-harvester/internal/domain"
)

const (
	articleBucket    = "articles"
	expiryValueBytes = 8
)

// boltStore implements a Store backed by BoltDB. Each value is an 8-byte
// big-endian expiry followed by the JSON record.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	articleTTL      time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (*boltStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(articleBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		articleTTL:      opts.ArticleTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// KnownIDs returns the ids with an unexpired entry, in one read transaction.
func (b *boltStore) KnownIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	known := make(map[string]struct{})
	if b == nil || b.db == nil || len(ids) == 0 {
		return known, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return nil, err
	}

	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(articleBucket))
		if bucket == nil {
			return fmt.Errorf("article bucket missing")
		}
		for _, id := range ids {
			value := bucket.Get([]byte(id))
			if value == nil {
				continue
			}
			if expiry, ok := decodeExpiry(value); ok && expiry.After(now) {
				known[id] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return known, nil
}

// SaveRecords stores records not already present, stamping each with the TTL.
func (b *boltStore) SaveRecords(ctx context.Context, records []domain.NewsRecord) error {
	if b == nil || b.db == nil || len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(articleBucket))
		if bucket == nil {
			return fmt.Errorf("article bucket missing")
		}
		for _, rec := range records {
			key := []byte(rec.ID)
			if len(key) == 0 {
				continue
			}
			if existing := bucket.Get(key); existing != nil {
				if expiry, ok := decodeExpiry(existing); ok && expiry.After(now) {
					continue
				}
			}
			value, err := encodeRecord(now.Add(b.articleTTL), rec)
			if err != nil {
				return fmt.Errorf("encode record %s: %w", rec.ID, err)
			}
			if err := bucket.Put(key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// maybeCleanupExpired removes expired articles on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(articleBucket))
		if bucket == nil {
			return fmt.Errorf("article bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, ok := decodeExpiry(v)
			if !ok || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func encodeRecord(expiry time.Time, rec domain.NewsRecord) ([]byte, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, expiryValueBytes, expiryValueBytes+len(payload))
	binary.BigEndian.PutUint64(buf, uint64(expiry.Unix()))
	return append(buf, payload...), nil
}

// decodeExpiry decodes the expiry prefix of a stored value.
func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) < expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
