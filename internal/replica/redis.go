package replica

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gogotex/contentstore/internal/content"
	"github.com/redis/go-redis/v9"
)

// Snapshot is the replicated form of a document.
type Snapshot struct {
	DocumentID string          `json:"documentId"`
	Version    int64           `json:"version"`
	Kind       string          `json:"kind"`
	Body       json.RawMessage `json:"body"`
	SyncedAt   time.Time       `json:"syncedAt"`
}

// RedisSyncer mirrors committed documents into Redis under
// "<prefix><documentId>" and announces each version on a pub/sub channel so
// replica readers can refresh. Older versions never overwrite newer ones.
type RedisSyncer struct {
	client  *redis.Client
	prefix  string
	channel string
	timeout time.Duration

	// beforeWrite runs between the version check and the write; tests use it
	// to slip a competing sync into that window.
	beforeWrite func()
}

// NewRedisSyncer builds a syncer. Empty prefix/channel get defaults; a zero
// timeout means the caller's context alone bounds the barrier.
func NewRedisSyncer(client *redis.Client, prefix, channel string, timeout time.Duration) *RedisSyncer {
	if prefix == "" {
		prefix = "replica:document:"
	}
	if channel == "" {
		channel = "content:sync"
	}
	return &RedisSyncer{client: client, prefix: prefix, channel: channel, timeout: timeout}
}

func (r *RedisSyncer) key(documentID string) string {
	return r.prefix + documentID
}

// syncAttempts bounds how often Sync retries when another syncer touched the
// same snapshot between its version check and its write.
const syncAttempts = 10

// Sync writes the snapshot and publishes "<documentId>:<version>". The version
// check and the write run under WATCH, so a stale version racing a newer one
// can never land last.
func (r *RedisSyncer) Sync(ctx context.Context, doc *content.Document) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	b, err := json.Marshal(Snapshot{
		DocumentID: doc.ID,
		Version:    doc.Version,
		Kind:       doc.Kind,
		Body:       doc.Body,
		SyncedAt:   time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	key := r.key(doc.ID)
	write := func(tx *redis.Tx) error {
		current, err := decodeSnapshot(tx.Get(ctx, key).Bytes())
		if err != nil {
			return fmt.Errorf("replica read: %w", err)
		}
		if current != nil && current.Version > doc.Version {
			return nil
		}
		if r.beforeWrite != nil {
			r.beforeWrite()
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, 0)
			p.Publish(ctx, r.channel, fmt.Sprintf("%s:%d", doc.ID, doc.Version))
			return nil
		})
		return err
	}

	for attempt := 0; attempt < syncAttempts; attempt++ {
		err = r.client.Watch(ctx, write, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("replica sync: %w", err)
	}
	return nil
}

// Get returns the replicated snapshot, or nil when the document was never synced.
func (r *RedisSyncer) Get(ctx context.Context, documentID string) (*Snapshot, error) {
	return decodeSnapshot(r.client.Get(ctx, r.key(documentID)).Bytes())
}

func decodeSnapshot(b []byte, err error) (*Snapshot, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Ping reports whether the replica endpoint is reachable.
func (r *RedisSyncer) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
