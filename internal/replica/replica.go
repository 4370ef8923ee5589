// Package replica propagates committed documents to read replicas. A write
// is acknowledged to the client only after Sync returns, so the client's next
// read observes it even when served from a replica.
package replica

import (
	"context"

	"github.com/gogotex/contentstore/internal/content"
)

// Syncer is the barrier called once after every successful body write.
type Syncer interface {
	Sync(ctx context.Context, doc *content.Document) error
}

// Noop is used when no replicas are configured.
type Noop struct{}

func (Noop) Sync(context.Context, *content.Document) error { return nil }

// SyncFunc adapts a function to Syncer.
type SyncFunc func(ctx context.Context, doc *content.Document) error

func (f SyncFunc) Sync(ctx context.Context, doc *content.Document) error { return f(ctx, doc) }
