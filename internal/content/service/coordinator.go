package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gogotex/contentstore/internal/content/collection"
	"github.com/gogotex/contentstore/internal/content/repository"
	"github.com/gogotex/contentstore/pkg/logger"
	"github.com/gogotex/contentstore/pkg/metrics"
)

// mutation turns the current body into its replacement. A nil body means
// there is nothing to write; result is what the caller gets to see.
type mutation func(body collection.Body) (next *collection.Body, result any, err error)

// commit runs read -> mutate -> write -> sync for one request. The write is
// conditional on the version that was read; when another writer got there
// first the whole cycle is replayed against the fresh document, so
// concurrent changes are merged instead of silently overwritten.
func (s *Service) commit(ctx context.Context, key string, snapshot bool, mutate mutation) (*Result, error) {
	res := &Result{}
	for attempt := 0; ; attempt++ {
		cur, err := s.Resolve(ctx, key)
		if err != nil {
			return res, err
		}
		res.DocumentID = cur.DocumentID()

		next, result, err := mutate(cur.Body)
		if err != nil {
			return res, err
		}
		res.Content = result
		if next == nil {
			res.Unchanged = true
			return res, nil
		}

		raw, err := json.Marshal(next)
		if err != nil {
			return res, fmt.Errorf("encode document %s: %w", res.DocumentID, err)
		}
		if snapshot {
			if err := s.archiver.Snapshot(ctx, cur.Document); err != nil {
				return res, fmt.Errorf("archive document %s: %w", res.DocumentID, err)
			}
		}

		committed, err := s.store.ReplaceBody(ctx, res.DocumentID, cur.Version(), raw)
		if errors.Is(err, repository.ErrVersionConflict) {
			metrics.VersionConflicts.Inc()
			if attempt >= s.maxRetries {
				logger.Warnf("document %s: giving up after %d conflicting writes", res.DocumentID, attempt+1)
				return res, ErrConflict
			}
			logger.Debugf("document %s: version %d is stale, retrying", res.DocumentID, cur.Version())
			continue
		}
		if errors.Is(err, repository.ErrNotFound) {
			return res, ErrNotFound
		}
		if err != nil {
			return res, fmt.Errorf("commit document %s: %w", res.DocumentID, err)
		}
		res.Committed = true
		res.Version = committed.Version

		if err := s.syncer.Sync(ctx, committed); err != nil {
			metrics.SyncFailures.Inc()
			logger.Warnf("document %s: version %d committed but replica sync failed: %v", res.DocumentID, committed.Version, err)
			res.SyncErr = err
			return res, nil
		}
		res.Synced = true
		return res, nil
	}
}
