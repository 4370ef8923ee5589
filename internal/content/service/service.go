package service

import (
	"errors"
	"time"

	"github.com/gogotex/contentstore/internal/archive"
	"github.com/gogotex/contentstore/internal/content/repository"
	"github.com/gogotex/contentstore/internal/replica"
	"github.com/gogotex/contentstore/pkg/metrics"
	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("document changed concurrently")
)

// IDGenerator produces identifiers for appended records that arrive without one.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random (v4) UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// Result is what every operation reports back, on success and on failure.
// DocumentID is set as soon as the tenant key has been resolved.
type Result struct {
	DocumentID string
	Content    any
	// Committed is true once a replacement body has been committed.
	Committed bool
	Version   int64
	// Unchanged marks a write that found nothing to change.
	Unchanged bool
	// Synced and SyncErr describe the replica barrier that follows a write.
	// A failed sync does not undo Committed.
	Synced  bool
	SyncErr error
}

// Service runs the content operations for one store.
type Service struct {
	store      repository.Store
	syncer     replica.Syncer
	archiver   archive.Archiver
	ids        IDGenerator
	maxRetries int
}

type Option func(*Service)

func WithSyncer(s replica.Syncer) Option { return func(svc *Service) { svc.syncer = s } }

func WithArchiver(a archive.Archiver) Option { return func(svc *Service) { svc.archiver = a } }

func WithIDGenerator(g IDGenerator) Option { return func(svc *Service) { svc.ids = g } }

// WithMaxRetries sets how many times a mutation is replayed after a version
// conflict before ErrConflict is returned.
func WithMaxRetries(n int) Option { return func(svc *Service) { svc.maxRetries = n } }

func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		syncer:     replica.Noop{},
		archiver:   archive.Noop{},
		ids:        UUIDGenerator{},
		maxRetries: 5,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// observe records one operation in the content metrics.
func observe(op string, start time.Time, res *Result, err error) {
	metrics.ContentOperationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.ContentOperations.WithLabelValues(op, Outcome(res, err)).Inc()
}

// Outcome classifies a finished operation for metrics and logs.
func Outcome(res *Result, err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case err != nil:
		return "error"
	case res != nil && res.Committed && !res.Synced:
		return "sync_failed"
	case res != nil && res.Unchanged:
		return "unchanged"
	}
	return "ok"
}
