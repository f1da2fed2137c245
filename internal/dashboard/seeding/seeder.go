package seeding

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"sales-dashboard/internal/common/database"
	apperrors "sales-dashboard/internal/common/errors"
	"sales-dashboard/internal/common/logger"
	"sales-dashboard/internal/models"
)

const (
	// SuccessMessage is reported by a completed run.
	SuccessMessage = "Sample data created successfully"

	// LockKey guards regeneration when a Locker is configured.
	LockKey = "sales-dashboard:seed-lock"
)

// Indexer is the subset of engine operations a regeneration needs.
type Indexer interface {
	IndexExists(ctx context.Context, index string) (bool, error)
	DeleteIndex(ctx context.Context, index string) error
	CreateIndex(ctx context.Context, index string, body map[string]interface{}) error
	BulkIndex(ctx context.Context, index string, docs []interface{}) error
	Refresh(ctx context.Context, index string) error
}

// Locker hands out a short-lived exclusive lock. It returns
// database.ErrLockHeld when the key is taken.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// Seeder drops, recreates and fills the sales index.
type Seeder struct {
	indexer Indexer
	index   string
	logger  logger.Logger

	locker  Locker
	lockTTL time.Duration

	now  func() time.Time
	rand *rand.Rand
}

// Option configures a Seeder.
type Option func(*Seeder)

// WithLocker serializes regenerations across processes.
func WithLocker(l Locker, ttl time.Duration) Option {
	return func(s *Seeder) {
		s.locker = l
		s.lockTTL = ttl
	}
}

// WithClock overrides the reference time used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Seeder) { s.now = now }
}

// WithRand fixes the random source, mainly for tests.
func WithRand(r *rand.Rand) Option {
	return func(s *Seeder) { s.rand = r }
}

func NewSeeder(indexer Indexer, index string, log logger.Logger, opts ...Option) *Seeder {
	s := &Seeder{
		indexer: indexer,
		index:   index,
		logger:  log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run regenerates the index. A failed step aborts the run with
// DATA_SEED_FAILED and leaves the index as it was at that point.
func (s *Seeder) Run(ctx context.Context) (*models.SeedResult, error) {
	if s.locker != nil {
		release, err := s.locker.TryLock(ctx, LockKey, s.lockTTL)
		if errors.Is(err, database.ErrLockHeld) {
			return nil, apperrors.NewSeedInProgressError(LockKey)
		}
		if err != nil {
			return nil, apperrors.NewDataSeedError("acquire lock", err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("Failed to release seed lock", map[string]interface{}{
					"lock":  LockKey,
					"error": err,
				})
			}
		}()
	}

	exists, err := s.indexer.IndexExists(ctx, s.index)
	if err != nil {
		return nil, s.fail("check index", err)
	}
	if exists {
		if err := s.indexer.DeleteIndex(ctx, s.index); err != nil {
			return nil, s.fail("delete index", err)
		}
	}

	if err := s.indexer.CreateIndex(ctx, s.index, IndexMapping()); err != nil {
		return nil, s.fail("create index", err)
	}

	rng := s.rand
	if rng == nil {
		rng = rand.New(rand.NewSource(s.now().UnixNano()))
	}
	records := Generate(rng, s.now(), SampleSize)

	docs := make([]interface{}, len(records))
	for i, r := range records {
		docs[i] = r
	}
	if err := s.indexer.BulkIndex(ctx, s.index, docs); err != nil {
		return nil, s.fail("bulk index", err)
	}

	if err := s.indexer.Refresh(ctx, s.index); err != nil {
		return nil, s.fail("refresh index", err)
	}

	s.logger.Info("Sample data created", map[string]interface{}{
		"index":    s.index,
		"records":  len(records),
		"replaced": exists,
	})
	return &models.SeedResult{Message: SuccessMessage}, nil
}

func (s *Seeder) fail(step string, err error) error {
	s.logger.Error("Sample data generation failed", map[string]interface{}{
		"index": s.index,
		"step":  step,
		"error": err,
	})
	return apperrors.NewDataSeedError(step, err)
}
