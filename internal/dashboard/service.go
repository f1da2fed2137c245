// Package dashboard answers the dashboard's read intents and sample data
// regeneration by composing the query builders, the search engine and the
// response shapers.
package dashboard

import (
	"context"

	apperrors "sales-dashboard/internal/common/errors"
	"sales-dashboard/internal/common/logger"
	"sales-dashboard/internal/common/metrics"
	"sales-dashboard/internal/common/observability"
	"sales-dashboard/internal/dashboard/queries"
	"sales-dashboard/internal/dashboard/shaping"
	"sales-dashboard/internal/models"
)

// Engine is the search engine surface the read paths use.
type Engine interface {
	CheckConnection(ctx context.Context) bool
	Search(ctx context.Context, index string, body map[string]interface{}) ([]byte, error)
}

// Seeder regenerates the sample data set.
type Seeder interface {
	Run(ctx context.Context) (*models.SeedResult, error)
}

// Config holds the per-deployment query settings.
type Config struct {
	Index          string
	MaxRecentLimit int
	SearchFields   []string
}

type Service struct {
	engine Engine
	seeder Seeder
	cfg    Config
	obs    *observability.Observability
	logger logger.Logger
}

// NewService wires the dashboard operations. obs may be nil.
func NewService(engine Engine, seeder Seeder, cfg Config, obs *observability.Observability, log logger.Logger) *Service {
	return &Service{
		engine: engine,
		seeder: seeder,
		cfg:    cfg,
		obs:    obs,
		logger: log,
	}
}

// Health pings the engine. It never fails; an unreachable engine is
// reported as unhealthy.
func (s *Service) Health(ctx context.Context) models.HealthStatus {
	return models.NewHealthStatus(s.engine.CheckConnection(ctx))
}

// CreateSampleData drops and regenerates the sample index.
func (s *Service) CreateSampleData(ctx context.Context) (result *models.SeedResult, err error) {
	done := s.obs.Track(ctx, "create_sample_data")
	defer func() { done(err) }()

	result, err = s.seeder.Run(ctx)
	switch {
	case err == nil:
		metrics.SeedRunsTotal.WithLabelValues("success").Inc()
	case apperrors.Normalize(err).Code == apperrors.ErrCodeSeedInProgress:
		metrics.SeedRunsTotal.WithLabelValues("conflict").Inc()
	default:
		metrics.SeedRunsTotal.WithLabelValues("failed").Inc()
	}
	return result, err
}

// Summary returns totals and per-product and per-region breakdowns.
func (s *Service) Summary(ctx context.Context) (summary *models.SalesSummary, err error) {
	done := s.obs.Track(ctx, "summary")
	defer func() { done(err) }()

	q := queries.BuildSummaryQuery(s.cfg.Index)
	raw, err := s.engine.Search(ctx, q.Index, q.Body)
	if err != nil {
		return nil, err
	}
	return shaping.ShapeSummary(raw)
}

// Recent returns the limit most recent records, newest first.
func (s *Service) Recent(ctx context.Context, limit int) (records []models.SalesRecord, err error) {
	q, err := queries.BuildRecentQuery(s.cfg.Index, limit, s.cfg.MaxRecentLimit)
	if err != nil {
		return nil, err
	}

	done := s.obs.Track(ctx, "recent")
	defer func() { done(err) }()

	raw, err := s.engine.Search(ctx, q.Index, q.Body)
	if err != nil {
		return nil, err
	}
	return shaping.ShapeRecords(raw)
}

// Search runs a free-text match over the configured fields. Blank text is
// rejected without contacting the engine.
func (s *Service) Search(ctx context.Context, text string) (result *models.SearchResult, err error) {
	q, err := queries.BuildSearchQuery(s.cfg.Index, text, s.cfg.SearchFields)
	if err != nil {
		return nil, err
	}

	done := s.obs.Track(ctx, "search")
	defer func() { done(err) }()

	raw, err := s.engine.Search(ctx, q.Index, q.Body)
	if err != nil {
		s.logger.Debug("Search request failed", map[string]interface{}{
			"index": q.Index,
			"error": err,
		})
		return nil, err
	}
	return shaping.ShapeSearchResult(raw)
}
