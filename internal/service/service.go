// Package service implements the query executor and the fixed reports on top
// of a Row Store repository. All reads are stateless; the only cross-request
// state is the optional report cache.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"salesdash/backend/internal/cache"
	"salesdash/backend/internal/domain"
	"salesdash/backend/internal/logging"
	"salesdash/backend/internal/query"
	"salesdash/backend/internal/store"
)

type Service struct {
	repo    store.Repository
	reports cache.ReportCache
	ttl     time.Duration
}

// New wires the service to its repository and report cache. Pass a
// cache.NoopReportCache when caching is disabled.
func New(repo store.Repository, reports cache.ReportCache, ttl time.Duration) *Service {
	if reports == nil {
		reports = cache.NoopReportCache{}
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Service{repo: repo, reports: reports, ttl: ttl}
}

// Dashboard executes one filtered dashboard read: it builds the predicate,
// issues the coupled count/metrics/page reads, and assembles the envelope.
// Metrics and total always describe the full filtered set, not the page.
func (s *Service) Dashboard(ctx context.Context, c query.Criteria) (*domain.SalesEnvelope, error) {
	// ParseCriteria always sets the window, but callers can hand-build
	// criteria too.
	if c.Page < 1 {
		c.Page = 1
	}
	if c.PageSize < 1 {
		c.PageSize = query.DefaultPageSize
	}

	result, err := s.repo.QuerySales(ctx, store.SalesQuery{
		Predicate: query.Build(c),
		Sort:      c.Sort,
		Limit:     c.PageSize,
		Offset:    c.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}

	totalPages := (result.Total + c.PageSize - 1) / c.PageSize
	if totalPages < 1 {
		totalPages = 1
	}

	data := result.Records
	if data == nil {
		data = []domain.SaleRecord{}
	}

	return &domain.SalesEnvelope{
		Data:       data,
		Page:       c.Page,
		PageSize:   c.PageSize,
		Total:      result.Total,
		TotalPages: totalPages,
		Metrics:    result.Metrics,
	}, nil
}

// Meta returns the facet catalog used to populate filter widgets. Facets are
// unfiltered and change only on ingestion, so they are served cache-aside.
func (s *Service) Meta(ctx context.Context) (domain.Facets, error) {
	return cachedReport(ctx, s, "sales:meta", s.repo.Facets)
}

func (s *Service) StoreReport(ctx context.Context) ([]domain.StoreAggregate, error) {
	return cachedReport(ctx, s, "sales:report:stores", s.repo.StoreAggregates)
}

func (s *Service) ProductReport(ctx context.Context) ([]domain.ProductAggregate, error) {
	return cachedReport(ctx, s, "sales:report:products", s.repo.ProductAggregates)
}

func (s *Service) CustomerReport(ctx context.Context) ([]domain.CustomerAggregate, error) {
	return cachedReport(ctx, s, "sales:report:customers", s.repo.CustomerAggregates)
}

// RecentOrders returns the newest transactions, limit clamped to [1,500]
// with a default of 200.
func (s *Service) RecentOrders(ctx context.Context, limit int) ([]domain.OrderRecord, error) {
	orders, err := s.repo.RecentOrders(ctx, store.ClampOrderLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	if orders == nil {
		orders = []domain.OrderRecord{}
	}
	return orders, nil
}

// cachedReport serves a filter-agnostic payload cache-aside. Cache failures
// count as misses and are only logged; the repository remains the source of
// truth.
func cachedReport[T any](ctx context.Context, s *Service, key string, fetch func(context.Context) (T, error)) (T, error) {
	if payload, ok, err := s.reports.Get(ctx, key); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("report cache get failed")
	} else if ok {
		var out T
		if err := json.Unmarshal(payload, &out); err == nil {
			return out, nil
		}
		logging.Warn().Str("key", key).Msg("discarding unreadable cached report")
	}

	out, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if payload, err := json.Marshal(out); err == nil {
		if err := s.reports.Set(ctx, key, payload, s.ttl); err != nil {
			logging.Warn().Err(err).Str("key", key).Msg("report cache set failed")
		}
	}
	return out, nil
}
