package store

import (
	"context"

	"salesdash/backend/internal/domain"
	"salesdash/backend/internal/query"
)

// SalesQuery describes one dashboard read: a built predicate, a resolved sort
// key, and the page window.
type SalesQuery struct {
	Predicate query.Predicate
	Sort      query.SortKey
	Limit     int
	Offset    int
}

// SalesResult couples the three logically-linked reads of a dashboard query.
// Adapters must produce all three from a single snapshot so Total, Metrics,
// and Records are mutually consistent.
type SalesResult struct {
	Total   int
	Metrics domain.SalesMetrics
	Records []domain.SaleRecord
}

// Repository is the Row Store contract. Everything except ReplaceSales is a
// pure read; ReplaceSales exists only for the offline ingestion collaborator.
type Repository interface {
	QuerySales(ctx context.Context, q SalesQuery) (*SalesResult, error)
	Facets(ctx context.Context) (domain.Facets, error)
	StoreAggregates(ctx context.Context) ([]domain.StoreAggregate, error)
	ProductAggregates(ctx context.Context) ([]domain.ProductAggregate, error)
	CustomerAggregates(ctx context.Context) ([]domain.CustomerAggregate, error)
	RecentOrders(ctx context.Context, limit int) ([]domain.OrderRecord, error)
	ReplaceSales(ctx context.Context, records []domain.SaleRecord) (int, error)
}

// DefaultOrderLimit and MaxOrderLimit bound the recent-orders report.
const (
	DefaultOrderLimit = 200
	MaxOrderLimit     = 500
)

// ClampOrderLimit applies the recent-orders bounds: non-positive values take
// the default, oversized values cap at the maximum.
func ClampOrderLimit(limit int) int {
	if limit < 1 {
		return DefaultOrderLimit
	}
	if limit > MaxOrderLimit {
		return MaxOrderLimit
	}
	return limit
}
