package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"salesdash/backend/internal/domain"
	"salesdash/backend/internal/query"
	"salesdash/backend/internal/store"
	"salesdash/backend/internal/store/memory"
)

func intPtr(n int) *int { return &n }

func sampleRecords() []domain.SaleRecord {
	records := make([]domain.SaleRecord, 0, 25)
	for i := 0; i < 25; i++ {
		records = append(records, domain.SaleRecord{
			TransactionID:   "TXN-" + string(rune('A'+i%26)) + string(rune('A'+i/26)),
			Date:            "2024-03-01",
			CustomerID:      "CUST-001",
			CustomerName:    "Dana Iyer",
			Gender:          "Female",
			Age:             intPtr(30),
			CustomerRegion:  "East",
			ProductID:       "PROD-001",
			ProductName:     "Notebook",
			ProductCategory: "Stationery",
			Tags:            []string{"bulk"},
			Quantity:        2,
			TotalAmount:     40,
			DiscountAmount:  4,
			FinalAmount:     36,
			PaymentMethod:   "Card",
			OrderStatus:     "Delivered",
			DeliveryType:    "Express",
			StoreID:         "STORE-01",
			StoreLocation:   "Pune",
		})
	}
	return records
}

func TestDashboardEnvelope(t *testing.T) {
	svc := New(memory.New(sampleRecords()), nil, 0)

	env, err := svc.Dashboard(context.Background(), query.Criteria{
		Sort: query.SortDateDesc, Page: 2, PageSize: 10,
	})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if env.Page != 2 || env.PageSize != 10 {
		t.Fatalf("envelope must echo paging, got page=%d pageSize=%d", env.Page, env.PageSize)
	}
	if env.Total != 25 {
		t.Fatalf("expected total 25, got %d", env.Total)
	}
	if env.TotalPages != 3 {
		t.Fatalf("expected totalPages 3, got %d", env.TotalPages)
	}
	if len(env.Data) != 10 {
		t.Fatalf("expected a full second page, got %d", len(env.Data))
	}
	if env.Metrics.TotalQuantity != 50 || env.Metrics.TotalAmount != 1000 {
		t.Fatalf("metrics must span the filtered set, got %+v", env.Metrics)
	}
}

func TestDashboardEmptyStore(t *testing.T) {
	svc := New(memory.New(nil), nil, 0)

	env, err := svc.Dashboard(context.Background(), query.Criteria{
		Sort: query.SortDateDesc, Page: 1, PageSize: 10,
	})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if env.Total != 0 {
		t.Fatalf("expected total 0, got %d", env.Total)
	}
	if env.TotalPages != 1 {
		t.Fatalf("empty set still reports one page, got %d", env.TotalPages)
	}
	if env.Data == nil || len(env.Data) != 0 {
		t.Fatalf("data must be an empty array, got %v", env.Data)
	}
	if env.Metrics != (domain.SalesMetrics{}) {
		t.Fatalf("expected zero metrics, got %+v", env.Metrics)
	}
}

func TestDashboardZeroValueCriteria(t *testing.T) {
	svc := New(memory.New(sampleRecords()), nil, 0)

	env, err := svc.Dashboard(context.Background(), query.Criteria{})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if env.Page != 1 || env.PageSize != query.DefaultPageSize {
		t.Fatalf("zero-value criteria must normalize the window, got page=%d pageSize=%d", env.Page, env.PageSize)
	}
	if len(env.Data) != query.DefaultPageSize {
		t.Fatalf("expected a default-sized first page, got %d rows", len(env.Data))
	}
	if env.TotalPages != 3 {
		t.Fatalf("expected totalPages 3, got %d", env.TotalPages)
	}
}

func TestDashboardMetricsStableAcrossPages(t *testing.T) {
	svc := New(memory.New(sampleRecords()), nil, 0)

	var first domain.SalesMetrics
	for page := 1; page <= 3; page++ {
		env, err := svc.Dashboard(context.Background(), query.Criteria{
			Sort: query.SortDateDesc, Page: page, PageSize: 10,
		})
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if page == 1 {
			first = env.Metrics
			continue
		}
		if env.Metrics != first {
			t.Fatalf("page %d metrics drifted: %+v vs %+v", page, env.Metrics, first)
		}
	}
}

func TestRecentOrdersClampsLimit(t *testing.T) {
	repo := &recordingRepo{Repository: memory.New(sampleRecords())}
	svc := New(repo, nil, 0)

	if _, err := svc.RecentOrders(context.Background(), 9999); err != nil {
		t.Fatalf("recent orders: %v", err)
	}
	if repo.lastLimit != store.MaxOrderLimit {
		t.Fatalf("expected limit clamped to %d, got %d", store.MaxOrderLimit, repo.lastLimit)
	}

	if _, err := svc.RecentOrders(context.Background(), -3); err != nil {
		t.Fatalf("recent orders: %v", err)
	}
	if repo.lastLimit != store.DefaultOrderLimit {
		t.Fatalf("expected default limit %d, got %d", store.DefaultOrderLimit, repo.lastLimit)
	}
}

func TestReportsServedFromCache(t *testing.T) {
	repo := &recordingRepo{Repository: memory.New(sampleRecords())}
	reports := newMemoryCache()
	svc := New(repo, reports, time.Minute)

	if _, err := svc.Meta(context.Background()); err != nil {
		t.Fatalf("meta: %v", err)
	}
	if _, err := svc.Meta(context.Background()); err != nil {
		t.Fatalf("meta: %v", err)
	}
	if repo.facetCalls != 1 {
		t.Fatalf("expected one repository read, got %d", repo.facetCalls)
	}
	if reports.sets != 1 {
		t.Fatalf("expected one cache fill, got %d", reports.sets)
	}
}

func TestReportsSurviveCacheFailure(t *testing.T) {
	repo := &recordingRepo{Repository: memory.New(sampleRecords())}
	svc := New(repo, failingCache{}, time.Minute)

	facets, err := svc.Meta(context.Background())
	if err != nil {
		t.Fatalf("cache failure must not fail the read: %v", err)
	}
	if len(facets.Regions) == 0 {
		t.Fatalf("expected facets from the repository, got %+v", facets)
	}
}

type recordingRepo struct {
	store.Repository
	facetCalls int
	lastLimit  int
}

func (r *recordingRepo) Facets(ctx context.Context) (domain.Facets, error) {
	r.facetCalls++
	return r.Repository.Facets(ctx)
}

func (r *recordingRepo) RecentOrders(ctx context.Context, limit int) ([]domain.OrderRecord, error) {
	r.lastLimit = limit
	return r.Repository.RecentOrders(ctx, limit)
}

type memoryCache struct {
	entries map[string][]byte
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	payload, ok := c.entries[key]
	return payload, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, payload []byte, _ time.Duration) error {
	c.sets++
	c.entries[key] = payload
	return nil
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache down")
}
