// Package memory is an in-memory Row Store used for dev/demo mode and tests.
// It evaluates predicates directly through query.Predicate.Match, so its
// results agree with the SQL adapters by construction.
package memory

import (
	"context"
	"sort"
	"sync"

	"salesdash/backend/internal/domain"
	"salesdash/backend/internal/query"
	"salesdash/backend/internal/store"
)

type Store struct {
	mu    sync.RWMutex
	sales []domain.SaleRecord
}

// New builds a store over a copy of the given records.
func New(records []domain.SaleRecord) *Store {
	sales := make([]domain.SaleRecord, len(records))
	copy(sales, records)
	return &Store{sales: sales}
}

func (s *Store) QuerySales(_ context.Context, q store.SalesQuery) (*store.SalesResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.SaleRecord, 0, len(s.sales))
	result := store.SalesResult{Records: []domain.SaleRecord{}}
	for _, rec := range s.sales {
		if !q.Predicate.Match(rec) {
			continue
		}
		matched = append(matched, rec)
		result.Metrics.TotalQuantity += int64(rec.Quantity)
		result.Metrics.TotalAmount += rec.TotalAmount
		result.Metrics.TotalDiscount += rec.DiscountAmount
	}
	result.Total = len(matched)

	sort.SliceStable(matched, func(i, j int) bool {
		return q.Sort.Less(matched[i], matched[j])
	})

	if q.Offset < len(matched) && q.Limit > 0 {
		end := q.Offset + q.Limit
		if end > len(matched) {
			end = len(matched)
		}
		result.Records = append(result.Records, matched[q.Offset:end]...)
	}

	return &result, nil
}

func (s *Store) Facets(_ context.Context) (domain.Facets, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	regions := map[string]bool{}
	genders := map[string]bool{}
	categories := map[string]bool{}
	payments := map[string]bool{}
	tags := map[string]bool{}

	for _, rec := range s.sales {
		markNonEmpty(regions, rec.CustomerRegion)
		markNonEmpty(genders, rec.Gender)
		markNonEmpty(categories, rec.ProductCategory)
		markNonEmpty(payments, rec.PaymentMethod)
		for _, tag := range rec.Tags {
			markNonEmpty(tags, tag)
		}
	}

	return domain.Facets{
		Regions:    sortedKeys(regions),
		Genders:    sortedKeys(genders),
		Categories: sortedKeys(categories),
		Payments:   sortedKeys(payments),
		Tags:       sortedKeys(tags),
	}, nil
}

func (s *Store) StoreAggregates(_ context.Context) ([]domain.StoreAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type storeKey struct {
		id       string
		location string
	}
	groups := map[storeKey]*domain.StoreAggregate{}
	for _, rec := range s.sales {
		key := storeKey{rec.StoreID, rec.StoreLocation}
		agg, ok := groups[key]
		if !ok {
			agg = &domain.StoreAggregate{StoreID: rec.StoreID, StoreLocation: rec.StoreLocation}
			groups[key] = agg
		}
		agg.Transactions++
		agg.TotalQuantity += int64(rec.Quantity)
		agg.TotalAmount += rec.TotalAmount
		agg.TotalDiscount += rec.DiscountAmount
	}

	out := make([]domain.StoreAggregate, 0, len(groups))
	for _, agg := range groups {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Transactions != out[j].Transactions {
			return out[i].Transactions > out[j].Transactions
		}
		return out[i].StoreID < out[j].StoreID
	})
	return out, nil
}

func (s *Store) ProductAggregates(_ context.Context) ([]domain.ProductAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type productKey struct {
		id       string
		name     string
		brand    string
		category string
	}
	groups := map[productKey]*domain.ProductAggregate{}
	for _, rec := range s.sales {
		key := productKey{rec.ProductID, rec.ProductName, rec.Brand, rec.ProductCategory}
		agg, ok := groups[key]
		if !ok {
			agg = &domain.ProductAggregate{
				ProductID:       rec.ProductID,
				ProductName:     rec.ProductName,
				Brand:           rec.Brand,
				ProductCategory: rec.ProductCategory,
			}
			groups[key] = agg
		}
		agg.TotalQuantity += int64(rec.Quantity)
		agg.TotalAmount += rec.TotalAmount
		agg.TotalDiscount += rec.DiscountAmount
		agg.Transactions++
	}

	out := make([]domain.ProductAggregate, 0, len(groups))
	for _, agg := range groups {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalQuantity != out[j].TotalQuantity {
			return out[i].TotalQuantity > out[j].TotalQuantity
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

func (s *Store) CustomerAggregates(_ context.Context) ([]domain.CustomerAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type customerKey struct {
		id     string
		name   string
		gender string
		region string
		age    int
		hasAge bool
	}
	groups := map[customerKey]*domain.CustomerAggregate{}
	for _, rec := range s.sales {
		key := customerKey{id: rec.CustomerID, name: rec.CustomerName, gender: rec.Gender, region: rec.CustomerRegion}
		if rec.Age != nil {
			key.age = *rec.Age
			key.hasAge = true
		}
		agg, ok := groups[key]
		if !ok {
			agg = &domain.CustomerAggregate{
				CustomerID:     rec.CustomerID,
				CustomerName:   rec.CustomerName,
				Gender:         rec.Gender,
				CustomerRegion: rec.CustomerRegion,
				Age:            rec.Age,
			}
			groups[key] = agg
		}
		agg.Orders++
		agg.TotalAmount += rec.TotalAmount
		agg.TotalDiscount += rec.DiscountAmount
		agg.TotalQuantity += int64(rec.Quantity)
	}

	out := make([]domain.CustomerAggregate, 0, len(groups))
	for _, agg := range groups {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Orders != out[j].Orders {
			return out[i].Orders > out[j].Orders
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	return out, nil
}

func (s *Store) RecentOrders(_ context.Context, limit int) ([]domain.OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit = store.ClampOrderLimit(limit)

	sorted := make([]domain.SaleRecord, len(s.sales))
	copy(sorted, s.sales)
	sort.SliceStable(sorted, func(i, j int) bool {
		return query.SortDateDesc.Less(sorted[i], sorted[j])
	})

	if limit > len(sorted) {
		limit = len(sorted)
	}
	out := make([]domain.OrderRecord, 0, limit)
	for _, rec := range sorted[:limit] {
		out = append(out, domain.OrderRecord{
			TransactionID:  rec.TransactionID,
			Date:           rec.Date,
			CustomerName:   rec.CustomerName,
			OrderStatus:    rec.OrderStatus,
			DeliveryType:   rec.DeliveryType,
			PaymentMethod:  rec.PaymentMethod,
			StoreLocation:  rec.StoreLocation,
			TotalAmount:    rec.TotalAmount,
			DiscountAmount: rec.DiscountAmount,
			FinalAmount:    rec.FinalAmount,
		})
	}
	return out, nil
}

func (s *Store) ReplaceSales(_ context.Context, records []domain.SaleRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sales = make([]domain.SaleRecord, len(records))
	copy(s.sales, records)
	return len(records), nil
}

func markNonEmpty(set map[string]bool, value string) {
	if value != "" {
		set[value] = true
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
