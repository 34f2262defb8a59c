// Package sqlite is the SQLite Row Store adapter, the engine the dashboard's
// dataset was originally served from. It shares the sales schema and the
// predicate semantics of the postgres adapter, rendered with ? placeholders.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"salesdash/backend/internal/domain"
	"salesdash/backend/internal/store"
)

type Store struct {
	db *sqlx.DB
}

const saleColumns = `transaction_id, date, customer_id, customer_name, phone_number, gender, age,
	customer_region, customer_type, product_id, product_name, brand, product_category, tags,
	quantity, price_per_unit, discount_percentage, discount_amount, total_amount, final_amount,
	payment_method, order_status, delivery_type, store_id, store_location, salesperson_id, employee_name`

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS sales (
		transaction_id TEXT PRIMARY KEY,
		date TEXT,
		customer_id TEXT,
		customer_name TEXT,
		phone_number TEXT,
		gender TEXT,
		age INTEGER,
		customer_region TEXT,
		customer_type TEXT,
		product_id TEXT,
		product_name TEXT,
		brand TEXT,
		product_category TEXT,
		tags TEXT,
		quantity INTEGER,
		price_per_unit REAL,
		discount_percentage REAL,
		discount_amount REAL,
		total_amount REAL,
		final_amount REAL,
		payment_method TEXT,
		order_status TEXT,
		delivery_type TEXT,
		store_id TEXT,
		store_location TEXT,
		salesperson_id TEXT,
		employee_name TEXT
	)
`

// saleRow is the scan target for full sale rows; tags stay serialized until
// the adapter edge.
type saleRow struct {
	TransactionID      string        `db:"transaction_id"`
	Date               string        `db:"date"`
	CustomerID         string        `db:"customer_id"`
	CustomerName       string        `db:"customer_name"`
	PhoneNumber        string        `db:"phone_number"`
	Gender             string        `db:"gender"`
	Age                sql.NullInt64 `db:"age"`
	CustomerRegion     string        `db:"customer_region"`
	CustomerType       string        `db:"customer_type"`
	ProductID          string        `db:"product_id"`
	ProductName        string        `db:"product_name"`
	Brand              string        `db:"brand"`
	ProductCategory    string        `db:"product_category"`
	Tags               string        `db:"tags"`
	Quantity           int           `db:"quantity"`
	PricePerUnit       float64       `db:"price_per_unit"`
	DiscountPercentage float64       `db:"discount_percentage"`
	DiscountAmount     float64       `db:"discount_amount"`
	TotalAmount        float64       `db:"total_amount"`
	FinalAmount        float64       `db:"final_amount"`
	PaymentMethod      string        `db:"payment_method"`
	OrderStatus        string        `db:"order_status"`
	DeliveryType       string        `db:"delivery_type"`
	StoreID            string        `db:"store_id"`
	StoreLocation      string        `db:"store_location"`
	SalespersonID      string        `db:"salesperson_id"`
	EmployeeName       string        `db:"employee_name"`
}

func (r saleRow) record() domain.SaleRecord {
	rec := domain.SaleRecord{
		TransactionID:      r.TransactionID,
		Date:               r.Date,
		CustomerID:         r.CustomerID,
		CustomerName:       r.CustomerName,
		PhoneNumber:        r.PhoneNumber,
		Gender:             r.Gender,
		CustomerRegion:     r.CustomerRegion,
		CustomerType:       r.CustomerType,
		ProductID:          r.ProductID,
		ProductName:        r.ProductName,
		Brand:              r.Brand,
		ProductCategory:    r.ProductCategory,
		Tags:               decodeTags(r.Tags),
		Quantity:           r.Quantity,
		PricePerUnit:       r.PricePerUnit,
		DiscountPercentage: r.DiscountPercentage,
		DiscountAmount:     r.DiscountAmount,
		TotalAmount:        r.TotalAmount,
		FinalAmount:        r.FinalAmount,
		PaymentMethod:      r.PaymentMethod,
		OrderStatus:        r.OrderStatus,
		DeliveryType:       r.DeliveryType,
		StoreID:            r.StoreID,
		StoreLocation:      r.StoreLocation,
		SalespersonID:      r.SalespersonID,
		EmployeeName:       r.EmployeeName,
	}
	if r.Age.Valid {
		n := int(r.Age.Int64)
		rec.Age = &n
	}
	return rec
}

func decodeTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}

// New opens (or creates) the SQLite database at path. A single connection is
// used so every coupled read runs against one consistent snapshot.
func New(ctx context.Context, path string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure sales table: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func placeholder(int) string {
	return "?"
}

func (s *Store) QuerySales(ctx context.Context, q store.SalesQuery) (*store.SalesResult, error) {
	where, args := q.Predicate.SQL(placeholder)
	whereClause := ""
	if where != "" {
		whereClause = " WHERE " + where
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	result := store.SalesResult{Records: []domain.SaleRecord{}}

	if err := tx.GetContext(ctx, &result.Total, `SELECT COUNT(*) FROM sales`+whereClause, args...); err != nil {
		return nil, fmt.Errorf("count sales: %w", err)
	}

	var metrics struct {
		TotalQuantity int64   `db:"total_quantity"`
		TotalAmount   float64 `db:"total_amount"`
		TotalDiscount float64 `db:"total_discount"`
	}
	metricsSQL := `
		SELECT COALESCE(SUM(quantity), 0) AS total_quantity,
			COALESCE(SUM(total_amount), 0) AS total_amount,
			COALESCE(SUM(discount_amount), 0) AS total_discount
		FROM sales` + whereClause
	if err := tx.GetContext(ctx, &metrics, metricsSQL, args...); err != nil {
		return nil, fmt.Errorf("sales metrics: %w", err)
	}
	result.Metrics = domain.SalesMetrics{
		TotalQuantity: metrics.TotalQuantity,
		TotalAmount:   metrics.TotalAmount,
		TotalDiscount: metrics.TotalDiscount,
	}

	pageSQL := fmt.Sprintf(
		"SELECT %s FROM sales%s ORDER BY %s LIMIT ? OFFSET ?",
		saleColumns, whereClause, q.Sort.OrderBy(),
	)
	pageArgs := append(append([]any{}, args...), q.Limit, q.Offset)

	var rows []saleRow
	if err := tx.SelectContext(ctx, &rows, pageSQL, pageArgs...); err != nil {
		return nil, fmt.Errorf("page sales: %w", err)
	}
	for _, row := range rows {
		result.Records = append(result.Records, row.record())
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Store) Facets(ctx context.Context) (domain.Facets, error) {
	facets := domain.Facets{
		Regions:    []string{},
		Genders:    []string{},
		Categories: []string{},
		Payments:   []string{},
		Tags:       []string{},
	}

	columns := []struct {
		column string
		dest   *[]string
	}{
		{"customer_region", &facets.Regions},
		{"gender", &facets.Genders},
		{"product_category", &facets.Categories},
		{"payment_method", &facets.Payments},
	}
	for _, c := range columns {
		// column is one of four fixed names, never user input.
		q := fmt.Sprintf(
			"SELECT DISTINCT %s FROM sales WHERE %s IS NOT NULL AND %s <> '' ORDER BY %s",
			c.column, c.column, c.column, c.column,
		)
		if err := s.db.SelectContext(ctx, c.dest, q); err != nil {
			return domain.Facets{}, fmt.Errorf("distinct %s: %w", c.column, err)
		}
	}

	if err := s.db.SelectContext(ctx, &facets.Tags, `
		SELECT DISTINCT value
		FROM sales, json_each(sales.tags)
		WHERE sales.tags IS NOT NULL AND sales.tags <> '' AND value <> ''
		ORDER BY value
	`); err != nil {
		return domain.Facets{}, fmt.Errorf("distinct tags: %w", err)
	}

	return facets, nil
}

func (s *Store) StoreAggregates(ctx context.Context) ([]domain.StoreAggregate, error) {
	out := []domain.StoreAggregate{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT store_id, store_location,
			COUNT(*) AS transactions,
			COALESCE(SUM(quantity), 0) AS total_quantity,
			COALESCE(SUM(total_amount), 0) AS total_amount,
			COALESCE(SUM(discount_amount), 0) AS total_discount
		FROM sales
		GROUP BY store_id, store_location
		ORDER BY transactions DESC, store_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("store aggregates: %w", err)
	}
	return out, nil
}

func (s *Store) ProductAggregates(ctx context.Context) ([]domain.ProductAggregate, error) {
	out := []domain.ProductAggregate{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT product_id, product_name, brand, product_category,
			COALESCE(SUM(quantity), 0) AS total_quantity,
			COALESCE(SUM(total_amount), 0) AS total_amount,
			COALESCE(SUM(discount_amount), 0) AS total_discount,
			COUNT(*) AS transactions
		FROM sales
		GROUP BY product_id, product_name, brand, product_category
		ORDER BY total_quantity DESC, product_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("product aggregates: %w", err)
	}
	return out, nil
}

func (s *Store) CustomerAggregates(ctx context.Context) ([]domain.CustomerAggregate, error) {
	out := []domain.CustomerAggregate{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT customer_id, customer_name, gender, customer_region, age,
			COUNT(*) AS orders,
			COALESCE(SUM(total_amount), 0) AS total_amount,
			COALESCE(SUM(discount_amount), 0) AS total_discount,
			COALESCE(SUM(quantity), 0) AS total_quantity
		FROM sales
		GROUP BY customer_id, customer_name, gender, customer_region, age
		ORDER BY orders DESC, customer_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("customer aggregates: %w", err)
	}
	return out, nil
}

func (s *Store) RecentOrders(ctx context.Context, limit int) ([]domain.OrderRecord, error) {
	limit = store.ClampOrderLimit(limit)

	out := []domain.OrderRecord{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT transaction_id, date, customer_name, order_status, delivery_type,
			payment_method, store_location, total_amount, discount_amount, final_amount
		FROM sales
		ORDER BY date DESC, transaction_id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	return out, nil
}

func (s *Store) ReplaceSales(ctx context.Context, records []domain.SaleRecord) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sales`); err != nil {
		return 0, fmt.Errorf("clear sales: %w", err)
	}

	insertSQL := fmt.Sprintf(`
		INSERT OR REPLACE INTO sales (%s)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, saleColumns)
	stmt, err := tx.PreparexContext(ctx, insertSQL)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for _, rec := range records {
		tagList := rec.Tags
		if tagList == nil {
			tagList = []string{}
		}
		tags, err := json.Marshal(tagList)
		if err != nil {
			return 0, fmt.Errorf("encode tags for %s: %w", rec.TransactionID, err)
		}
		var age any
		if rec.Age != nil {
			age = *rec.Age
		}
		if _, err := stmt.ExecContext(ctx,
			rec.TransactionID, rec.Date, rec.CustomerID, rec.CustomerName, rec.PhoneNumber,
			rec.Gender, age, rec.CustomerRegion, rec.CustomerType, rec.ProductID,
			rec.ProductName, rec.Brand, rec.ProductCategory, string(tags), rec.Quantity,
			rec.PricePerUnit, rec.DiscountPercentage, rec.DiscountAmount, rec.TotalAmount,
			rec.FinalAmount, rec.PaymentMethod, rec.OrderStatus, rec.DeliveryType,
			rec.StoreID, rec.StoreLocation, rec.SalespersonID, rec.EmployeeName,
		); err != nil {
			return 0, fmt.Errorf("insert %s: %w", rec.TransactionID, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}
