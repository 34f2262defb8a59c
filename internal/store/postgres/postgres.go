// Package postgres is the PostgreSQL Row Store adapter. Predicates arrive as
// query.Predicate values and are rendered to $n-parameterized SQL; no user
// input is ever interpolated into query text.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"salesdash/backend/internal/domain"
	"salesdash/backend/internal/store"
)

type Store struct {
	db *sql.DB
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
		price_per_unit DOUBLE PRECISION,
		discount_percentage DOUBLE PRECISION,
		discount_amount DOUBLE PRECISION,
		total_amount DOUBLE PRECISION,
		final_amount DOUBLE PRECISION,
		payment_method TEXT,
		order_status TEXT,
		delivery_type TEXT,
		store_id TEXT,
		store_location TEXT,
		salesperson_id TEXT,
		employee_name TEXT
	)
`

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
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

func placeholder(pos int) string {
	return fmt.Sprintf("$%d", pos)
}

// QuerySales runs the count, metrics, and page reads in one read-only
// transaction so the three answers describe the same snapshot.
func (s *Store) QuerySales(ctx context.Context, q store.SalesQuery) (*store.SalesResult, error) {
	where, args := q.Predicate.SQL(placeholder)
	whereClause := ""
	if where != "" {
		whereClause = " WHERE " + where
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	result := store.SalesResult{Records: []domain.SaleRecord{}}

	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales`+whereClause, args...).Scan(&result.Total); err != nil {
		return nil, fmt.Errorf("count sales: %w", err)
	}

	metricsSQL := `
		SELECT COALESCE(SUM(quantity), 0), COALESCE(SUM(total_amount), 0), COALESCE(SUM(discount_amount), 0)
		FROM sales` + whereClause
	if err := tx.QueryRowContext(ctx, metricsSQL, args...).Scan(
		&result.Metrics.TotalQuantity, &result.Metrics.TotalAmount, &result.Metrics.TotalDiscount,
	); err != nil {
		return nil, fmt.Errorf("sales metrics: %w", err)
	}

	pageArgs := append(append([]any{}, args...), q.Limit, q.Offset)
	pageSQL := fmt.Sprintf(
		"SELECT %s FROM sales%s ORDER BY %s LIMIT $%d OFFSET $%d",
		saleColumns, whereClause, q.Sort.OrderBy(), len(pageArgs)-1, len(pageArgs),
	)
	rows, err := tx.QueryContext(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("page sales: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		result.Records = append(result.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &result, nil
}

func scanSale(rows *sql.Rows) (domain.SaleRecord, error) {
	var rec domain.SaleRecord
	var age sql.NullInt64
	var tags sql.NullString
	if err := rows.Scan(
		&rec.TransactionID, &rec.Date, &rec.CustomerID, &rec.CustomerName, &rec.PhoneNumber,
		&rec.Gender, &age, &rec.CustomerRegion, &rec.CustomerType, &rec.ProductID,
		&rec.ProductName, &rec.Brand, &rec.ProductCategory, &tags, &rec.Quantity,
		&rec.PricePerUnit, &rec.DiscountPercentage, &rec.DiscountAmount, &rec.TotalAmount,
		&rec.FinalAmount, &rec.PaymentMethod, &rec.OrderStatus, &rec.DeliveryType,
		&rec.StoreID, &rec.StoreLocation, &rec.SalespersonID, &rec.EmployeeName,
	); err != nil {
		return rec, err
	}
	if age.Valid {
		n := int(age.Int64)
		rec.Age = &n
	}
	rec.Tags = decodeTags(tags.String)
	return rec, nil
}

// decodeTags deserializes the stored JSON array back into an ordered list.
// Anything unreadable degrades to an empty list rather than failing the read.
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

func (s *Store) Facets(ctx context.Context) (domain.Facets, error) {
	facets := domain.Facets{}

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
		values, err := s.distinctColumn(ctx, c.column)
		if err != nil {
			return domain.Facets{}, err
		}
		*c.dest = values
	}

	tags, err := s.distinctTags(ctx)
	if err != nil {
		return domain.Facets{}, err
	}
	facets.Tags = tags

	return facets, nil
}

func (s *Store) distinctColumn(ctx context.Context, column string) ([]string, error) {
	// column is one of four fixed names, never user input.
	q := fmt.Sprintf(
		"SELECT DISTINCT %s FROM sales WHERE %s IS NOT NULL AND %s <> '' ORDER BY %s",
		column, column, column, column,
	)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

func (s *Store) distinctTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT tag
		FROM (SELECT tags FROM sales WHERE tags IS NOT NULL AND tags <> '') t,
			json_array_elements_text(t.tags::json) AS tag
		WHERE tag <> ''
		ORDER BY tag
	`)
	if err != nil {
		return nil, fmt.Errorf("distinct tags: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (s *Store) StoreAggregates(ctx context.Context) ([]domain.StoreAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `
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
	defer rows.Close()

	out := []domain.StoreAggregate{}
	for rows.Next() {
		var agg domain.StoreAggregate
		if err := rows.Scan(&agg.StoreID, &agg.StoreLocation, &agg.Transactions, &agg.TotalQuantity, &agg.TotalAmount, &agg.TotalDiscount); err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, rows.Err()
}

func (s *Store) ProductAggregates(ctx context.Context) ([]domain.ProductAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `
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
	defer rows.Close()

	out := []domain.ProductAggregate{}
	for rows.Next() {
		var agg domain.ProductAggregate
		if err := rows.Scan(&agg.ProductID, &agg.ProductName, &agg.Brand, &agg.ProductCategory, &agg.TotalQuantity, &agg.TotalAmount, &agg.TotalDiscount, &agg.Transactions); err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, rows.Err()
}

func (s *Store) CustomerAggregates(ctx context.Context) ([]domain.CustomerAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `
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
	defer rows.Close()

	out := []domain.CustomerAggregate{}
	for rows.Next() {
		var agg domain.CustomerAggregate
		var age sql.NullInt64
		if err := rows.Scan(&agg.CustomerID, &agg.CustomerName, &agg.Gender, &agg.CustomerRegion, &age, &agg.Orders, &agg.TotalAmount, &agg.TotalDiscount, &agg.TotalQuantity); err != nil {
			return nil, err
		}
		if age.Valid {
			n := int(age.Int64)
			agg.Age = &n
		}
		out = append(out, agg)
	}
	return out, rows.Err()
}

func (s *Store) RecentOrders(ctx context.Context, limit int) ([]domain.OrderRecord, error) {
	limit = store.ClampOrderLimit(limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, date, customer_name, order_status, delivery_type,
			payment_method, store_location, total_amount, discount_amount, final_amount
		FROM sales
		ORDER BY date DESC, transaction_id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	defer rows.Close()

	out := []domain.OrderRecord{}
	for rows.Next() {
		var rec domain.OrderRecord
		if err := rows.Scan(&rec.TransactionID, &rec.Date, &rec.CustomerName, &rec.OrderStatus, &rec.DeliveryType, &rec.PaymentMethod, &rec.StoreLocation, &rec.TotalAmount, &rec.DiscountAmount, &rec.FinalAmount); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ReplaceSales wipes and reloads the sales table. Only the offline ingestion
// command calls this; the serving path never writes.
func (s *Store) ReplaceSales(ctx context.Context, records []domain.SaleRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sales`); err != nil {
		return 0, fmt.Errorf("clear sales: %w", err)
	}

	insertSQL := fmt.Sprintf(`
		INSERT INTO sales (%s)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)
	`, saleColumns)
	stmt, err := tx.PrepareContext(ctx, insertSQL)
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
