// Package ingest loads the retail sales CSV into a Row Store. Ingestion is
// the system's only writer and runs offline, before the serving process
// starts; discount_amount is derived here once and persisted as authoritative.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"salesdash/backend/internal/domain"
	"salesdash/backend/internal/store"
	"salesdash/backend/internal/xid"
)

// Read parses the CSV export into sale records. Columns are matched by
// header name so column order in the export does not matter.
func Read(r io.Reader) ([]domain.SaleRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	if _, ok := index["Transaction ID"]; !ok {
		return nil, fmt.Errorf("missing Transaction ID column")
	}

	records := make([]domain.SaleRecord, 0, 1024)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(records)+2, err)
		}

		get := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		records = append(records, recordFromRow(get))
	}

	return records, nil
}

func recordFromRow(get func(name string) string) domain.SaleRecord {
	totalAmount := parseFloat(get("Total Amount"))
	discountPct := parseFloat(get("Discount Percentage"))

	rec := domain.SaleRecord{
		TransactionID:      get("Transaction ID"),
		Date:               get("Date"),
		CustomerID:         get("Customer ID"),
		CustomerName:       get("Customer Name"),
		PhoneNumber:        get("Phone Number"),
		Gender:             get("Gender"),
		Age:                parseOptionalInt(get("Age")),
		CustomerRegion:     get("Customer Region"),
		CustomerType:       get("Customer Type"),
		ProductID:          get("Product ID"),
		ProductName:        get("Product Name"),
		Brand:              get("Brand"),
		ProductCategory:    get("Product Category"),
		Tags:               parseTags(get("Tags")),
		Quantity:           int(parseFloat(get("Quantity"))),
		PricePerUnit:       parseFloat(get("Price per Unit")),
		DiscountPercentage: discountPct,
		DiscountAmount:     totalAmount * discountPct / 100,
		TotalAmount:        totalAmount,
		FinalAmount:        parseFloat(get("Final Amount")),
		PaymentMethod:      get("Payment Method"),
		OrderStatus:        get("Order Status"),
		DeliveryType:       get("Delivery Type"),
		StoreID:            get("Store ID"),
		StoreLocation:      get("Store Location"),
		SalespersonID:      get("Salesperson ID"),
		EmployeeName:       get("Employee Name"),
	}
	if rec.TransactionID == "" {
		rec.TransactionID = xid.New("txn")
	}
	return rec
}

// parseTags splits the CSV's comma-separated tag cell into an ordered list;
// the JSON-array serialization happens at the store adapter.
func parseTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

func parseFloat(raw string) float64 {
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseOptionalInt(raw string) *int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

// Load reads the CSV and replaces the store's contents with it.
func Load(ctx context.Context, repo store.Repository, r io.Reader) (int, error) {
	records, err := Read(r)
	if err != nil {
		return 0, err
	}
	return repo.ReplaceSales(ctx, records)
}

// LoadFile is Load over a file path.
func LoadFile(ctx context.Context, repo store.Repository, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return Load(ctx, repo, f)
}
