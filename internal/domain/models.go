package domain

// SaleRecord is one retail transaction, immutable after ingestion. Field names
// mirror the columns of the denormalized sales table; tags are serialized as a
// JSON array only at the SQL adapter edge.
type SaleRecord struct {
	TransactionID      string   `json:"transaction_id"`
	Date               string   `json:"date"`
	CustomerID         string   `json:"customer_id"`
	CustomerName       string   `json:"customer_name"`
	PhoneNumber        string   `json:"phone_number"`
	Gender             string   `json:"gender"`
	Age                *int     `json:"age"`
	CustomerRegion     string   `json:"customer_region"`
	CustomerType       string   `json:"customer_type"`
	ProductID          string   `json:"product_id"`
	ProductName        string   `json:"product_name"`
	Brand              string   `json:"brand"`
	ProductCategory    string   `json:"product_category"`
	Tags               []string `json:"tags"`
	Quantity           int      `json:"quantity"`
	PricePerUnit       float64  `json:"price_per_unit"`
	DiscountPercentage float64  `json:"discount_percentage"`
	DiscountAmount     float64  `json:"discount_amount"`
	TotalAmount        float64  `json:"total_amount"`
	FinalAmount        float64  `json:"final_amount"`
	PaymentMethod      string   `json:"payment_method"`
	OrderStatus        string   `json:"order_status"`
	DeliveryType       string   `json:"delivery_type"`
	StoreID            string   `json:"store_id"`
	StoreLocation      string   `json:"store_location"`
	SalespersonID      string   `json:"salesperson_id"`
	EmployeeName       string   `json:"employee_name"`
}

// SalesMetrics are aggregate sums over a filtered set. Zero matching rows
// yield zeroes, never nulls.
type SalesMetrics struct {
	TotalQuantity int64   `json:"totalQuantity"`
	TotalAmount   float64 `json:"totalAmount"`
	TotalDiscount float64 `json:"totalDiscount"`
}

// SalesEnvelope is the paginated dashboard response. Metrics and Total cover
// the whole filtered set, not just the returned page.
type SalesEnvelope struct {
	Data       []SaleRecord `json:"data"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	Total      int          `json:"total"`
	TotalPages int          `json:"totalPages"`
	Metrics    SalesMetrics `json:"metrics"`
}

// Facets holds the distinct values used to populate filter widgets. Always
// computed over the whole store, never within a filter context.
type Facets struct {
	Regions    []string `json:"regions"`
	Genders    []string `json:"genders"`
	Categories []string `json:"categories"`
	Payments   []string `json:"payments"`
	Tags       []string `json:"tags"`
}

type StoreAggregate struct {
	StoreID       string  `db:"store_id" json:"store_id"`
	StoreLocation string  `db:"store_location" json:"store_location"`
	Transactions  int64   `db:"transactions" json:"transactions"`
	TotalQuantity int64   `db:"total_quantity" json:"totalQuantity"`
	TotalAmount   float64 `db:"total_amount" json:"totalAmount"`
	TotalDiscount float64 `db:"total_discount" json:"totalDiscount"`
}

type ProductAggregate struct {
	ProductID       string  `db:"product_id" json:"product_id"`
	ProductName     string  `db:"product_name" json:"product_name"`
	Brand           string  `db:"brand" json:"brand"`
	ProductCategory string  `db:"product_category" json:"product_category"`
	TotalQuantity   int64   `db:"total_quantity" json:"totalQuantity"`
	TotalAmount     float64 `db:"total_amount" json:"totalAmount"`
	TotalDiscount   float64 `db:"total_discount" json:"totalDiscount"`
	Transactions    int64   `db:"transactions" json:"transactions"`
}

type CustomerAggregate struct {
	CustomerID     string  `db:"customer_id" json:"customer_id"`
	CustomerName   string  `db:"customer_name" json:"customer_name"`
	Gender         string  `db:"gender" json:"gender"`
	CustomerRegion string  `db:"customer_region" json:"customer_region"`
	Age            *int    `db:"age" json:"age"`
	Orders         int64   `db:"orders" json:"orders"`
	TotalAmount    float64 `db:"total_amount" json:"totalAmount"`
	TotalDiscount  float64 `db:"total_discount" json:"totalDiscount"`
	TotalQuantity  int64   `db:"total_quantity" json:"totalQuantity"`
}

// OrderRecord is the projected row shape of the recent-orders report.
type OrderRecord struct {
	TransactionID  string  `db:"transaction_id" json:"transaction_id"`
	Date           string  `db:"date" json:"date"`
	CustomerName   string  `db:"customer_name" json:"customer_name"`
	OrderStatus    string  `db:"order_status" json:"order_status"`
	DeliveryType   string  `db:"delivery_type" json:"delivery_type"`
	PaymentMethod  string  `db:"payment_method" json:"payment_method"`
	StoreLocation  string  `db:"store_location" json:"store_location"`
	TotalAmount    float64 `db:"total_amount" json:"total_amount"`
	DiscountAmount float64 `db:"discount_amount" json:"discount_amount"`
	FinalAmount    float64 `db:"final_amount" json:"final_amount"`
}
