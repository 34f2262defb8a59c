package memory

import (
	"fmt"
	"math"

	"github.com/brianvoe/gofakeit/v6"

	"salesdash/backend/internal/domain"
)

// Reference data for the seeded dataset. Customers and products are generated
// first so the group-by reports aggregate over repeat entities rather than
// one row per group.
var (
	seedRegions       = []string{"North", "South", "East", "West", "Central"}
	seedGenders       = []string{"Female", "Male", "Other"}
	seedCustomerTypes = []string{"New", "Returning", "Loyal"}
	seedCategories    = []string{"Electronics", "Clothing", "Home", "Sports", "Toys", "Books"}
	seedBrands        = []string{"Nexora", "Calder", "Brightline", "Urbania", "Fjord", "Solace"}
	seedPayments      = []string{"Card", "Cash", "NetBanking", "UPI", "Wallet"}
	seedStatuses      = []string{"Delivered", "Pending", "Cancelled", "Returned"}
	seedDeliveries    = []string{"Home Delivery", "In-Store Pickup", "Express"}
	seedTags          = []string{"sale", "new", "clearance", "limited", "festive", "premium", "eco", "bundle"}
	seedStores        = []struct{ id, location string }{
		{"STORE-01", "Mumbai"},
		{"STORE-02", "Delhi"},
		{"STORE-03", "Bengaluru"},
		{"STORE-04", "Chennai"},
		{"STORE-05", "Kolkata"},
		{"STORE-06", "Pune"},
	}
)

type seedCustomer struct {
	id           string
	name         string
	phone        string
	gender       string
	age          *int
	region       string
	customerType string
}

type seedProduct struct {
	id       string
	name     string
	brand    string
	category string
	price    float64
	tags     []string
}

// NewSeeded builds a store populated with a deterministic fake dataset, used
// when neither DATABASE_URL nor SQLITE_PATH is configured and by the test
// suite. The fixed seed keeps facets and report orderings stable across runs.
func NewSeeded() *Store {
	faker := gofakeit.New(11)

	customers := make([]seedCustomer, 0, 60)
	for i := 0; i < 60; i++ {
		customer := seedCustomer{
			id:           fmt.Sprintf("CUST-%03d", i+1),
			name:         faker.Name(),
			phone:        faker.Phone(),
			gender:       faker.RandomString(seedGenders),
			region:       faker.RandomString(seedRegions),
			customerType: faker.RandomString(seedCustomerTypes),
		}
		// A slice of customers has no recorded age, exercising NULL handling
		// in the age filters.
		if faker.Number(0, 9) > 0 {
			age := faker.Number(18, 75)
			customer.age = &age
		}
		customers = append(customers, customer)
	}

	products := make([]seedProduct, 0, 24)
	for i := 0; i < 24; i++ {
		tagCount := faker.Number(0, 3)
		tags := make([]string, 0, tagCount)
		for len(tags) < tagCount {
			tag := faker.RandomString(seedTags)
			if !containsString(tags, tag) {
				tags = append(tags, tag)
			}
		}
		products = append(products, seedProduct{
			id:       fmt.Sprintf("PROD-%03d", i+1),
			name:     faker.ProductName(),
			brand:    faker.RandomString(seedBrands),
			category: faker.RandomString(seedCategories),
			price:    round2(faker.Price(50, 4000)),
			tags:     tags,
		})
	}

	records := make([]domain.SaleRecord, 0, 240)
	for i := 0; i < 240; i++ {
		customer := customers[faker.Number(0, len(customers)-1)]
		product := products[faker.Number(0, len(products)-1)]
		storeInfo := seedStores[faker.Number(0, len(seedStores)-1)]

		quantity := faker.Number(1, 8)
		total := round2(product.price * float64(quantity))
		pct := float64(faker.Number(0, 4) * 5)
		discount := round2(total * pct / 100)

		tags := make([]string, len(product.tags))
		copy(tags, product.tags)

		records = append(records, domain.SaleRecord{
			TransactionID:      fmt.Sprintf("TXN-%05d", i+1),
			Date:               fmt.Sprintf("2024-%02d-%02d", faker.Number(1, 12), faker.Number(1, 28)),
			CustomerID:         customer.id,
			CustomerName:       customer.name,
			PhoneNumber:        customer.phone,
			Gender:             customer.gender,
			Age:                customer.age,
			CustomerRegion:     customer.region,
			CustomerType:       customer.customerType,
			ProductID:          product.id,
			ProductName:        product.name,
			Brand:              product.brand,
			ProductCategory:    product.category,
			Tags:               tags,
			Quantity:           quantity,
			PricePerUnit:       product.price,
			DiscountPercentage: pct,
			DiscountAmount:     discount,
			TotalAmount:        total,
			FinalAmount:        round2(total - discount),
			PaymentMethod:      faker.RandomString(seedPayments),
			OrderStatus:        faker.RandomString(seedStatuses),
			DeliveryType:       faker.RandomString(seedDeliveries),
			StoreID:            storeInfo.id,
			StoreLocation:      storeInfo.location,
			SalespersonID:      fmt.Sprintf("EMP-%02d", faker.Number(1, 18)),
			EmployeeName:       faker.Name(),
		})
	}

	return New(records)
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
