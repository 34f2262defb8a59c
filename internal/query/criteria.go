// Package query translates the dashboard's open set of optional filter
// parameters into a storage-engine-agnostic predicate. The same predicate is
// rendered to parameterized SQL by the relational adapters and evaluated
// directly by the in-memory adapter, so both produce identical result sets.
package query

import (
	"net/url"
	"strconv"
	"strings"
)

type SortKey string

const (
	SortDateDesc     SortKey = "dateDesc"
	SortQuantity     SortKey = "quantity"
	SortCustomerName SortKey = "customerName"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ResolveSort maps a raw sort parameter through the fixed allow-list.
// Unrecognized values fall back to newest-first.
func ResolveSort(raw string) SortKey {
	switch SortKey(strings.TrimSpace(raw)) {
	case SortQuantity:
		return SortQuantity
	case SortCustomerName:
		return SortCustomerName
	default:
		return SortDateDesc
	}
}

// OrderBy returns the ORDER BY body for the sort key. Every key carries a
// transaction_id tiebreak so repeated queries page identically. Customer name
// ordering is case-insensitive ascending.
func (k SortKey) OrderBy() string {
	switch k {
	case SortQuantity:
		return "quantity DESC, transaction_id ASC"
	case SortCustomerName:
		return "LOWER(customer_name) ASC, transaction_id ASC"
	default:
		return "date DESC, transaction_id ASC"
	}
}

// Criteria is one request's parsed filter state. Zero values mean "no
// constraint" for every field except Page/PageSize, which are always set.
type Criteria struct {
	Search     string
	Regions    []string
	Genders    []string
	Categories []string
	Payments   []string
	Tags       []string
	AgeMin     *int
	AgeMax     *int
	DateStart  string
	DateEnd    string
	Sort       SortKey
	Page       int
	PageSize   int
}

// ParseCriteria reads raw query parameters. Malformed values clamp or default
// rather than fail: bad page numbers become 1, bad page sizes become 10, and
// non-numeric age bounds are treated as absent.
func ParseCriteria(values url.Values) Criteria {
	return Criteria{
		Search:     strings.ToLower(strings.TrimSpace(values.Get("search"))),
		Regions:    parseList(values.Get("regions")),
		Genders:    parseList(values.Get("genders")),
		Categories: parseList(values.Get("categories")),
		Payments:   parseList(values.Get("payments")),
		Tags:       parseList(values.Get("tags")),
		AgeMin:     parseOptionalInt(values.Get("ageMin")),
		AgeMax:     parseOptionalInt(values.Get("ageMax")),
		DateStart:  strings.TrimSpace(values.Get("dateStart")),
		DateEnd:    strings.TrimSpace(values.Get("dateEnd")),
		Sort:       ResolveSort(values.Get("sort")),
		Page:       parsePage(values.Get("page")),
		PageSize:   parsePageSize(values.Get("pageSize")),
	}
}

// Offset is the zero-based row offset of the requested page window.
func (c Criteria) Offset() int {
	return (c.Page - 1) * c.PageSize
}

func parseList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseOptionalInt(raw string) *int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil
	}
	return &n
}

func parsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func parsePageSize(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}
