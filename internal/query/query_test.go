package query

import (
	"net/url"
	"reflect"
	"testing"

	"salesdash/backend/internal/domain"
)

func intPtr(n int) *int { return &n }

func TestParseCriteriaDefaults(t *testing.T) {
	c := ParseCriteria(url.Values{})

	if c.Page != 1 {
		t.Fatalf("expected default page 1, got %d", c.Page)
	}
	if c.PageSize != 10 {
		t.Fatalf("expected default page size 10, got %d", c.PageSize)
	}
	if c.Sort != SortDateDesc {
		t.Fatalf("expected default sort dateDesc, got %s", c.Sort)
	}
	if c.Search != "" || c.Regions != nil || c.Tags != nil || c.AgeMin != nil || c.AgeMax != nil {
		t.Fatalf("expected empty criteria, got %+v", c)
	}
}

func TestParseCriteriaClamps(t *testing.T) {
	cases := []struct {
		name     string
		values   url.Values
		page     int
		pageSize int
	}{
		{"oversized page size", url.Values{"pageSize": {"1000"}}, 1, 100},
		{"zero page size", url.Values{"pageSize": {"0"}}, 1, 10},
		{"negative page size", url.Values{"pageSize": {"-5"}}, 1, 10},
		{"non-numeric page size", url.Values{"pageSize": {"ten"}}, 1, 10},
		{"zero page", url.Values{"page": {"0"}}, 1, 10},
		{"negative page", url.Values{"page": {"-3"}}, 1, 10},
		{"non-numeric page", url.Values{"page": {"abc"}}, 1, 10},
		{"valid window", url.Values{"page": {"3"}, "pageSize": {"25"}}, 3, 25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := ParseCriteria(tc.values)
			if c.Page != tc.page {
				t.Fatalf("expected page %d, got %d", tc.page, c.Page)
			}
			if c.PageSize != tc.pageSize {
				t.Fatalf("expected page size %d, got %d", tc.pageSize, c.PageSize)
			}
		})
	}
}

func TestParseCriteriaLists(t *testing.T) {
	c := ParseCriteria(url.Values{
		"regions": {" North , South ,, "},
		"tags":    {"sale,new"},
	})

	if !reflect.DeepEqual(c.Regions, []string{"North", "South"}) {
		t.Fatalf("expected trimmed regions, got %v", c.Regions)
	}
	if !reflect.DeepEqual(c.Tags, []string{"sale", "new"}) {
		t.Fatalf("expected tags, got %v", c.Tags)
	}
}

func TestParseCriteriaNumericFilters(t *testing.T) {
	c := ParseCriteria(url.Values{
		"ageMin": {"18"},
		"ageMax": {"notanumber"},
	})

	if c.AgeMin == nil || *c.AgeMin != 18 {
		t.Fatalf("expected ageMin 18, got %v", c.AgeMin)
	}
	if c.AgeMax != nil {
		t.Fatalf("expected non-numeric ageMax treated as absent, got %v", c.AgeMax)
	}
}

func TestResolveSortFallback(t *testing.T) {
	if got := ResolveSort("quantity"); got != SortQuantity {
		t.Fatalf("expected quantity, got %s", got)
	}
	if got := ResolveSort("customerName"); got != SortCustomerName {
		t.Fatalf("expected customerName, got %s", got)
	}
	if got := ResolveSort("DROP TABLE sales"); got != SortDateDesc {
		t.Fatalf("expected fallback to dateDesc, got %s", got)
	}
	if got := ResolveSort(""); got != SortDateDesc {
		t.Fatalf("expected fallback to dateDesc, got %s", got)
	}
}

func sampleRecord() domain.SaleRecord {
	return domain.SaleRecord{
		TransactionID:   "TXN-00001",
		Date:            "2024-01-15",
		CustomerName:    "Asha Verma",
		PhoneNumber:     "9876501234",
		Gender:          "Female",
		Age:             intPtr(34),
		CustomerRegion:  "North",
		ProductCategory: "Electronics",
		PaymentMethod:   "Card",
		Tags:            []string{"sale", "new"},
		Quantity:        2,
		TotalAmount:     100,
		DiscountAmount:  10,
	}
}

func TestBuildEmptyCriteriaMatchesEverything(t *testing.T) {
	p := Build(Criteria{Page: 1, PageSize: 10, Sort: SortDateDesc})
	if !p.Empty() {
		t.Fatalf("expected empty predicate, got %d conditions", len(p.Conds))
	}
	if !p.Match(sampleRecord()) {
		t.Fatalf("empty predicate must match every record")
	}
	where, args := p.SQL(func(pos int) string { return "?" })
	if where != "" || args != nil {
		t.Fatalf("expected empty SQL, got %q with %v", where, args)
	}
}

func TestSearchIsCaseInsensitiveOverNameAndPhone(t *testing.T) {
	rec := sampleRecord()

	p := Build(ParseCriteria(url.Values{"search": {"  ASHA "}}))
	if !p.Match(rec) {
		t.Fatalf("expected case-insensitive name match")
	}

	p = Build(ParseCriteria(url.Values{"search": {"6501"}}))
	if !p.Match(rec) {
		t.Fatalf("expected phone substring match")
	}

	p = Build(ParseCriteria(url.Values{"search": {"nobody"}}))
	if p.Match(rec) {
		t.Fatalf("expected no match for absent substring")
	}
}

func TestTagFilterIsOrNotAnd(t *testing.T) {
	rec := sampleRecord() // tags: sale, new

	p := Build(Criteria{Tags: []string{"sale", "clearance"}})
	if !p.Match(rec) {
		t.Fatalf("record with tag 'sale' must match tags=sale,clearance")
	}

	p = Build(Criteria{Tags: []string{"clearance", "limited"}})
	if p.Match(rec) {
		t.Fatalf("record without any requested tag must not match")
	}
}

func TestAgeBoundsAreInclusiveAndNullFails(t *testing.T) {
	rec := sampleRecord() // age 34

	if !Build(Criteria{AgeMin: intPtr(34)}).Match(rec) {
		t.Fatalf("ageMin is inclusive")
	}
	if !Build(Criteria{AgeMax: intPtr(34)}).Match(rec) {
		t.Fatalf("ageMax is inclusive")
	}
	if Build(Criteria{AgeMin: intPtr(35)}).Match(rec) {
		t.Fatalf("age below minimum must not match")
	}

	rec.Age = nil
	if Build(Criteria{AgeMin: intPtr(18)}).Match(rec) {
		t.Fatalf("record without age must fail age bounds, as in SQL")
	}

	// min > max is the caller's problem: the result set is legitimately empty.
	if Build(Criteria{AgeMin: intPtr(40), AgeMax: intPtr(20)}).Match(sampleRecord()) {
		t.Fatalf("contradictory bounds must match nothing")
	}
}

func TestDateRangeIsInclusiveLexical(t *testing.T) {
	in := sampleRecord() // 2024-01-15
	out := sampleRecord()
	out.Date = "2024-02-01"

	p := Build(Criteria{DateStart: "2024-01-01", DateEnd: "2024-01-31"})
	if !p.Match(in) {
		t.Fatalf("2024-01-15 must fall inside January")
	}
	if p.Match(out) {
		t.Fatalf("2024-02-01 must fall outside January")
	}

	if !Build(Criteria{DateStart: "2024-01-15", DateEnd: "2024-01-15"}).Match(in) {
		t.Fatalf("date bounds are inclusive")
	}
}

func TestSetFiltersUseMembership(t *testing.T) {
	rec := sampleRecord()

	if !Build(Criteria{Regions: []string{"South", "North"}}).Match(rec) {
		t.Fatalf("region membership expected")
	}
	if Build(Criteria{Regions: []string{"South"}}).Match(rec) {
		t.Fatalf("non-member region must not match")
	}
	if !Build(Criteria{Payments: []string{"Card"}, Genders: []string{"Female"}}).Match(rec) {
		t.Fatalf("criteria are combined with AND")
	}
	if Build(Criteria{Payments: []string{"Card"}, Genders: []string{"Male"}}).Match(rec) {
		t.Fatalf("one failing criterion must reject the record")
	}
}

func TestSQLRenderingIsFullyParameterized(t *testing.T) {
	p := Build(Criteria{
		Search:    "asha",
		Regions:   []string{"North", "South"},
		Tags:      []string{"sale"},
		AgeMin:    intPtr(18),
		DateStart: "2024-01-01",
	})

	where, args := p.SQL(func(pos int) string { return "?" })

	want := `(LOWER(customer_name) LIKE ? ESCAPE '\' OR LOWER(phone_number) LIKE ? ESCAPE '\') AND ` +
		`customer_region IN (?,?) AND (tags LIKE ? ESCAPE '\') AND age >= ? AND date >= ?`
	if where != want {
		t.Fatalf("unexpected WHERE body:\n got %q\nwant %q", where, want)
	}

	wantArgs := []any{"%asha%", "%asha%", "North", "South", `%"sale"%`, 18, "2024-01-01"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Fatalf("unexpected args:\n got %v\nwant %v", args, wantArgs)
	}
}

func TestSearchLikeMetacharactersAreLiteral(t *testing.T) {
	rec := sampleRecord()
	rec.CustomerName = "100% Cotton Traders"

	if !Build(Criteria{Search: "100%"}).Match(rec) {
		t.Fatalf("literal percent must match itself")
	}
	if Build(Criteria{Search: "1%s"}).Match(rec) {
		t.Fatalf("percent is not a wildcard")
	}
	if Build(Criteria{Search: "c_tton"}).Match(rec) {
		t.Fatalf("underscore is not a wildcard")
	}

	// The rendered args carry the same literal semantics.
	_, args := Build(Criteria{Search: "100%"}).SQL(func(pos int) string { return "?" })
	if args[0] != `%100\%%` || args[1] != `%100\%%` {
		t.Fatalf("expected escaped needle, got %v", args)
	}

	_, args = Build(Criteria{Tags: []string{"50%_off"}}).SQL(func(pos int) string { return "?" })
	if args[0] != `%"50\%\_off"%` {
		t.Fatalf("expected escaped tag needle, got %v", args)
	}
}

func TestSQLPositionalPlaceholders(t *testing.T) {
	p := Build(Criteria{Search: "x", DateEnd: "2024-12-31"})

	where, args := p.SQL(func(pos int) string { return map[int]string{1: "$1", 2: "$2", 3: "$3"}[pos] })
	want := `(LOWER(customer_name) LIKE $1 ESCAPE '\' OR LOWER(phone_number) LIKE $2 ESCAPE '\') AND date <= $3`
	if where != want {
		t.Fatalf("unexpected WHERE body: %q", where)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
}

func TestSortOrderings(t *testing.T) {
	a := sampleRecord()
	a.TransactionID = "TXN-A"
	a.CustomerName = "alice"
	a.Quantity = 5
	a.Date = "2024-03-01"

	b := sampleRecord()
	b.TransactionID = "TXN-B"
	b.CustomerName = "Bob"
	b.Quantity = 2
	b.Date = "2024-04-01"

	if !SortQuantity.Less(a, b) {
		t.Fatalf("quantity sort is descending")
	}
	if !SortCustomerName.Less(a, b) {
		t.Fatalf("customer name sort is case-insensitive ascending")
	}
	if !SortDateDesc.Less(b, a) {
		t.Fatalf("date sort is descending")
	}

	// Equal keys break ties on transaction id so pagination stays stable.
	b.Date = a.Date
	if !SortDateDesc.Less(a, b) {
		t.Fatalf("expected transaction id tiebreak")
	}
}
