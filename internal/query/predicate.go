package query

import (
	"fmt"
	"slices"
	"strings"

	"salesdash/backend/internal/domain"
)

// Kind tags one atomic filter condition.
type Kind int

const (
	// KindSearch matches a lower-cased substring against customer name or
	// phone number.
	KindSearch Kind = iota
	// KindInSet requires the column value to be a member of a set.
	KindInSet
	// KindAnyTag matches records whose tag list contains any one of the
	// requested tags (OR semantics, not AND).
	KindAnyTag
	// KindGTE and KindLTE are inclusive lower/upper bounds.
	KindGTE
	KindLTE
)

// Condition is one atomic filter. Column names are fixed by Build and never
// carry user input; user values live only in the predicate's parameter map.
type Condition struct {
	Kind   Kind
	Column string
	Names  []string
}

// Predicate is an ordered condition list plus named parameter bindings,
// combined with AND. It is the single source of filter semantics for every
// Row Store adapter.
type Predicate struct {
	Conds  []Condition
	Params map[string]any
}

// Build assembles the predicate for the given criteria. Absent criteria
// contribute no conditions; an empty criteria set yields a predicate that
// matches everything.
func Build(c Criteria) Predicate {
	p := Predicate{Params: make(map[string]any)}

	if c.Search != "" {
		p.Params["search"] = c.Search
		p.Conds = append(p.Conds, Condition{Kind: KindSearch, Names: []string{"search"}})
	}

	p.addSet("customer_region", "r", c.Regions)
	p.addSet("gender", "g", c.Genders)
	p.addSet("product_category", "c", c.Categories)
	p.addSet("payment_method", "p", c.Payments)

	if len(c.Tags) > 0 {
		names := make([]string, 0, len(c.Tags))
		for i, tag := range c.Tags {
			name := fmt.Sprintf("t%d", i)
			p.Params[name] = tag
			names = append(names, name)
		}
		p.Conds = append(p.Conds, Condition{Kind: KindAnyTag, Names: names})
	}

	if c.AgeMin != nil {
		p.addBound(KindGTE, "age", "ageMin", *c.AgeMin)
	}
	if c.AgeMax != nil {
		p.addBound(KindLTE, "age", "ageMax", *c.AgeMax)
	}
	if c.DateStart != "" {
		p.addBound(KindGTE, "date", "dateStart", c.DateStart)
	}
	if c.DateEnd != "" {
		p.addBound(KindLTE, "date", "dateEnd", c.DateEnd)
	}

	return p
}

func (p *Predicate) addSet(column string, prefix string, values []string) {
	if len(values) == 0 {
		return
	}
	names := make([]string, 0, len(values))
	for i, value := range values {
		name := fmt.Sprintf("%s%d", prefix, i)
		p.Params[name] = value
		names = append(names, name)
	}
	p.Conds = append(p.Conds, Condition{Kind: KindInSet, Column: column, Names: names})
}

func (p *Predicate) addBound(kind Kind, column string, name string, value any) {
	p.Params[name] = value
	p.Conds = append(p.Conds, Condition{Kind: kind, Column: column, Names: []string{name}})
}

// Empty reports whether the predicate constrains anything.
func (p Predicate) Empty() bool {
	return len(p.Conds) == 0
}

// likeEscaper neutralizes LIKE metacharacters in user input, so a search for
// "100%" matches the literal string the way Match does.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// SQL renders the predicate as an AND-joined WHERE body using the adapter's
// positional placeholder form (1-based). Arguments are returned in placeholder
// order; LIKE wildcards and escaping are applied here so raw user values never
// reach the query text.
func (p Predicate) SQL(placeholder func(pos int) string) (string, []any) {
	if len(p.Conds) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(p.Conds))
	args := make([]any, 0, len(p.Params)+1)
	next := func(v any) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	for _, cond := range p.Conds {
		switch cond.Kind {
		case KindSearch:
			needle := "%" + escapeLike(p.Params[cond.Names[0]].(string)) + "%"
			clauses = append(clauses, "(LOWER(customer_name) LIKE "+next(needle)+" ESCAPE '\\' OR LOWER(phone_number) LIKE "+next(needle)+" ESCAPE '\\')")
		case KindInSet:
			ph := make([]string, 0, len(cond.Names))
			for _, name := range cond.Names {
				ph = append(ph, next(p.Params[name]))
			}
			clauses = append(clauses, cond.Column+" IN ("+strings.Join(ph, ",")+")")
		case KindAnyTag:
			// The stored tag column holds a JSON array; matching %"tag"% hits
			// exact elements without needing JSON functions in the filter path.
			ors := make([]string, 0, len(cond.Names))
			for _, name := range cond.Names {
				ors = append(ors, "tags LIKE "+next(`%"`+escapeLike(p.Params[name].(string))+`"%`)+" ESCAPE '\\'")
			}
			clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
		case KindGTE:
			clauses = append(clauses, cond.Column+" >= "+next(p.Params[cond.Names[0]]))
		case KindLTE:
			clauses = append(clauses, cond.Column+" <= "+next(p.Params[cond.Names[0]]))
		}
	}

	return strings.Join(clauses, " AND "), args
}

// Match evaluates the predicate against one record with the same semantics
// the SQL rendering produces.
func (p Predicate) Match(rec domain.SaleRecord) bool {
	for _, cond := range p.Conds {
		if !p.matchCond(cond, rec) {
			return false
		}
	}
	return true
}

func (p Predicate) matchCond(cond Condition, rec domain.SaleRecord) bool {
	switch cond.Kind {
	case KindSearch:
		needle := p.Params[cond.Names[0]].(string)
		return strings.Contains(strings.ToLower(rec.CustomerName), needle) ||
			strings.Contains(strings.ToLower(rec.PhoneNumber), needle)
	case KindInSet:
		value := stringColumn(rec, cond.Column)
		for _, name := range cond.Names {
			if p.Params[name] == value {
				return true
			}
		}
		return false
	case KindAnyTag:
		for _, name := range cond.Names {
			if slices.Contains(rec.Tags, p.Params[name].(string)) {
				return true
			}
		}
		return false
	case KindGTE, KindLTE:
		return p.matchBound(cond, rec)
	}
	return false
}

func (p Predicate) matchBound(cond Condition, rec domain.SaleRecord) bool {
	switch cond.Column {
	case "age":
		// NULL ages fail numeric comparisons, matching SQL behavior.
		if rec.Age == nil {
			return false
		}
		bound := p.Params[cond.Names[0]].(int)
		if cond.Kind == KindGTE {
			return *rec.Age >= bound
		}
		return *rec.Age <= bound
	case "date":
		// Dates are YYYY-MM-DD, so lexical and chronological order coincide.
		bound := p.Params[cond.Names[0]].(string)
		if cond.Kind == KindGTE {
			return rec.Date >= bound
		}
		return rec.Date <= bound
	}
	return false
}

func stringColumn(rec domain.SaleRecord, column string) string {
	switch column {
	case "customer_region":
		return rec.CustomerRegion
	case "gender":
		return rec.Gender
	case "product_category":
		return rec.ProductCategory
	case "payment_method":
		return rec.PaymentMethod
	}
	return ""
}

// Less orders two records by the sort key, with a transaction_id tiebreak
// mirroring SortKey.OrderBy.
func (k SortKey) Less(a, b domain.SaleRecord) bool {
	switch k {
	case SortQuantity:
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
	case SortCustomerName:
		an, bn := strings.ToLower(a.CustomerName), strings.ToLower(b.CustomerName)
		if an != bn {
			return an < bn
		}
	default:
		if a.Date != b.Date {
			return a.Date > b.Date
		}
	}
	return a.TransactionID < b.TransactionID
}
