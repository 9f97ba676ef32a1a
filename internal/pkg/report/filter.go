package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/money"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/searchquery"
)

// FilterKind selects how a filter reads its raw input and tests a row.
type FilterKind uint8

const (
	FilterSearch FilterKind = iota
	FilterDateRange
	FilterNumberRange
	FilterProducts
)

// Filter is one filter a context offers. Raw input keys:
//
//	search              free text (FilterSearch, key "search")
//	<key>_from/<key>_to YYYY-MM-DD (FilterDateRange)
//	<key>_min/<key>_max number, money in major units (FilterNumberRange)
//	<key>               comma separated ids or "stripe:<name>" (FilterProducts)
type Filter struct {
	Key   string
	Label string
	Kind  FilterKind
	Money bool
	// Optional date fields reject rows that lack the value while the
	// filter is active.
	Optional bool

	value    valueFunc
	haystack func(ec *evalCtx, r row) []string
	records  func(r row) []*purchase
}

const SearchKey = "search"

// DateRange bounds are unix seconds; To is the last second of its day.
type DateRange struct {
	From, To       int64
	HasFrom, HasTo bool
}

type NumberRange struct {
	Min, Max       int64
	HasMin, HasMax bool
}

// ProductRef is one multiselect choice: a catalog id or an unmapped
// product name.
type ProductRef struct {
	CatalogID uint
	Name      string
}

// FilterInput is the parsed, request-scoped filter state.
type FilterInput struct {
	Search   string
	Dates    map[string]DateRange
	Numbers  map[string]NumberRange
	Products map[string][]ProductRef
}

// Active reports whether any filter applies.
func (in FilterInput) Active() bool {
	return strings.TrimSpace(in.Search) != "" || len(in.Dates) > 0 || len(in.Numbers) > 0 || len(in.Products) > 0
}

// ParseFilterInput reads raw query values for the filters of reg. Malformed
// values are dropped, so the filter they belong to does not apply.
func ParseFilterInput(reg *Registry, raw map[string]string, loc *time.Location) FilterInput {
	in := FilterInput{
		Dates:    map[string]DateRange{},
		Numbers:  map[string]NumberRange{},
		Products: map[string][]ProductRef{},
	}
	if loc == nil {
		loc = time.Local
	}

	for _, f := range reg.filters {
		switch f.Kind {
		case FilterSearch:
			in.Search = strings.TrimSpace(raw[SearchKey])
		case FilterDateRange:
			var dr DateRange
			if day, ok := parseDay(raw[f.Key+"_from"], loc); ok {
				dr.From, dr.HasFrom = day.Unix(), true
			}
			if day, ok := parseDay(raw[f.Key+"_to"], loc); ok {
				end := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, loc)
				dr.To, dr.HasTo = end.Unix(), true
			}
			if dr.HasFrom || dr.HasTo {
				in.Dates[f.Key] = dr
			}
		case FilterNumberRange:
			var nr NumberRange
			nr.Min, nr.HasMin = parseBound(raw[f.Key+"_min"], f.Money)
			nr.Max, nr.HasMax = parseBound(raw[f.Key+"_max"], f.Money)
			if nr.HasMin || nr.HasMax {
				in.Numbers[f.Key] = nr
			}
		case FilterProducts:
			if refs := parseProductRefs(raw[f.Key]); len(refs) > 0 {
				in.Products[f.Key] = refs
			}
		}
	}
	return in
}

func parseDay(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	day, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

func parseBound(raw string, isMoney bool) (int64, bool) {
	if isMoney {
		return money.ToMinorUnits(raw)
	}
	return money.ParseCount(raw)
}

func parseProductRefs(raw string) []ProductRef {
	var refs []ProductRef
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if name, ok := strings.CutPrefix(part, stripeKeyPrefix); ok {
			if name != "" {
				refs = append(refs, ProductRef{Name: name})
			}
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		refs = append(refs, ProductRef{CatalogID: uint(id)})
	}
	return refs
}

// filterSet is FilterInput compiled against a registry.
type filterSet struct {
	query  searchquery.Query
	search *Filter
	checks []func(ec *evalCtx, r row) bool
}

func compileFilters(reg *Registry, in FilterInput) *filterSet {
	fs := &filterSet{}
	for _, f := range reg.filters {
		switch f.Kind {
		case FilterSearch:
			if q := searchquery.Parse(in.Search); !q.Empty() {
				fs.query, fs.search = q, f
			}
		case FilterDateRange:
			if dr, ok := in.Dates[f.Key]; ok {
				fs.checks = append(fs.checks, func(ec *evalCtx, r row) bool {
					ts, has := f.value(ec, r)
					if !has {
						return !f.Optional
					}
					return dr.admits(ts)
				})
			}
		case FilterNumberRange:
			if nr, ok := in.Numbers[f.Key]; ok {
				fs.checks = append(fs.checks, func(ec *evalCtx, r row) bool {
					n, _ := f.value(ec, r)
					return nr.admits(n)
				})
			}
		case FilterProducts:
			if refs, ok := in.Products[f.Key]; ok {
				fs.checks = append(fs.checks, func(_ *evalCtx, r row) bool {
					for _, p := range f.records(r) {
						if p.hasAnyProduct(refs) {
							return true
						}
					}
					return false
				})
			}
		}
	}
	return fs
}

// keep applies the search filter and every active filter; one failure drops
// the row.
func (fs *filterSet) keep(ec *evalCtx, r row) bool {
	if fs.search != nil && !fs.query.MatchAny(fs.search.haystack(ec, r)...) {
		return false
	}
	for _, check := range fs.checks {
		if !check(ec, r) {
			return false
		}
	}
	return true
}

func filterRows(rows []row, fs *filterSet, ec *evalCtx) []row {
	out := make([]row, 0, len(rows))
	for _, r := range rows {
		if fs.keep(ec, r) {
			out = append(out, r)
		}
	}
	return out
}

func (dr DateRange) admits(ts int64) bool {
	if dr.HasFrom && ts < dr.From {
		return false
	}
	if dr.HasTo && ts > dr.To {
		return false
	}
	return true
}

func (nr NumberRange) admits(n int64) bool {
	if nr.HasMin && n < nr.Min {
		return false
	}
	if nr.HasMax && n > nr.Max {
		return false
	}
	return true
}

// hasAnyProduct matches catalog ids against product_ids and names against
// the line items' resolved product names.
func (p *purchase) hasAnyProduct(refs []ProductRef) bool {
	for _, ref := range refs {
		if ref.CatalogID != 0 {
			for _, id := range p.productIDs {
				if id == ref.CatalogID {
					return true
				}
			}
			continue
		}
		for _, item := range p.items {
			if item.Name == ref.Name {
				return true
			}
		}
	}
	return false
}

// Filter tables.

func searchFilter(haystack func(ec *evalCtx, r row) []string) *Filter {
	return &Filter{Key: SearchKey, Label: "Search", Kind: FilterSearch, haystack: haystack}
}

func dateFilter(col *Column, optional bool) *Filter {
	return &Filter{Key: col.Key, Label: col.Label, Kind: FilterDateRange, Optional: optional, value: col.value}
}

func numberFilter(col *Column) *Filter {
	return &Filter{Key: col.Key, Label: col.Label, Kind: FilterNumberRange, Money: col.Measure == MeasureMoney, value: col.value}
}

func productFilter(records func(r row) []*purchase) *Filter {
	return &Filter{Key: "product", Label: "Product", Kind: FilterProducts, records: records}
}

func columnsByKey(cols []*Column) map[string]*Column {
	m := make(map[string]*Column, len(cols))
	for _, c := range cols {
		m[c.Key] = c
	}
	return m
}

func purchaseFilters() []*Filter {
	cols := columnsByKey(purchaseColumns())
	return []*Filter{
		searchFilter(func(ec *evalCtx, r row) []string {
			p := r.purchase
			return []string{p.customer.Email, p.customer.Name, strings.Join(p.productTitles(), " ")}
		}),
		dateFilter(cols["purchase_date"], false),
		dateFilter(cols["period_end"], true),
		dateFilter(cols["last_renewal"], true),
		numberFilter(cols["amount_total"]),
		productFilter(func(r row) []*purchase { return []*purchase{r.purchase} }),
	}
}

func productFilters() []*Filter {
	cols := columnsByKey(productColumns())
	return []*Filter{
		searchFilter(func(_ *evalCtx, r row) []string { return []string{r.product.Name, r.product.StripeID} }),
		dateFilter(cols["last_purchase"], false),
		numberFilter(cols["revenue"]),
		numberFilter(cols["purchases"]),
		numberFilter(cols["quantity"]),
	}
}

func customerFilters() []*Filter {
	cols := columnsByKey(customerColumns())
	return []*Filter{
		searchFilter(func(_ *evalCtx, r row) []string {
			c := r.customer
			return []string{c.Customer.Email, c.Customer.Name, strings.Join(c.Products, " ")}
		}),
		dateFilter(cols["first_purchase"], false),
		dateFilter(cols["last_purchase"], false),
		numberFilter(cols["revenue"]),
		numberFilter(cols["purchases"]),
		productFilter(func(r row) []*purchase { return r.customer.records }),
	}
}
