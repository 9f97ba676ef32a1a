package report

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/ManuelReschke/PurchaseDesk/app/models"
)

const (
	adaLink = `<a href="/admin/reports/purchases?search=%22ada%40example.com%22">Ada Lovelace</a>`
	bobLink = `<a href="/admin/reports/purchases?search=%22bob%40example.com%22">Bob Stone</a>`
)

func TestBuildReport_PurchasesDefaults(t *testing.T) {
	e, _ := newFixtureEngine()

	res, err := e.BuildReport(context.Background(), Request{Context: Purchases})
	require.NoError(t, err)

	assert.Equal(t, []string{"User Email", "Purchase Date", "Product Titles", "Amount Total", "Payment Status"}, res.Header())
	assert.Equal(t, [][]string{
		{"ada@example.com", "2026-01-10 10:00", "Scale It Course, Bonus Pack, Workbook", "€ 3459,00", "paid"},
		{"ada@example.com", "2026-03-01 09:30", "Coaching", "€ 99,00", "paid"},
		{"bob@example.com", "2026-02-15 12:00", "Workbook", "$ 50.00", "unpaid"},
		{"dee@example.com", "2026-03-15 08:00", "", "", ""},
	}, res.Rows)
	assert.Equal(t, []string{"Total", "", "", "€ 3608,00", ""}, res.SummaryRow)
	assert.Equal(t, 4, res.TotalCount)
	assert.Equal(t, "user_email", res.SortColumn)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, DefaultPageSize, res.PageSize)
	assert.Equal(t, 1, res.TotalPages)
}

func TestBuildReport_PurchaseColumns(t *testing.T) {
	e, _ := newFixtureEngine()

	res, err := e.BuildReport(context.Background(), Request{
		Context: Purchases,
		Columns: []string{
			"session_id", "customer_id", "customer_email", "customer_name", "currency",
			"subscription_id", "shipping_name", "shipping_address", "product_ids", "product_titles",
			"amount_total", "subscription_status", "period_end", "renewal_count", "last_renewal",
			"line_items_count", "purchase_lines", "user_name",
		},
		Filters:    map[string]string{"search": "ada"},
		SortColumn: "purchase_date",
	})
	require.NoError(t, err)

	assert.Equal(t, "purchase_date", res.SortColumn)
	assert.Equal(t, [][]string{
		{
			"cs_2", "", "", "", "eur",
			"sub_1", "", "", "14", "Coaching",
			"€ 99,00", "active", "2026-07-01", "3", "2026-05-01",
			"1", "", adaLink,
		},
		{
			"cs_1", "cus_1", "ada@example.com", "Ada L.", "eur",
			"", "Ada Lovelace", "Main St 1, 10115, Berlin, DE", "12, 20", "Scale It Course, Bonus Pack, Workbook",
			"€ 3459,00", "–", "–", "", "",
			"2", "Scale It | Workbook x2", adaLink,
		},
	}, res.Rows)
}

func TestBuildReport_SubscriptionColumnsNeedRecurringLine(t *testing.T) {
	e, _ := newFixtureEngine()

	res, err := e.BuildReport(context.Background(), Request{
		Context: Purchases,
		Columns: []string{"subscription_status", "period_end", "product_ids", "product_titles"},
		Filters: map[string]string{"search": "bob"},
	})
	require.NoError(t, err)

	// The canceled scope is ignored without a recurring line item, and the
	// unknown catalog id 99 contributes no title.
	assert.Equal(t, [][]string{{"–", "–", "99", "Workbook"}}, res.Rows)
}

func TestBuildReport_Products(t *testing.T) {
	e, _ := newFixtureEngine()

	res, err := e.BuildReport(context.Background(), Request{Context: Products})
	require.NoError(t, err)

	assert.Equal(t, []string{"Product Name", "Purchases", "Quantity", "Revenue", "Last Purchase"}, res.Header())
	assert.Equal(t, [][]string{
		{`<a href="/admin/catalog/14">Coaching</a>`, "1", "1", "€ 297,00", "2026-03-01"},
		{`<a href="/admin/catalog/12">Scale It Course</a>`, "1", "1", "€ 3409,00", "2026-01-10"},
		{"Workbook", "2", "3", "€ 125,00", "2026-02-15"},
	}, res.Rows)
	assert.Equal(t, []string{"Total", "4", "5", "€ 3831,00", ""}, res.SummaryRow)
	assert.Equal(t, 3, res.TotalCount)
}

func TestBuildReport_ProductRenewals(t *testing.T) {
	e, _ := newFixtureEngine()

	res, err := e.BuildReport(context.Background(), Request{
		Context:    Products,
		Columns:    []string{"name", "renewals", "page_id", "stripe_id", "currency"},
		SortColumn: "renewals",
	})
	require.NoError(t, err)

	// prod_X renewals have no product row and are dropped.
	assert.Equal(t, [][]string{
		{`<a href="/admin/catalog/14">Coaching</a>`, "2", "14", "prod_B", "EUR"},
		{"Workbook", "1", "", "prod_W", "EUR"},
		{`<a href="/admin/catalog/12">Scale It Course</a>`, "", "12", "prod_A", "EUR"},
	}, res.Rows)
	assert.Equal(t, []string{"Total", "3", "", "", ""}, res.SummaryRow)
}

func TestBuildReport_Customers(t *testing.T) {
	e, _ := newFixtureEngine()

	res, err := e.BuildReport(context.Background(), Request{Context: Customers})
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"ada@example.com", adaLink, "2", "€ 3757,00", "2026-03-01"},
		{"bob@example.com", bobLink, "1", "$ 75.00", "2026-02-15"},
		{"dee@example.com", "", "1", "€ 0,00", "2026-03-15"},
	}, res.Rows)
	assert.Equal(t, []string{"Total", "", "4", "€ 3832,00", ""}, res.SummaryRow)
}

func TestBuildReport_CustomerRollup(t *testing.T) {
	e, _ := newFixtureEngine()
	cols := []string{"email", "first_purchase", "last_purchase", "renewal_count", "products", "currency"}

	res, err := e.BuildReport(context.Background(), Request{Context: Customers, Columns: cols})
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"ada@example.com", "2026-01-10", "2026-03-01", "3", "Scale It Course, Bonus Pack, Workbook, Coaching", "EUR"},
		{"bob@example.com", "2026-02-15", "2026-02-15", "1", "Workbook", "USD"},
		{"dee@example.com", "2026-03-15", "2026-03-15", "", "", "EUR"},
	}, res.Rows)
}

// purchaseDates runs a purchases report newest first and returns the
// purchase date column.
func purchaseDates(t *testing.T, filters map[string]string) []string {
	t.Helper()
	e, _ := newFixtureEngine()
	res, err := e.BuildReport(context.Background(), Request{
		Context:    Purchases,
		Columns:    []string{"purchase_date"},
		Filters:    filters,
		SortColumn: "purchase_date",
	})
	require.NoError(t, err)

	out := []string{}
	for _, cells := range res.Rows {
		out = append(out, cells[0])
	}
	return out
}

func TestBuildReport_PurchaseFilters(t *testing.T) {
	const (
		r1 = "2026-01-10 10:00"
		r2 = "2026-03-01 09:30"
		r3 = "2026-02-15 12:00"
		r4 = "2026-03-15 08:00"
	)

	tests := []struct {
		name    string
		filters map[string]string
		want    []string
	}{
		{"none", nil, []string{r4, r2, r3, r1}},
		{"date range", map[string]string{"purchase_date_from": "2026-02-15", "purchase_date_to": "2026-03-01"}, []string{r2, r3}},
		{"to covers whole day", map[string]string{"purchase_date_to": "2026-03-01"}, []string{r2, r3, r1}},
		{"to excludes next day", map[string]string{"purchase_date_to": "2026-02-28"}, []string{r3, r1}},
		{"money min inclusive", map[string]string{"amount_total_min": "50"}, []string{r2, r3, r1}},
		{"money min cents", map[string]string{"amount_total_min": "50.01"}, []string{r2, r1}},
		{"money max comma", map[string]string{"amount_total_max": "99,00"}, []string{r4, r2, r3}},
		{"optional period end", map[string]string{"period_end_from": "2026-01-01"}, []string{r2}},
		{"optional last renewal rejects", map[string]string{"last_renewal_to": "2026-04-30"}, []string{}},
		{"optional last renewal", map[string]string{"last_renewal_from": "2026-04-01"}, []string{r2}},
		{"malformed ignored", map[string]string{"purchase_date_from": "yesterday", "amount_total_min": "abc", "product": "x,0"}, []string{r4, r2, r3, r1}},
		{"product id", map[string]string{"product": "12"}, []string{r1}},
		{"product ids or", map[string]string{"product": "12,14"}, []string{r2, r1}},
		{"product name", map[string]string{"product": "stripe:Workbook"}, []string{r3, r1}},
		{"unresolved product id", map[string]string{"product": "99"}, []string{r3}},
		{"search email", map[string]string{"search": "ada"}, []string{r2, r1}},
		{"search or", map[string]string{"search": "workbook OR coaching"}, []string{r2, r3, r1}},
		{"search plus", map[string]string{"search": "ada + coaching"}, []string{r2}},
		{"search phrase", map[string]string{"search": `"bob stone"`}, []string{r3}},
		{"search and range", map[string]string{"search": "ada", "amount_total_min": "100"}, []string{r1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, purchaseDates(t, tt.filters))
		})
	}
}

func TestBuildReport_AggregateFilters(t *testing.T) {
	tests := []struct {
		name    string
		context Context
		filters map[string]string
		want    []string
	}{
		{"customers revenue", Customers, map[string]string{"revenue_min": "100"}, []string{"ada@example.com"}},
		{"customers purchases", Customers, map[string]string{"purchases_min": "2"}, []string{"ada@example.com"}},
		{"customers product id", Customers, map[string]string{"product": "14"}, []string{"ada@example.com"}},
		{"customers product name", Customers, map[string]string{"product": "stripe:Workbook"}, []string{"ada@example.com", "bob@example.com"}},
		{"customers first purchase", Customers, map[string]string{"first_purchase_from": "2026-02-01"}, []string{"bob@example.com", "dee@example.com"}},
		{"customers search products", Customers, map[string]string{"search": "coaching"}, []string{"ada@example.com"}},
		{"products search stripe id", Products, map[string]string{"search": "prod_W"}, []string{"prod_W"}},
		{"products quantity", Products, map[string]string{"quantity_min": "2"}, []string{"prod_W"}},
		{"products revenue", Products, map[string]string{"revenue_max": "300"}, []string{"prod_B", "prod_W"}},
		{"products last purchase", Products, map[string]string{"last_purchase_to": "2026-02-20"}, []string{"prod_A", "prod_W"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newFixtureEngine()
			key := "email"
			if tt.context == Products {
				key = "stripe_id"
			}
			res, err := e.BuildReport(context.Background(), Request{
				Context: tt.context,
				Columns: []string{key},
				Filters: tt.filters,
			})
			require.NoError(t, err)

			got := []string{}
			for _, cells := range res.Rows {
				got = append(got, cells[0])
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildReport_SortIsStable(t *testing.T) {
	e, _ := newFixtureEngine()

	res, err := e.BuildReport(context.Background(), Request{
		Context: Purchases,
		Columns: []string{"payment_status", "purchase_date"},
	})
	require.NoError(t, err)

	// Equal statuses keep record order.
	assert.Equal(t, [][]string{
		{"", "2026-03-15 08:00"},
		{"paid", "2026-01-10 10:00"},
		{"paid", "2026-03-01 09:30"},
		{"unpaid", "2026-02-15 12:00"},
	}, res.Rows)
}

func TestBuildReport_SortMoneyDescending(t *testing.T) {
	e, _ := newFixtureEngine()

	res, err := e.BuildReport(context.Background(), Request{
		Context:    Purchases,
		Columns:    []string{"amount_total"},
		SortColumn: "amount_total",
	})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"€ 3459,00"}, {"€ 99,00"}, {"$ 50.00"}, {""}}, res.Rows)
}

func TestBuildReport_UnknownColumnsFallBack(t *testing.T) {
	e, _ := newFixtureEngine()

	res, err := e.BuildReport(context.Background(), Request{
		Context:    Customers,
		Columns:    []string{"nope", "session_id"},
		SortColumn: "nope",
	})
	require.NoError(t, err)

	reg, err := RegistryFor(Customers)
	require.NoError(t, err)
	keys := []string{}
	for _, col := range res.Columns {
		keys = append(keys, col.Key)
	}
	assert.Equal(t, reg.Defaults(), keys)
	assert.Equal(t, "email", res.SortColumn)
}

func TestBuildReport_Pagination(t *testing.T) {
	e, _ := newFixtureEngine()

	res, err := e.BuildReport(context.Background(), Request{Context: Purchases, Columns: []string{"purchase_date"}, Page: 2, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"2026-03-01 09:30"}}, res.Rows)
	assert.Equal(t, 4, res.TotalPages)
	assert.Equal(t, 4, res.TotalCount)

	res, err = e.BuildReport(context.Background(), Request{Context: Purchases, Columns: []string{"amount_total"}, Page: 99, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Page)
	assert.Len(t, res.Rows, 1)
	// Totals always cover every filtered row.
	assert.Equal(t, []string{"€ 3608,00"}, res.SummaryRow)
}

func TestBuildReport_EmptyResult(t *testing.T) {
	e, _ := newFixtureEngine()

	res, err := e.BuildReport(context.Background(), Request{
		Context: Purchases,
		Filters: map[string]string{"search": "nobody"},
		Page:    3,
	})
	require.NoError(t, err)

	assert.Empty(t, res.Rows)
	assert.Equal(t, 0, res.TotalCount)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, []string{"Total", "", "", "0.00", ""}, res.SummaryRow)
}

func TestBuildReport_Idempotent(t *testing.T) {
	e, _ := newFixtureEngine()
	req := Request{Context: Customers, Filters: map[string]string{"search": "example"}}

	first, err := e.BuildReport(context.Background(), req)
	require.NoError(t, err)
	second, err := e.BuildReport(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.SummaryRow, second.SummaryRow)
}

func TestExportReport_MatchesPages(t *testing.T) {
	for _, c := range Contexts() {
		t.Run(string(c), func(t *testing.T) {
			e, _ := newFixtureEngine()
			req := Request{Context: c, PageSize: 2}

			x, err := e.ExportReport(context.Background(), req)
			require.NoError(t, err)
			exported := slices.Collect(x.Rows())

			var paged [][]string
			for page := 1; ; page++ {
				req.Page = page
				res, err := e.BuildReport(context.Background(), req)
				require.NoError(t, err)
				assert.Equal(t, res.Header(), x.Header)
				paged = append(paged, PlainRows(res.Rows)...)
				if page >= res.TotalPages {
					break
				}
			}

			assert.Equal(t, paged, exported)
			assert.Equal(t, len(exported), x.Len())
		})
	}
}

func TestExportReport_PlainText(t *testing.T) {
	e, _ := newFixtureEngine()

	x, err := e.ExportReport(context.Background(), Request{
		Context: Purchases,
		Columns: []string{"user_name"},
		Filters: map[string]string{"search": "bob"},
	})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"Bob Stone"}}, slices.Collect(x.Rows()))
}

func TestEngine_UnknownContext(t *testing.T) {
	e, _ := newFixtureEngine()

	_, err := e.BuildReport(context.Background(), Request{Context: "orders"})
	assert.ErrorIs(t, err, ErrUnknownContext)

	_, err = e.ExportReport(context.Background(), Request{Context: "orders"})
	assert.ErrorIs(t, err, ErrUnknownContext)
}

func TestEngine_UpstreamErrorsPassThrough(t *testing.T) {
	dbErr := errors.New("connection refused")

	e := NewEngine(&fakeSource{err: dbErr}, newFixtureCatalog())
	_, err := e.BuildReport(context.Background(), Request{Context: Purchases})
	assert.Same(t, dbErr, err)

	catalogErr := errors.New("catalog unavailable")
	catalog := newFixtureCatalog()
	catalog.err = catalogErr
	e = NewEngine(&fakeSource{customers: fixtureCustomers}, catalog)
	_, err = e.ExportReport(context.Background(), Request{Context: Products})
	assert.Same(t, catalogErr, err)
}

func TestEngine_CatalogResolvedOncePerID(t *testing.T) {
	e, catalog := newFixtureEngine()

	_, err := e.BuildReport(context.Background(), Request{Context: Customers})
	require.NoError(t, err)

	assert.Equal(t, map[uint]int{12: 1, 14: 1, 20: 1, 99: 1}, catalog.calls)
}

func TestEngine_UnreadableMetadata(t *testing.T) {
	source := &fakeSource{customers: func() []models.Customer {
		return []models.Customer{{
			ID: 9, Email: "eve@example.com",
			Purchases: []models.PurchaseRecord{{ID: 9, CustomerID: 9, PurchaseDate: tsJan10, Meta: datatypes.JSON(`{not json`)}},
		}}
	}}
	e := NewEngine(source, newFixtureCatalog(), WithLocation(time.UTC))

	res, err := e.BuildReport(context.Background(), Request{Context: Purchases})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"eve@example.com", "2026-01-10 10:00", "", "", ""}}, res.Rows)
}

func TestClampHelpers(t *testing.T) {
	assert.Equal(t, DefaultPageSize, ClampPageSize(0))
	assert.Equal(t, DefaultPageSize, ClampPageSize(-3))
	assert.Equal(t, 10, ClampPageSize(10))
	assert.Equal(t, MaxPageSize, ClampPageSize(MaxPageSize+1))

	assert.Equal(t, 1, TotalPages(0, 25))
	assert.Equal(t, 1, TotalPages(25, 25))
	assert.Equal(t, 2, TotalPages(26, 25))

	assert.Equal(t, 1, ClampPage(0, 5))
	assert.Equal(t, 3, ClampPage(3, 5))
	assert.Equal(t, 5, ClampPage(8, 5))
}

func TestParseContext(t *testing.T) {
	c, err := ParseContext(" Products ")
	require.NoError(t, err)
	assert.Equal(t, Products, c)
	assert.Equal(t, "Products", c.Label())

	_, err = ParseContext("orders")
	assert.ErrorIs(t, err, ErrUnknownContext)
}
