package report

import (
	"html"
	"slices"
	"strconv"
	"strings"

	"github.com/ManuelReschke/PurchaseDesk/app/models"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/meta"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/money"
)

// Kind says where a column reads its value from.
type Kind uint8

const (
	KindDirect        Kind = iota // customer or aggregate attribute
	KindField                     // purchase record attribute
	KindMetaPath                  // fixed metadata path
	KindMetaArrayJoin             // metadata list joined with ", "
	KindComputed                  // function of customer and record
)

// Measure classifies values for sorting and totals.
type Measure uint8

const (
	MeasureText Measure = iota
	MeasureMoney
	MeasureCount
	MeasureTime
)

type displayFunc func(ec *evalCtx, r row) string
type valueFunc func(ec *evalCtx, r row) (int64, bool)

// Column describes one selectable report column.
type Column struct {
	Key     string
	Label   string
	Kind    Kind
	Measure Measure
	Path    []string

	display  displayFunc // markup-safe HTML
	value    valueFunc   // raw number, nil for text columns
	currency func(r row) string
}

// Summable columns get a total in the summary row.
func (c *Column) Summable() bool {
	return c.Measure == MeasureMoney || c.Measure == MeasureCount
}

// Descending columns sort largest or newest first.
func (c *Column) Descending() bool {
	return c.Measure != MeasureText
}

// Numeric columns expose a raw number for sorting and range filters.
func (c *Column) Numeric() bool {
	return c.value != nil
}

// Registry is the ordered column and filter table of one context.
type Registry struct {
	context  Context
	columns  []*Column
	byKey    map[string]*Column
	filters  []*Filter
	defaults []string
}

func newRegistry(c Context, defaults []string, columns []*Column, filters []*Filter) *Registry {
	r := &Registry{
		context:  c,
		columns:  columns,
		byKey:    make(map[string]*Column, len(columns)),
		filters:  filters,
		defaults: defaults,
	}
	for _, col := range columns {
		r.byKey[col.Key] = col
	}
	return r
}

var registries = map[Context]*Registry{
	Purchases: newRegistry(Purchases,
		[]string{"user_email", "purchase_date", "product_titles", "amount_total", "payment_status"},
		purchaseColumns(), purchaseFilters()),
	Products: newRegistry(Products,
		[]string{"name", "purchases", "quantity", "revenue", "last_purchase"},
		productColumns(), productFilters()),
	Customers: newRegistry(Customers,
		[]string{"email", "name", "purchases", "revenue", "last_purchase"},
		customerColumns(), customerFilters()),
}

func RegistryFor(c Context) (*Registry, error) {
	r, ok := registries[c]
	if !ok {
		return nil, ErrUnknownContext
	}
	return r, nil
}

func (r *Registry) Context() Context { return r.context }

func (r *Registry) Columns() []*Column { return r.columns }

func (r *Registry) Filters() []*Filter { return r.filters }

func (r *Registry) Defaults() []string { return r.defaults }

func (r *Registry) Column(key string) (*Column, bool) {
	col, ok := r.byKey[key]
	return col, ok
}

// Select resolves column keys in order, dropping unknown and repeated keys.
// An empty result falls back to the context defaults.
func (r *Registry) Select(keys []string) []*Column {
	known := r.Known(keys)
	if len(known) == 0 {
		known = r.defaults
	}
	out := make([]*Column, len(known))
	for i, key := range known {
		out[i] = r.byKey[key]
	}
	return out
}

// Known keeps the keys this context knows, in order, without repeats.
func (r *Registry) Known(keys []string) []string {
	var out []string
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if _, ok := r.byKey[key]; ok && !slices.Contains(out, key) {
			out = append(out, key)
		}
	}
	return out
}

// sortColumn picks the column that orders the rows: the requested key when
// the context knows it, otherwise the first selected column.
func (r *Registry) sortColumn(key string, selected []*Column) *Column {
	if col, ok := r.byKey[key]; ok {
		return col
	}
	if len(selected) > 0 {
		return selected[0]
	}
	return nil
}

// Row pickers.

func ofPurchase(r row) *purchase { return r.purchase }

func ofProduct(r row) *productRow { return r.product }

func ofCustomer(r row) *customerRow { return r.customer }

func customerOf(r row) *models.Customer { return r.purchase.customer }

func escaped[T any](pick func(row) T, fn func(*evalCtx, T) string) displayFunc {
	return func(ec *evalCtx, r row) string { return html.EscapeString(fn(ec, pick(r))) }
}

func markup[T any](pick func(row) T, fn func(*evalCtx, T) string) displayFunc {
	return func(ec *evalCtx, r row) string { return fn(ec, pick(r)) }
}

func valued[T any](pick func(row) T, fn func(*evalCtx, T) (int64, bool)) valueFunc {
	return func(ec *evalCtx, r row) (int64, bool) { return fn(ec, pick(r)) }
}

// Column builders, one per kind.

func direct[T any](key, label string, pick func(row) T, fn func(T) string) *Column {
	return &Column{
		Key: key, Label: label, Kind: KindDirect,
		display: escaped(pick, func(_ *evalCtx, v T) string { return fn(v) }),
	}
}

func field(key, label string, m Measure, fn func(*evalCtx, *purchase) string, value func(*evalCtx, *purchase) (int64, bool)) *Column {
	col := &Column{Key: key, Label: label, Kind: KindField, Measure: m, display: escaped(ofPurchase, fn)}
	if value != nil {
		col.value = valued(ofPurchase, value)
	}
	return col
}

func metaPath(key, label string, path ...string) *Column {
	return &Column{
		Key: key, Label: label, Kind: KindMetaPath, Path: path,
		display: escaped(ofPurchase, func(_ *evalCtx, p *purchase) string {
			return meta.Resolve(p.meta, path...)
		}),
	}
}

func metaArrayJoin(key, label, metaKey string) *Column {
	return &Column{
		Key: key, Label: label, Kind: KindMetaArrayJoin, Path: []string{metaKey},
		display: escaped(ofPurchase, func(_ *evalCtx, p *purchase) string {
			return strings.Join(meta.Strings(p.meta.At(metaKey)), ", ")
		}),
	}
}

func computed(key, label string, m Measure, fn ComputeFunc, value func(*evalCtx, *purchase) (int64, bool)) *Column {
	col := &Column{Key: key, Label: label, Kind: KindComputed, Measure: m, display: escaped[*purchase](ofPurchase, fn)}
	if value != nil {
		col.value = valued(ofPurchase, value)
	}
	return col
}

func computedMarkup(key, label string, fn ComputeFunc) *Column {
	return &Column{Key: key, Label: label, Kind: KindComputed, display: markup[*purchase](ofPurchase, fn)}
}

func purchaseColumns() []*Column {
	amount := computed("amount_total", "Amount Total", MeasureMoney, computeAmountTotal,
		func(_ *evalCtx, p *purchase) (int64, bool) { total, _ := p.amountTotal(); return total, true })
	amount.currency = func(r row) string { _, currency := r.purchase.amountTotal(); return currency }

	return []*Column{
		direct("user_email", "User Email", customerOf, func(c *models.Customer) string { return c.Email }),
		computedMarkup("user_name", "User Name", computeCustomerLink),
		field("purchase_date", "Purchase Date", MeasureTime,
			func(ec *evalCtx, p *purchase) string { return ec.dateTime(p.record.PurchaseDate) },
			func(_ *evalCtx, p *purchase) (int64, bool) { return p.record.PurchaseDate, true }),
		field("purchase_lines", "Purchase Lines", MeasureText,
			func(_ *evalCtx, p *purchase) string { return formatPurchaseLines(p.record.PurchaseLines) }, nil),
		metaPath("session_id", "Session ID", models.MetaStripeSession, "id"),
		metaPath("customer_id", "Customer ID", models.MetaStripeSession, "customer", "id"),
		metaPath("customer_email", "Customer Email", models.MetaStripeSession, "customer_email"),
		metaPath("customer_name", "Customer Name", models.MetaStripeSession, "customer", "name"),
		metaPath("payment_status", "Payment Status", models.MetaStripeSession, "payment_status"),
		metaPath("currency", "Currency", models.MetaStripeSession, "currency"),
		amount,
		metaPath("subscription_id", "Subscription ID", models.MetaStripeSession, "subscription"),
		metaPath("shipping_name", "Shipping Name", models.MetaStripeSession, "shipping", "name"),
		computed("shipping_address", "Shipping Address", MeasureText, computeShippingAddress, nil),
		metaArrayJoin("product_ids", "Product IDs", models.MetaProductIDs),
		computed("product_titles", "Product Titles", MeasureText, computeProductTitles, nil),
		computed("subscription_status", "Subscription Status", MeasureText, computeSubscriptionStatus, nil),
		computed("period_end", "Period End", MeasureTime, computePeriodEnd,
			func(_ *evalCtx, p *purchase) (int64, bool) { return p.latestPeriodEnd() }),
		computed("line_items_count", "Items Count", MeasureCount, computeLineItemsCount,
			func(_ *evalCtx, p *purchase) (int64, bool) { return int64(len(p.items)), true }),
		computed("renewal_count", "Renewal Count", MeasureCount, computeRenewalCount,
			func(_ *evalCtx, p *purchase) (int64, bool) { return int64(len(p.renewals)), true }),
		computed("last_renewal", "Last Renewal", MeasureTime, computeLastRenewal,
			func(_ *evalCtx, p *purchase) (int64, bool) { return p.lastRenewal() }),
	}
}

func formatPurchaseLines(lines string) string {
	lines = strings.ReplaceAll(strings.TrimSpace(lines), "\r\n", "\n")
	return strings.ReplaceAll(lines, "\n", " | ")
}

// aggregateColumn builds a direct column over a product or customer row.
func aggregateColumn[T any](key, label string, m Measure, pick func(row) T, show func(*evalCtx, T) string, value func(T) int64) *Column {
	col := &Column{Key: key, Label: label, Kind: KindDirect, Measure: m, display: escaped(pick, show)}
	if value != nil {
		col.value = valued(pick, func(_ *evalCtx, v T) (int64, bool) { return value(v), true })
	}
	return col
}

func productColumns() []*Column {
	revenue := aggregateColumn("revenue", "Revenue", MeasureMoney, ofProduct,
		func(_ *evalCtx, pr *productRow) string { return money.FormatPrice(pr.Revenue, pr.Currency) },
		func(pr *productRow) int64 { return pr.Revenue })
	revenue.currency = func(r row) string { return r.product.Currency }

	return []*Column{
		{
			Key: "name", Label: "Product Name", Kind: KindDirect,
			display: markup(ofProduct, func(_ *evalCtx, pr *productRow) string { return catalogLink(pr.CatalogID, pr.Name) }),
		},
		aggregateColumn("purchases", "Purchases", MeasureCount, ofProduct,
			func(_ *evalCtx, pr *productRow) string { return strconv.FormatInt(pr.Purchases, 10) },
			func(pr *productRow) int64 { return pr.Purchases }),
		aggregateColumn("quantity", "Quantity", MeasureCount, ofProduct,
			func(_ *evalCtx, pr *productRow) string { return strconv.FormatInt(pr.Quantity, 10) },
			func(pr *productRow) int64 { return pr.Quantity }),
		revenue,
		direct("currency", "Currency", ofProduct, func(pr *productRow) string { return pr.Currency }),
		aggregateColumn("last_purchase", "Last Purchase", MeasureTime, ofProduct,
			func(ec *evalCtx, pr *productRow) string { return ec.date(pr.LastPurchase) },
			func(pr *productRow) int64 { return pr.LastPurchase }),
		aggregateColumn("renewals", "Renewals", MeasureCount, ofProduct,
			func(_ *evalCtx, pr *productRow) string { return countOrEmpty(pr.Renewals) },
			func(pr *productRow) int64 { return pr.Renewals }),
		aggregateColumn("page_id", "Page ID", MeasureText, ofProduct,
			func(_ *evalCtx, pr *productRow) string { return countOrEmpty(int64(pr.CatalogID)) },
			func(pr *productRow) int64 { return int64(pr.CatalogID) }),
		direct("stripe_id", "Stripe Product ID", ofProduct, func(pr *productRow) string { return pr.StripeID }),
	}
}

func customerColumns() []*Column {
	revenue := aggregateColumn("revenue", "Revenue", MeasureMoney, ofCustomer,
		func(_ *evalCtx, cr *customerRow) string { return money.FormatPrice(cr.Revenue, cr.Currency) },
		func(cr *customerRow) int64 { return cr.Revenue })
	revenue.currency = func(r row) string { return r.customer.Currency }

	return []*Column{
		direct("email", "Email", ofCustomer, func(cr *customerRow) string { return cr.Customer.Email }),
		{
			Key: "name", Label: "Name", Kind: KindComputed,
			display: markup(ofCustomer, func(_ *evalCtx, cr *customerRow) string {
				return customerLink(cr.Customer.Name, cr.Customer.Email)
			}),
		},
		aggregateColumn("purchases", "Purchases", MeasureCount, ofCustomer,
			func(_ *evalCtx, cr *customerRow) string { return strconv.FormatInt(cr.Purchases, 10) },
			func(cr *customerRow) int64 { return cr.Purchases }),
		revenue,
		direct("currency", "Currency", ofCustomer, func(cr *customerRow) string { return cr.Currency }),
		aggregateColumn("first_purchase", "First Purchase", MeasureTime, ofCustomer,
			func(ec *evalCtx, cr *customerRow) string { return ec.date(cr.FirstPurchase) },
			func(cr *customerRow) int64 { return cr.FirstPurchase }),
		aggregateColumn("last_purchase", "Last Purchase", MeasureTime, ofCustomer,
			func(ec *evalCtx, cr *customerRow) string { return ec.date(cr.LastPurchase) },
			func(cr *customerRow) int64 { return cr.LastPurchase }),
		aggregateColumn("renewal_count", "Renewal Count", MeasureCount, ofCustomer,
			func(_ *evalCtx, cr *customerRow) string { return countOrEmpty(cr.Renewals) },
			func(cr *customerRow) int64 { return cr.Renewals }),
		direct("products", "Products", ofCustomer, func(cr *customerRow) string { return strings.Join(cr.Products, ", ") }),
	}
}
