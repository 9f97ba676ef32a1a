package report

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PurchaseDesk/app/models"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/meta"
)

// lineItem is the part of a checkout line item the reports read.
type lineItem struct {
	StripeProductID string
	Name            string // product name, description, then price nickname
	Quantity        int64
	Amount          int64 // minor units
	Currency        string
	Recurring       bool
}

type renewal struct {
	Scope  string
	Date   int64
	Amount int64
}

type periodEnd struct {
	Scope    string
	End      int64
	Numeric  bool
	Paused   bool
	Canceled bool
}

// purchase is one record decoded for a single report request.
type purchase struct {
	customer   *models.Customer
	record     *models.PurchaseRecord
	meta       meta.Value
	session    meta.Value
	items      []lineItem
	productIDs []uint
	catalog    []*models.ProductCatalogEntry // resolved productIDs, list order, misses skipped
	renewals   []renewal
	periodEnds []periodEnd
}

// catalogLookup memoizes catalog resolution for the lifetime of one request.
type catalogLookup struct {
	ctx     context.Context
	catalog Catalog
	seen    map[uint]*models.ProductCatalogEntry
}

func newCatalogLookup(ctx context.Context, catalog Catalog) *catalogLookup {
	return &catalogLookup{ctx: ctx, catalog: catalog, seen: map[uint]*models.ProductCatalogEntry{}}
}

func (l *catalogLookup) resolve(id uint) (*models.ProductCatalogEntry, error) {
	if entry, ok := l.seen[id]; ok {
		return entry, nil
	}
	entry, err := l.catalog.ResolveCatalogEntry(l.ctx, id)
	if err != nil {
		return nil, err
	}
	l.seen[id] = entry
	return entry, nil
}

func newPurchase(customer *models.Customer, record *models.PurchaseRecord, lookup *catalogLookup) (*purchase, error) {
	doc, err := record.Metadata()
	if err != nil {
		log.Warnf("[Report] purchase record %d has unreadable metadata: %v", record.ID, err)
		doc = meta.Null()
	}

	p := &purchase{
		customer: customer,
		record:   record,
		meta:     doc,
		session:  doc.At(models.MetaStripeSession),
	}
	p.items = decodeLineItems(p.session)
	p.productIDs = decodeProductIDs(doc.At(models.MetaProductIDs))
	p.renewals = decodeRenewals(doc.At(models.MetaRenewals))
	p.periodEnds = decodePeriodEnds(doc.At(models.MetaPeriodEndMap))

	for _, id := range p.productIDs {
		entry, err := lookup.resolve(id)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			p.catalog = append(p.catalog, entry)
		}
	}
	return p, nil
}

func decodeLineItems(session meta.Value) []lineItem {
	sessionCurrency := strings.ToUpper(session.At("currency").Text())

	raw := session.At("line_items", "data").Items()
	items := make([]lineItem, 0, len(raw))
	for _, li := range raw {
		price := li.At("price")
		product := price.At("product")

		item := lineItem{
			Name:      firstText(product.At("name"), li.At("description"), price.At("nickname")),
			Quantity:  1,
			Amount:    li.At("amount_total").Int(),
			Currency:  strings.ToUpper(li.At("currency").Text()),
			Recurring: price.At("recurring").Truthy(),
		}
		switch product.Kind() {
		case meta.KindMap:
			item.StripeProductID = product.At("id").Text()
		case meta.KindString, meta.KindNumber:
			item.StripeProductID = product.Text()
		}
		if q := li.At("quantity"); !q.IsNull() {
			item.Quantity = q.Int()
		}
		if item.Currency == "" {
			item.Currency = sessionCurrency
		}
		items = append(items, item)
	}
	return items
}

func firstText(values ...meta.Value) string {
	for _, v := range values {
		if s := v.Text(); s != "" && v.Kind() != meta.KindList && v.Kind() != meta.KindMap {
			return s
		}
	}
	return ""
}

func decodeProductIDs(v meta.Value) []uint {
	var ids []uint
	for _, raw := range meta.Strings(v) {
		n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
		if err != nil || n == 0 {
			continue
		}
		ids = append(ids, uint(n))
	}
	return ids
}

func decodeRenewals(v meta.Value) []renewal {
	var out []renewal
	for _, scope := range v.Keys() {
		for _, event := range v.At(scope).Items() {
			out = append(out, renewal{
				Scope:  scope,
				Date:   event.At("date").Int(),
				Amount: event.At("amount").Int(),
			})
		}
	}
	return out
}

func decodePeriodEnds(v meta.Value) []periodEnd {
	var out []periodEnd
	for _, key := range v.Keys() {
		if isFlagKey(key) {
			continue
		}
		raw := v.At(key)
		out = append(out, periodEnd{
			Scope:    key,
			End:      raw.Int(),
			Numeric:  raw.IsNumeric(),
			Paused:   v.Has(key + "_paused"),
			Canceled: v.Has(key + "_canceled"),
		})
	}
	return out
}

func isFlagKey(key string) bool {
	return strings.HasSuffix(key, "_paused") || strings.HasSuffix(key, "_canceled")
}

// match returns the catalog entry a line item belongs to: the first resolved
// product_ids entry whose external id equals the item's product id.
func (p *purchase) match(item lineItem) (*models.ProductCatalogEntry, bool) {
	if item.StripeProductID == "" {
		return nil, false
	}
	for _, entry := range p.catalog {
		if entry.StripeProductID == item.StripeProductID {
			return entry, true
		}
	}
	return nil, false
}

func (p *purchase) hasRecurring() bool {
	for _, item := range p.items {
		if item.Recurring {
			return true
		}
	}
	return false
}

// amountTotal sums line item totals; the currency is the first non-empty
// line currency, each line falling back to the session currency.
func (p *purchase) amountTotal() (int64, string) {
	var total int64
	currency := ""
	for _, item := range p.items {
		total += item.Amount
		if currency == "" {
			currency = item.Currency
		}
	}
	return total, currency
}

func (p *purchase) renewalTotal() int64 {
	var total int64
	for _, r := range p.renewals {
		total += r.Amount
	}
	return total
}

func (p *purchase) lastRenewal() (int64, bool) {
	var last int64
	for _, r := range p.renewals {
		if r.Date > last {
			last = r.Date
		}
	}
	return last, last > 0
}

// latestPeriodEnd is the sort and filter value behind the period end column.
func (p *purchase) latestPeriodEnd() (int64, bool) {
	if !p.hasRecurring() {
		return 0, false
	}
	var latest int64
	found := false
	for _, pe := range p.periodEnds {
		if pe.Numeric && (!found || pe.End > latest) {
			latest = pe.End
			found = true
		}
	}
	return latest, found
}

// productTitles lists mapped catalog titles first, then names of line items
// whose product is not mapped, deduplicated by exact string.
func (p *purchase) productTitles() []string {
	var titles []string
	mapped := map[string]bool{}
	for _, entry := range p.catalog {
		titles = append(titles, entry.Title)
		if entry.StripeProductID != "" {
			mapped[entry.StripeProductID] = true
		}
	}

	for _, item := range p.items {
		if mapped[item.StripeProductID] || item.Name == "" {
			continue
		}
		if !slices.Contains(titles, item.Name) {
			titles = append(titles, item.Name)
		}
	}
	return titles
}
