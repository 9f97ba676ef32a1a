package report

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"github.com/ManuelReschke/PurchaseDesk/app/models"
)

// Fixture timestamps, UTC.
const (
	tsJan10   = 1768039200 // 2026-01-10 10:00
	tsFeb15   = 1771156800 // 2026-02-15 12:00
	tsMar01   = 1772357400 // 2026-03-01 09:30
	tsMar15   = 1773561600 // 2026-03-15 08:00
	tsApr01   = 1775030400 // 2026-04-01 08:00
	tsApr15   = 1776294000 // 2026-04-15 23:00
	tsMay01   = 1777622400 // 2026-05-01 08:00
	tsJul01   = 1782864000 // 2026-07-01 00:00
	fixtureAt = 1780272000 // 2026-06-01 00:00
)

type fakeSource struct {
	customers func() []models.Customer
	err       error
}

func (s *fakeSource) FindCustomersWithPurchases(context.Context) ([]models.Customer, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.customers(), nil
}

type fakeCatalog struct {
	entries map[uint]*models.ProductCatalogEntry
	calls   map[uint]int
	err     error
}

func (c *fakeCatalog) ResolveCatalogEntry(_ context.Context, id uint) (*models.ProductCatalogEntry, error) {
	if c.calls == nil {
		c.calls = map[uint]int{}
	}
	c.calls[id]++
	if c.err != nil {
		return nil, c.err
	}
	return c.entries[id], nil
}

func newFixtureCatalog() *fakeCatalog {
	return &fakeCatalog{entries: map[uint]*models.ProductCatalogEntry{
		12: {ID: 12, Title: "Scale It Course", StripeProductID: "prod_A"},
		14: {ID: 14, Title: "Coaching", StripeProductID: "prod_B"},
		20: {ID: 20, Title: "Bonus Pack"},
	}}
}

// fixtureCustomers builds a fresh data set:
//
//	Ada: a one-off order (record 1) and a monthly subscription with renewals (record 2)
//	Bob: a USD order of an unmapped product with a renewal (record 3)
//	Cy:  no purchases
//	Dee: an order without line items (record 4)
func fixtureCustomers() []models.Customer {
	return []models.Customer{
		{
			ID: 1, Email: "ada@example.com", Name: "Ada Lovelace",
			Purchases: []models.PurchaseRecord{
				{ID: 1, CustomerID: 1, PurchaseDate: tsJan10, PurchaseLines: "Scale It\r\nWorkbook x2", Meta: datatypes.JSON(`{
					"stripe_session": {
						"id": "cs_1", "currency": "eur", "payment_status": "paid",
						"customer_email": "ada@example.com",
						"customer": {"id": "cus_1", "name": "Ada L."},
						"shipping": {"name": "Ada Lovelace", "address": {"line1": "Main St 1", "postal_code": "10115", "city": "Berlin", "country": "DE"}},
						"line_items": {"data": [
							{"description": "Scale It", "quantity": 1, "amount_total": 340900,
							 "price": {"recurring": null, "product": {"id": "prod_A", "name": "Scale It Up"}}},
							{"description": "Workbook", "quantity": 2, "amount_total": 5000,
							 "price": {"product": "prod_W"}}
						]}
					},
					"product_ids": [12, 20]
				}`)},
				{ID: 2, CustomerID: 1, PurchaseDate: tsMar01, Meta: datatypes.JSON(`{
					"stripe_session": {
						"id": "cs_2", "currency": "eur", "payment_status": "paid", "subscription": "sub_1",
						"line_items": {"data": [
							{"amount_total": 9900, "currency": "eur",
							 "price": {"recurring": {"interval": "month"}, "product": {"id": "prod_B", "name": "Coaching Monthly"}}}
						]}
					},
					"product_ids": ["14"],
					"renewals": {
						"14": [{"date": 1775030400, "amount": 9900}, {"date": 1777622400, "amount": 9900}],
						"0#prod_X": [{"date": 1775030400, "amount": 100}]
					},
					"period_end_map": {"14": 1782864000}
				}`)},
			},
		},
		{
			ID: 2, Email: "bob@example.com", Name: "Bob Stone",
			Purchases: []models.PurchaseRecord{
				{ID: 3, CustomerID: 2, PurchaseDate: tsFeb15, Meta: datatypes.JSON(`{
					"stripe_session": {
						"id": "cs_3", "currency": "usd", "payment_status": "unpaid",
						"line_items": {"data": [
							{"amount_total": 5000, "price": {"product": {"id": "prod_W", "name": "Workbook"}}}
						]}
					},
					"product_ids": ["99"],
					"renewals": {"0#prod_W": [{"date": 1773561600, "amount": 2500}]},
					"period_end_map": {"7": 1776294000, "7_canceled": true}
				}`)},
			},
		},
		{ID: 3, Email: "cy@example.com", Name: "Cy"},
		{
			ID: 4, Email: "dee@example.com",
			Purchases: []models.PurchaseRecord{
				{ID: 4, CustomerID: 4, PurchaseDate: tsMar15, Meta: datatypes.JSON(`{
					"stripe_session": {"currency": "eur", "line_items": {"data": []}}
				}`)},
			},
		},
	}
}

func newFixtureEngine() (*Engine, *fakeCatalog) {
	catalog := newFixtureCatalog()
	e := NewEngine(&fakeSource{customers: fixtureCustomers}, catalog,
		WithLocation(time.UTC),
		WithClock(func() time.Time { return time.Unix(fixtureAt, 0) }),
	)
	return e, catalog
}

func fixtureEvalCtx() *evalCtx {
	return &evalCtx{loc: time.UTC, now: time.Unix(fixtureAt, 0)}
}
