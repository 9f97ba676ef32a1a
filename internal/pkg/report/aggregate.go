package report

import (
	"strconv"
	"strings"

	"github.com/ManuelReschke/PurchaseDesk/app/models"
)

const stripeKeyPrefix = "stripe:"

// row is one report line. Exactly one field is set, matching the context.
type row struct {
	purchase *purchase
	product  *productRow
	customer *customerRow
}

// productRow rolls up every line item that resolves to the same product.
type productRow struct {
	Key          string // catalog id, or "stripe:" + external product id
	Name         string
	CatalogID    uint
	StripeID     string
	Purchases    int64
	Quantity     int64
	Revenue      int64
	Currency     string
	LastPurchase int64
	Renewals     int64
}

// customerRow rolls up all records of one customer.
type customerRow struct {
	Customer      *models.Customer
	Purchases     int64
	Revenue       int64
	Currency      string
	FirstPurchase int64
	LastPurchase  int64
	Renewals      int64
	Products      []string
	records       []*purchase
}

// customerTree is a customer with its decoded records.
type customerTree struct {
	customer *models.Customer
	records  []*purchase
}

func buildTree(customers []models.Customer, lookup *catalogLookup) ([]customerTree, error) {
	trees := make([]customerTree, 0, len(customers))
	for i := range customers {
		c := &customers[i]
		if len(c.Purchases) == 0 {
			continue
		}
		tree := customerTree{customer: c, records: make([]*purchase, 0, len(c.Purchases))}
		for j := range c.Purchases {
			p, err := newPurchase(c, &c.Purchases[j], lookup)
			if err != nil {
				return nil, err
			}
			tree.records = append(tree.records, p)
		}
		trees = append(trees, tree)
	}
	return trees, nil
}

func aggregate(c Context, trees []customerTree) []row {
	switch c {
	case Products:
		return aggregateProducts(trees)
	case Customers:
		return aggregateCustomers(trees)
	}
	return aggregatePurchases(trees)
}

func aggregatePurchases(trees []customerTree) []row {
	var rows []row
	for _, tree := range trees {
		for _, p := range tree.records {
			rows = append(rows, row{purchase: p})
		}
	}
	return rows
}

func aggregateProducts(trees []customerTree) []row {
	var order []*productRow
	byKey := map[string]*productRow{}

	for _, tree := range trees {
		for _, p := range tree.records {
			for _, item := range p.items {
				key, name, catalogID := productKey(p, item)
				pr, ok := byKey[key]
				if !ok {
					currency := item.Currency
					if currency == "" {
						currency = "EUR"
					}
					pr = &productRow{
						Key:       key,
						Name:      name,
						CatalogID: catalogID,
						StripeID:  item.StripeProductID,
						Currency:  currency,
					}
					byKey[key] = pr
					order = append(order, pr)
				}
				pr.Purchases++
				pr.Quantity += item.Quantity
				pr.Revenue += item.Amount
				if p.record.PurchaseDate > pr.LastPurchase {
					pr.LastPurchase = p.record.PurchaseDate
				}
			}

			for _, r := range p.renewals {
				key, ok := renewalRowKey(r.Scope)
				if !ok {
					continue
				}
				if pr, exists := byKey[key]; exists {
					pr.Renewals++
					pr.Revenue += r.Amount
				}
			}
		}
	}

	rows := make([]row, len(order))
	for i, pr := range order {
		rows[i] = row{product: pr}
	}
	return rows
}

// productKey maps a line item to its product row.
func productKey(p *purchase, item lineItem) (key, name string, catalogID uint) {
	if entry, ok := p.match(item); ok {
		return strconv.FormatUint(uint64(entry.ID), 10), entry.Title, entry.ID
	}
	name = item.Name
	if name == "" {
		name = "Unknown"
	}
	return stripeKeyPrefix + item.StripeProductID, name, 0
}

// renewalRowKey maps a scope key to a product row key: "<id>" to the catalog
// row, "0#<stripeId>" to the unmapped row.
func renewalRowKey(scope string) (string, bool) {
	if rest, ok := strings.CutPrefix(scope, "0#"); ok {
		return stripeKeyPrefix + rest, true
	}
	id, err := strconv.ParseUint(scope, 10, 64)
	if err != nil || id == 0 {
		return "", false
	}
	return strconv.FormatUint(id, 10), true
}

func aggregateCustomers(trees []customerTree) []row {
	rows := make([]row, 0, len(trees))
	for _, tree := range trees {
		cr := &customerRow{
			Customer:  tree.customer,
			Purchases: int64(len(tree.records)),
			records:   tree.records,
		}
		for i, p := range tree.records {
			total, currency := p.amountTotal()
			cr.Revenue += total + p.renewalTotal()
			cr.Renewals += int64(len(p.renewals))
			if cr.Currency == "" {
				cr.Currency = currency
			}

			date := p.record.PurchaseDate
			if i == 0 || date < cr.FirstPurchase {
				cr.FirstPurchase = date
			}
			if i == 0 || date > cr.LastPurchase {
				cr.LastPurchase = date
			}

			for _, title := range p.productTitles() {
				cr.Products = appendDistinct(cr.Products, title)
			}
		}
		if cr.Currency == "" {
			cr.Currency = "EUR"
		}
		rows = append(rows, row{customer: cr})
	}
	return rows
}
