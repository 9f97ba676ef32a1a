package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuelReschke/PurchaseDesk/app/models"
)

func TestComputeSubscriptionStatus(t *testing.T) {
	ec := fixtureEvalCtx()
	recurring := []lineItem{{Recurring: true}}

	tests := []struct {
		name  string
		items []lineItem
		ends  []periodEnd
		want  string
	}{
		{"no recurring line", []lineItem{{}}, []periodEnd{{End: tsJul01, Numeric: true}}, noValue},
		{"no period ends", recurring, nil, noValue},
		{"active", recurring, []periodEnd{{End: tsJul01, Numeric: true}}, "active"},
		{"expired", recurring, []periodEnd{{End: tsApr15, Numeric: true}}, "expired"},
		{"canceled beats paused", recurring, []periodEnd{{End: tsJul01, Numeric: true, Paused: true, Canceled: true}}, "canceled"},
		{"paused beats expired", recurring, []periodEnd{{End: tsApr15, Numeric: true, Paused: true}}, "paused"},
		{"non numeric skipped", recurring, []periodEnd{{Scope: "x"}}, noValue},
		{
			"scopes in order, deduplicated", recurring,
			[]periodEnd{
				{End: tsJul01, Numeric: true},
				{End: tsApr15, Numeric: true},
				{End: tsJul01, Numeric: true},
				{Canceled: true},
			},
			"active, expired, canceled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &purchase{items: tt.items, periodEnds: tt.ends}
			assert.Equal(t, tt.want, computeSubscriptionStatus(ec, p))
		})
	}
}

func TestComputePeriodEnd(t *testing.T) {
	ec := fixtureEvalCtx()
	p := &purchase{
		items: []lineItem{{Recurring: true}},
		periodEnds: []periodEnd{
			{End: tsJul01, Numeric: true},
			{End: tsApr15, Numeric: true},
			{End: tsJul01, Numeric: true},
			{Scope: "flag"},
		},
	}

	assert.Equal(t, "2026-07-01, 2026-04-15", computePeriodEnd(ec, p))

	latest, ok := p.latestPeriodEnd()
	assert.True(t, ok)
	assert.Equal(t, int64(tsJul01), latest)
}

func TestProductTitles(t *testing.T) {
	p := &purchase{
		catalog: []*models.ProductCatalogEntry{
			{ID: 1, Title: "Course", StripeProductID: "prod_A"},
			{ID: 2, Title: "Bonus"},
		},
		items: []lineItem{
			{StripeProductID: "prod_A", Name: "Course Checkout Name"},
			{StripeProductID: "prod_C", Name: "Bonus"},
			{StripeProductID: "prod_D", Name: "Extra"},
			{StripeProductID: "prod_E", Name: "Extra"},
			{StripeProductID: "prod_F"},
		},
	}

	assert.Equal(t, []string{"Course", "Bonus", "Extra"}, p.productTitles())
}

func TestMatchFirstCatalogEntryWins(t *testing.T) {
	first := &models.ProductCatalogEntry{ID: 7, Title: "First", StripeProductID: "prod_A"}
	second := &models.ProductCatalogEntry{ID: 8, Title: "Second", StripeProductID: "prod_A"}
	p := &purchase{catalog: []*models.ProductCatalogEntry{first, second}}

	entry, ok := p.match(lineItem{StripeProductID: "prod_A"})
	assert.True(t, ok)
	assert.Same(t, first, entry)

	_, ok = p.match(lineItem{})
	assert.False(t, ok)
}

func TestCustomerLink(t *testing.T) {
	assert.Equal(t, "", customerLink("", "x@example.com"))
	assert.Equal(t, "Eve &lt;3", customerLink("Eve <3", ""))
	assert.Equal(t,
		`<a href="/admin/reports/purchases?search=%22eve%2Bshop%40example.com%22">Eve &amp; Co</a>`,
		customerLink("Eve & Co", "eve+shop@example.com"))
}

func TestCatalogLink(t *testing.T) {
	assert.Equal(t, `<a href="/admin/catalog/3">A &amp; B</a>`, catalogLink(3, "A & B"))
	assert.Equal(t, "Unknown", catalogLink(0, "Unknown"))
}

func TestRenewalRowKey(t *testing.T) {
	tests := []struct {
		scope string
		want  string
		ok    bool
	}{
		{"14", "14", true},
		{"0#prod_X", "stripe:prod_X", true},
		{"0", "", false},
		{"abc", "", false},
	}

	for _, tt := range tests {
		got, ok := renewalRowKey(tt.scope)
		assert.Equal(t, tt.ok, ok, tt.scope)
		assert.Equal(t, tt.want, got, tt.scope)
	}
}
