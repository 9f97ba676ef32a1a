package admin_views

import (
	"html/template"

	"github.com/a-h/templ"
)

type CatalogView struct {
	ID              uint
	Title           string
	StripeProductID string
	PurchasesHref   string
	CustomersHref   string
}

var catalogTmpl = template.Must(template.New("catalog").Parse(`
<section class="catalog-entry">
<h1>{{.Title}}</h1>
<dl>
<dt>Page ID</dt><dd>{{.ID}}</dd>
<dt>Stripe Product ID</dt><dd>{{if .StripeProductID}}{{.StripeProductID}}{{else}}–{{end}}</dd>
</dl>
<p><a href="{{.PurchasesHref}}">Purchases of this product</a> · <a href="{{.CustomersHref}}">Customers who bought it</a></p>
</section>
`))

func CatalogEntryPage(view CatalogView) templ.Component {
	return templ.FromGoHTML(catalogTmpl, view)
}
