package report

import (
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/money"
)

// noValue marks a subscription cell without any subscription data.
const noValue = "–"

// ComputeFunc renders a computed purchase column.
type ComputeFunc func(ec *evalCtx, p *purchase) string

func computeAmountTotal(_ *evalCtx, p *purchase) string {
	total, currency := p.amountTotal()
	if total == 0 {
		return ""
	}
	return money.FormatPrice(total, currency)
}

func computeShippingAddress(_ *evalCtx, p *purchase) string {
	address := p.session.At("shipping", "address")
	var parts []string
	for _, key := range []string{"line1", "line2", "postal_code", "city", "country"} {
		if part := address.At(key).Text(); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

func computeProductTitles(_ *evalCtx, p *purchase) string {
	return strings.Join(p.productTitles(), ", ")
}

// computeSubscriptionStatus classifies every period end scope as canceled,
// paused, expired or active, in that precedence.
func computeSubscriptionStatus(ec *evalCtx, p *purchase) string {
	if !p.hasRecurring() {
		return noValue
	}

	var statuses []string
	for _, pe := range p.periodEnds {
		status := ""
		switch {
		case pe.Canceled:
			status = "canceled"
		case pe.Paused:
			status = "paused"
		case !pe.Numeric:
			continue
		case pe.End < ec.now.Unix():
			status = "expired"
		default:
			status = "active"
		}
		statuses = appendDistinct(statuses, status)
	}

	if len(statuses) == 0 {
		return noValue
	}
	return strings.Join(statuses, ", ")
}

func computePeriodEnd(ec *evalCtx, p *purchase) string {
	if !p.hasRecurring() {
		return noValue
	}

	var dates []string
	for _, pe := range p.periodEnds {
		if pe.Numeric {
			dates = appendDistinct(dates, ec.date(pe.End))
		}
	}
	if len(dates) == 0 {
		return noValue
	}
	return strings.Join(dates, ", ")
}

func computeLineItemsCount(_ *evalCtx, p *purchase) string {
	return strconv.Itoa(len(p.items))
}

func computeRenewalCount(_ *evalCtx, p *purchase) string {
	return countOrEmpty(int64(len(p.renewals)))
}

func computeLastRenewal(ec *evalCtx, p *purchase) string {
	last, ok := p.lastRenewal()
	if !ok {
		return ""
	}
	return ec.date(last)
}

// computeCustomerLink returns markup: the customer's name linking to their
// purchases.
func computeCustomerLink(_ *evalCtx, p *purchase) string {
	return customerLink(p.customer.Name, p.customer.Email)
}

func customerLink(name, email string) string {
	if name == "" {
		return ""
	}
	if email == "" {
		return html.EscapeString(name)
	}
	href := "/admin/reports/purchases?search=" + url.QueryEscape(`"`+email+`"`)
	return `<a href="` + html.EscapeString(href) + `">` + html.EscapeString(name) + `</a>`
}

func catalogLink(id uint, title string) string {
	if id == 0 {
		return html.EscapeString(title)
	}
	return `<a href="/admin/catalog/` + strconv.FormatUint(uint64(id), 10) + `">` + html.EscapeString(title) + `</a>`
}

func countOrEmpty(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

func appendDistinct(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
