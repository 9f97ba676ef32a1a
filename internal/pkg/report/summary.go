package report

import (
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/money"
)

const summaryLabel = "Total"

// summarize totals every summable column over rows. Money totals take the
// first currency seen among the rows. The first column carries the "Total"
// label unless it is summable itself.
func summarize(cols []*Column, rows []row, ec *evalCtx) []string {
	out := make([]string, len(cols))
	for i, col := range cols {
		if !col.Summable() || col.value == nil {
			continue
		}

		var sum int64
		currency := ""
		for _, r := range rows {
			n, _ := col.value(ec, r)
			sum += n
			if currency == "" && col.currency != nil {
				currency = col.currency(r)
			}
		}

		if col.Measure == MeasureMoney {
			out[i] = money.FormatPrice(sum, currency)
		} else {
			out[i] = money.FormatCount(sum)
		}
	}

	if len(cols) > 0 && !cols[0].Summable() {
		out[0] = summaryLabel
	}
	return out
}
