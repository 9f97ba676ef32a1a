package report

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// SortValue is the raw comparable behind a cell: a number for numeric
// columns, the lower-cased plain text otherwise.
type SortValue struct {
	Num   float64
	IsNum bool
	Text  string
}

func sortValue(col *Column, ec *evalCtx, r row) SortValue {
	if col.value != nil {
		n, _ := col.value(ec, r)
		return SortValue{Num: float64(n), IsNum: true, Text: strconv.FormatInt(n, 10)}
	}
	return SortValue{Text: strings.ToLower(PlainText(col.display(ec, r)))}
}

// Compare orders numerically when both sides are numbers, by text otherwise.
func (a SortValue) Compare(b SortValue) int {
	if a.IsNum && b.IsNum {
		return cmp.Compare(a.Num, b.Num)
	}
	return strings.Compare(a.Text, b.Text)
}

// sortRows orders rows by col, stable for equal keys. A nil column keeps
// aggregation order.
func sortRows(rows []row, col *Column, ec *evalCtx) {
	if col == nil || len(rows) < 2 {
		return
	}

	type keyed struct {
		r   row
		key SortValue
	}
	items := make([]keyed, len(rows))
	for i, r := range rows {
		items[i] = keyed{r: r, key: sortValue(col, ec, r)}
	}

	desc := col.Descending()
	slices.SortStableFunc(items, func(a, b keyed) int {
		if desc {
			return b.key.Compare(a.key)
		}
		return a.key.Compare(b.key)
	})

	for i, item := range items {
		rows[i] = item.r
	}
}
