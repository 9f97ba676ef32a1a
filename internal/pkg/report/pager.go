package report

// PagerItem is one entry of the page navigation. Gap entries render as an
// ellipsis.
type PagerItem struct {
	Page    int
	Current bool
	Gap     bool
}

const pagerRadius = 2

// PagerWindow lists the first page, the pages within two of current, and the
// last page, with gaps where pages are skipped.
func PagerWindow(current, totalPages int) []PagerItem {
	if totalPages <= 1 {
		return nil
	}
	current = ClampPage(current, totalPages)

	lo := max(1, current-pagerRadius)
	hi := min(totalPages, current+pagerRadius)

	var items []PagerItem
	add := func(p int) {
		items = append(items, PagerItem{Page: p, Current: p == current})
	}

	if lo > 1 {
		add(1)
		if lo > 2 {
			items = append(items, PagerItem{Gap: true})
		}
	}
	for p := lo; p <= hi; p++ {
		add(p)
	}
	if hi < totalPages {
		if hi < totalPages-1 {
			items = append(items, PagerItem{Gap: true})
		}
		add(totalPages)
	}
	return items
}
