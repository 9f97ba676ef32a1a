package report

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText strips markup from a display value and decodes entities, giving
// the text a CSV cell carries.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// PlainRows converts display rows to plain text rows.
func PlainRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, cells := range rows {
		plain := make([]string, len(cells))
		for j, cell := range cells {
			plain[j] = PlainText(cell)
		}
		out[i] = plain
	}
	return out
}
