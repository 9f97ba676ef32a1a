package admin_views

import (
	"html/template"

	"github.com/a-h/templ"
)

// ColumnHead is a table header cell; SortHref re-sorts by this column.
type ColumnHead struct {
	Key      string
	Label    string
	SortHref string
	Sorted   bool
	Numeric  bool
}

// FilterOption is one choice of a multiselect filter.
type FilterOption struct {
	Value    string
	Label    string
	Selected bool
}

// FilterField is one input group of the filter form.
type FilterField struct {
	Key     string
	Label   string
	Kind    string // search, date, number, products
	Value   string
	From    string
	To      string
	Options []FilterOption
}

// PagerLink is one pager entry; Gap entries render as an ellipsis.
type PagerLink struct {
	Page    int
	Href    string
	Current bool
	Gap     bool
}

// ReportView is everything the report page shows.
type ReportView struct {
	Context        string
	Label          string
	Columns        []ColumnHead
	Rows           [][]template.HTML
	Summary        []string
	HasSummary     bool
	TotalCount     int
	Page           int
	TotalPages     int
	Pager          []PagerLink
	Filters        []FilterField
	SortColumn     string
	SelectedCols   string
	ExportCSV      string
	ExportXLSX     string
	ArchiveAction  string
	ArchiveEnabled bool
	CSRFToken      string
	ResetHref      string
}

var reportTmpl = template.Must(template.New("report").Parse(`
<section class="report report-{{.Context}}">
<header class="report-header">
<h1>{{.Label}}</h1>
<p class="report-count">{{.TotalCount}} rows</p>
<div class="report-actions">
<a class="btn" href="{{.ExportCSV}}">CSV</a>
<a class="btn" href="{{.ExportXLSX}}">Excel</a>
{{if .ArchiveEnabled}}<form method="post" action="{{.ArchiveAction}}" class="inline"><input type="hidden" name="_csrf" value="{{.CSRFToken}}"><button class="btn" type="submit">Archive to S3</button></form>{{end}}
</div>
</header>

<form method="get" class="report-filters">
{{if .SelectedCols}}<input type="hidden" name="columns" value="{{.SelectedCols}}">{{end}}
{{if .SortColumn}}<input type="hidden" name="sort" value="{{.SortColumn}}">{{end}}
{{range .Filters}}
<fieldset class="filter filter-{{.Kind}}">
<legend>{{.Label}}</legend>
{{if eq .Kind "search"}}<input type="search" name="{{.Key}}" value="{{.Value}}" placeholder="a AND b, &quot;exact phrase&quot;">{{end}}
{{if eq .Kind "date"}}<input type="date" name="{{.Key}}_from" value="{{.From}}"> – <input type="date" name="{{.Key}}_to" value="{{.To}}">{{end}}
{{if eq .Kind "number"}}<input type="text" inputmode="decimal" name="{{.Key}}_min" value="{{.From}}" placeholder="min"> – <input type="text" inputmode="decimal" name="{{.Key}}_max" value="{{.To}}" placeholder="max">{{end}}
{{if eq .Kind "products"}}<select name="{{.Key}}" multiple size="5">{{range .Options}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>{{end}}</select>{{end}}
</fieldset>
{{end}}
<button class="btn btn-primary" type="submit">Filter</button>
<a class="btn" href="{{.ResetHref}}">Reset</a>
</form>

<table class="report-table">
<thead><tr>{{range .Columns}}<th class="{{if .Numeric}}num{{end}}{{if .Sorted}} sorted{{end}}"><a href="{{.SortHref}}">{{.Label}}</a></th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{else}}<tr><td colspan="{{len .Columns}}" class="empty">No results</td></tr>
{{end}}
</tbody>
{{if .HasSummary}}<tfoot><tr>{{range .Summary}}<td>{{.}}</td>{{end}}</tr></tfoot>{{end}}
</table>

{{if .Pager}}<nav class="pager" aria-label="pages">{{range .Pager}}{{if .Gap}}<span class="gap">…</span>{{else if .Current}}<span class="current">{{.Page}}</span>{{else}}<a href="{{.Href}}">{{.Page}}</a>{{end}}{{end}}</nav>{{end}}
</section>
`))

// ReportPage renders the report table with its filter form and pager.
func ReportPage(view ReportView) templ.Component {
	return templ.FromGoHTML(reportTmpl, view)
}
