package controllers

import (
	"html/template"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PurchaseDesk/app/models"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/report"
	"github.com/ManuelReschke/PurchaseDesk/views"
	"github.com/ManuelReschke/PurchaseDesk/views/admin_views"
)

// reportQuery holds the query parameters that are not filters.
type reportQuery struct {
	Columns string `query:"columns" validate:"max=2048"`
	Sort    string `query:"sort" validate:"max=64"`
	Page    int    `query:"page" validate:"min=0"`
	PerPage int    `query:"per_page" validate:"min=0,max=500"`
}

var reservedParams = []string{"columns", "sort", "page", "per_page"}

// lenientQuery reads reportQuery for HTML pages, where bad numbers fall back
// to defaults instead of failing the request.
func lenientQuery(c *fiber.Ctx) reportQuery {
	return reportQuery{
		Columns: c.Query("columns"),
		Sort:    c.Query("sort"),
		Page:    c.QueryInt("page", 1),
		PerPage: c.QueryInt("per_page", 0),
	}
}

// rawFilters collects every non-reserved query parameter. Repeated keys, as
// sent by a multiselect, are joined with commas.
func rawFilters(c *fiber.Ctx) map[string]string {
	out := map[string]string{}
	c.Context().QueryArgs().VisitAll(func(k, v []byte) {
		key := string(k)
		if slices.Contains(reservedParams, key) {
			return
		}
		if prev := out[key]; prev != "" {
			out[key] = prev + "," + string(v)
			return
		}
		out[key] = string(v)
	})
	return out
}

// buildRequest combines the query with the stored settings. Request columns
// win over the stored selection.
func buildRequest(c *fiber.Ctx, rc report.Context, settings *models.ReportSettings, q reportQuery) report.Request {
	columns := splitColumns(q.Columns)
	if len(columns) == 0 {
		columns = settings.ColumnsFor(string(rc))
	}
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = settings.ItemsPerPage
	}
	return report.Request{
		Context:    rc,
		Columns:    columns,
		Filters:    rawFilters(c),
		SortColumn: strings.TrimSpace(q.Sort),
		Page:       q.Page,
		PageSize:   perPage,
	}
}

func splitColumns(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// currentValues returns the request query as url.Values.
func currentValues(c *fiber.Ctx) url.Values {
	values := url.Values{}
	c.Context().QueryArgs().VisitAll(func(k, v []byte) {
		values.Add(string(k), string(v))
	})
	return values
}

// hrefWith returns path with the current query, the given keys replaced and
// the drop keys removed.
func hrefWith(path string, values url.Values, set map[string]string, drop ...string) string {
	next := url.Values{}
	for k, vs := range values {
		next[k] = slices.Clone(vs)
	}
	for _, k := range drop {
		next.Del(k)
	}
	for k, v := range set {
		next.Set(k, v)
	}
	if len(next) == 0 {
		return path
	}
	return path + "?" + next.Encode()
}

// csrfToken returns the token the csrf middleware stored, empty outside it.
func csrfToken(c *fiber.Ctx) string {
	token, _ := c.Locals("csrf").(string)
	return token
}

func reportPath(rc report.Context) string {
	return "/admin/reports/" + string(rc)
}

func navItems(active string) []views.NavItem {
	items := make([]views.NavItem, 0, 4)
	for _, rc := range report.Contexts() {
		items = append(items, views.NavItem{Label: rc.Label(), Href: reportPath(rc), Active: string(rc) == active})
	}
	return append(items, views.NavItem{Label: "Settings", Href: "/admin/reports/settings", Active: active == "settings"})
}

// buildReportView turns a result into the page model.
func buildReportView(c *fiber.Ctx, res *report.Result, products []models.ProductCatalogEntry, archiveEnabled bool) admin_views.ReportView {
	path := reportPath(res.Context)
	values := currentValues(c)

	view := admin_views.ReportView{
		Context:        string(res.Context),
		Label:          res.Context.Label(),
		Summary:        res.SummaryRow,
		TotalCount:     res.TotalCount,
		Page:           res.Page,
		TotalPages:     res.TotalPages,
		SortColumn:     values.Get("sort"),
		SelectedCols:   values.Get("columns"),
		ExportCSV:      hrefWith(path+"/export.csv", values, nil, "page", "per_page"),
		ExportXLSX:     hrefWith(path+"/export.xlsx", values, nil, "page", "per_page"),
		ArchiveAction:  hrefWith(path+"/archive", values, nil, "page", "per_page"),
		ArchiveEnabled: archiveEnabled,
		CSRFToken:      csrfToken(c),
		ResetHref:      path,
	}

	for _, col := range res.Columns {
		view.Columns = append(view.Columns, admin_views.ColumnHead{
			Key:      col.Key,
			Label:    col.Label,
			SortHref: hrefWith(path, values, map[string]string{"sort": col.Key}, "page"),
			Sorted:   col.Key == res.SortColumn,
			Numeric:  col.Summable(),
		})
	}

	for _, cells := range res.Rows {
		row := make([]template.HTML, len(cells))
		for i, cell := range cells {
			// Cells are escaped by the report engine and may carry links.
			row[i] = template.HTML(cell)
		}
		view.Rows = append(view.Rows, row)
	}

	for _, s := range res.SummaryRow {
		if s != "" {
			view.HasSummary = true
			break
		}
	}

	for _, item := range report.PagerWindow(res.Page, res.TotalPages) {
		link := admin_views.PagerLink{Page: item.Page, Current: item.Current, Gap: item.Gap}
		if !item.Gap {
			link.Href = hrefWith(path, values, map[string]string{"page": strconv.Itoa(item.Page)})
		}
		view.Pager = append(view.Pager, link)
	}

	reg, err := report.RegistryFor(res.Context)
	if err == nil {
		view.Filters = filterFields(reg, rawFilters(c), products)
	}
	return view
}

func filterFields(reg *report.Registry, raw map[string]string, products []models.ProductCatalogEntry) []admin_views.FilterField {
	var fields []admin_views.FilterField
	for _, f := range reg.Filters() {
		field := admin_views.FilterField{Key: f.Key, Label: f.Label}
		switch f.Kind {
		case report.FilterSearch:
			field.Kind = "search"
			field.Value = raw[f.Key]
		case report.FilterDateRange:
			field.Kind = "date"
			field.From, field.To = raw[f.Key+"_from"], raw[f.Key+"_to"]
		case report.FilterNumberRange:
			field.Kind = "number"
			field.From, field.To = raw[f.Key+"_min"], raw[f.Key+"_max"]
		case report.FilterProducts:
			field.Kind = "products"
			selected := splitColumns(raw[f.Key])
			for _, p := range products {
				value := strconv.FormatUint(uint64(p.ID), 10)
				field.Options = append(field.Options, admin_views.FilterOption{
					Value:    value,
					Label:    p.Title,
					Selected: slices.Contains(selected, value),
				})
			}
		}
		fields = append(fields, field)
	}
	return fields
}
