package report

import (
	"context"
	"iter"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PurchaseDesk/app/models"
)

const (
	DefaultPageSize = models.DefaultItemsPerPage
	MaxPageSize     = models.MaxItemsPerPage
)

// Source supplies customers with their purchase records preloaded.
type Source interface {
	FindCustomersWithPurchases(ctx context.Context) ([]models.Customer, error)
}

// Catalog resolves product catalog entries. A miss is (nil, nil).
type Catalog interface {
	ResolveCatalogEntry(ctx context.Context, id uint) (*models.ProductCatalogEntry, error)
}

// Request selects what a report shows. Filters holds raw query values.
type Request struct {
	Context    Context
	Columns    []string
	Filters    map[string]string
	SortColumn string
	Page       int
	PageSize   int
}

// Result is one rendered page. Rows hold display values, which may carry
// markup; Columns and SummaryRow align with every row.
type Result struct {
	Context    Context
	Columns    []*Column
	Rows       [][]string
	TotalCount int
	SummaryRow []string
	SortColumn string
	Page       int
	PageSize   int
	TotalPages int
}

// Header returns the column labels.
func (r *Result) Header() []string {
	return labels(r.Columns)
}

// Engine builds reports. It keeps no state between calls: every request
// loads and aggregates the full data set again.
type Engine struct {
	source  Source
	catalog Catalog
	loc     *time.Location
	now     func() time.Time
	slow    time.Duration
}

type Option func(*Engine)

// WithLocation sets the zone dates are formatted and filtered in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSlowThreshold logs reports that take longer than d. Zero disables it.
func WithSlowThreshold(d time.Duration) Option {
	return func(e *Engine) { e.slow = d }
}

func NewEngine(source Source, catalog Catalog, opts ...Option) *Engine {
	e := &Engine{
		source:  source,
		catalog: catalog,
		loc:     time.Local,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// prepared is the filtered and sorted row set shared by both outputs.
type prepared struct {
	columns []*Column
	sortBy  *Column
	rows    []row
	ec      *evalCtx
}

func (e *Engine) prepare(ctx context.Context, req Request) (*prepared, error) {
	reg, err := RegistryFor(req.Context)
	if err != nil {
		return nil, err
	}

	customers, err := e.source.FindCustomersWithPurchases(ctx)
	if err != nil {
		return nil, err
	}

	trees, err := buildTree(customers, newCatalogLookup(ctx, e.catalog))
	if err != nil {
		return nil, err
	}

	ec := &evalCtx{loc: e.loc, now: e.now()}
	columns := reg.Select(req.Columns)
	filters := compileFilters(reg, ParseFilterInput(reg, req.Filters, e.loc))

	rows := filterRows(aggregate(req.Context, trees), filters, ec)
	sortBy := reg.sortColumn(req.SortColumn, columns)
	sortRows(rows, sortBy, ec)

	return &prepared{columns: columns, sortBy: sortBy, rows: rows, ec: ec}, nil
}

// BuildReport returns one page of the report plus totals over every
// filtered row.
func (e *Engine) BuildReport(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	p, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	pageSize := ClampPageSize(req.PageSize)
	total := len(p.rows)
	totalPages := TotalPages(total, pageSize)
	page := ClampPage(req.Page, totalPages)

	lo := (page - 1) * pageSize
	hi := min(lo+pageSize, total)
	lo = min(lo, hi)

	out := &Result{
		Context:    req.Context,
		Columns:    p.columns,
		Rows:       make([][]string, 0, hi-lo),
		TotalCount: total,
		SummaryRow: summarize(p.columns, p.rows, p.ec),
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
	if p.sortBy != nil {
		out.SortColumn = p.sortBy.Key
	}
	for _, r := range p.rows[lo:hi] {
		out.Rows = append(out.Rows, p.render(r))
	}

	e.observe(req.Context, "page", total, start)
	return out, nil
}

// Export is the unpaginated report. Rows yields plain text cells.
type Export struct {
	Context Context
	Header  []string
	p       *prepared
}

func (x *Export) Len() int {
	return len(x.p.rows)
}

// Rows yields every row in report order with markup stripped.
func (x *Export) Rows() iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		for _, r := range x.p.rows {
			cells := x.p.render(r)
			for i, cell := range cells {
				cells[i] = PlainText(cell)
			}
			if !yield(cells) {
				return
			}
		}
	}
}

// ExportReport runs the same pipeline as BuildReport without slicing.
func (e *Engine) ExportReport(ctx context.Context, req Request) (*Export, error) {
	start := time.Now()

	p, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	e.observe(req.Context, "export", len(p.rows), start)
	return &Export{Context: req.Context, Header: labels(p.columns), p: p}, nil
}

func (p *prepared) render(r row) []string {
	cells := make([]string, len(p.columns))
	for i, col := range p.columns {
		cells[i] = col.display(p.ec, r)
	}
	return cells
}

func (e *Engine) observe(c Context, mode string, rows int, start time.Time) {
	elapsed := time.Since(start)
	if e.slow > 0 && elapsed > e.slow {
		log.Warnf("[Report] slow report context=%s mode=%s rows=%d ms=%d", c, mode, rows, elapsed.Milliseconds())
	}
}

func labels(cols []*Column) []string {
	out := make([]string, len(cols))
	for i, col := range cols {
		out[i] = col.Label
	}
	return out
}

// ClampPageSize keeps a page size within 1..MaxPageSize, zero meaning default.
func ClampPageSize(size int) int {
	switch {
	case size <= 0:
		return DefaultPageSize
	case size > MaxPageSize:
		return MaxPageSize
	}
	return size
}

// TotalPages is at least one so an empty report still has a page to show.
func TotalPages(total, pageSize int) int {
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
