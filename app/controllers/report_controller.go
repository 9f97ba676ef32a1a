package controllers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PurchaseDesk/app/models"
	"github.com/ManuelReschke/PurchaseDesk/app/repository"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/archive"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/report"
	"github.com/ManuelReschke/PurchaseDesk/views"
	"github.com/ManuelReschke/PurchaseDesk/views/admin_views"
)

const (
	formatCSV  = counter.FormatCSV
	formatXLSX = counter.FormatXLSX
)

var exportContentTypes = map[string]string{
	formatCSV:  "text/csv; charset=utf-8",
	formatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// usageCounter records report usage. Failures only get logged.
type usageCounter interface {
	AddReportView(ctx context.Context, reportCtx string) error
	AddReportExport(ctx context.Context, reportCtx, format string) error
	Usage(ctx context.Context, contexts []string) ([]counter.Usage, error)
}

// ReportController serves the report pages, exports and the JSON API
type ReportController struct {
	repos   *repository.Repositories
	engine  *report.Engine
	archive archive.Uploader // nil when archiving is disabled
	usage   usageCounter     // nil disables counting
	now     func() time.Time
}

// NewReportController creates a report controller. uploader may be nil.
func NewReportController(repos *repository.Repositories, engine *report.Engine, uploader archive.Uploader) *ReportController {
	return &ReportController{
		repos:   repos,
		engine:  engine,
		archive: uploader,
		now:     time.Now,
	}
}

// HandleReport renders one page of a report
func (rc *ReportController) HandleReport(c *fiber.Ctx) error {
	reportCtx, err := report.ParseContext(c.Params("context"))
	if err != nil {
		return fiber.ErrNotFound
	}

	settings, err := rc.repos.Setting.GetReportSettings()
	if err != nil {
		return rc.renderError(c, reportCtx, "Failed to load report settings", err)
	}

	req := buildRequest(c, reportCtx, settings, lenientQuery(c))
	res, err := rc.engine.BuildReport(c.UserContext(), req)
	if err != nil {
		return rc.renderError(c, reportCtx, "Failed to build report", err)
	}

	var products []models.ProductCatalogEntry
	if reportCtx != report.Products {
		products, err = rc.repos.Catalog.List()
		if err != nil {
			log.Warnf("[Report] failed to list catalog for filter options: %v", err)
		}
	}

	rc.countView(c.UserContext(), reportCtx)

	view := buildReportView(c, res, products, rc.archive != nil)
	page := views.Page(" | "+reportCtx.Label(), navItems(string(reportCtx)), flash.Get(c), admin_views.ReportPage(view))

	handler := adaptor.HTTPHandler(templ.Handler(page))
	return handler(c)
}

// renderError shows the layout with an error message. A redirect would loop
// back into the failing page.
func (rc *ReportController) renderError(c *fiber.Ctx, reportCtx report.Context, message string, err error) error {
	log.Errorf("[Report] %s: %v", message, err)

	msg := fiber.Map{"type": "error", "message": message}
	page := views.Page(" | "+reportCtx.Label(), navItems(string(reportCtx)), msg, templ.NopComponent)

	handler := adaptor.HTTPHandler(templ.Handler(page, templ.WithStatus(fiber.StatusInternalServerError)))
	return handler(c)
}

// redirectError logs err and sends the admin back to the report with a flash message
func (rc *ReportController) redirectError(c *fiber.Ctx, reportCtx report.Context, message string, err error) error {
	log.Errorf("[Report] %s: %v", message, err)

	fm := fiber.Map{
		"type":    "error",
		"message": message,
	}
	return flash.WithError(c, fm).Redirect(rc.backURL(c, reportCtx))
}

func (rc *ReportController) backURL(c *fiber.Ctx, reportCtx report.Context) string {
	path := reportPath(reportCtx)
	if qs := string(c.Request().URI().QueryString()); qs != "" {
		return path + "?" + qs
	}
	return path
}

func (rc *ReportController) countView(ctx context.Context, reportCtx report.Context) {
	if rc.usage == nil {
		return
	}
	if err := rc.usage.AddReportView(ctx, string(reportCtx)); err != nil {
		log.Warnf("[Report] failed to count view: %v", err)
	}
}

func (rc *ReportController) countExport(ctx context.Context, reportCtx report.Context, format string) {
	if rc.usage == nil {
		return
	}
	if err := rc.usage.AddReportExport(ctx, string(reportCtx), format); err != nil {
		log.Warnf("[Report] failed to count export: %v", err)
	}
}

func (rc *ReportController) export(c *fiber.Ctx, reportCtx report.Context) (*report.Export, error) {
	settings, err := rc.repos.Setting.GetReportSettings()
	if err != nil {
		return nil, err
	}
	req := buildRequest(c, reportCtx, settings, lenientQuery(c))
	return rc.engine.ExportReport(c.UserContext(), req)
}

func writeExport(buf *bytes.Buffer, x *report.Export, format string) error {
	if format == formatXLSX {
		return report.WriteXLSX(buf, x)
	}
	return report.WriteCSV(buf, x)
}

// HandleExport sends the full filtered report as a download
func (rc *ReportController) HandleExport(c *fiber.Ctx, format string) error {
	reportCtx, err := report.ParseContext(c.Params("context"))
	if err != nil {
		return fiber.ErrNotFound
	}

	x, err := rc.export(c, reportCtx)
	if err != nil {
		return rc.redirectError(c, reportCtx, "Failed to export report", err)
	}

	var buf bytes.Buffer
	if err := writeExport(&buf, x, format); err != nil {
		return rc.redirectError(c, reportCtx, "Failed to write export", err)
	}

	rc.countExport(c.UserContext(), reportCtx, format)

	c.Attachment(report.ExportFilename(reportCtx, rc.now(), format))
	c.Set(fiber.HeaderContentType, exportContentTypes[format])
	return c.Send(buf.Bytes())
}

// HandleArchive uploads the CSV export to object storage
func (rc *ReportController) HandleArchive(c *fiber.Ctx) error {
	reportCtx, err := report.ParseContext(c.Params("context"))
	if err != nil {
		return fiber.ErrNotFound
	}

	if rc.archive == nil {
		return rc.redirectError(c, reportCtx, "Archiving is not configured", archive.ErrDisabled)
	}

	x, err := rc.export(c, reportCtx)
	if err != nil {
		return rc.redirectError(c, reportCtx, "Failed to export report", err)
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, x); err != nil {
		return rc.redirectError(c, reportCtx, "Failed to write export", err)
	}

	at := rc.now()
	result, err := rc.archive.Upload(c.UserContext(), archive.Object{
		Context:     string(reportCtx),
		Extension:   formatCSV,
		ContentType: exportContentTypes[formatCSV],
		Body:        buf.Bytes(),
		CreatedAt:   at,
	})
	if err != nil {
		return rc.redirectError(c, reportCtx, "Failed to upload export", err)
	}

	entry := repository.ArchiveEntry{
		Key:       result.ObjectKey,
		Context:   string(reportCtx),
		Format:    formatCSV,
		Rows:      x.Len(),
		Size:      result.Size,
		CreatedAt: at,
	}
	if err := rc.repos.Archive.Record(c.UserContext(), entry); err != nil {
		log.Warnf("[Report] archived %s but could not record it: %v", result.ObjectKey, err)
	}
	rc.countExport(c.UserContext(), reportCtx, counter.FormatArchive)

	fm := fiber.Map{
		"type":    "success",
		"message": fmt.Sprintf("Archived %d rows to s3://%s/%s", x.Len(), result.BucketName, result.ObjectKey),
	}
	return flash.WithSuccess(c, fm).Redirect(rc.backURL(c, reportCtx))
}

// HandleCatalogEntry shows a catalog entry, the target of product links
func (rc *ReportController) HandleCatalogEntry(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.ErrNotFound
	}

	entry, err := rc.repos.Catalog.GetByID(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fiber.ErrNotFound
	}
	if err != nil {
		return rc.renderError(c, report.Products, "Failed to load catalog entry", err)
	}

	idParam := strconv.FormatUint(uint64(entry.ID), 10)
	view := admin_views.CatalogView{
		ID:              entry.ID,
		Title:           entry.Title,
		StripeProductID: entry.StripeProductID,
		PurchasesHref:   reportPath(report.Purchases) + "?product=" + idParam,
		CustomersHref:   reportPath(report.Customers) + "?product=" + idParam,
	}
	page := views.Page(" | "+entry.Title, navItems(string(report.Products)), flash.Get(c), admin_views.CatalogEntryPage(view))

	handler := adaptor.HTTPHandler(templ.Handler(page))
	return handler(c)
}

type apiColumn struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type apiPageMeta struct {
	TotalCount int    `json:"total_count"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
	SortColumn string `json:"sort_column"`
}

type apiReportResponse struct {
	Context string      `json:"context"`
	Columns []apiColumn `json:"columns"`
	Rows    [][]string  `json:"rows"`
	Summary []string    `json:"summary"`
	Meta    apiPageMeta `json:"meta"`
}

// HandleAPIReport returns one report page as JSON with plain text cells
func (rc *ReportController) HandleAPIReport(c *fiber.Ctx) error {
	reportCtx, err := report.ParseContext(c.Params("context"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Unknown report context"})
	}

	var q reportQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}
	if err := validator.New().Struct(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	settings, err := rc.repos.Setting.GetReportSettings()
	if err != nil {
		log.Errorf("[Report] failed to load report settings: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load report settings"})
	}

	res, err := rc.engine.BuildReport(c.UserContext(), buildRequest(c, reportCtx, settings, q))
	if err != nil {
		log.Errorf("[Report] failed to build report: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to build report"})
	}

	out := apiReportResponse{
		Context: string(res.Context),
		Rows:    report.PlainRows(res.Rows),
		Summary: res.SummaryRow,
		Meta: apiPageMeta{
			TotalCount: res.TotalCount,
			Page:       res.Page,
			PageSize:   res.PageSize,
			TotalPages: res.TotalPages,
			SortColumn: res.SortColumn,
		},
	}
	for _, col := range res.Columns {
		out.Columns = append(out.Columns, apiColumn{Key: col.Key, Label: col.Label})
	}
	return c.JSON(out)
}
