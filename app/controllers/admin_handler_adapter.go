package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PurchaseDesk/app/repository"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/archive"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/cache"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/env"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/report"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/statistics"
)

// Global controller instances
var (
	reportController   *ReportController
	settingsController *SettingsController
)

// NewReportEngine builds the report engine over the repositories
func NewReportEngine(repos *repository.Repositories) *report.Engine {
	return report.NewEngine(repos.Customer, repos.Catalog,
		report.WithLocation(env.Location()),
		report.WithSlowThreshold(env.GetEnvMillis("REPORT_SLOW_MS", 500*time.Millisecond)),
	)
}

// InitializeReportController initializes the global report controllers with
// repositories. uploader may be nil when archiving is disabled.
func InitializeReportController(uploader archive.Uploader) {
	repos := repository.GetGlobalRepositories()
	usage := counter.New(cache.GetClient())

	reportController = NewReportController(repos, NewReportEngine(repos), uploader)
	reportController.usage = usage
	settingsController = NewSettingsController(repos)
	settingsController.usage = usage
	settingsController.stats = statistics.New(statistics.CacheStore(), repos)
}

// GetReportController returns the global report controller instance
func GetReportController() *ReportController {
	if reportController == nil {
		InitializeReportController(nil)
	}
	return reportController
}

// GetSettingsController returns the global settings controller instance
func GetSettingsController() *SettingsController {
	if settingsController == nil {
		InitializeReportController(nil)
	}
	return settingsController
}

// Adapter functions used by the router

// HandleAdminReport - Adapter for a report page
func HandleAdminReport(c *fiber.Ctx) error {
	return GetReportController().HandleReport(c)
}

// HandleAdminReportExportCSV - Adapter for the CSV download
func HandleAdminReportExportCSV(c *fiber.Ctx) error {
	return GetReportController().HandleExport(c, formatCSV)
}

// HandleAdminReportExportXLSX - Adapter for the Excel download
func HandleAdminReportExportXLSX(c *fiber.Ctx) error {
	return GetReportController().HandleExport(c, formatXLSX)
}

// HandleAdminReportArchive - Adapter for archiving an export to S3
func HandleAdminReportArchive(c *fiber.Ctx) error {
	return GetReportController().HandleArchive(c)
}

// HandleAdminCatalogEntry - Adapter for the catalog entry page
func HandleAdminCatalogEntry(c *fiber.Ctx) error {
	return GetReportController().HandleCatalogEntry(c)
}

// HandleAdminReportSettings - Adapter for the settings page
func HandleAdminReportSettings(c *fiber.Ctx) error {
	return GetSettingsController().HandleSettings(c)
}

// HandleAdminReportSettingsUpdate - Adapter for the settings update
func HandleAdminReportSettingsUpdate(c *fiber.Ctx) error {
	return GetSettingsController().HandleSettingsUpdate(c)
}

// HandleAPIReport - Adapter for the JSON report API
func HandleAPIReport(c *fiber.Ctx) error {
	return GetReportController().HandleAPIReport(c)
}
