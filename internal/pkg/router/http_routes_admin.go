package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PurchaseDesk/app/controllers"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/middleware"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin", middleware.RequireAdmin(h.admin), csrfProtection())
	adminGroup.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/admin/reports/purchases")
	})

	// Settings come before /:context so "settings" is not read as a report
	adminGroup.Get("/reports/settings", controllers.HandleAdminReportSettings)
	adminGroup.Post("/reports/settings", controllers.HandleAdminReportSettingsUpdate)

	// Reports
	adminGroup.Get("/reports/:context", controllers.HandleAdminReport)
	adminGroup.Get("/reports/:context/export.csv", controllers.HandleAdminReportExportCSV)
	adminGroup.Get("/reports/:context/export.xlsx", controllers.HandleAdminReportExportXLSX)
	adminGroup.Post("/reports/:context/archive", controllers.HandleAdminReportArchive)

	// Catalog entries, the target of product links
	adminGroup.Get("/catalog/:id", controllers.HandleAdminCatalogEntry)
}
