package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/PurchaseDesk/app/models"
	"github.com/ManuelReschke/PurchaseDesk/app/repository"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/report"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/statistics"
	"github.com/ManuelReschke/PurchaseDesk/views"
)

const (
	settingsPath       = "/admin/reports/settings"
	recentArchiveLimit = 10
)

// SettingsController edits the stored report settings
type SettingsController struct {
	repos *repository.Repositories
	usage usageCounter        // nil hides the usage table
	stats *statistics.Service // nil hides the totals
}

// NewSettingsController creates a settings controller
func NewSettingsController(repos *repository.Repositories) *SettingsController {
	return &SettingsController{repos: repos}
}

type settingsColumn struct {
	Key     string
	Label   string
	Checked bool
}

type settingsContext struct {
	Name    string
	Label   string
	Columns []settingsColumn
}

type settingsPage struct {
	Nav             []views.NavItem
	FlashType       string
	FlashMsg        string
	Contexts        []settingsContext
	ItemsPerPage    int
	MaxItemsPerPage int
	Archives        []repository.ArchiveEntry
	Usage           []counter.Usage
	Stats           *statistics.Data
	CSRFToken       string
}

// HandleSettings renders the settings form
func (sc *SettingsController) HandleSettings(c *fiber.Ctx) error {
	settings, err := sc.repos.Setting.GetReportSettings()
	if err != nil {
		log.Errorf("[Report] failed to load report settings: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load report settings")
	}

	page := settingsPage{
		Nav:             navItems("settings"),
		ItemsPerPage:    settings.ItemsPerPage,
		MaxItemsPerPage: models.MaxItemsPerPage,
		CSRFToken:       csrfToken(c),
	}
	if msg := flash.Get(c); msg != nil {
		page.FlashType, _ = msg["type"].(string)
		page.FlashMsg, _ = msg["message"].(string)
	}

	for _, rc := range report.Contexts() {
		reg, err := report.RegistryFor(rc)
		if err != nil {
			continue
		}
		page.Contexts = append(page.Contexts, settingsContextFor(reg, settings.ColumnsFor(string(rc))))
	}

	archives, err := sc.repos.Archive.Recent(c.UserContext(), recentArchiveLimit)
	if err != nil {
		log.Warnf("[Report] failed to read archive log: %v", err)
	}
	page.Archives = archives

	if sc.stats != nil {
		stats := sc.stats.Get()
		page.Stats = &stats
	}

	if sc.usage != nil {
		names := make([]string, 0, len(page.Contexts))
		for _, ctx := range page.Contexts {
			names = append(names, ctx.Name)
		}
		usage, err := sc.usage.Usage(c.UserContext(), names)
		if err != nil {
			log.Warnf("[Report] failed to read usage counters: %v", err)
		}
		page.Usage = usage
	}

	return c.Render("report_settings", page)
}

func settingsContextFor(reg *report.Registry, stored []string) settingsContext {
	checked := map[string]bool{}
	for _, key := range reg.Known(stored) {
		checked[key] = true
	}

	out := settingsContext{Name: string(reg.Context()), Label: reg.Context().Label()}
	for _, col := range reg.Columns() {
		out.Columns = append(out.Columns, settingsColumn{Key: col.Key, Label: col.Label, Checked: checked[col.Key]})
	}
	return out
}

// HandleSettingsUpdate stores the submitted settings
func (sc *SettingsController) HandleSettingsUpdate(c *fiber.Ctx) error {
	settings, err := sc.repos.Setting.GetReportSettings()
	if err != nil {
		return sc.flashError(c, "Failed to load report settings", err)
	}

	args := c.Request().PostArgs()
	for _, rc := range report.Contexts() {
		reg, err := report.RegistryFor(rc)
		if err != nil {
			continue
		}
		var submitted []string
		for _, v := range args.PeekMulti(string(rc) + "_columns") {
			submitted = append(submitted, string(v))
		}
		settings.SetColumns(string(rc), reg.Known(submitted))
	}

	itemsPerPage, err := strconv.Atoi(c.FormValue("items_per_page"))
	if err != nil || itemsPerPage < 1 {
		itemsPerPage = models.DefaultItemsPerPage
	}
	settings.ItemsPerPage = min(itemsPerPage, models.MaxItemsPerPage)

	if err := sc.repos.Setting.SaveReportSettings(settings); err != nil {
		return sc.flashError(c, "Failed to save report settings", err)
	}

	log.Infof("[Report] report settings updated, items_per_page=%d", settings.ItemsPerPage)
	fm := fiber.Map{
		"type":    "success",
		"message": "Report settings saved",
	}
	return flash.WithSuccess(c, fm).Redirect(settingsPath)
}

func (sc *SettingsController) flashError(c *fiber.Ctx, message string, err error) error {
	log.Errorf("[Report] %s: %v", message, err)
	fm := fiber.Map{
		"type":    "error",
		"message": message,
	}
	return flash.WithError(c, fm).Redirect(settingsPath)
}
