package repository

import (
	"github.com/ManuelReschke/PurchaseDesk/app/models"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/env"
	"gorm.io/gorm"
)

// settingRepository implements the SettingRepository interface
type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new setting repository instance
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// GetReportSettings loads the stored report settings over the defaults.
// REPORT_ITEMS_PER_PAGE replaces the built-in page size default.
func (r *settingRepository) GetReportSettings() (*models.ReportSettings, error) {
	defaults := models.DefaultReportSettings()
	if n := env.GetEnvInt("REPORT_ITEMS_PER_PAGE", 0); n > 0 && n <= models.MaxItemsPerPage {
		defaults.ItemsPerPage = n
	}
	return models.LoadReportSettings(r.db, defaults)
}

// SaveReportSettings validates and stores the report settings
func (r *settingRepository) SaveReportSettings(settings *models.ReportSettings) error {
	return models.SaveReportSettings(r.db, settings)
}
