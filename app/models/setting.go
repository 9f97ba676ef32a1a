package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	DefaultItemsPerPage = 25
	MaxItemsPerPage     = 500
)

// Setting represents a system setting
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, integer, list
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReportSettings holds the admin's column selection per report context and
// the page size. An empty column list means "use the context defaults".
type ReportSettings struct {
	PurchasesColumns []string `json:"purchases_columns" validate:"dive,min=1,max=64"`
	ProductsColumns  []string `json:"products_columns" validate:"dive,min=1,max=64"`
	CustomersColumns []string `json:"customers_columns" validate:"dive,min=1,max=64"`
	ItemsPerPage     int      `json:"items_per_page" validate:"min=1,max=500"`
}

const (
	settingPurchasesColumns = "report_purchases_columns"
	settingProductsColumns  = "report_products_columns"
	settingCustomersColumns = "report_customers_columns"
	settingItemsPerPage     = "report_items_per_page"
)

// DefaultReportSettings is what a fresh installation reports with.
func DefaultReportSettings() *ReportSettings {
	return &ReportSettings{ItemsPerPage: DefaultItemsPerPage}
}

// ColumnsFor returns the stored selection for a context name.
func (s *ReportSettings) ColumnsFor(context string) []string {
	switch context {
	case "purchases":
		return s.PurchasesColumns
	case "products":
		return s.ProductsColumns
	case "customers":
		return s.CustomersColumns
	}
	return nil
}

// SetColumns replaces the stored selection for a context name.
func (s *ReportSettings) SetColumns(context string, columns []string) {
	switch context {
	case "purchases":
		s.PurchasesColumns = columns
	case "products":
		s.ProductsColumns = columns
	case "customers":
		s.CustomersColumns = columns
	}
}

// Validate validates the settings
func (s *ReportSettings) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

func (s *ReportSettings) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// LoadReportSettings reads the settings rows over defaults. A nil defaults
// means DefaultReportSettings.
func LoadReportSettings(db *gorm.DB, defaults *ReportSettings) (*ReportSettings, error) {
	settings := DefaultReportSettings()
	if defaults != nil {
		copied := *defaults
		settings = &copied
	}

	var rows []Setting
	if err := db.Where("setting_key IN ?", []string{
		settingPurchasesColumns, settingProductsColumns, settingCustomersColumns, settingItemsPerPage,
	}).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load report settings: %w", err)
	}

	for _, row := range rows {
		switch row.Key {
		case settingPurchasesColumns:
			settings.PurchasesColumns = splitList(row.Value)
		case settingProductsColumns:
			settings.ProductsColumns = splitList(row.Value)
		case settingCustomersColumns:
			settings.CustomersColumns = splitList(row.Value)
		case settingItemsPerPage:
			if n, err := strconv.Atoi(row.Value); err == nil && n > 0 && n <= MaxItemsPerPage {
				settings.ItemsPerPage = n
			}
		}
	}

	return settings, nil
}

// SaveReportSettings validates and upserts every settings row.
func SaveReportSettings(db *gorm.DB, settings *ReportSettings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	values := []Setting{
		{Key: settingPurchasesColumns, Value: strings.Join(settings.PurchasesColumns, ","), Type: "list"},
		{Key: settingProductsColumns, Value: strings.Join(settings.ProductsColumns, ","), Type: "list"},
		{Key: settingCustomersColumns, Value: strings.Join(settings.CustomersColumns, ","), Type: "list"},
		{Key: settingItemsPerPage, Value: strconv.Itoa(settings.ItemsPerPage), Type: "integer"},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, value := range values {
			var setting Setting
			err := tx.Where("setting_key = ?", value.Key).First(&setting).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := tx.Create(&value).Error; err != nil {
					return fmt.Errorf("failed to create setting %s: %w", value.Key, err)
				}
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to query setting %s: %w", value.Key, err)
			}

			setting.Value = value.Value
			if err := tx.Save(&setting).Error; err != nil {
				return fmt.Errorf("failed to update setting %s: %w", value.Key, err)
			}
		}
		return nil
	})
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
