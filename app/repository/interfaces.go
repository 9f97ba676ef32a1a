package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/PurchaseDesk/app/models"
	"gorm.io/gorm"
)

// CustomerRepository defines the read side the reports work on
type CustomerRepository interface {
	FindCustomersWithPurchases(ctx context.Context) ([]models.Customer, error)
	Count() (int64, error)
	CountPurchaseRecords() (int64, error)
}

// CatalogRepository defines the interface for product catalog lookups
type CatalogRepository interface {
	// ResolveCatalogEntry returns (nil, nil) for an unknown id.
	ResolveCatalogEntry(ctx context.Context, id uint) (*models.ProductCatalogEntry, error)
	GetByID(id uint) (*models.ProductCatalogEntry, error)
	List() ([]models.ProductCatalogEntry, error)
	Count() (int64, error)
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	GetReportSettings() (*models.ReportSettings, error)
	SaveReportSettings(settings *models.ReportSettings) error
}

// ArchiveRepository keeps a short log of exports pushed to object storage
type ArchiveRepository interface {
	Record(ctx context.Context, entry ArchiveEntry) error
	Recent(ctx context.Context, limit int64) ([]ArchiveEntry, error)
}

// ArchiveEntry describes one archived export
type ArchiveEntry struct {
	Key       string    `json:"key"`
	Context   string    `json:"context"`
	Format    string    `json:"format"`
	Rows      int       `json:"rows"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Repositories struct holds all repository instances
type Repositories struct {
	Customer CustomerRepository
	Catalog  CatalogRepository
	Setting  SettingRepository
	Archive  ArchiveRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Customer: NewCustomerRepository(db),
		Catalog:  NewCatalogRepository(db),
		Setting:  NewSettingRepository(db),
		Archive:  NewArchiveRepository(),
	}
}
