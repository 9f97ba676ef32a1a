package repository

import (
	"context"
	"errors"

	"github.com/ManuelReschke/PurchaseDesk/app/models"
	"gorm.io/gorm"
)

// catalogRepository implements the CatalogRepository interface
type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new catalog repository instance
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// ResolveCatalogEntry looks up a catalog entry; a missing row is not an error
func (r *catalogRepository) ResolveCatalogEntry(ctx context.Context, id uint) (*models.ProductCatalogEntry, error) {
	entry, err := models.FindCatalogEntryByID(r.db.WithContext(ctx), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *catalogRepository) GetByID(id uint) (*models.ProductCatalogEntry, error) {
	return models.FindCatalogEntryByID(r.db, id)
}

// List returns every catalog entry ordered by title
func (r *catalogRepository) List() ([]models.ProductCatalogEntry, error) {
	var entries []models.ProductCatalogEntry
	err := r.db.Order("title ASC, id ASC").Find(&entries).Error
	return entries, err
}

func (r *catalogRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.ProductCatalogEntry{}).Count(&count).Error
	return count, err
}
