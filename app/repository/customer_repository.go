package repository

import (
	"context"

	"github.com/ManuelReschke/PurchaseDesk/app/models"
	"gorm.io/gorm"
)

// customerRepository implements the CustomerRepository interface
type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository instance
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// FindCustomersWithPurchases loads every customer owning at least one
// purchase record, records preloaded
func (r *customerRepository) FindCustomersWithPurchases(ctx context.Context) ([]models.Customer, error) {
	return models.FindCustomersWithPurchases(r.db.WithContext(ctx))
}

func (r *customerRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Customer{}).Count(&count).Error
	return count, err
}

func (r *customerRepository) CountPurchaseRecords() (int64, error) {
	var count int64
	err := r.db.Model(&models.PurchaseRecord{}).Count(&count).Error
	return count, err
}
