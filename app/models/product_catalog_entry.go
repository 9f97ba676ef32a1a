package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ProductCatalogEntry is a product known to the shop. StripeProductID links
// it to checkout line items.
type ProductCatalogEntry struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=1,max=255"`
	StripeProductID string    `gorm:"type:varchar(255);index" json:"stripe_product_id" validate:"max=255"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ProductCatalogEntry) TableName() string {
	return "product_catalog"
}

func (p *ProductCatalogEntry) Validate() error {
	v := validator.New()
	return v.Struct(p)
}

func FindCatalogEntryByID(db *gorm.DB, id uint) (*ProductCatalogEntry, error) {
	var entry ProductCatalogEntry
	err := db.First(&entry, id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
