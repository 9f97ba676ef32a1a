package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Customer owns the purchase records a report aggregates over.
type Customer struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	Email     string           `gorm:"type:varchar(255);index;not null" json:"email" validate:"required,email,max=255"`
	Name      string           `gorm:"type:varchar(255)" json:"name" validate:"max=255"`
	Purchases []PurchaseRecord `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"purchases,omitempty"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Customer) Validate() error {
	v := validator.New()
	return v.Struct(c)
}

// DisplayName falls back to the e-mail address for customers without a name.
func (c *Customer) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Email
}

// FindCustomersWithPurchases loads every customer owning at least one record,
// records preloaded in purchase order.
func FindCustomersWithPurchases(db *gorm.DB) ([]Customer, error) {
	var customers []Customer
	err := db.
		Where("EXISTS (SELECT 1 FROM purchase_records pr WHERE pr.customer_id = customers.id)").
		Preload("Purchases", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("purchase_date ASC, id ASC")
		}).
		Order("id ASC").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}
