package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/meta"
)

// Well-known metadata keys.
const (
	MetaStripeSession = "stripe_session"
	MetaProductIDs    = "product_ids"
	MetaRenewals      = "renewals"
	MetaPeriodEndMap  = "period_end_map"
)

// PurchaseRecord is one checkout of a customer. Meta holds the loosely
// structured payment session payload plus renewal bookkeeping.
type PurchaseRecord struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CustomerID    uint           `gorm:"index;not null" json:"customer_id"`
	PurchaseDate  int64          `gorm:"index;not null" json:"purchase_date"` // unix seconds
	PurchaseLines string         `gorm:"type:text" json:"purchase_lines"`
	Meta          datatypes.JSON `gorm:"type:json" json:"meta"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// Metadata decodes Meta. An empty column decodes to null.
func (p *PurchaseRecord) Metadata() (meta.Value, error) {
	return meta.Parse(p.Meta)
}
