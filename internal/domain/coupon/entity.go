// internal/domain/coupon/entity.go
package coupon

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DiscountType selects how DiscountAmount is read
type DiscountType string

const (
	// DiscountPercentage reads DiscountAmount as a percentage of the cart total
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed reads DiscountAmount as minor currency units
	DiscountFixed DiscountType = "fixed"
)

// Coupon represents a discount code
type Coupon struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Code            string          `gorm:"uniqueIndex;not null;size:20" json:"code"`
	Description     string          `gorm:"size:500" json:"description"`
	DiscountType    DiscountType    `gorm:"not null;size:20" json:"discount_type"`
	DiscountAmount  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount_amount"`
	MinimumPurchase int64           `gorm:"not null" json:"minimum_purchase"`
	MaxDiscount     *int64          `json:"max_discount"`
	StartDate       time.Time       `gorm:"not null" json:"start_date"`
	EndDate         time.Time       `gorm:"not null" json:"end_date"`
	MaxUses         *int            `json:"max_uses"`
	UsedCount       int             `gorm:"not null" json:"used_count"`
	IsActive        bool            `gorm:"not null;index" json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Coupon) TableName() string {
	return "coupons"
}

// Exhausted reports whether every allowed use has been consumed
func (c *Coupon) Exhausted() bool {
	return c.MaxUses != nil && c.UsedCount >= *c.MaxUses
}

// InWindow reports whether now falls inside the coupon's validity window
func (c *Coupon) InWindow(now time.Time) bool {
	return !now.Before(c.StartDate) && !now.After(c.EndDate)
}
