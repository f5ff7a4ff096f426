// internal/domain/catalog/entity.go
package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DiscountType selects how an offer's discount value is applied
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// OfferTarget is the kind of record an offer is attached to
type OfferTarget string

const (
	OfferTargetProduct  OfferTarget = "product"
	OfferTargetCategory OfferTarget = "category"
)

// Category represents product categories
type Category struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"not null;size:100" json:"name"`
	NormalizedName string    `gorm:"not null;size:100;index" json:"-"`
	Description    string    `gorm:"size:500" json:"description"`
	IsActive       bool      `gorm:"not null" json:"is_active"`
	IsDeleted      bool      `gorm:"not null;index" json:"is_deleted"`
	CurrentOfferID *uint     `gorm:"index" json:"current_offer_id"`
	CurrentOffer   *Offer    `gorm:"foreignKey:CurrentOfferID" json:"current_offer,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Product represents a sellable item. SalePrice is derived, never written by callers.
type Product struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"not null;size:255" json:"name"`
	Description    string    `gorm:"type:text" json:"description"`
	CategoryID     uint      `gorm:"not null;index" json:"category_id"`
	Category       *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	OriginalPrice  int64     `gorm:"not null" json:"original_price"`
	SalePrice      int64     `gorm:"not null" json:"sale_price"`
	CurrentOfferID *uint     `gorm:"index" json:"current_offer_id"`
	CurrentOffer   *Offer    `gorm:"foreignKey:CurrentOfferID" json:"current_offer,omitempty"`
	IsListed       bool      `gorm:"not null;index" json:"is_listed"`
	IsDeleted      bool      `gorm:"not null;index" json:"is_deleted"`
	Variants       []Variant `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"variants"`
	Images         []Image   `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"images,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Variant is a (size, color) stock-keeping unit within a product
type Variant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_variant_product_size" json:"product_id"`
	Size      string    `gorm:"not null;size:20;uniqueIndex:idx_variant_product_size" json:"size"`
	Color     string    `gorm:"size:50" json:"color"`
	Stock     int       `gorm:"not null" json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Image is a stored product picture
type Image struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	ObjectID  string    `gorm:"not null;size:64" json:"object_id"`
	URL       string    `gorm:"not null;size:500" json:"url"`
	SortOrder int       `gorm:"not null" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// Offer is a discount rule attached to exactly one product or one category
type Offer struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"not null;size:255" json:"name"`
	Description    string          `gorm:"size:500" json:"description"`
	DiscountType   DiscountType    `gorm:"not null;size:20" json:"discount_type"`
	DiscountValue  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount_value"`
	ApplicableType OfferTarget     `gorm:"not null;size:20;index:idx_offer_target" json:"applicable_type"`
	ApplicableID   uint            `gorm:"not null;index:idx_offer_target" json:"applicable_id"`
	StartDate      time.Time       `gorm:"not null" json:"start_date"`
	EndDate        time.Time       `gorm:"not null" json:"end_date"`
	IsActive       bool            `gorm:"not null" json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName overrides
func (Category) TableName() string { return "categories" }
func (Product) TableName() string  { return "products" }
func (Variant) TableName() string  { return "product_variants" }
func (Image) TableName() string    { return "product_images" }
func (Offer) TableName() string    { return "offers" }

// Models lists the catalog tables in migration order
func Models() []any {
	return []any{&Offer{}, &Category{}, &Product{}, &Variant{}, &Image{}}
}

// InEffect reports whether the offer applies at now
func (o *Offer) InEffect(now time.Time) bool {
	if o == nil || !o.IsActive {
		return false
	}
	return !now.Before(o.StartDate) && !now.After(o.EndDate)
}

// VariantBySize returns the variant with the given size, if any
func (p *Product) VariantBySize(size string) *Variant {
	for i := range p.Variants {
		if strings.EqualFold(p.Variants[i].Size, size) {
			return &p.Variants[i]
		}
	}
	return nil
}

// IsPurchasable reports whether customers may see and buy the product
func (p *Product) IsPurchasable() bool {
	if !p.IsListed || p.IsDeleted {
		return false
	}
	if p.Category != nil && (!p.Category.IsActive || p.Category.IsDeleted) {
		return false
	}
	return true
}

// UnitPrice is the price a cart line captures
func (p *Product) UnitPrice() int64 {
	if p.SalePrice > 0 {
		return p.SalePrice
	}
	return p.OriginalPrice
}

// TotalStock sums stock over all variants
func (p *Product) TotalStock() int {
	total := 0
	for _, v := range p.Variants {
		total += v.Stock
	}
	return total
}

// normalizeName folds case and collapses whitespace for uniqueness checks
func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
