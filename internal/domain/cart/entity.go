// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/your-org/storefront-backend/internal/domain/catalog"
)

// Cart is a user's single shopping cart
type Cart struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Items          []Item    `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	TotalAmount    int64     `gorm:"not null" json:"total_amount"`
	CouponID       *uint     `json:"coupon_id,omitempty"`
	CouponCode     string    `gorm:"size:20" json:"coupon_code"`
	DiscountAmount int64     `gorm:"not null" json:"discount_amount"`
	FinalAmount    int64     `gorm:"not null" json:"final_amount"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Item is one (product, size) line. Price is the unit price captured when the line was last priced.
type Item struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	CartID    uint             `gorm:"not null;uniqueIndex:idx_cart_item_line" json:"cart_id"`
	ProductID uint             `gorm:"not null;uniqueIndex:idx_cart_item_line" json:"product_id"`
	Size      string           `gorm:"not null;size:20;uniqueIndex:idx_cart_item_line" json:"size"`
	Quantity  int              `gorm:"not null" json:"quantity"`
	Price     int64            `gorm:"not null" json:"price"`
	Product   *catalog.Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// TableName overrides
func (Cart) TableName() string { return "carts" }
func (Item) TableName() string { return "cart_items" }

// Models lists the cart tables in migration order
func Models() []any {
	return []any{&Cart{}, &Item{}}
}

// Subtotal is the line's price times quantity
func (i *Item) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Recalculate derives the cart totals from its lines. The stored discount is clamped to the total.
func Recalculate(c *Cart) {
	var total int64
	for i := range c.Items {
		total += c.Items[i].Subtotal()
	}

	discount := c.DiscountAmount
	if discount < 0 {
		discount = 0
	}
	if discount > total {
		discount = total
	}

	c.TotalAmount = total
	c.DiscountAmount = discount
	c.FinalAmount = total - discount
}

// Issue is a reason a cart line cannot be checked out
type Issue struct {
	ItemID    uint   `json:"item_id"`
	ProductID uint   `json:"product_id"`
	Size      string `json:"size"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
	Available int    `json:"available,omitempty"`
}
