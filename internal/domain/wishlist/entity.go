package wishlist

import (
	"time"
)

// Item is a product a user saved for later
type Item struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_product;index" json:"product_id"`
	AddedAt   time.Time `gorm:"not null" json:"added_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name
func (Item) TableName() string {
	return "wishlist_items"
}

// Models lists the wishlist tables
func Models() []any {
	return []any{&Item{}}
}
