// internal/domain/catalog/reprice.go
package catalog

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// repriceProduct recomputes one product's sale price from its own offer and its category's offer
func repriceProduct(tx *gorm.DB, productID uint, now time.Time) error {
	var product Product
	err := tx.Preload("CurrentOffer").
		Preload("Category.CurrentOffer").
		First(&product, productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load product for repricing: %w", err)
	}

	price := SalePriceFor(&product, now)
	if price == product.SalePrice {
		return nil
	}
	if err := tx.Model(&Product{}).Where("id = ?", productID).Update("sale_price", price).Error; err != nil {
		return fmt.Errorf("failed to update sale price: %w", err)
	}
	return nil
}

// repriceCategory reprices every non-deleted product in the category
func repriceCategory(tx *gorm.DB, categoryID uint, now time.Time) error {
	var ids []uint
	if err := tx.Model(&Product{}).
		Where("category_id = ? AND is_deleted = ?", categoryID, false).
		Pluck("id", &ids).Error; err != nil {
		return fmt.Errorf("failed to list category products: %w", err)
	}

	for _, id := range ids {
		if err := repriceProduct(tx, id, now); err != nil {
			return err
		}
	}
	return nil
}

// repriceTarget reprices whatever an offer is attached to
func repriceTarget(tx *gorm.DB, target OfferTarget, targetID uint, now time.Time) error {
	if target == OfferTargetCategory {
		return repriceCategory(tx, targetID, now)
	}
	return repriceProduct(tx, targetID, now)
}
