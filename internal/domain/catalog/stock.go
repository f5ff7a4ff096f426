// internal/domain/catalog/stock.go
package catalog

import (
	"fmt"

	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// StockLine is a quantity of one product variant
type StockLine struct {
	ProductID uint
	Size      string
	Quantity  int
}

// ReserveStock decrements stock for every line inside tx. A line whose variant
// is missing or short fails the whole reservation; the caller's rollback undoes
// the lines already applied.
func ReserveStock(tx *gorm.DB, lines []StockLine) error {
	for _, line := range lines {
		if line.Quantity <= 0 {
			return apperror.Validation("quantity must be at least 1").WithReason(apperror.ReasonQuantityExceeded)
		}

		result := tx.Model(&Variant{}).
			Where("product_id = ? AND size = ? AND stock >= ?", line.ProductID, line.Size, line.Quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", line.Quantity))
		if result.Error != nil {
			return fmt.Errorf("failed to reserve stock: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.Newf(apperror.CodeInsufficientStock, "insufficient stock for product %d size %s", line.ProductID, line.Size).
				WithReason(apperror.ReasonOutOfStock).
				WithDetails(map[string]any{"product_id": line.ProductID, "size": line.Size, "requested": line.Quantity})
		}
	}
	return nil
}

// ReleaseStock returns reserved quantities to their variants. Variants that no
// longer exist are skipped.
func ReleaseStock(tx *gorm.DB, lines []StockLine) error {
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		err := tx.Model(&Variant{}).
			Where("product_id = ? AND size = ?", line.ProductID, line.Size).
			UpdateColumn("stock", gorm.Expr("stock + ?", line.Quantity)).Error
		if err != nil {
			return fmt.Errorf("failed to release stock: %w", err)
		}
	}
	return nil
}
