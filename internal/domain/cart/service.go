// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles cart business logic
type Service struct {
	db          *gorm.DB
	log         logrus.FieldLogger
	metrics     *metrics.Metrics
	maxQuantity int
	now         func() time.Time
}

// NewService creates a new cart service. maxQuantity caps every line.
func NewService(db *gorm.DB, log logrus.FieldLogger, m *metrics.Metrics, maxQuantity int) *Service {
	if maxQuantity < 1 {
		maxQuantity = 5
	}
	return &Service{
		db:          db,
		log:         log,
		metrics:     m,
		maxQuantity: maxQuantity,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Size      string `json:"size" binding:"required,size"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// ApplyCouponRequest represents apply coupon request
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// GetCart retrieves the user's cart with product details, creating it on first access
func (s *Service) GetCart(ctx context.Context, userID uint) (*Cart, error) {
	db := s.db.WithContext(ctx)
	c, err := ensureCart(db, userID)
	if err != nil {
		return nil, err
	}
	return loadCart(db, c.ID, true)
}

// AddItem adds quantity of a product size, merging with an existing line
func (s *Service) AddItem(ctx context.Context, userID uint, req *AddToCartRequest) (*Cart, error) {
	if req.Quantity < 1 {
		return nil, apperror.Validation("quantity must be at least 1")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := ensureCart(tx, userID)
		if err != nil {
			return err
		}

		product, variant, err := s.purchasableVariant(tx, req.ProductID, req.Size)
		if err != nil {
			return err
		}

		var existing Item
		err = tx.Where("cart_id = ? AND product_id = ? AND size = ?", c.ID, product.ID, variant.Size).First(&existing).Error
		switch {
		case err == nil:
			quantity := existing.Quantity + req.Quantity
			if err := s.checkQuantity(variant, quantity); err != nil {
				return err
			}
			if err := tx.Model(&existing).Updates(map[string]interface{}{
				"quantity": quantity,
				"price":    product.UnitPrice(),
			}).Error; err != nil {
				return fmt.Errorf("failed to update cart item: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := s.checkQuantity(variant, req.Quantity); err != nil {
				return err
			}
			item := Item{
				CartID:    c.ID,
				ProductID: product.ID,
				Size:      variant.Size,
				Quantity:  req.Quantity,
				Price:     product.UnitPrice(),
			}
			if err := tx.Omit(clause.Associations).Create(&item).Error; err != nil {
				return fmt.Errorf("failed to add cart item: %w", err)
			}
		default:
			return fmt.Errorf("failed to load cart item: %w", err)
		}

		return refreshTotals(tx, c.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// UpdateQuantity sets a line's quantity
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID uint, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, apperror.Validation("quantity must be at least 1")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := findItem(tx, userID, itemID)
		if err != nil {
			return err
		}

		product, variant, err := s.purchasableVariant(tx, item.ProductID, item.Size)
		if err != nil {
			return err
		}
		if err := s.checkQuantity(variant, quantity); err != nil {
			return err
		}

		if err := tx.Model(item).Updates(map[string]interface{}{
			"quantity": quantity,
			"price":    product.UnitPrice(),
		}).Error; err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}
		return refreshTotals(tx, item.CartID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// RemoveItem deletes a line from the cart
func (s *Service) RemoveItem(ctx context.Context, userID, itemID uint) (*Cart, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := findItem(tx, userID, itemID)
		if err != nil {
			return err
		}
		if err := tx.Delete(item).Error; err != nil {
			return fmt.Errorf("failed to remove cart item: %w", err)
		}
		return refreshTotals(tx, item.CartID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// ApplyCoupon validates code against the cart total, stores its discount and
// consumes one use. Re-applying the code already on the cart changes nothing.
func (s *Service) ApplyCoupon(ctx context.Context, userID uint, code string) (*Cart, error) {
	normalized := coupon.NormalizeCode(code)
	if normalized == "" {
		return nil, apperror.Validation("coupon code is required")
	}

	consumed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := ensureCart(tx, userID)
		if err != nil {
			return err
		}
		c, err = loadCart(tx, c.ID, false)
		if err != nil {
			return err
		}
		if c.IsEmpty() {
			return apperror.Validation("cart is empty").WithReason(apperror.ReasonEmptyCart)
		}
		if c.CouponCode == normalized {
			return nil
		}

		applied, discount, err := coupon.ValidateWithin(tx, normalized, c.TotalAmount, s.now())
		if err != nil {
			return err
		}
		if err := coupon.Consume(tx, applied.ID); err != nil {
			return err
		}
		consumed = true

		c.CouponID = &applied.ID
		c.CouponCode = applied.Code
		c.DiscountAmount = discount
		Recalculate(c)
		return saveTotals(tx, c)
	})
	if err != nil {
		return nil, err
	}

	if consumed {
		s.metrics.CouponConsumed()
		s.log.WithFields(logrus.Fields{"user_id": userID, "coupon_code": normalized}).Info("coupon applied to cart")
	}
	return s.GetCart(ctx, userID)
}

// RemoveCoupon clears the cart's coupon. The coupon's usage count is left as is.
func (s *Service) RemoveCoupon(ctx context.Context, userID uint) (*Cart, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := ensureCart(tx, userID)
		if err != nil {
			return err
		}
		c, err = loadCart(tx, c.ID, false)
		if err != nil {
			return err
		}

		c.CouponID = nil
		c.CouponCode = ""
		c.DiscountAmount = 0
		Recalculate(c)
		return saveTotals(tx, c)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// ClearWithin empties the cart and resets its totals and coupon inside the caller's transaction
func (s *Service) ClearWithin(tx *gorm.DB, userID uint) error {
	var c Cart
	if err := tx.Where("user_id = ?", userID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load cart: %w", err)
	}

	if err := tx.Where("cart_id = ?", c.ID).Delete(&Item{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}
	c.Items = nil
	c.CouponID = nil
	c.CouponCode = ""
	c.DiscountAmount = 0
	Recalculate(&c)
	return saveTotals(tx, &c)
}

// ValidateItems reports every line that cannot be checked out as it stands
func (s *Service) ValidateItems(ctx context.Context, userID uint) ([]Issue, error) {
	c, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	issues := make([]Issue, 0)
	db := s.db.WithContext(ctx)
	now := s.now()
	for _, item := range c.Items {
		issue := Issue{ItemID: item.ID, ProductID: item.ProductID, Size: item.Size}

		product, err := catalog.FindPurchasable(db, item.ProductID, now)
		if err != nil {
			typed := apperror.As(err)
			if typed == nil {
				return nil, err
			}
			issue.Reason = string(typed.Reason())
			issue.Message = typed.Message()
			issues = append(issues, issue)
			continue
		}

		variant := product.VariantBySize(item.Size)
		switch {
		case variant == nil:
			issue.Reason = string(apperror.ReasonSizeUnavailable)
			issue.Message = fmt.Sprintf("size %s is no longer available", item.Size)
		case variant.Stock < item.Quantity:
			issue.Reason = string(apperror.CodeInsufficientStock)
			issue.Message = fmt.Sprintf("only %d left in size %s", variant.Stock, item.Size)
			issue.Available = variant.Stock
		default:
			continue
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

func (s *Service) purchasableVariant(tx *gorm.DB, productID uint, size string) (*catalog.Product, *catalog.Variant, error) {
	product, err := catalog.FindPurchasable(tx, productID, s.now())
	if err != nil {
		return nil, nil, err
	}

	variant := product.VariantBySize(strings.TrimSpace(size))
	if variant == nil {
		return nil, nil, apperror.Newf(apperror.CodeInsufficientStock, "size %s is not available", size).
			WithReason(apperror.ReasonSizeUnavailable)
	}
	return product, variant, nil
}

// checkQuantity enforces the per-line cap and the variant's stock
func (s *Service) checkQuantity(variant *catalog.Variant, quantity int) error {
	if quantity > s.maxQuantity {
		return apperror.Newf(apperror.CodeInsufficientStock, "at most %d units per item", s.maxQuantity).
			WithReason(apperror.ReasonQuantityExceeded).
			WithDetails(map[string]any{"max_quantity": s.maxQuantity})
	}
	if quantity > variant.Stock {
		return apperror.Newf(apperror.CodeInsufficientStock, "only %d left in size %s", variant.Stock, variant.Size).
			WithReason(apperror.ReasonOutOfStock).
			WithDetails(map[string]any{"available": variant.Stock})
	}
	return nil
}

func ensureCart(tx *gorm.DB, userID uint) (*Cart, error) {
	var c Cart
	err := tx.Where("user_id = ?", userID).First(&c).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&Cart{UserID: userID}).Error; err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	if err := tx.Where("user_id = ?", userID).First(&c).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &c, nil
}

func loadCart(tx *gorm.DB, cartID uint, withProducts bool) (*Cart, error) {
	var c Cart
	query := tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
	if withProducts {
		query = query.Preload("Items.Product").Preload("Items.Product.Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		})
	}
	if err := query.First(&c, cartID).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &c, nil
}

func findItem(tx *gorm.DB, userID, itemID uint) (*Item, error) {
	var item Item
	err := tx.Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("cart item not found")
		}
		return nil, fmt.Errorf("failed to load cart item: %w", err)
	}
	return &item, nil
}

// refreshTotals re-derives the cart totals after its lines changed. A coupon
// whose minimum purchase is no longer met is dropped; otherwise its discount is
// recomputed against the new total.
func refreshTotals(tx *gorm.DB, cartID uint) error {
	c, err := loadCart(tx, cartID, false)
	if err != nil {
		return err
	}

	if c.CouponID != nil {
		var applied coupon.Coupon
		err := tx.Unscoped().First(&applied, *c.CouponID).Error
		switch {
		case err == nil:
			var total int64
			for i := range c.Items {
				total += c.Items[i].Subtotal()
			}
			if total < applied.MinimumPurchase || total == 0 {
				c.CouponID = nil
				c.CouponCode = ""
				c.DiscountAmount = 0
			} else {
				c.DiscountAmount = coupon.Discount(&applied, total)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return fmt.Errorf("failed to load cart coupon: %w", err)
		}
	}

	Recalculate(c)
	return saveTotals(tx, c)
}

func saveTotals(tx *gorm.DB, c *Cart) error {
	err := tx.Model(&Cart{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"total_amount":    c.TotalAmount,
		"coupon_id":       c.CouponID,
		"coupon_code":     c.CouponCode,
		"discount_amount": c.DiscountAmount,
		"final_amount":    c.FinalAmount,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update cart totals: %w", err)
	}
	return nil
}
