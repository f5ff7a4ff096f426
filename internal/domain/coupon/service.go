// internal/domain/coupon/service.go
package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/pagination"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// Service handles coupon business logic
type Service struct {
	db  *gorm.DB
	log logrus.FieldLogger
	now func() time.Time
}

// NewService creates a new coupon service
func NewService(db *gorm.DB, log logrus.FieldLogger) *Service {
	return &Service{
		db:  db,
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// CouponCreateRequest represents coupon creation data
type CouponCreateRequest struct {
	Code            string          `json:"code" binding:"required,coupon_code"`
	Description     string          `json:"description" binding:"max=500"`
	DiscountType    DiscountType    `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	MinimumPurchase int64           `json:"minimum_purchase" binding:"gte=0"`
	MaxDiscount     *int64          `json:"max_discount" binding:"omitempty,gt=0"`
	StartDate       time.Time       `json:"start_date" binding:"required"`
	EndDate         time.Time       `json:"end_date" binding:"required"`
	MaxUses         *int            `json:"max_uses" binding:"omitempty,gte=1"`
	IsActive        *bool           `json:"is_active"`
}

// CouponUpdateRequest represents coupon update data
type CouponUpdateRequest struct {
	Description     *string          `json:"description" binding:"omitempty,max=500"`
	DiscountType    *DiscountType    `json:"discount_type" binding:"omitempty,oneof=percentage fixed"`
	DiscountAmount  *decimal.Decimal `json:"discount_amount"`
	MinimumPurchase *int64           `json:"minimum_purchase" binding:"omitempty,gte=0"`
	MaxDiscount     *int64           `json:"max_discount" binding:"omitempty,gte=0"`
	StartDate       *time.Time       `json:"start_date"`
	EndDate         *time.Time       `json:"end_date"`
	MaxUses         *int             `json:"max_uses" binding:"omitempty,gte=0"`
	IsActive        *bool            `json:"is_active"`
}

// CouponResponse represents coupon list response with pagination
type CouponResponse struct {
	Coupons    []Coupon              `json:"coupons"`
	Pagination pagination.Pagination `json:"pagination"`
}

// AvailableCoupon is a usable coupon annotated against the caller's cart
type AvailableCoupon struct {
	Coupon
	Eligible          bool  `json:"eligible"`
	EstimatedDiscount int64 `json:"estimated_discount"`
}

// Discount returns the reduction a coupon gives on total, never more than total
func Discount(c *Coupon, total int64) int64 {
	if total <= 0 || c.DiscountAmount.Sign() <= 0 {
		return 0
	}

	var discount int64
	switch c.DiscountType {
	case DiscountFixed:
		discount = c.DiscountAmount.Round(0).IntPart()
	default:
		discount = decimal.NewFromInt(total).Mul(c.DiscountAmount).Div(hundred).Round(0).IntPart()
		if c.MaxDiscount != nil && discount > *c.MaxDiscount {
			discount = *c.MaxDiscount
		}
	}

	if discount > total {
		return total
	}
	return discount
}

// NormalizeCode upper-cases and trims a coupon code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks that code can be applied to a cart of cartTotal and returns the discount it gives
func (s *Service) Validate(ctx context.Context, code string, cartTotal int64) (*Coupon, int64, error) {
	return ValidateWithin(s.db.WithContext(ctx), code, cartTotal, s.now())
}

// ValidateWithin is Validate on an existing transaction
func ValidateWithin(tx *gorm.DB, code string, cartTotal int64, now time.Time) (*Coupon, int64, error) {
	var c Coupon
	err := tx.Where("code = ? AND is_active = ?", NormalizeCode(code), true).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, apperror.NotFound("coupon not found").WithReason(apperror.ReasonCouponNotFound)
		}
		return nil, 0, fmt.Errorf("failed to load coupon: %w", err)
	}

	if !c.InWindow(now) {
		return nil, 0, apperror.Validation("coupon is not valid at this time").WithReason(apperror.ReasonCouponExpired)
	}
	if c.Exhausted() {
		return nil, 0, apperror.Validation("coupon usage limit reached").WithReason(apperror.ReasonCouponExhausted)
	}
	if cartTotal < c.MinimumPurchase {
		return nil, 0, apperror.Newf(apperror.CodeValidation, "minimum purchase of %d required", c.MinimumPurchase).
			WithReason(apperror.ReasonMinimumPurchaseNotMet).
			WithDetails(map[string]any{"required_minimum": c.MinimumPurchase})
	}

	return &c, Discount(&c, cartTotal), nil
}

// Consume records one use of the coupon. The increment only applies while uses remain.
func Consume(tx *gorm.DB, couponID uint) error {
	result := tx.Model(&Coupon{}).
		Where("id = ? AND (max_uses IS NULL OR used_count < max_uses)", couponID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to consume coupon: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.Validation("coupon usage limit reached").WithReason(apperror.ReasonCouponExhausted)
	}
	return nil
}

// ListAvailable returns coupons a customer can currently use, marked against cartTotal
func (s *Service) ListAvailable(ctx context.Context, cartTotal int64) ([]AvailableCoupon, error) {
	now := s.now()

	var coupons []Coupon
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, now, now).
		Where("(max_uses IS NULL OR used_count < max_uses)").
		Order("minimum_purchase ASC, id ASC").
		Find(&coupons).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve coupons: %w", err)
	}

	available := make([]AvailableCoupon, len(coupons))
	for i := range coupons {
		eligible := cartTotal >= coupons[i].MinimumPurchase
		available[i] = AvailableCoupon{Coupon: coupons[i], Eligible: eligible}
		if eligible {
			available[i].EstimatedDiscount = Discount(&coupons[i], cartTotal)
		}
	}
	return available, nil
}

// ListCoupons retrieves every coupon for administration
func (s *Service) ListCoupons(ctx context.Context, page, limit int) (*CouponResponse, error) {
	page, limit = pagination.Normalize(page, limit)

	var total int64
	if err := s.db.WithContext(ctx).Model(&Coupon{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count coupons: %w", err)
	}

	var coupons []Coupon
	if err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Offset(pagination.Offset(page, limit)).
		Limit(limit).
		Find(&coupons).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve coupons: %w", err)
	}

	return &CouponResponse{Coupons: coupons, Pagination: pagination.New(page, limit, total)}, nil
}

// GetCoupon retrieves a single coupon
func (s *Service) GetCoupon(ctx context.Context, id uint) (*Coupon, error) {
	var c Coupon
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("coupon not found").WithReason(apperror.ReasonCouponNotFound)
		}
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}
	return &c, nil
}

// CreateCoupon creates a coupon with an upper-cased unique code
func (s *Service) CreateCoupon(ctx context.Context, req *CouponCreateRequest) (*Coupon, error) {
	c := Coupon{
		Code:            NormalizeCode(req.Code),
		Description:     strings.TrimSpace(req.Description),
		DiscountType:    req.DiscountType,
		DiscountAmount:  req.DiscountAmount,
		MinimumPurchase: req.MinimumPurchase,
		MaxDiscount:     req.MaxDiscount,
		StartDate:       req.StartDate.UTC(),
		EndDate:         req.EndDate.UTC(),
		MaxUses:         req.MaxUses,
		IsActive:        true,
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if err := validateCoupon(&c); err != nil {
		return nil, err
	}

	var existing int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&Coupon{}).Where("code = ?", c.Code).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check coupon code: %w", err)
	}
	if existing > 0 {
		return nil, apperror.Newf(apperror.CodeConflict, "coupon %s already exists", c.Code)
	}

	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Newf(apperror.CodeConflict, "coupon %s already exists", c.Code)
		}
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	s.log.WithFields(logrus.Fields{"coupon_id": c.ID, "code": c.Code}).Info("coupon created")
	return &c, nil
}

// UpdateCoupon updates coupon terms. A zero MaxUses or MaxDiscount removes the limit.
func (s *Service) UpdateCoupon(ctx context.Context, id uint, req *CouponUpdateRequest) (*Coupon, error) {
	var c Coupon

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("coupon not found").WithReason(apperror.ReasonCouponNotFound)
			}
			return fmt.Errorf("failed to load coupon: %w", err)
		}

		if req.Description != nil {
			c.Description = strings.TrimSpace(*req.Description)
		}
		if req.DiscountType != nil {
			c.DiscountType = *req.DiscountType
		}
		if req.DiscountAmount != nil {
			c.DiscountAmount = *req.DiscountAmount
		}
		if req.MinimumPurchase != nil {
			c.MinimumPurchase = *req.MinimumPurchase
		}
		if req.MaxDiscount != nil {
			c.MaxDiscount = req.MaxDiscount
			if *req.MaxDiscount == 0 {
				c.MaxDiscount = nil
			}
		}
		if req.StartDate != nil {
			c.StartDate = req.StartDate.UTC()
		}
		if req.EndDate != nil {
			c.EndDate = req.EndDate.UTC()
		}
		if req.MaxUses != nil {
			c.MaxUses = req.MaxUses
			if *req.MaxUses == 0 {
				c.MaxUses = nil
			}
		}
		if req.IsActive != nil {
			c.IsActive = *req.IsActive
		}

		if err := validateCoupon(&c); err != nil {
			return err
		}
		if c.MaxUses != nil && *c.MaxUses < c.UsedCount {
			return apperror.Newf(apperror.CodeValidation, "max uses cannot be below the %d uses already consumed", c.UsedCount)
		}

		if err := tx.Save(&c).Error; err != nil {
			return fmt.Errorf("failed to update coupon: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCoupon soft deletes a coupon. Carts and orders keep the code they captured.
func (s *Service) DeleteCoupon(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Coupon{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete coupon: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("coupon not found").WithReason(apperror.ReasonCouponNotFound)
	}

	s.log.WithField("coupon_id", id).Info("coupon deleted")
	return nil
}

func validateCoupon(c *Coupon) error {
	if len(c.Code) < 3 || len(c.Code) > 20 {
		return apperror.Validation("coupon code must be 3 to 20 characters")
	}
	if !c.StartDate.Before(c.EndDate) {
		return apperror.Validation("coupon start date must be before end date")
	}
	if c.MinimumPurchase < 0 {
		return apperror.Validation("minimum purchase cannot be negative")
	}
	if c.MaxUses != nil && *c.MaxUses < 1 {
		return apperror.Validation("max uses must be at least 1")
	}

	switch c.DiscountType {
	case DiscountPercentage:
		if c.DiscountAmount.Sign() <= 0 || c.DiscountAmount.GreaterThan(hundred) {
			return apperror.Validation("percentage discount must be between 0 and 100")
		}
		if c.MaxDiscount != nil && *c.MaxDiscount <= 0 {
			return apperror.Validation("max discount must be positive")
		}
	case DiscountFixed:
		if c.DiscountAmount.Sign() <= 0 {
			return apperror.Validation("fixed discount must be positive")
		}
	default:
		return apperror.Validation("discount type must be percentage or fixed")
	}
	return nil
}
