// internal/domain/catalog/offer_service.go
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/pagination"
	"gorm.io/gorm"
)

// OfferService manages product and category offers and keeps sale prices in step with them
type OfferService struct {
	db  *gorm.DB
	log logrus.FieldLogger
	now func() time.Time
}

// NewOfferService creates a new offer service
func NewOfferService(db *gorm.DB, log logrus.FieldLogger) *OfferService {
	return &OfferService{
		db:  db,
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// OfferCreateRequest represents offer creation data
type OfferCreateRequest struct {
	Name           string          `json:"name" binding:"required,max=255"`
	Description    string          `json:"description" binding:"max=500"`
	DiscountType   DiscountType    `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	ApplicableType OfferTarget     `json:"applicable_type" binding:"required,oneof=product category"`
	ApplicableID   uint            `json:"applicable_id" binding:"required"`
	StartDate      time.Time       `json:"start_date" binding:"required"`
	EndDate        time.Time       `json:"end_date" binding:"required"`
	IsActive       *bool           `json:"is_active"`
}

// OfferUpdateRequest represents offer update data. The target cannot change.
type OfferUpdateRequest struct {
	Name          *string          `json:"name" binding:"omitempty,max=255"`
	Description   *string          `json:"description" binding:"omitempty,max=500"`
	DiscountType  *DiscountType    `json:"discount_type" binding:"omitempty,oneof=percentage fixed"`
	DiscountValue *decimal.Decimal `json:"discount_value"`
	StartDate     *time.Time       `json:"start_date"`
	EndDate       *time.Time       `json:"end_date"`
	IsActive      *bool            `json:"is_active"`
}

// OfferListRequest represents offer list query parameters
type OfferListRequest struct {
	Page           int         `form:"page,default=1"`
	Limit          int         `form:"limit,default=20"`
	ApplicableType OfferTarget `form:"applicable_type"`
	ActiveOnly     bool        `form:"active_only"`
}

// OfferResponse represents offer list response with pagination
type OfferResponse struct {
	Offers     []Offer               `json:"offers"`
	Pagination pagination.Pagination `json:"pagination"`
}

// ListOffers retrieves offers newest first
func (s *OfferService) ListOffers(ctx context.Context, req *OfferListRequest) (*OfferResponse, error) {
	page, limit := pagination.Normalize(req.Page, req.Limit)

	query := s.db.WithContext(ctx).Model(&Offer{})
	if req.ApplicableType != "" {
		query = query.Where("applicable_type = ?", req.ApplicableType)
	}
	if req.ActiveOnly {
		query = query.Where("is_active = ? AND end_date >= ?", true, s.now())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count offers: %w", err)
	}

	var offers []Offer
	if err := query.Order("created_at DESC, id DESC").
		Offset(pagination.Offset(page, limit)).
		Limit(limit).
		Find(&offers).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve offers: %w", err)
	}

	return &OfferResponse{Offers: offers, Pagination: pagination.New(page, limit, total)}, nil
}

// GetOffer retrieves a single offer
func (s *OfferService) GetOffer(ctx context.Context, id uint) (*Offer, error) {
	var offer Offer
	if err := s.db.WithContext(ctx).First(&offer, id).Error; err != nil {
		return nil, lookupError(err, "offer")
	}
	return &offer, nil
}

// CreateOffer creates an offer, attaches it to its target and reprices the affected products
func (s *OfferService) CreateOffer(ctx context.Context, req *OfferCreateRequest) (*Offer, error) {
	offer := Offer{
		Name:           strings.TrimSpace(req.Name),
		Description:    strings.TrimSpace(req.Description),
		DiscountType:   req.DiscountType,
		DiscountValue:  req.DiscountValue,
		ApplicableType: req.ApplicableType,
		ApplicableID:   req.ApplicableID,
		StartDate:      req.StartDate.UTC(),
		EndDate:        req.EndDate.UTC(),
		IsActive:       true,
	}
	if req.IsActive != nil {
		offer.IsActive = *req.IsActive
	}
	if err := validateOffer(&offer); err != nil {
		return nil, err
	}

	now := s.now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNoLiveOffer(tx, &offer, now); err != nil {
			return err
		}
		if err := tx.Create(&offer).Error; err != nil {
			return fmt.Errorf("failed to create offer: %w", err)
		}
		if isLive(&offer, now) {
			if err := claimTarget(tx, &offer, now); err != nil {
				return err
			}
		} else if err := ensureTargetExists(tx, offer.ApplicableType, offer.ApplicableID); err != nil {
			return err
		}
		return repriceTarget(tx, offer.ApplicableType, offer.ApplicableID, now)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"offer_id":        offer.ID,
		"applicable_type": offer.ApplicableType,
		"applicable_id":   offer.ApplicableID,
	}).Info("offer created")
	return &offer, nil
}

// UpdateOffer changes an offer's value, window or activity and reprices its target
func (s *OfferService) UpdateOffer(ctx context.Context, id uint, req *OfferUpdateRequest) (*Offer, error) {
	var offer Offer
	now := s.now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&offer, id).Error; err != nil {
			return lookupError(err, "offer")
		}

		if req.Name != nil {
			offer.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			offer.Description = strings.TrimSpace(*req.Description)
		}
		if req.DiscountType != nil {
			offer.DiscountType = *req.DiscountType
		}
		if req.DiscountValue != nil {
			offer.DiscountValue = *req.DiscountValue
		}
		if req.StartDate != nil {
			offer.StartDate = req.StartDate.UTC()
		}
		if req.EndDate != nil {
			offer.EndDate = req.EndDate.UTC()
		}
		if req.IsActive != nil {
			offer.IsActive = *req.IsActive
		}
		if err := validateOffer(&offer); err != nil {
			return err
		}

		if isLive(&offer, now) {
			if err := ensureNoLiveOffer(tx, &offer, now); err != nil {
				return err
			}
		}
		if err := tx.Save(&offer).Error; err != nil {
			return fmt.Errorf("failed to update offer: %w", err)
		}
		if isLive(&offer, now) {
			if err := claimTarget(tx, &offer, now); err != nil {
				return err
			}
		}
		return repriceTarget(tx, offer.ApplicableType, offer.ApplicableID, now)
	})
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// DeleteOffer soft deletes an offer, detaches it from products and categories
// and reprices them against any surviving offer
func (s *OfferService) DeleteOffer(ctx context.Context, id uint) error {
	now := s.now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var offer Offer
		if err := tx.First(&offer, id).Error; err != nil {
			return lookupError(err, "offer")
		}

		var productIDs []uint
		if err := tx.Model(&Product{}).Where("current_offer_id = ?", id).Pluck("id", &productIDs).Error; err != nil {
			return fmt.Errorf("failed to find offer products: %w", err)
		}
		var categoryIDs []uint
		if err := tx.Model(&Category{}).Where("current_offer_id = ?", id).Pluck("id", &categoryIDs).Error; err != nil {
			return fmt.Errorf("failed to find offer categories: %w", err)
		}

		if err := tx.Model(&Product{}).Where("current_offer_id = ?", id).Update("current_offer_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach offer from products: %w", err)
		}
		if err := tx.Model(&Category{}).Where("current_offer_id = ?", id).Update("current_offer_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach offer from categories: %w", err)
		}
		if err := tx.Delete(&offer).Error; err != nil {
			return fmt.Errorf("failed to delete offer: %w", err)
		}

		for _, productID := range productIDs {
			if err := repriceProduct(tx, productID, now); err != nil {
				return err
			}
		}
		for _, categoryID := range categoryIDs {
			if err := repriceCategory(tx, categoryID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithField("offer_id", id).Info("offer deleted")
	return nil
}

func validateOffer(offer *Offer) error {
	if offer.Name == "" {
		return apperror.Validation("offer name is required")
	}
	if !offer.StartDate.Before(offer.EndDate) {
		return apperror.Validation("offer start date must be before end date")
	}
	if offer.ApplicableID == 0 {
		return apperror.Validation("offer target is required")
	}
	if offer.ApplicableType != OfferTargetProduct && offer.ApplicableType != OfferTargetCategory {
		return apperror.Validation("offer must target a product or a category")
	}

	switch offer.DiscountType {
	case DiscountPercentage:
		if offer.DiscountValue.Sign() <= 0 || offer.DiscountValue.GreaterThan(hundred) {
			return apperror.Validation("percentage discount must be between 0 and 100")
		}
	case DiscountFixed:
		if offer.DiscountValue.Sign() <= 0 {
			return apperror.Validation("fixed discount must be positive")
		}
	default:
		return apperror.Validation("discount type must be percentage or fixed")
	}
	return nil
}

// isLive reports whether the offer counts against the one-offer-per-target rule
func isLive(offer *Offer, now time.Time) bool {
	return offer.IsActive && !offer.EndDate.Before(now)
}

func duplicateOffer() error {
	return apperror.New(apperror.CodeConflict, "target already has an active offer").WithReason(apperror.ReasonDuplicateOffer)
}

// ensureNoLiveOffer rejects a second active, non-expired offer on the same target
func ensureNoLiveOffer(tx *gorm.DB, offer *Offer, now time.Time) error {
	var count int64
	query := tx.Model(&Offer{}).
		Where("applicable_type = ? AND applicable_id = ?", offer.ApplicableType, offer.ApplicableID).
		Where("is_active = ? AND end_date >= ?", true, now)
	if offer.ID > 0 {
		query = query.Where("id <> ?", offer.ID)
	}
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check existing offers: %w", err)
	}
	if count > 0 {
		return duplicateOffer()
	}
	return nil
}

func targetModel(target OfferTarget) any {
	if target == OfferTargetCategory {
		return &Category{}
	}
	return &Product{}
}

func ensureTargetExists(tx *gorm.DB, target OfferTarget, id uint) error {
	var count int64
	if err := tx.Model(targetModel(target)).Where("id = ? AND is_deleted = ?", id, false).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to load offer target: %w", err)
	}
	if count == 0 {
		return apperror.NotFound(string(target) + " not found")
	}
	return nil
}

// claimTarget points the target's current_offer_id at offer. The update is a
// compare-and-swap on the previously observed reference, so two concurrent
// claims cannot both succeed.
func claimTarget(tx *gorm.DB, offer *Offer, now time.Time) error {
	var row struct {
		CurrentOfferID *uint
	}
	result := tx.Model(targetModel(offer.ApplicableType)).
		Select("current_offer_id").
		Where("id = ? AND is_deleted = ?", offer.ApplicableID, false).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to load offer target: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound(string(offer.ApplicableType) + " not found")
	}

	if prev := row.CurrentOfferID; prev != nil && *prev != offer.ID {
		var live int64
		if err := tx.Model(&Offer{}).
			Where("id = ? AND is_active = ? AND end_date >= ?", *prev, true, now).
			Count(&live).Error; err != nil {
			return fmt.Errorf("failed to check current offer: %w", err)
		}
		if live > 0 {
			return duplicateOffer()
		}
	}

	swap := tx.Model(targetModel(offer.ApplicableType)).Where("id = ?", offer.ApplicableID)
	if row.CurrentOfferID == nil {
		swap = swap.Where("current_offer_id IS NULL")
	} else {
		swap = swap.Where("current_offer_id = ?", *row.CurrentOfferID)
	}
	result = swap.Update("current_offer_id", offer.ID)
	if result.Error != nil {
		return fmt.Errorf("failed to attach offer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return duplicateOffer()
	}
	return nil
}
