package wishlist

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartAdder puts a wishlist product into the cart
type CartAdder interface {
	AddItem(ctx context.Context, userID uint, req *cart.AddToCartRequest) (*cart.Cart, error)
}

// Service handles wishlist business logic
type Service struct {
	db    *gorm.DB
	log   logrus.FieldLogger
	carts CartAdder
	now   func() time.Time
}

// NewService creates a new wishlist service
func NewService(db *gorm.DB, log logrus.FieldLogger, carts CartAdder) *Service {
	return &Service{
		db:    db,
		log:   log,
		carts: carts,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// AddToWishlistRequest represents add to wishlist request
type AddToWishlistRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// MoveToCartRequest picks the variant and quantity for a wishlist product
type MoveToCartRequest struct {
	Size     string `json:"size" binding:"required,size"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// ItemResponse represents a wishlist item with a product summary
type ItemResponse struct {
	ID            uint      `json:"id"`
	ProductID     uint      `json:"product_id"`
	Name          string    `json:"name"`
	ImageURL      string    `json:"image_url,omitempty"`
	CurrentPrice  int64     `json:"current_price"`
	OriginalPrice int64     `json:"original_price"`
	IsAvailable   bool      `json:"is_available"`
	InStock       bool      `json:"in_stock"`
	AddedAt       time.Time `json:"added_at"`
}

// Summary provides summary information
type Summary struct {
	TotalItems       int   `json:"total_items"`
	AvailableItems   int   `json:"available_items"`
	UnavailableItems int   `json:"unavailable_items"`
	TotalValue       int64 `json:"total_value"`
	RecentlyAdded    int   `json:"recently_added"`
}

// Response represents a page of the wishlist
type Response struct {
	Items      []ItemResponse        `json:"items"`
	Pagination pagination.Pagination `json:"pagination"`
	Summary    Summary               `json:"summary"`
}

// List returns the user's wishlist, most recently added first
func (s *Service) List(ctx context.Context, userID uint, page, limit int) (*Response, error) {
	page, limit = pagination.Normalize(page, limit)
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&Item{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count wishlist items: %w", err)
	}

	var items []Item
	if err := db.Where("user_id = ?", userID).
		Order("added_at DESC").Order("id DESC").
		Offset(pagination.Offset(page, limit)).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve wishlist items: %w", err)
	}

	responses, err := s.describe(db, items)
	if err != nil {
		return nil, err
	}

	return &Response{
		Items:      responses,
		Pagination: pagination.New(page, limit, total),
		Summary:    s.summarize(responses),
	}, nil
}

// Add saves a listed product to the wishlist. Adding it twice is a no-op.
func (s *Service) Add(ctx context.Context, userID, productID uint) (*ItemResponse, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&catalog.Product{}).
		Where("id = ? AND is_listed = ? AND is_deleted = ?", productID, true, false).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if count == 0 {
		return nil, apperror.NotFound("product not found").WithReason(apperror.ReasonProductNotFound)
	}

	item := Item{UserID: userID, ProductID: productID, AddedAt: s.now()}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoNothing: true,
	}).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to add item to wishlist: %w", err)
	}

	var saved Item
	if err := db.Where("user_id = ? AND product_id = ?", userID, productID).First(&saved).Error; err != nil {
		return nil, fmt.Errorf("failed to load wishlist item: %w", err)
	}

	responses, err := s.describe(db, []Item{saved})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

// Remove deletes a product from the wishlist
func (s *Service) Remove(ctx context.Context, userID, productID uint) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&Item{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove item from wishlist: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("item not found in wishlist")
	}
	return nil
}

// Contains checks if a product is in the user's wishlist
func (s *Service) Contains(ctx context.Context, userID, productID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Item{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}
	return count > 0, nil
}

// MoveToCart adds a wishlist product to the cart and then drops it from the wishlist
func (s *Service) MoveToCart(ctx context.Context, userID, productID uint, req *MoveToCartRequest) (*cart.Cart, error) {
	found, err := s.Contains(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperror.NotFound("item not found in wishlist")
	}

	c, err := s.carts.AddItem(ctx, userID, &cart.AddToCartRequest{ProductID: productID, Size: req.Size, Quantity: req.Quantity})
	if err != nil {
		return nil, err
	}
	if err := s.Remove(ctx, userID, productID); err != nil {
		return nil, err
	}
	return c, nil
}

// describe joins wishlist rows with their products at current prices
func (s *Service) describe(db *gorm.DB, items []Item) ([]ItemResponse, error) {
	if len(items) == 0 {
		return []ItemResponse{}, nil
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	var products []catalog.Product
	if err := db.Preload("CurrentOffer").
		Preload("Category.CurrentOffer").
		Preload("Variants").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		Where("id IN ?", ids).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load wishlist products: %w", err)
	}
	byID := make(map[uint]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	now := s.now()
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		resp := ItemResponse{ID: item.ID, ProductID: item.ProductID, AddedAt: item.AddedAt}
		if p, ok := byID[item.ProductID]; ok {
			resp.Name = p.Name
			resp.OriginalPrice = p.OriginalPrice
			resp.CurrentPrice = catalog.SalePriceFor(p, now)
			resp.IsAvailable = p.IsPurchasable()
			resp.InStock = p.TotalStock() > 0
			if len(p.Images) > 0 {
				resp.ImageURL = p.Images[0].URL
			}
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *Service) summarize(items []ItemResponse) Summary {
	summary := Summary{TotalItems: len(items)}
	recent := s.now().AddDate(0, 0, -7)
	for _, item := range items {
		if item.IsAvailable {
			summary.AvailableItems++
			summary.TotalValue += item.CurrentPrice
		} else {
			summary.UnavailableItems++
		}
		if item.AddedAt.After(recent) {
			summary.RecentlyAdded++
		}
	}
	return summary
}
