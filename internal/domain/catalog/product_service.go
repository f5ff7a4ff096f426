// internal/domain/catalog/product_service.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/pagination"
	"github.com/your-org/storefront-backend/internal/pkg/storage"
	"gorm.io/gorm"
)

// ProductService handles product business logic
type ProductService struct {
	db     *gorm.DB
	images storage.ImageStore
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewProductService creates a new product service
func NewProductService(db *gorm.DB, images storage.ImageStore, log logrus.FieldLogger) *ProductService {
	return &ProductService{
		db:     db,
		images: images,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=20"`
	CategoryID uint   `form:"category_id"`
	Search     string `form:"search"`
	SortBy     string `form:"sort_by,default=newest"`
	SortOrder  string `form:"sort_order"`
	MinPrice   int64  `form:"min_price"`
	MaxPrice   int64  `form:"max_price"`

	// IncludeHidden returns unlisted products and products of inactive categories
	IncludeHidden bool `form:"-"`
}

// VariantRequest describes one size of a product
type VariantRequest struct {
	Size  string `json:"size" binding:"required,size"`
	Color string `json:"color" binding:"max=50"`
	Stock int    `json:"stock" binding:"gte=0"`
}

// ProductCreateRequest represents product creation data
type ProductCreateRequest struct {
	Name          string           `json:"name" binding:"required,max=255"`
	Description   string           `json:"description"`
	CategoryID    uint             `json:"category_id" binding:"required"`
	OriginalPrice int64            `json:"original_price" binding:"required,gt=0"`
	IsListed      *bool            `json:"is_listed"`
	Variants      []VariantRequest `json:"variants" binding:"required,min=1,dive"`
}

// ProductUpdateRequest represents product update data. Variants, when present, replace all existing variants.
type ProductUpdateRequest struct {
	Name          *string          `json:"name" binding:"omitempty,max=255"`
	Description   *string          `json:"description"`
	CategoryID    *uint            `json:"category_id"`
	OriginalPrice *int64           `json:"original_price" binding:"omitempty,gt=0"`
	IsListed      *bool            `json:"is_listed"`
	Variants      []VariantRequest `json:"variants" binding:"omitempty,dive"`
}

// ProductResponse represents product list response with pagination
type ProductResponse struct {
	Products   []Product             `json:"products"`
	Pagination pagination.Pagination `json:"pagination"`
}

// ListProducts retrieves products with filtering and pagination
func (s *ProductService) ListProducts(ctx context.Context, req *ProductListRequest) (*ProductResponse, error) {
	page, limit := pagination.Normalize(req.Page, req.Limit)

	query := s.db.WithContext(ctx).Model(&Product{}).Where("is_deleted = ?", false)
	if !req.IncludeHidden {
		query = query.Where("is_listed = ?", true).
			Where("category_id IN (?)", s.db.Model(&Category{}).Select("id").Where("is_active = ? AND is_deleted = ?", true, false))
	}
	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}
	if search := strings.TrimSpace(req.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}
	if req.MinPrice > 0 {
		query = query.Where("sale_price >= ?", req.MinPrice)
	}
	if req.MaxPrice > 0 {
		query = query.Where("sale_price <= ?", req.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []Product
	err := withPricing(query).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		Order(buildOrderClause(req.SortBy, req.SortOrder)).
		Offset(pagination.Offset(page, limit)).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	now := s.now()
	for i := range products {
		products[i].SalePrice = SalePriceFor(&products[i], now)
	}

	return &ProductResponse{
		Products:   products,
		Pagination: pagination.New(page, limit, total),
	}, nil
}

// ListProductsByCategory lists the visible products of one visible category
func (s *ProductService) ListProductsByCategory(ctx context.Context, categoryID uint, req *ProductListRequest) (*ProductResponse, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Category{}).
		Where("id = ? AND is_active = ? AND is_deleted = ?", categoryID, true, false).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	if count == 0 {
		return nil, apperror.NotFound("category not found")
	}

	scoped := *req
	scoped.CategoryID = categoryID
	scoped.IncludeHidden = false
	return s.ListProducts(ctx, &scoped)
}

// GetProduct retrieves a single product. Customers only see purchasable products.
func (s *ProductService) GetProduct(ctx context.Context, id uint, includeHidden bool) (*Product, error) {
	product, err := loadProduct(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if product.IsDeleted || (!includeHidden && !product.IsPurchasable()) {
		return nil, apperror.NotFound("product not found").WithReason(apperror.ReasonProductNotFound)
	}

	product.SalePrice = SalePriceFor(product, s.now())
	return product, nil
}

// CreateProduct creates a product with its variants and derives its sale price
func (s *ProductService) CreateProduct(ctx context.Context, req *ProductCreateRequest) (*Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("product name is required")
	}
	if req.OriginalPrice <= 0 {
		return nil, apperror.Validation("original price must be positive")
	}
	variants, err := buildVariants(req.Variants)
	if err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return nil, apperror.Validation("at least one variant is required")
	}

	product := Product{
		Name:          name,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		OriginalPrice: req.OriginalPrice,
		SalePrice:     req.OriginalPrice,
		IsListed:      true,
		Variants:      variants,
	}
	if req.IsListed != nil {
		product.IsListed = *req.IsListed
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureCategoryExists(tx, req.CategoryID); err != nil {
			return err
		}
		if err := tx.Create(&product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		return repriceProduct(tx, product.ID, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"product_id": product.ID, "category_id": product.CategoryID}).Info("product created")
	return s.GetProduct(ctx, product.ID, true)
}

// UpdateProduct updates an existing product and reprices it
func (s *ProductService) UpdateProduct(ctx context.Context, id uint, req *ProductUpdateRequest) (*Product, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product Product
		if err := tx.Where("id = ? AND is_deleted = ?", id, false).First(&product).Error; err != nil {
			return lookupError(err, "product")
		}

		updates := make(map[string]interface{})
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return apperror.Validation("product name is required")
			}
			updates["name"] = name
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.CategoryID != nil {
			if err := ensureCategoryExists(tx, *req.CategoryID); err != nil {
				return err
			}
			updates["category_id"] = *req.CategoryID
		}
		if req.OriginalPrice != nil {
			if *req.OriginalPrice <= 0 {
				return apperror.Validation("original price must be positive")
			}
			updates["original_price"] = *req.OriginalPrice
		}
		if req.IsListed != nil {
			updates["is_listed"] = *req.IsListed
		}

		if len(updates) > 0 {
			if err := tx.Model(&product).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update product: %w", err)
			}
		}

		if req.Variants != nil {
			variants, err := buildVariants(req.Variants)
			if err != nil {
				return err
			}
			if len(variants) == 0 {
				return apperror.Validation("at least one variant is required")
			}
			if err := tx.Where("product_id = ?", id).Delete(&Variant{}).Error; err != nil {
				return fmt.Errorf("failed to replace variants: %w", err)
			}
			for i := range variants {
				variants[i].ProductID = id
			}
			if err := tx.Create(&variants).Error; err != nil {
				return fmt.Errorf("failed to replace variants: %w", err)
			}
		}

		return repriceProduct(tx, id, s.now())
	})
	if err != nil {
		return nil, err
	}

	return s.GetProduct(ctx, id, true)
}

// SetProductListed shows or hides a product from customers
func (s *ProductService) SetProductListed(ctx context.Context, id uint, listed bool) error {
	result := s.db.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("is_listed", listed)
	if result.Error != nil {
		return fmt.Errorf("failed to update product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("product not found")
	}
	return nil
}

// DeleteProduct soft deletes a product
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{"is_deleted": true, "is_listed": false})
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("product not found")
	}

	s.log.WithField("product_id", id).Info("product deleted")
	return nil
}

// AddProductImage stores an image and attaches it to the product
func (s *ProductService) AddProductImage(ctx context.Context, productID uint, name, contentType string, data []byte) (*Image, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND is_deleted = ?", productID, false).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if count == 0 {
		return nil, apperror.NotFound("product not found")
	}

	obj, err := s.images.Save(ctx, name, contentType, data)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) || errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrEmpty) {
			return nil, apperror.Validation(err.Error())
		}
		return nil, apperror.Wrap(apperror.CodeProvider, err, "failed to store image")
	}

	var position int64
	if err := s.db.WithContext(ctx).Model(&Image{}).Where("product_id = ?", productID).Count(&position).Error; err != nil {
		return nil, fmt.Errorf("failed to count product images: %w", err)
	}

	image := Image{
		ProductID: productID,
		ObjectID:  obj.ID,
		URL:       obj.URL,
		SortOrder: int(position),
	}
	if err := s.db.WithContext(ctx).Create(&image).Error; err != nil {
		return nil, fmt.Errorf("failed to save product image: %w", err)
	}
	return &image, nil
}

// FindPurchasable loads a product a customer may buy, with variants and its current sale price
func FindPurchasable(tx *gorm.DB, productID uint, now time.Time) (*Product, error) {
	product, err := loadProduct(tx, productID)
	if err != nil {
		if apperror.HasCode(err, apperror.CodeNotFound) {
			return nil, apperror.NotFound("product not found").WithReason(apperror.ReasonProductNotFound)
		}
		return nil, err
	}
	if !product.IsPurchasable() {
		return nil, apperror.Validation("product is not available").WithReason(apperror.ReasonProductUnavailable)
	}

	product.SalePrice = SalePriceFor(product, now)
	return product, nil
}

func loadProduct(tx *gorm.DB, id uint) (*Product, error) {
	var product Product
	err := withPricing(tx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, lookupError(err, "product")
	}
	return &product, nil
}

// withPricing preloads the offers SalePriceFor needs
func withPricing(query *gorm.DB) *gorm.DB {
	return query.Preload("CurrentOffer").Preload("Category.CurrentOffer")
}

func ensureCategoryExists(tx *gorm.DB, categoryID uint) error {
	var count int64
	if err := tx.Model(&Category{}).Where("id = ? AND is_deleted = ?", categoryID, false).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to load category: %w", err)
	}
	if count == 0 {
		return apperror.NotFound("category not found")
	}
	return nil
}

func buildVariants(reqs []VariantRequest) ([]Variant, error) {
	seen := make(map[string]bool, len(reqs))
	variants := make([]Variant, 0, len(reqs))
	for _, v := range reqs {
		size := strings.ToUpper(strings.TrimSpace(v.Size))
		if size == "" {
			return nil, apperror.Validation("variant size is required")
		}
		if v.Stock < 0 {
			return nil, apperror.Validation("variant stock cannot be negative")
		}
		if seen[size] {
			return nil, apperror.Newf(apperror.CodeValidation, "duplicate variant size %s", size)
		}
		seen[size] = true
		variants = append(variants, Variant{Size: size, Color: strings.TrimSpace(v.Color), Stock: v.Stock})
	}
	return variants, nil
}

// buildOrderClause builds ORDER BY clause for sorting
func buildOrderClause(sortBy, sortOrder string) string {
	direction := "ASC"
	if strings.EqualFold(sortOrder, "desc") {
		direction = "DESC"
	}

	switch sortBy {
	case "price":
		return "sale_price " + direction + ", id ASC"
	case "name":
		return "name " + direction + ", id ASC"
	case "oldest":
		return "created_at ASC, id ASC"
	default:
		return "created_at DESC, id DESC"
	}
}
