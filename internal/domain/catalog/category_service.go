// internal/domain/catalog/category_service.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// CategoryService handles category business logic
type CategoryService struct {
	db  *gorm.DB
	log logrus.FieldLogger
	now func() time.Time
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB, log logrus.FieldLogger) *CategoryService {
	return &CategoryService{
		db:  db,
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// CategoryCreateRequest represents category creation data
type CategoryCreateRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
	IsActive    *bool  `json:"is_active"`
}

// CategoryUpdateRequest represents category update data
type CategoryUpdateRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`
}

// ListCategories returns non-deleted categories; inactive ones only when includeInactive is set
func (s *CategoryService) ListCategories(ctx context.Context, includeInactive bool) ([]Category, error) {
	var categories []Category

	query := s.db.WithContext(ctx).
		Preload("CurrentOffer").
		Where("is_deleted = ?", false).
		Order("name ASC")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	return categories, nil
}

// GetCategory retrieves a single non-deleted category
func (s *CategoryService) GetCategory(ctx context.Context, id uint, includeInactive bool) (*Category, error) {
	var category Category

	query := s.db.WithContext(ctx).Preload("CurrentOffer").Where("id = ? AND is_deleted = ?", id, false)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.First(&category).Error; err != nil {
		return nil, lookupError(err, "category")
	}
	return &category, nil
}

// CreateCategory creates a category with a unique normalized name
func (s *CategoryService) CreateCategory(ctx context.Context, req *CategoryCreateRequest) (*Category, error) {
	name := strings.Join(strings.Fields(req.Name), " ")
	if name == "" {
		return nil, apperror.Validation("category name is required")
	}

	category := Category{
		Name:           name,
		NormalizedName: normalizeName(name),
		Description:    strings.TrimSpace(req.Description),
		IsActive:       true,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUniqueCategoryName(tx, category.NormalizedName, 0); err != nil {
			return err
		}
		if err := tx.Create(&category).Error; err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"category_id": category.ID, "name": category.Name}).Info("category created")
	return &category, nil
}

// UpdateCategory updates name, description or active flag
func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, req *CategoryUpdateRequest) (*Category, error) {
	var category Category

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND is_deleted = ?", id, false).First(&category).Error; err != nil {
			return lookupError(err, "category")
		}

		updates := make(map[string]interface{})
		if req.Name != nil {
			name := strings.Join(strings.Fields(*req.Name), " ")
			if name == "" {
				return apperror.Validation("category name is required")
			}
			normalized := normalizeName(name)
			if err := ensureUniqueCategoryName(tx, normalized, id); err != nil {
				return err
			}
			updates["name"] = name
			updates["normalized_name"] = normalized
		}
		if req.Description != nil {
			updates["description"] = strings.TrimSpace(*req.Description)
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&category).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update category: %w", err)
		}
		return tx.Preload("CurrentOffer").First(&category, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// SetCategoryActive lists or unlists every product in the category for customers
func (s *CategoryService) SetCategoryActive(ctx context.Context, id uint, active bool) error {
	result := s.db.WithContext(ctx).Model(&Category{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to update category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("category not found")
	}
	return nil
}

// DeleteCategory soft deletes a category and drops its offer from product prices
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Category{}).
			Where("id = ? AND is_deleted = ?", id, false).
			Updates(map[string]interface{}{
				"is_deleted":       true,
				"is_active":        false,
				"current_offer_id": nil,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to delete category: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.NotFound("category not found")
		}
		return repriceCategory(tx, id, s.now())
	})
	if err != nil {
		return err
	}

	s.log.WithField("category_id", id).Info("category deleted")
	return nil
}

func ensureUniqueCategoryName(tx *gorm.DB, normalized string, excludeID uint) error {
	var count int64
	query := tx.Model(&Category{}).Where("normalized_name = ? AND is_deleted = ?", normalized, false)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check category name: %w", err)
	}
	if count > 0 {
		return apperror.New(apperror.CodeConflict, "category name already exists").WithReason(apperror.ReasonDuplicateName)
	}
	return nil
}

// lookupError translates a missing row into NOT_FOUND
func lookupError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(what + " not found")
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
