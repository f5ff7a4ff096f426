// internal/interfaces/http/handlers/category.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// CategoryHandler handles category endpoints
type CategoryHandler struct {
	categories *catalog.CategoryService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categories *catalog.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

type activeRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// ListCategories handles GET /categories and GET /admin/categories.
// Administrators also see inactive categories.
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	admin := middleware.IsAdminFromContext(c)

	categories, err := h.categories.ListCategories(c.Request.Context(), admin)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Categories retrieved successfully", categories)
}

// GetCategory handles GET /categories/:id and GET /admin/categories/:id
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	categoryID, ok := paramID(c, "id")
	if !ok {
		return
	}

	category, err := h.categories.GetCategory(c.Request.Context(), categoryID, middleware.IsAdminFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Category retrieved successfully", category)
}

// CreateCategory handles POST /admin/categories
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req catalog.CategoryCreateRequest
	if !bind(c, &req) {
		return
	}

	category, err := h.categories.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Category created successfully", category)
}

// UpdateCategory handles PUT /admin/categories/:id
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	categoryID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req catalog.CategoryUpdateRequest
	if !bind(c, &req) {
		return
	}

	category, err := h.categories.UpdateCategory(c.Request.Context(), categoryID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Category updated successfully", category)
}

// SetActive handles PATCH /admin/categories/:id/status
func (h *CategoryHandler) SetActive(c *gin.Context) {
	categoryID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req activeRequest
	if !bind(c, &req) {
		return
	}

	if err := h.categories.SetCategoryActive(c.Request.Context(), categoryID, *req.IsActive); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Category status updated successfully", nil)
}

// DeleteCategory handles DELETE /admin/categories/:id
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	categoryID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.categories.DeleteCategory(c.Request.Context(), categoryID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Category deleted successfully", nil)
}
