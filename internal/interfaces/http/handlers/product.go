// internal/interfaces/http/handlers/product.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
)

// ProductHandler handles product endpoints for shoppers and administrators
type ProductHandler struct {
	products *catalog.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(products *catalog.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

type listingRequest struct {
	IsListed *bool `json:"is_listed" binding:"required"`
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	h.list(c, false)
}

// AdminListProducts handles GET /admin/products, including unlisted products
func (h *ProductHandler) AdminListProducts(c *gin.Context) {
	h.list(c, true)
}

func (h *ProductHandler) list(c *gin.Context, includeHidden bool) {
	var req catalog.ProductListRequest
	if !bindQuery(c, &req) {
		return
	}
	req.IncludeHidden = includeHidden

	products, err := h.products.ListProducts(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Products retrieved successfully", products)
}

// ListCategoryProducts handles GET /categories/:id/products
func (h *ProductHandler) ListCategoryProducts(c *gin.Context) {
	categoryID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req catalog.ProductListRequest
	if !bindQuery(c, &req) {
		return
	}

	products, err := h.products.ListProductsByCategory(c.Request.Context(), categoryID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Products retrieved successfully", products)
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	h.get(c, false)
}

// AdminGetProduct handles GET /admin/products/:id
func (h *ProductHandler) AdminGetProduct(c *gin.Context) {
	h.get(c, true)
}

func (h *ProductHandler) get(c *gin.Context, includeHidden bool) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), productID, includeHidden)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Product retrieved successfully", product)
}

// CreateProduct handles POST /admin/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req catalog.ProductCreateRequest
	if !bind(c, &req) {
		return
	}

	product, err := h.products.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Product created successfully", product)
}

// UpdateProduct handles PUT /admin/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req catalog.ProductUpdateRequest
	if !bind(c, &req) {
		return
	}

	product, err := h.products.UpdateProduct(c.Request.Context(), productID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Product updated successfully", product)
}

// SetListing handles PATCH /admin/products/:id/listing
func (h *ProductHandler) SetListing(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req listingRequest
	if !bind(c, &req) {
		return
	}

	if err := h.products.SetProductListed(c.Request.Context(), productID, *req.IsListed); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Product listing updated successfully", nil)
}

// DeleteProduct handles DELETE /admin/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(c.Request.Context(), productID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Product deleted successfully", nil)
}
