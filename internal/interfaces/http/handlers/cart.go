// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/cart"
)

// CartHandler handles shopping cart endpoints
type CartHandler struct {
	carts *cart.Service
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *cart.Service) *CartHandler {
	return &CartHandler{carts: carts}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	userCart, err := h.carts.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Cart retrieved successfully", userCart)
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req cart.AddToCartRequest
	if !bind(c, &req) {
		return
	}

	userCart, err := h.carts.AddItem(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Item added to cart successfully", userCart)
}

// UpdateCartItem handles PUT /cart/items/:id
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req cart.UpdateCartItemRequest
	if !bind(c, &req) {
		return
	}

	userCart, err := h.carts.UpdateQuantity(c.Request.Context(), userID, itemID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Cart item updated successfully", userCart)
}

// RemoveCartItem handles DELETE /cart/items/:id
func (h *CartHandler) RemoveCartItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := paramID(c, "id")
	if !ok {
		return
	}

	userCart, err := h.carts.RemoveItem(c.Request.Context(), userID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Item removed from cart successfully", userCart)
}

// ApplyCoupon handles POST /cart/coupon
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req cart.ApplyCouponRequest
	if !bind(c, &req) {
		return
	}

	userCart, err := h.carts.ApplyCoupon(c.Request.Context(), userID, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Coupon applied successfully", userCart)
}

// RemoveCoupon handles DELETE /cart/coupon
func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	userCart, err := h.carts.RemoveCoupon(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Coupon removed successfully", userCart)
}

// ValidateCart handles GET /cart/validate
func (h *CartHandler) ValidateCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	issues, err := h.carts.ValidateItems(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Cart validated", gin.H{
		"valid":  len(issues) == 0,
		"issues": issues,
	})
}
