// internal/interfaces/http/handlers/wishlist.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/wishlist"
)

// WishlistHandler handles wishlist endpoints
type WishlistHandler struct {
	wishlist *wishlist.Service
}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler(svc *wishlist.Service) *WishlistHandler {
	return &WishlistHandler{wishlist: svc}
}

// GetWishlist handles GET /wishlist
func (h *WishlistHandler) GetWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page, limit := pageQuery(c)
	response, err := h.wishlist.List(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Wishlist retrieved successfully", response)
}

// AddToWishlist handles POST /wishlist
func (h *WishlistHandler) AddToWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req wishlist.AddToWishlistRequest
	if !bind(c, &req) {
		return
	}

	item, err := h.wishlist.Add(c.Request.Context(), userID, req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Product added to wishlist", item)
}

// RemoveFromWishlist handles DELETE /wishlist/:productId
func (h *WishlistHandler) RemoveFromWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}

	if err := h.wishlist.Remove(c.Request.Context(), userID, productID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Product removed from wishlist", nil)
}

// CheckWishlist handles GET /wishlist/:productId
func (h *WishlistHandler) CheckWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}

	found, err := h.wishlist.Contains(c.Request.Context(), userID, productID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Wishlist status retrieved", gin.H{"in_wishlist": found})
}

// MoveToCart handles POST /wishlist/:productId/move-to-cart
func (h *WishlistHandler) MoveToCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}
	var req wishlist.MoveToCartRequest
	if !bind(c, &req) {
		return
	}

	userCart, err := h.wishlist.MoveToCart(c.Request.Context(), userID, productID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Product moved to cart", userCart)
}
