package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
)

// CouponHandler handles coupon browsing and administration
type CouponHandler struct {
	coupons *coupon.Service
	carts   *cart.Service
}

// NewCouponHandler creates a new coupon handler
func NewCouponHandler(coupons *coupon.Service, carts *cart.Service) *CouponHandler {
	return &CouponHandler{coupons: coupons, carts: carts}
}

// ListAvailable handles GET /coupons/available, scored against the caller's cart
func (h *CouponHandler) ListAvailable(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	userCart, err := h.carts.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	available, err := h.coupons.ListAvailable(c.Request.Context(), userCart.TotalAmount)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Coupons retrieved successfully", available)
}

// ListCoupons handles GET /admin/coupons
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	page, limit := pageQuery(c)
	coupons, err := h.coupons.ListCoupons(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Coupons retrieved successfully", coupons)
}

// GetCoupon handles GET /admin/coupons/:id
func (h *CouponHandler) GetCoupon(c *gin.Context) {
	couponID, ok := paramID(c, "id")
	if !ok {
		return
	}

	found, err := h.coupons.GetCoupon(c.Request.Context(), couponID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Coupon retrieved successfully", found)
}

// CreateCoupon handles POST /admin/coupons
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req coupon.CouponCreateRequest
	if !bind(c, &req) {
		return
	}

	created, err := h.coupons.CreateCoupon(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Coupon created successfully", created)
}

// UpdateCoupon handles PUT /admin/coupons/:id
func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	couponID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req coupon.CouponUpdateRequest
	if !bind(c, &req) {
		return
	}

	updated, err := h.coupons.UpdateCoupon(c.Request.Context(), couponID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Coupon updated successfully", updated)
}

// DeleteCoupon handles DELETE /admin/coupons/:id
func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	couponID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.coupons.DeleteCoupon(c.Request.Context(), couponID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Coupon deleted successfully", nil)
}
