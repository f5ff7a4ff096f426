package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
)

// OfferHandler handles product and category offers
type OfferHandler struct {
	offers *catalog.OfferService
}

// NewOfferHandler creates a new offer handler
func NewOfferHandler(offers *catalog.OfferService) *OfferHandler {
	return &OfferHandler{offers: offers}
}

// ListOffers handles GET /admin/offers
func (h *OfferHandler) ListOffers(c *gin.Context) {
	var req catalog.OfferListRequest
	if !bindQuery(c, &req) {
		return
	}

	offers, err := h.offers.ListOffers(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Offers retrieved successfully", offers)
}

// GetOffer handles GET /admin/offers/:id
func (h *OfferHandler) GetOffer(c *gin.Context) {
	offerID, ok := paramID(c, "id")
	if !ok {
		return
	}

	offer, err := h.offers.GetOffer(c.Request.Context(), offerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Offer retrieved successfully", offer)
}

// CreateOffer handles POST /admin/offers
func (h *OfferHandler) CreateOffer(c *gin.Context) {
	var req catalog.OfferCreateRequest
	if !bind(c, &req) {
		return
	}

	offer, err := h.offers.CreateOffer(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Offer created successfully", offer)
}

// UpdateOffer handles PUT /admin/offers/:id
func (h *OfferHandler) UpdateOffer(c *gin.Context) {
	offerID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req catalog.OfferUpdateRequest
	if !bind(c, &req) {
		return
	}

	offer, err := h.offers.UpdateOffer(c.Request.Context(), offerID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Offer updated successfully", offer)
}

// DeleteOffer handles DELETE /admin/offers/:id
func (h *OfferHandler) DeleteOffer(c *gin.Context) {
	offerID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.offers.DeleteOffer(c.Request.Context(), offerID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Offer deleted successfully", nil)
}
