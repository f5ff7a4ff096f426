// internal/interfaces/http/handlers/user_address.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/user"
)

// AddressHandler handles the user's address book
type AddressHandler struct {
	addresses *user.AddressService
}

// NewAddressHandler creates a new address handler
func NewAddressHandler(addresses *user.AddressService) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

// ListAddresses handles GET /addresses
func (h *AddressHandler) ListAddresses(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	addresses, err := h.addresses.ListAddresses(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Addresses retrieved successfully", addresses)
}

// GetAddress handles GET /addresses/:id
func (h *AddressHandler) GetAddress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	addressID, ok := paramID(c, "id")
	if !ok {
		return
	}

	address, err := h.addresses.GetAddress(c.Request.Context(), userID, addressID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Address retrieved successfully", address)
}

// CreateAddress handles POST /addresses
func (h *AddressHandler) CreateAddress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req user.CreateAddressRequest
	if !bind(c, &req) {
		return
	}

	address, err := h.addresses.CreateAddress(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Address created successfully", address)
}

// UpdateAddress handles PUT /addresses/:id
func (h *AddressHandler) UpdateAddress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	addressID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req user.UpdateAddressRequest
	if !bind(c, &req) {
		return
	}

	address, err := h.addresses.UpdateAddress(c.Request.Context(), userID, addressID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Address updated successfully", address)
}

// DeleteAddress handles DELETE /addresses/:id
func (h *AddressHandler) DeleteAddress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	addressID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.addresses.DeleteAddress(c.Request.Context(), userID, addressID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Address deleted successfully", nil)
}

// SetDefaultAddress handles PUT /addresses/:id/default
func (h *AddressHandler) SetDefaultAddress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	addressID, ok := paramID(c, "id")
	if !ok {
		return
	}

	address, err := h.addresses.SetDefault(c.Request.Context(), userID, addressID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Default address updated successfully", address)
}
