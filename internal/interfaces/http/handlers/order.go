// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

// OrderHandler handles order endpoints for customers and administrators
type OrderHandler struct {
	orders *order.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *order.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CancelRequest carries an optional cancellation reason
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ReturnRequest asks to return a delivered order
type ReturnRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// StatusUpdateRequest moves an order along the admin transitions
type StatusUpdateRequest struct {
	Status  order.OrderStatus `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled return_requested returned payment_failed"`
	Comment string            `json:"comment" binding:"max=500"`
}

// ReturnDecisionRequest approves or rejects a return request
type ReturnDecisionRequest struct {
	Approve         *bool  `json:"approve" binding:"required"`
	RejectionReason string `json:"rejection_reason" binding:"max=500"`
}

// ListOrders handles GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page, limit := pageQuery(c)
	orders, err := h.orders.ListUserOrders(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Orders retrieved successfully", orders)
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	o, err := h.orders.GetOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Order retrieved successfully", o)
}

// CancelOrder handles POST /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req CancelRequest
	if !bind(c, &req) {
		return
	}

	o, err := h.orders.CancelOrder(c.Request.Context(), userID, orderID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Order cancelled successfully", o)
}

// CancelOrderItem handles POST /orders/:id/items/:itemId/cancel
func (h *OrderHandler) CancelOrderItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}
	var req CancelRequest
	if !bind(c, &req) {
		return
	}

	o, err := h.orders.CancelOrderItem(c.Request.Context(), userID, orderID, itemID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Order item cancelled successfully", o)
}

// RequestReturn handles POST /orders/:id/return
func (h *OrderHandler) RequestReturn(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ReturnRequest
	if !bind(c, &req) {
		return
	}

	o, err := h.orders.RequestReturn(c.Request.Context(), userID, orderID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Return requested successfully", o)
}

// AdminListOrders handles GET /admin/orders
func (h *OrderHandler) AdminListOrders(c *gin.Context) {
	var req order.OrderListRequest
	if !bindQuery(c, &req) {
		return
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Orders retrieved successfully", orders)
}

// AdminGetOrder handles GET /admin/orders/:id
func (h *OrderHandler) AdminGetOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	o, err := h.orders.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Order retrieved successfully", o)
}

// UpdateOrderStatus handles PUT /admin/orders/:id/status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req StatusUpdateRequest
	if !bind(c, &req) {
		return
	}

	o, err := h.orders.UpdateOrderStatus(c.Request.Context(), orderID, req.Status, req.Comment, adminID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Order status updated successfully", o)
}

// HandleReturn handles POST /admin/orders/:id/return
func (h *OrderHandler) HandleReturn(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ReturnDecisionRequest
	if !bind(c, &req) {
		return
	}

	o, err := h.orders.HandleReturnRequest(c.Request.Context(), orderID, *req.Approve, req.RejectionReason, adminID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Return request processed successfully", o)
}
