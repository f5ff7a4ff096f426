// internal/interfaces/http/handlers/user_admin.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/user"
)

// UserAdminHandler handles customer management for administrators
type UserAdminHandler struct {
	admin *user.AdminService
}

// NewUserAdminHandler creates a new admin user handler
func NewUserAdminHandler(admin *user.AdminService) *UserAdminHandler {
	return &UserAdminHandler{admin: admin}
}

// ListUsers handles GET /admin/users
func (h *UserAdminHandler) ListUsers(c *gin.Context) {
	var req user.UserListRequest
	if !bindQuery(c, &req) {
		return
	}

	users, err := h.admin.ListUsers(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Users retrieved successfully", users)
}

// UpdateUserStatus handles PUT /admin/users/:id/status
func (h *UserAdminHandler) UpdateUserStatus(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req user.UserStatusUpdateRequest
	if !bind(c, &req) {
		return
	}

	if err := h.admin.UpdateUserStatus(c.Request.Context(), userID, &req, adminID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "User status updated successfully", nil)
}
