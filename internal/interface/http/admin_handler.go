package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kalenso/kalenso/internal/application/authz"
	"github.com/kalenso/kalenso/internal/application/users"
	"github.com/kalenso/kalenso/pkg/response"
	"github.com/kalenso/kalenso/pkg/validation"
)

// AdminHandler exposes role administration and user search. Routes carry
// users:read / users:update permission guards.
type AdminHandler struct {
	Authz  *authz.Service
	Users  *users.Service
	Logger *logrus.Logger
}

func NewAdminHandler(authzSvc *authz.Service, usersSvc *users.Service, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Authz: authzSvc, Users: usersSvc, Logger: logger}
}

func pathUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error[any](c, http.StatusBadRequest, "invalid user id", nil)
		return 0, false
	}
	return id, true
}

type assignRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// AssignRole POST /api/admin/users/:id/roles
func (h *AdminHandler) AssignRole(c *gin.Context) {
	uid, ok := pathUserID(c)
	if !ok {
		return
	}
	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	created, err := h.Authz.AssignRole(c.Request.Context(), uid, req.Role)
	if err != nil {
		if errors.Is(err, authz.ErrRoleNotFound) {
			response.Error[any](c, http.StatusNotFound, "role not found", nil)
			return
		}
		h.Logger.WithError(err).Error("assign role failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assigned": created}, "role assignment", nil)
}

// RemoveRole DELETE /api/admin/users/:id/roles/:role
func (h *AdminHandler) RemoveRole(c *gin.Context) {
	uid, ok := pathUserID(c)
	if !ok {
		return
	}
	removed, err := h.Authz.RemoveRole(c.Request.Context(), uid, c.Param("role"))
	if err != nil {
		if errors.Is(err, authz.ErrRoleNotFound) {
			response.Error[any](c, http.StatusNotFound, "role not found", nil)
			return
		}
		h.Logger.WithError(err).Error("remove role failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": removed}, "role removal", nil)
}

// ListRoles GET /api/admin/users/:id/roles
func (h *AdminHandler) ListRoles(c *gin.Context) {
	uid, ok := pathUserID(c)
	if !ok {
		return
	}
	roles, err := h.Authz.ListRoleNames(c.Request.Context(), uid)
	if err != nil {
		h.Logger.WithError(err).Error("list roles failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	perms, err := h.Authz.ListEffectivePermissions(c.Request.Context(), uid)
	if err != nil {
		h.Logger.WithError(err).Error("list permissions failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"roles": roles, "permissions": perms}, "user roles", nil)
}

// Search GET /api/admin/users/search?q=...&size=...
func (h *AdminHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Users.Search(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).Error("user search failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}
