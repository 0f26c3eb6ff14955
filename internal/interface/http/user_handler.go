package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kalenso/kalenso/internal/application/authz"
	"github.com/kalenso/kalenso/internal/application/users"
	"github.com/kalenso/kalenso/internal/interface/middleware"
	"github.com/kalenso/kalenso/pkg/response"
	"github.com/kalenso/kalenso/pkg/validation"
)

type UserHandler struct {
	Svc    *users.Service
	Authz  *authz.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *users.Service, authzSvc *authz.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Authz: authzSvc, Logger: logger}
}

type updateProfileRequest struct {
	Name  *string `json:"name"`
	Image *string `json:"image"`
}

// GetProfile GET /api/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).Error("get profile failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"id":             u.ID,
		"email":          u.Email,
		"name":           u.Name,
		"image":          u.Image,
		"email_verified": u.EmailVerified,
		"has_password":   u.HasPassword(),
		"has_google":     u.HasGoogle(),
		"created_at":     u.CreatedAt,
		"updated_at":     u.UpdatedAt,
	}, "profile", nil)
}

// UpdateProfile PUT /api/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), middleware.UserID(c), req.Name, req.Image)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).Error("update profile failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"id":    u.ID,
		"email": u.Email,
		"name":  u.Name,
		"image": u.Image,
	}, "profile updated", nil)
}

// UploadAvatar POST /api/profile/avatar (multipart form, field "avatar")
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "missing avatar file", nil)
		return
	}
	defer func() { _ = file.Close() }()

	url, err := h.Svc.UploadAvatar(c.Request.Context(), middleware.UserID(c), file,
		header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		h.Logger.WithError(err).Error("avatar upload failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"image": url}, "avatar uploaded", nil)
}

// GetPermissions GET /api/profile/permissions returns the caller's
// effective permission set and roles.
func (h *UserHandler) GetPermissions(c *gin.Context) {
	uid := middleware.UserID(c)
	perms, err := h.Authz.ListEffectivePermissions(c.Request.Context(), uid)
	if err != nil {
		h.Logger.WithError(err).Error("list permissions failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	roles, err := h.Authz.ListRoleNames(c.Request.Context(), uid)
	if err != nil {
		h.Logger.WithError(err).Error("list roles failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"permissions": perms, "roles": roles}, "effective permissions", nil)
}

// DeleteAccount DELETE /api/profile
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserID(c)); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).Error("delete account failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "account deleted", nil)
}
