package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kalenso/kalenso/internal/application/authz"
	"github.com/kalenso/kalenso/pkg/response"
)

// RequirePermission gates a route on a permission name. Outcomes are kept
// distinct: no session is 401, a held session without the permission is 403,
// and a storage failure is 500. A resolver error is never rendered as a
// denial. The 403 body stays generic; the missing permission name goes to the
// log only.
func RequirePermission(svc *authz.Service, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := UserID(c)
		if uid == 0 {
			response.Error[any](c, http.StatusUnauthorized, "authentication required", nil)
			c.Abort()
			return
		}
		ok, err := svc.HasPermission(c.Request.Context(), uid, permission)
		if err != nil {
			svc.Logger.WithError(err).WithField("permission", permission).Error("permission check failed")
			response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
			c.Abort()
			return
		}
		if !ok {
			svc.Logger.WithFields(logrus.Fields{"user_id": uid, "permission": permission}).
				Warn("permission denied")
			response.Error[any](c, http.StatusForbidden, "action not permitted", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole gates a route on role membership, with the same outcome split
// as RequirePermission.
func RequireRole(svc *authz.Service, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := UserID(c)
		if uid == 0 {
			response.Error[any](c, http.StatusUnauthorized, "authentication required", nil)
			c.Abort()
			return
		}
		ok, err := svc.CheckRole(c.Request.Context(), uid, role)
		if err != nil {
			svc.Logger.WithError(err).WithField("role", role).Error("role check failed")
			response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
			c.Abort()
			return
		}
		if !ok {
			response.Error[any](c, http.StatusForbidden, "action not permitted", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
