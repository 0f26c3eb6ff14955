package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kalenso/kalenso/internal/application/authz"
	"github.com/kalenso/kalenso/internal/container"
	"github.com/kalenso/kalenso/internal/domain/rbac"
	handlers "github.com/kalenso/kalenso/internal/interface/http"
	"github.com/kalenso/kalenso/internal/interface/middleware"
	"github.com/kalenso/kalenso/pkg/helpers"
)

// UserModule wires profile routes under the authenticated group.
// Every route carries a permission guard on top of the session check.
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
	Authz   *authz.Service
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager, az *authz.Service) *UserModule {
	return &UserModule{Handler: h, JWT: jwt, Authz: az}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/profile", middleware.RequirePermission(m.Authz, rbac.ProfileRead), m.Handler.GetProfile)
		auth.PUT("/profile", middleware.RequirePermission(m.Authz, rbac.ProfileUpdate), m.Handler.UpdateProfile)
		auth.POST("/profile/avatar", middleware.RequirePermission(m.Authz, rbac.ProfileUpdate), m.Handler.UploadAvatar)
		auth.GET("/profile/permissions", m.Handler.GetPermissions)
		auth.DELETE("/profile", middleware.RequirePermission(m.Authz, rbac.ProfileUpdate), m.Handler.DeleteAccount)
	}
}
