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

type AdminModule struct {
	Handler *handlers.AdminHandler
	JWT     *helpers.JWTManager
	Authz   *authz.Service
}

func NewAdminModule(h *handlers.AdminHandler, jwt *helpers.JWTManager, az *authz.Service) *AdminModule {
	return &AdminModule{Handler: h, JWT: jwt, Authz: az}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(middleware.Auth(container.GetRedis(), m.JWT))
	admin.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		admin.GET("/users/search", middleware.RequirePermission(m.Authz, rbac.UsersRead), m.Handler.Search)
		admin.GET("/users/:id/roles", middleware.RequirePermission(m.Authz, rbac.UsersRead), m.Handler.ListRoles)
		admin.POST("/users/:id/roles", middleware.RequirePermission(m.Authz, rbac.UsersUpdate), m.Handler.AssignRole)
		admin.DELETE("/users/:id/roles/:role", middleware.RequirePermission(m.Authz, rbac.UsersUpdate), m.Handler.RemoveRole)
	}
}
