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

// CalendarModule wires event routes. Each CRUD verb maps to its own
// calendar permission; export additionally requires reports:export.
type CalendarModule struct {
	Handler *handlers.CalendarHandler
	JWT     *helpers.JWTManager
	Authz   *authz.Service
}

func NewCalendarModule(h *handlers.CalendarHandler, jwt *helpers.JWTManager, az *authz.Service) *CalendarModule {
	return &CalendarModule{Handler: h, JWT: jwt, Authz: az}
}

func (m *CalendarModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 240, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/events", middleware.RequirePermission(m.Authz, rbac.CalendarRead), m.Handler.List)
		auth.GET("/events/export", middleware.RequirePermission(m.Authz, rbac.ReportsExport), m.Handler.Export)
		auth.POST("/events", middleware.RequirePermission(m.Authz, rbac.CalendarCreate), m.Handler.Create)
		auth.PUT("/events/:id", middleware.RequirePermission(m.Authz, rbac.CalendarUpdate), m.Handler.Update)
		auth.DELETE("/events/:id", middleware.RequirePermission(m.Authz, rbac.CalendarDelete), m.Handler.Delete)
	}
}
