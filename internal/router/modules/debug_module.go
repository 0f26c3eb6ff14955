package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kalenso/kalenso/internal/container"
	"github.com/kalenso/kalenso/internal/interface/middleware"
)

// DebugModule exposes process counters over expvar. The endpoint carries no
// user data but is still rate limited per IP.
type DebugModule struct{}

func NewDebugModule() *DebugModule { return &DebugModule{} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	limit := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), nil)
	rg.GET("/debug/vars", limit, gin.WrapH(expvar.Handler()))
}
