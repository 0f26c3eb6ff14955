package router

import "github.com/gin-gonic/gin"

// Module is one feature surface (auth, profile, events, admin) that mounts
// its own routes and per-route guards on the shared /api group.
type Module interface {
	Register(rg *gin.RouterGroup)
}
