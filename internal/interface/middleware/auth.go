package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/kalenso/kalenso/pkg/helpers"
	"github.com/kalenso/kalenso/pkg/response"
)

// CtxUserIDKey holds the authenticated user id (int64) in the Gin context.
const CtxUserIDKey = "userID"

// UserID returns the authenticated user id from the Gin context.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(CtxUserIDKey)
}

// Auth validates the access token and ensures an active session exists in
// Redis. It answers session presence only; permission checks happen at the
// operation layer, not here.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("access_token")
		if err != nil || token == "" {
			response.Error[any](c, http.StatusUnauthorized, "authentication required", nil)
			c.Abort()
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", nil)
			c.Abort()
			return
		}

		if rdb != nil {
			key := "user:session:" + strconv.FormatInt(claims.UserID, 10)
			data, err := rdb.HGetAll(c.Request.Context(), key).Result()
			if err != nil || len(data) == 0 || data["sid"] != claims.SessionID {
				response.Error[any](c, http.StatusUnauthorized, "session not found", nil)
				c.Abort()
				return
			}
			c.Set("userEmail", data["email"])
			c.Set("userName", data["name"])
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Next()
	}
}
