package middleware

import (
	"strings"

	"rentflow/response"
	"rentflow/services"

	"github.com/gin-gonic/gin"
)

// Key trong gin.Context
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
	ContextActor    = "actor"
)

// AuthMiddleware xác thực Bearer token; roles rỗng là cho phép mọi role
func AuthMiddleware(secret []byte, roles ...int) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := services.ParseToken(tokenString, secret)
		if err != nil {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		// Kiểm tra role nếu có yêu cầu
		if len(roles) > 0 && !hasRole(roles, claims.Role) {
			response.Forbidden(c)
			c.Abort()
			return
		}

		actor, err := services.ActorFromClaims(claims)
		if err != nil {
			response.Forbidden(c)
			c.Abort()
			return
		}

		// Lưu thông tin user vào context
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, claims.Role)
		c.Set(ContextActor, actor)
		c.Next()
	}
}

// RoleMiddleware kiểm tra role của user, dùng sau AuthMiddleware
func RoleMiddleware(roles ...int) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ContextUserRole)
		if !exists {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		role, ok := userRole.(int)
		if !ok || !hasRole(roles, role) {
			response.Forbidden(c)
			c.Abort()
			return
		}

		c.Next()
	}
}

// ActorFrom lấy actor đã xác thực từ context
func ActorFrom(c *gin.Context) (services.Actor, bool) {
	v, exists := c.Get(ContextActor)
	if !exists {
		return services.Actor{}, false
	}
	actor, ok := v.(services.Actor)
	return actor, ok
}

func hasRole(roles []int, role int) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
