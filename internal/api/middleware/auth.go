package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shyamsasidharan1/eventbuddy/pkg/jwt"
	"github.com/shyamsasidharan1/eventbuddy/pkg/redis"
	"github.com/shyamsasidharan1/eventbuddy/pkg/response"
)

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token，
// rdb 非 nil 时拒绝已登出（拉黑）的 Token；Redis 出错时降级放行
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 40100, "缺少认证头")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 40100, "认证头格式无效")
			return
		}

		claims, err := jwtMgr.ParseTokenOfType(parts[1], jwt.TypeAccess)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.Unauthorized(c, 40104, "Token 已过期")
				return
			}
			response.Unauthorized(c, 40103, "Token 无效")
			return
		}

		if rdb != nil && claims.ID != "" {
			blacklisted, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && blacklisted {
				response.Unauthorized(c, 40103, "Token 已失效")
				return
			}
		}

		// 将调用方身份注入上下文
		c.Set("user_id", claims.UserID)
		c.Set("org_id", claims.OrgID)
		c.Set("role", claims.Role)
		c.Set("token_jti", claims.ID)
		if claims.ExpiresAt != nil {
			c.Set("token_exp", claims.ExpiresAt.Time)
		}

		c.Next()
	}
}
