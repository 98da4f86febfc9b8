package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/pkg/response"
)

// 认证中间件写入 gin.Context 的键
const (
	CtxUserID   = "user_id"
	CtxOrgID    = "org_id"
	CtxRole     = "role"
	CtxTokenJTI = "token_jti"
	CtxTokenExp = "token_exp"
)

// MustGetActor 从 Gin 上下文中组装调用方身份。
// 如果 JWT 中间件未正确注入身份信息，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetActor(c *gin.Context) (domain.Actor, bool) {
	userID := c.GetString(CtxUserID)
	orgID := c.GetString(CtxOrgID)
	role := domain.Role(c.GetString(CtxRole))
	if userID == "" || orgID == "" || !role.Valid() {
		response.Unauthorized(c, 40100, "未认证")
		return domain.Actor{}, false
	}
	return domain.Actor{UserID: userID, OrgID: orgID, Role: role}, true
}

// tokenInfo 当前 Access Token 的 jti 与过期时间，用于登出拉黑
func tokenInfo(c *gin.Context) (string, time.Time) {
	jti := c.GetString(CtxTokenJTI)
	exp, _ := c.Get(CtxTokenExp)
	expiresAt, _ := exp.(time.Time)
	return jti, expiresAt
}
