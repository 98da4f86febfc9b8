package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shyamsasidharan1/eventbuddy/config"
	"github.com/shyamsasidharan1/eventbuddy/internal/dto"
	"github.com/shyamsasidharan1/eventbuddy/internal/service"
	"github.com/shyamsasidharan1/eventbuddy/pkg/response"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
	cfg     *config.Config
}

// NewAuthHandler 创建 AuthHandler；cfg 为 nil 时 Cookie 以会话 Cookie 形式下发
func NewAuthHandler(authSvc service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cfg: cfg}
}

// Login 邮箱密码登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.OK(c, result)
}

// RefreshToken 刷新 Token；refresh token 取自请求体或 Cookie
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	token := ""
	if err := c.ShouldBindJSON(&req); err == nil {
		token = req.RefreshToken
	}
	if token == "" {
		token, _ = c.Cookie(refreshCookieName)
	}
	if token == "" {
		response.BadRequest(c, 40000, "缺少 refresh_token")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), token)
	if err != nil {
		handleError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.OK(c, result)
}

// Logout 登出，当前 Access Token 加入黑名单
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, expiresAt := tokenInfo(c)
	if jti != "" {
		if err := h.authSvc.Logout(c.Request.Context(), jti, expiresAt); err != nil {
			handleError(c, err)
			return
		}
	}

	h.clearRefreshCookie(c)
	response.OK(c, nil)
}

// GetCurrentUser 获取当前登录账号
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	me, err := h.authSvc.Me(c.Request.Context(), actor)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, me)
}

// ChangePassword 修改本人密码
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), actor, &req); err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── Cookie ──

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	if token == "" {
		return
	}
	maxAge, secure := 0, false
	if h.cfg != nil {
		maxAge = int(h.cfg.Auth.RefreshTokenTTL.Seconds())
		secure = h.cfg.Server.Mode == gin.ReleaseMode
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, token, maxAge, refreshCookiePath, "", secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	secure := h.cfg != nil && h.cfg.Server.Mode == gin.ReleaseMode
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, refreshCookiePath, "", secure, true)
}
