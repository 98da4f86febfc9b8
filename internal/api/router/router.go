package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shyamsasidharan1/eventbuddy/config"
	"github.com/shyamsasidharan1/eventbuddy/internal/api/handler"
	"github.com/shyamsasidharan1/eventbuddy/internal/api/middleware"
	"github.com/shyamsasidharan1/eventbuddy/pkg/jwt"
	"github.com/shyamsasidharan1/eventbuddy/pkg/metrics"
	"github.com/shyamsasidharan1/eventbuddy/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎；db 为 nil 时 /ready 只检查进程存活
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	if cfg.Metrics.Enabled {
		r.Use(metrics.Middleware())
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, metrics.Handler())
	}

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", readiness(db, rdb))

	limited := middleware.RateLimit(rdb, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", limited, h.Auth.Login)
			auth.POST("/refresh", limited, h.Auth.RefreshToken)
		}
		v1.POST("/invites/accept", limited, h.Member.AcceptInvite)

		// 公开接口
		public := v1.Group("/public", limited)
		{
			public.GET("/organizations/:slug", h.Public.GetOrganization)
			public.POST("/organizations/:slug/register", h.Public.SubmitRegistrationRequest)
			public.GET("/organizations/:slug/events", h.Public.ListPublicEvents)
			public.POST("/validate/phone", h.Public.ValidatePhone)
			public.POST("/validate/zipcode", h.Public.ValidateZip)
		}

		// 需要认证的路由；角色能力在 Service 层校验
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 会员模块
			members := authorized.Group("/members")
			{
				members.POST("/invite", h.Member.Invite)
				members.GET("", h.Member.ListMembers)
				members.GET("/stats", h.Member.Stats)
				members.GET("/pending", h.Member.PendingApprovals)
				members.GET("/me", h.Member.GetMyProfile)
				members.GET("/:id", h.Member.GetMember)
				members.PUT("/:id", h.Member.UpdateMember)
				members.POST("/:id/resend-invite", h.Member.ResendInvite)
				members.POST("/:id/approve", h.Member.Approve)
				members.POST("/:id/deny", h.Member.Deny)
				members.POST("/:id/inactivate", h.Member.Inactivate)
				members.POST("/:id/activate", h.Member.Activate)
				members.POST("/:id/family", h.Family.AddFamilyMember)
				members.GET("/:id/family", h.Family.ListFamilyMembers)
			}

			// 家庭成员模块
			family := authorized.Group("/family-members")
			{
				family.PUT("/:id", h.Family.UpdateFamilyMember)
				family.DELETE("/:id", h.Family.RemoveFamilyMember)
			}

			// 活动模块
			events := authorized.Group("/events")
			{
				events.POST("", h.Event.CreateEvent)
				events.GET("", h.Event.ListEvents)
				events.GET("/calendar", h.Event.GetMyCalendar)
				events.GET("/:id", h.Event.GetEvent)
				events.PUT("/:id", h.Event.UpdateEvent)
				events.DELETE("/:id", h.Event.DeactivateEvent)
				events.GET("/:id/capacity", h.Event.GetCapacity)
				events.GET("/:id/stats", h.Event.GetStats)
				events.GET("/:id/calendar", h.Event.GetCalendar)
				events.POST("/:id/registrations", h.Registration.Register)
				events.GET("/:id/registrations", h.Registration.ListForEvent)
				events.POST("/:id/checkin", h.Registration.CheckIn)
			}

			// 报名模块
			registrations := authorized.Group("/registrations")
			{
				registrations.GET("/mine", h.Registration.ListMine)
				registrations.PUT("/:id/status", h.Registration.UpdateStatus)
				registrations.POST("/:id/cancel", h.Registration.Cancel)
			}

			// 报表模块
			reports := authorized.Group("/reports")
			{
				reports.GET("/membership", h.Report.Membership)
				reports.GET("/registrations", h.Report.Registrations)
				reports.GET("/attendance", h.Report.Attendance)
				reports.GET("/financial", h.Report.Financial)
			}

			authorized.GET("/audit-logs", h.Audit.ListAuditLogs)
		}
	}

	return r
}

// readiness 检查数据库与 Redis（启用时）是否可用
func readiness(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{}
		ready := true
		if db != nil {
			checks["database"] = "ok"
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				checks["database"] = err.Error()
				ready = false
			}
		}
		if rdb != nil {
			checks["redis"] = "ok"
			if err := rdb.Ping(ctx); err != nil {
				checks["redis"] = err.Error()
				ready = false
			}
		}

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"ready": ready, "checks": checks})
	}
}
