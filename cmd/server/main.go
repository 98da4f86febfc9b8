package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/shyamsasidharan1/eventbuddy/config"
	"github.com/shyamsasidharan1/eventbuddy/internal/api/handler"
	"github.com/shyamsasidharan1/eventbuddy/internal/api/router"
	"github.com/shyamsasidharan1/eventbuddy/internal/notify"
	"github.com/shyamsasidharan1/eventbuddy/internal/repository"
	"github.com/shyamsasidharan1/eventbuddy/internal/service"
	"github.com/shyamsasidharan1/eventbuddy/pkg/database"
	"github.com/shyamsasidharan1/eventbuddy/pkg/i18n"
	"github.com/shyamsasidharan1/eventbuddy/pkg/jwt"
	applogger "github.com/shyamsasidharan1/eventbuddy/pkg/logger"
	"github.com/shyamsasidharan1/eventbuddy/pkg/mailer"
	"github.com/shyamsasidharan1/eventbuddy/pkg/rabbitmq"
	"github.com/shyamsasidharan1/eventbuddy/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	bootstrap := flag.Bool("bootstrap", false, "初始化组织与首个管理员后退出")
	var in service.BootstrapInput
	flag.StringVar(&in.OrgName, "org-name", "", "组织名称（-bootstrap）")
	flag.StringVar(&in.OrgSlug, "org-slug", "", "组织标识（-bootstrap）")
	flag.StringVar(&in.AdminEmail, "admin-email", "", "管理员邮箱（-bootstrap）")
	flag.StringVar(&in.AdminPassword, "admin-password", os.Getenv("EVENTBUDDY_ADMIN_PASSWORD"), "管理员密码（-bootstrap）")
	flag.StringVar(&in.FirstName, "admin-first-name", "", "管理员名")
	flag.StringVar(&in.LastName, "admin-last-name", "", "管理员姓")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log, "server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库并迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	repo := repository.NewRepository(db)

	if *bootstrap {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		org, admin, err := service.Bootstrap(ctx, cfg, repo, in, logger)
		if err != nil {
			logger.Fatal("初始化失败", zap.Error(err))
		}
		fmt.Printf("organization %s (%s) created, admin member %s\n", org.Slug, org.OrgID, admin.MemberID)
		return
	}

	// 4. Redis（可选：连接失败时降级为进程内锁，黑名单与限流不可用）
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，降级运行", zap.Error(err))
			rdb = nil
		}
	}
	locker := service.NewLocalEventLocker()
	if rdb != nil {
		locker = service.NewRedisEventLocker(rdb, cfg.Redis.LockTTL)
		defer rdb.Close()
	}

	// 5. 通知：队列 > SMTP > 仅日志
	catalog, err := i18n.NewCatalog(cfg.Mail.Locale)
	if err != nil {
		logger.Fatal("加载通知文案失败", zap.Error(err))
	}
	var sender notify.Sender
	switch {
	case cfg.AMQP.Enabled:
		pub, err := rabbitmq.NewPublisher(&cfg.AMQP, logger)
		if err != nil {
			logger.Fatal("RabbitMQ 连接失败", zap.Error(err))
		}
		defer pub.Close()
		sender = notify.NewQueueSender(pub)
	case cfg.Mail.Enabled():
		sender = mailer.NewSMTPMailer(&cfg.Mail)
	default:
		logger.Warn("未配置 SMTP 与队列，邮件只记录日志")
		sender = notify.NewLogSender(logger)
	}
	notifier := notify.NewDispatcher(catalog, sender, repo.Notification, notify.Options{
		WebOrigin: cfg.Mail.WebOrigin,
		Locale:    cfg.Mail.Locale,
		InviteTTL: cfg.Auth.InviteTokenTTL,
	}, logger)

	// 6. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, notifier, locker, logger)
	h := handler.NewHandler(cfg, svc)

	// 7. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, db, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	logger.Info("服务器已关闭")
}
