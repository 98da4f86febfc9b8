package service

import (
	"go.uber.org/zap"

	"github.com/shyamsasidharan1/eventbuddy/config"
	"github.com/shyamsasidharan1/eventbuddy/internal/notify"
	"github.com/shyamsasidharan1/eventbuddy/internal/repository"
	"github.com/shyamsasidharan1/eventbuddy/pkg/jwt"
	"github.com/shyamsasidharan1/eventbuddy/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	Member       MemberService
	Family       FamilyService
	Public       PublicService
	Event        EventService
	Registration RegistrationService
	Report       ReportService
	Audit        AuditService
}

// NewService 创建 Service 聚合；rdb 可为 nil（未启用 Redis）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	notifier notify.Notifier,
	locker EventLocker,
	logger *zap.Logger,
) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if locker == nil {
		locker = NewLocalEventLocker()
	}
	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		Member:       NewMemberService(cfg, repo, jwtMgr, notifier, logger),
		Family:       NewFamilyService(repo, logger),
		Public:       NewPublicService(cfg, repo, notifier, logger),
		Event:        NewEventService(repo, logger),
		Registration: NewRegistrationService(cfg, repo, locker, notifier, logger),
		Report:       NewReportService(repo, logger),
		Audit:        NewAuditService(repo, logger),
	}
}
