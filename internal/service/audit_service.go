package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/dto"
	"github.com/shyamsasidharan1/eventbuddy/internal/repository"
)

// AuditService 审计日志查询接口
type AuditService interface {
	List(ctx context.Context, actor domain.Actor, req *dto.AuditLogListRequest) ([]dto.AuditLogResponse, int64, error)
}

type auditService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAuditService 创建 AuditService 实例
func NewAuditService(repo *repository.Repository, logger *zap.Logger) AuditService {
	return &auditService{repo: repo, logger: logger}
}

func (s *auditService) List(ctx context.Context, actor domain.Actor, req *dto.AuditLogListRequest) ([]dto.AuditLogResponse, int64, error) {
	if err := domain.Authorize(actor, domain.CapViewAudit); err != nil {
		return nil, 0, err
	}

	logs, total, err := s.repo.AuditLog.List(ctx, actor.OrgID, repository.AuditLogFilter{
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Action:     req.Action,
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询审计日志失败", zap.Error(err))
		return nil, 0, err
	}

	items := make([]dto.AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		items = append(items, dto.AuditLogResponse{
			AuditLogID:     l.AuditLogID,
			ActorID:        derefStr(l.ActorID),
			Action:         l.Action,
			EntityType:     l.EntityType,
			EntityID:       l.EntityID,
			PreviousStatus: derefStr(l.PreviousStatus),
			NewStatus:      derefStr(l.NewStatus),
			Message:        l.Message,
			Metadata:       jsonObject(l.Metadata),
			CreatedAt:      formatTime(l.CreatedAt),
		})
	}
	return items, total, nil
}
