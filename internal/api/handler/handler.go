package handler

import (
	"github.com/shyamsasidharan1/eventbuddy/config"
	"github.com/shyamsasidharan1/eventbuddy/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	Member       *MemberHandler
	Family       *FamilyHandler
	Public       *PublicHandler
	Event        *EventHandler
	Registration *RegistrationHandler
	Report       *ReportHandler
	Audit        *AuditHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, cfg),
		Member:       NewMemberHandler(svc.Member),
		Family:       NewFamilyHandler(svc.Family),
		Public:       NewPublicHandler(svc.Public),
		Event:        NewEventHandler(svc.Event),
		Registration: NewRegistrationHandler(svc.Registration),
		Report:       NewReportHandler(svc.Report),
		Audit:        NewAuditHandler(svc.Audit),
	}
}
