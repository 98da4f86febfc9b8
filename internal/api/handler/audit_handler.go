package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/shyamsasidharan1/eventbuddy/internal/dto"
	"github.com/shyamsasidharan1/eventbuddy/internal/service"
	"github.com/shyamsasidharan1/eventbuddy/pkg/response"
)

// AuditHandler 审计日志 HTTP 处理器
type AuditHandler struct {
	auditSvc service.AuditService
}

// NewAuditHandler 创建 AuditHandler
func NewAuditHandler(auditSvc service.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// ListAuditLogs 审计日志列表
// GET /api/v1/audit-logs
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.AuditLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	list, total, err := h.auditSvc.List(c.Request.Context(), actor, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}
