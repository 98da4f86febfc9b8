package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/dto"
	"github.com/shyamsasidharan1/eventbuddy/internal/service"
	"github.com/shyamsasidharan1/eventbuddy/pkg/response"
)

// ReportHandler 报表模块 HTTP 处理器；format=csv|xlsx 时以附件下载
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// Membership 会员报表
// GET /api/v1/reports/membership
func (h *ReportHandler) Membership(c *gin.Context) {
	h.serve(c, service.ReportMembership, func(actor domain.Actor, req *dto.ReportRequest) (any, error) {
		return h.reportSvc.Membership(c.Request.Context(), actor, req)
	})
}

// Registrations 报名报表
// GET /api/v1/reports/registrations
func (h *ReportHandler) Registrations(c *gin.Context) {
	h.serve(c, service.ReportRegistrations, func(actor domain.Actor, req *dto.ReportRequest) (any, error) {
		return h.reportSvc.Registrations(c.Request.Context(), actor, req)
	})
}

// Attendance 签到报表
// GET /api/v1/reports/attendance
func (h *ReportHandler) Attendance(c *gin.Context) {
	h.serve(c, service.ReportAttendance, func(actor domain.Actor, req *dto.ReportRequest) (any, error) {
		return h.reportSvc.Attendance(c.Request.Context(), actor, req)
	})
}

// Financial 会费报表（仅管理员）
// GET /api/v1/reports/financial
func (h *ReportHandler) Financial(c *gin.Context) {
	h.serve(c, service.ReportFinancial, func(actor domain.Actor, _ *dto.ReportRequest) (any, error) {
		return h.reportSvc.Financial(c.Request.Context(), actor)
	})
}

// serve JSON 直接返回数据，其余格式走导出
func (h *ReportHandler) serve(c *gin.Context, kind string, asJSON func(domain.Actor, *dto.ReportRequest) (any, error)) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	if req.GetFormat() == dto.FormatJSON {
		data, err := asJSON(actor, &req)
		if err != nil {
			handleError(c, err)
			return
		}
		response.OK(c, data)
		return
	}

	file, err := h.reportSvc.Export(c.Request.Context(), actor, kind, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content.Bytes())
}
