package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/shyamsasidharan1/eventbuddy/internal/dto"
	"github.com/shyamsasidharan1/eventbuddy/internal/service"
	"github.com/shyamsasidharan1/eventbuddy/pkg/response"
)

// RegistrationHandler 报名模块 HTTP 处理器
type RegistrationHandler struct {
	registrationSvc service.RegistrationService
}

// NewRegistrationHandler 创建 RegistrationHandler
func NewRegistrationHandler(registrationSvc service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationSvc: registrationSvc}
}

// Register 为本人或家庭成员批量报名
// POST /api/v1/events/:id/registrations
func (h *RegistrationHandler) Register(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.registrationSvc.Register(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, result)
}

// ListForEvent 活动报名名单
// GET /api/v1/events/:id/registrations
func (h *RegistrationHandler) ListForEvent(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.RegistrationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.registrationSvc.ListForEvent(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// ListMine 本人及家庭成员的报名
// GET /api/v1/registrations/mine
func (h *RegistrationHandler) ListMine(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.registrationSvc.ListMine(c.Request.Context(), actor)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// UpdateStatus 管理员修改报名状态
// PUT /api/v1/registrations/:id/status
func (h *RegistrationHandler) UpdateStatus(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.UpdateRegistrationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	reg, err := h.registrationSvc.UpdateStatus(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, reg)
}

// Cancel 取消报名
// POST /api/v1/registrations/:id/cancel
func (h *RegistrationHandler) Cancel(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.registrationSvc.Cancel(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// CheckIn 批量签到
// POST /api/v1/events/:id/checkin
func (h *RegistrationHandler) CheckIn(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.registrationSvc.CheckIn(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}
