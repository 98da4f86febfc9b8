package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/shyamsasidharan1/eventbuddy/internal/dto"
	"github.com/shyamsasidharan1/eventbuddy/internal/service"
	"github.com/shyamsasidharan1/eventbuddy/pkg/response"
)

// PublicHandler 公开接口（无需登录）HTTP 处理器
type PublicHandler struct {
	publicSvc service.PublicService
}

// NewPublicHandler 创建 PublicHandler
func NewPublicHandler(publicSvc service.PublicService) *PublicHandler {
	return &PublicHandler{publicSvc: publicSvc}
}

// GetOrganization 组织公开信息
// GET /api/v1/public/organizations/:slug
func (h *PublicHandler) GetOrganization(c *gin.Context) {
	org, err := h.publicSvc.GetOrganization(c.Request.Context(), c.Param("slug"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, org)
}

// SubmitRegistrationRequest 提交入会申请
// POST /api/v1/public/organizations/:slug/register
func (h *PublicHandler) SubmitRegistrationRequest(c *gin.Context) {
	var req dto.PublicRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.publicSvc.SubmitRegistrationRequest(c.Request.Context(), c.Param("slug"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, result)
}

// ListPublicEvents 组织公开活动
// GET /api/v1/public/organizations/:slug/events
func (h *PublicHandler) ListPublicEvents(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	list, total, err := h.publicSvc.ListPublicEvents(c.Request.Context(), c.Param("slug"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ValidatePhone 校验并格式化电话号码
// POST /api/v1/public/validate/phone
func (h *PublicHandler) ValidatePhone(c *gin.Context) {
	var req dto.ValidatePhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	response.OK(c, h.publicSvc.ValidatePhone(&req))
}

// ValidateZip 校验邮编
// POST /api/v1/public/validate/zipcode
func (h *PublicHandler) ValidateZip(c *gin.Context) {
	var req dto.ValidateZipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	response.OK(c, h.publicSvc.ValidateZip(&req))
}
