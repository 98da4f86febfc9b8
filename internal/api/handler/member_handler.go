package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/dto"
	"github.com/shyamsasidharan1/eventbuddy/internal/service"
	"github.com/shyamsasidharan1/eventbuddy/pkg/response"
)

// MemberHandler 会员模块 HTTP 处理器
type MemberHandler struct {
	memberSvc service.MemberService
}

// NewMemberHandler 创建 MemberHandler
func NewMemberHandler(memberSvc service.MemberService) *MemberHandler {
	return &MemberHandler{memberSvc: memberSvc}
}

// Invite 邀请会员
// POST /api/v1/members/invite
func (h *MemberHandler) Invite(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.memberSvc.Invite(c.Request.Context(), actor, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, result)
}

// ResendInvite 重新发送邀请
// POST /api/v1/members/:id/resend-invite
func (h *MemberHandler) ResendInvite(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.memberSvc.ResendInvite(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// AcceptInvite 接受邀请并设置密码（无需登录）
// POST /api/v1/invites/accept
func (h *MemberHandler) AcceptInvite(c *gin.Context) {
	var req dto.AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	member, err := h.memberSvc.AcceptInvite(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, member)
}

// Approve 审批通过入会申请
// POST /api/v1/members/:id/approve
func (h *MemberHandler) Approve(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	member, err := h.memberSvc.Approve(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, member)
}

// Deny 拒绝入会申请
// POST /api/v1/members/:id/deny
func (h *MemberHandler) Deny(c *gin.Context) {
	h.withReason(c, h.memberSvc.Deny)
}

// Inactivate 停用会员
// POST /api/v1/members/:id/inactivate
func (h *MemberHandler) Inactivate(c *gin.Context) {
	h.withReason(c, h.memberSvc.Inactivate)
}

// Activate 重新激活会员
// POST /api/v1/members/:id/activate
func (h *MemberHandler) Activate(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	member, err := h.memberSvc.Activate(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, member)
}

// ListMembers 会员列表
// GET /api/v1/members
func (h *MemberHandler) ListMembers(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.MemberListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	list, total, err := h.memberSvc.List(c.Request.Context(), actor, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// PendingApprovals 待审批会员列表
// GET /api/v1/members/pending
func (h *MemberHandler) PendingApprovals(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	list, total, err := h.memberSvc.PendingApprovals(c.Request.Context(), actor, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetMember 会员详情
// GET /api/v1/members/:id
func (h *MemberHandler) GetMember(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	member, err := h.memberSvc.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, member)
}

// GetMyProfile 本人会员档案
// GET /api/v1/members/me
func (h *MemberHandler) GetMyProfile(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	member, err := h.memberSvc.GetMyProfile(c.Request.Context(), actor)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, member)
}

// UpdateMember 更新会员档案（管理员或本人，Service 层鉴权）
// PUT /api/v1/members/:id
func (h *MemberHandler) UpdateMember(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	member, err := h.memberSvc.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, member)
}

// Stats 会员统计
// GET /api/v1/members/stats
func (h *MemberHandler) Stats(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	stats, err := h.memberSvc.Stats(c.Request.Context(), actor)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, stats)
}

type reasonTransition func(ctx context.Context, actor domain.Actor, memberID, reason string) (*dto.MemberResponse, error)

// withReason 拒绝、停用共用的请求处理
func (h *MemberHandler) withReason(c *gin.Context, fn reasonTransition) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	member, err := fn(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, member)
}
