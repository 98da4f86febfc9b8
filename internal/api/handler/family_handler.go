package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/shyamsasidharan1/eventbuddy/internal/dto"
	"github.com/shyamsasidharan1/eventbuddy/internal/service"
	"github.com/shyamsasidharan1/eventbuddy/pkg/response"
)

// FamilyHandler 家庭成员 HTTP 处理器
type FamilyHandler struct {
	familySvc service.FamilyService
}

// NewFamilyHandler 创建 FamilyHandler
func NewFamilyHandler(familySvc service.FamilyService) *FamilyHandler {
	return &FamilyHandler{familySvc: familySvc}
}

// AddFamilyMember 添加家庭成员
// POST /api/v1/members/:id/family
func (h *FamilyHandler) AddFamilyMember(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.FamilyMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	fm, err := h.familySvc.Add(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, fm)
}

// ListFamilyMembers 会员的家庭成员列表
// GET /api/v1/members/:id/family
func (h *FamilyHandler) ListFamilyMembers(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.familySvc.List(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// UpdateFamilyMember 更新家庭成员
// PUT /api/v1/family-members/:id
func (h *FamilyHandler) UpdateFamilyMember(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.UpdateFamilyMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	fm, err := h.familySvc.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, fm)
}

// RemoveFamilyMember 移除家庭成员
// DELETE /api/v1/family-members/:id
func (h *FamilyHandler) RemoveFamilyMember(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.familySvc.Remove(c.Request.Context(), actor, c.Param("id")); err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, nil)
}
