package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/shyamsasidharan1/eventbuddy/internal/dto"
	"github.com/shyamsasidharan1/eventbuddy/internal/service"
	"github.com/shyamsasidharan1/eventbuddy/pkg/response"
)

const contentTypeICS = "text/calendar; charset=utf-8"

// EventHandler 活动模块 HTTP 处理器
type EventHandler struct {
	eventSvc service.EventService
}

// NewEventHandler 创建 EventHandler
func NewEventHandler(eventSvc service.EventService) *EventHandler {
	return &EventHandler{eventSvc: eventSvc}
}

// CreateEvent 创建活动
// POST /api/v1/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	event, err := h.eventSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, event)
}

// UpdateEvent 更新活动
// PUT /api/v1/events/:id
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	event, err := h.eventSvc.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, event)
}

// DeactivateEvent 下线活动（软删除）
// DELETE /api/v1/events/:id
func (h *EventHandler) DeactivateEvent(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.eventSvc.Deactivate(c.Request.Context(), actor, c.Param("id")); err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetEvent 活动详情
// GET /api/v1/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, event)
}

// ListEvents 活动列表
// GET /api/v1/events
func (h *EventHandler) ListEvents(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.EventListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	list, total, err := h.eventSvc.List(c.Request.Context(), actor, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetCapacity 活动名额情况
// GET /api/v1/events/:id/capacity
func (h *EventHandler) GetCapacity(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	capacity, err := h.eventSvc.Capacity(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, capacity)
}

// GetStats 活动报名与签到统计
// GET /api/v1/events/:id/stats
func (h *EventHandler) GetStats(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	stats, err := h.eventSvc.Stats(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, stats)
}

// GetCalendar 下载单个活动的 ICS
// GET /api/v1/events/:id/calendar
func (h *EventHandler) GetCalendar(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	eventID := c.Param("id")
	body, err := h.eventSvc.Calendar(c.Request.Context(), actor, eventID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Attachment(c, contentTypeICS, "event-"+eventID+".ics", body)
}

// GetMyCalendar 下载本人已报名活动的 ICS
// GET /api/v1/events/calendar
func (h *EventHandler) GetMyCalendar(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	body, err := h.eventSvc.MyCalendar(c.Request.Context(), actor)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Attachment(c, contentTypeICS, "my-events.ics", body)
}
