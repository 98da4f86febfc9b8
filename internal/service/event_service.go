package service

import (
	"context"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/dto"
	"github.com/shyamsasidharan1/eventbuddy/internal/model"
	"github.com/shyamsasidharan1/eventbuddy/internal/repository"
	apperrors "github.com/shyamsasidharan1/eventbuddy/pkg/errors"
)

// ── 活动模块业务错误 ──

var (
	ErrEventNotFound          = apperrors.New(apperrors.ErrNotFound, 40405, "活动不存在")
	ErrEventInactive          = apperrors.New(apperrors.ErrInvalidState, 42205, "活动已下线")
	ErrEventStarted           = apperrors.New(apperrors.ErrInvalidState, 42206, "活动已开始或已结束")
	ErrCapacityBelowOccupancy = apperrors.New(apperrors.ErrInvalidState, 42207, "活动容量不能低于当前已占用名额")
)

const icsProductID = "-//EventBuddy//Events//EN"

// EventService 活动业务接口
type EventService interface {
	Create(ctx context.Context, actor domain.Actor, req *dto.CreateEventRequest) (*dto.EventResponse, error)
	Update(ctx context.Context, actor domain.Actor, eventID string, req *dto.UpdateEventRequest) (*dto.EventResponse, error)
	Deactivate(ctx context.Context, actor domain.Actor, eventID string) error
	Get(ctx context.Context, actor domain.Actor, eventID string) (*dto.EventResponse, error)
	List(ctx context.Context, actor domain.Actor, req *dto.EventListRequest) ([]dto.EventResponse, int64, error)
	Capacity(ctx context.Context, actor domain.Actor, eventID string) (*dto.EventCapacityResponse, error)
	Stats(ctx context.Context, actor domain.Actor, eventID string) (*dto.EventStatsResponse, error)
	Calendar(ctx context.Context, actor domain.Actor, eventID string) ([]byte, error)
	MyCalendar(ctx context.Context, actor domain.Actor) ([]byte, error)
}

type eventService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewEventService 创建 EventService 实例
func NewEventService(repo *repository.Repository, logger *zap.Logger) EventService {
	return &eventService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *eventService) Create(ctx context.Context, actor domain.Actor, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	if err := domain.Authorize(actor, domain.CapManageEvents); err != nil {
		return nil, err
	}

	startsAt, err := parseTime(req.StartsAt)
	if err != nil {
		return nil, apperrors.Validation("开始时间格式不正确，需为 RFC3339")
	}
	if !startsAt.After(now()) {
		return nil, apperrors.Validation("开始时间必须晚于当前时间")
	}
	var endsAt *time.Time
	if req.EndsAt != "" {
		t, err := parseTime(req.EndsAt)
		if err != nil {
			return nil, apperrors.Validation("结束时间格式不正确，需为 RFC3339")
		}
		endsAt = &t
	}

	waitlist := true
	if req.WaitlistEnabled != nil {
		waitlist = *req.WaitlistEnabled
	}

	event := &model.Event{
		EventID:          uuid.NewString(),
		OrgID:            actor.OrgID,
		Title:            req.Title,
		Description:      req.Description,
		Location:         req.Location,
		StartsAt:         startsAt.UTC(),
		EndsAt:           endsAt,
		Capacity:         req.Capacity,
		MaxCapacity:      req.MaxCapacity,
		WaitlistEnabled:  waitlist,
		RequiresApproval: req.RequiresApproval,
		IsPublic:         req.IsPublic,
		IsActive:         true,
		CustomFields:     toJSON(req.CustomFields, "[]"),
		BaseModel:        model.BaseModel{CreatedBy: strPtr(actor.UserID)},
	}
	if err := validateEventSchedule(event); err != nil {
		return nil, err
	}

	if err := s.repo.Event.Create(ctx, event); err != nil {
		s.logger.Error("创建活动失败", zap.Error(err))
		return nil, err
	}
	s.logger.Info("活动已创建", zap.String("event_id", event.EventID), zap.String("actor", actor.UserID))

	return eventWithAvailability(ctx, s.repo, event)
}

// validateEventSchedule 校验容量与时间约束（基于合并后的最终值）
func validateEventSchedule(e *model.Event) error {
	if e.Capacity < 1 {
		return apperrors.Validation("容量至少为 1")
	}
	if e.MaxCapacity != nil && *e.MaxCapacity < e.Capacity {
		return apperrors.Validation("最大容量不能小于容量")
	}
	if e.EndsAt != nil && e.EndsAt.Before(e.StartsAt) {
		return apperrors.Validation("结束时间不能早于开始时间")
	}
	return nil
}

// ────────────────────── Update ──────────────────────

func (s *eventService) Update(ctx context.Context, actor domain.Actor, eventID string, req *dto.UpdateEventRequest) (*dto.EventResponse, error) {
	if err := domain.Authorize(actor, domain.CapManageEvents); err != nil {
		return nil, err
	}

	var event *model.Event
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		// 行锁防止与报名并发时容量判定失真
		event, err = tx.Event.GetByIDForUpdate(ctx, actor.OrgID, eventID)
		if err != nil {
			return notFoundAs(err, ErrEventNotFound)
		}
		if !event.IsActive {
			return ErrEventInactive
		}

		if err := applyEventUpdate(event, req); err != nil {
			return err
		}
		if err := validateEventSchedule(event); err != nil {
			return err
		}

		if req.Capacity != nil || req.MaxCapacity != nil {
			counts, err := tx.Registration.CountByStatus(ctx, event.EventID)
			if err != nil {
				return err
			}
			if occupancyOf(counts).Occupying > event.Capacity {
				return ErrCapacityBelowOccupancy
			}
		}

		event.UpdatedBy = strPtr(actor.UserID)
		return tx.Event.Update(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	return eventWithAvailability(ctx, s.repo, event)
}

func applyEventUpdate(e *model.Event, req *dto.UpdateEventRequest) error {
	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Location != nil {
		e.Location = *req.Location
	}
	if req.StartsAt != nil {
		t, err := parseTime(*req.StartsAt)
		if err != nil {
			return apperrors.Validation("开始时间格式不正确，需为 RFC3339")
		}
		e.StartsAt = t.UTC()
	}
	if req.EndsAt != nil {
		if *req.EndsAt == "" {
			e.EndsAt = nil
		} else {
			t, err := parseTime(*req.EndsAt)
			if err != nil {
				return apperrors.Validation("结束时间格式不正确，需为 RFC3339")
			}
			t = t.UTC()
			e.EndsAt = &t
		}
	}
	if req.Capacity != nil {
		e.Capacity = *req.Capacity
	}
	if req.MaxCapacity != nil {
		e.MaxCapacity = req.MaxCapacity
	}
	if req.WaitlistEnabled != nil {
		e.WaitlistEnabled = *req.WaitlistEnabled
	}
	if req.RequiresApproval != nil {
		e.RequiresApproval = *req.RequiresApproval
	}
	if req.IsPublic != nil {
		e.IsPublic = *req.IsPublic
	}
	if req.CustomFields != nil {
		e.CustomFields = toJSON(req.CustomFields, "[]")
	}
	return nil
}

// ────────────────────── Deactivate ──────────────────────

func (s *eventService) Deactivate(ctx context.Context, actor domain.Actor, eventID string) error {
	if err := domain.Authorize(actor, domain.CapManageEvents); err != nil {
		return err
	}

	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		event, err := tx.Event.GetByIDForUpdate(ctx, actor.OrgID, eventID)
		if err != nil {
			return notFoundAs(err, ErrEventNotFound)
		}
		if !event.IsActive {
			return ErrEventInactive
		}

		event.IsActive = false
		event.UpdatedBy = strPtr(actor.UserID)
		if err := tx.Event.Update(ctx, event); err != nil {
			return err
		}
		return writeAudit(ctx, tx, auditEntry{
			OrgID:      actor.OrgID,
			ActorID:    actor.UserID,
			Action:     model.AuditEventDeactivated,
			EntityType: "event",
			EntityID:   event.EventID,
		})
	})
}

// ────────────────────── Get / List ──────────────────────

// visibleEvent 非管理员看不到已下线的活动
func (s *eventService) visibleEvent(ctx context.Context, actor domain.Actor, eventID string) (*model.Event, error) {
	if err := domain.Authorize(actor, domain.CapViewEvents); err != nil {
		return nil, err
	}
	event, err := s.repo.Event.GetByID(ctx, actor.OrgID, eventID)
	if err != nil {
		return nil, notFoundAs(err, ErrEventNotFound)
	}
	if !event.IsActive && !actor.Can(domain.CapManageEvents) {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (s *eventService) Get(ctx context.Context, actor domain.Actor, eventID string) (*dto.EventResponse, error) {
	event, err := s.visibleEvent(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	return eventWithAvailability(ctx, s.repo, event)
}

func (s *eventService) List(ctx context.Context, actor domain.Actor, req *dto.EventListRequest) ([]dto.EventResponse, int64, error) {
	if err := domain.Authorize(actor, domain.CapViewEvents); err != nil {
		return nil, 0, err
	}

	filter := repository.EventFilter{
		ActiveOnly: !(req.IncludeInactive && actor.Can(domain.CapManageEvents)),
		Search:     req.Search,
	}
	if req.Upcoming {
		from := now()
		filter.UpcomingFrom = &from
	}

	events, total, err := s.repo.Event.List(ctx, actor.OrgID, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询活动列表失败", zap.Error(err))
		return nil, 0, err
	}

	items := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		resp, err := eventWithAvailability(ctx, s.repo, &events[i])
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *resp)
	}
	return items, total, nil
}

// ────────────────────── Capacity / Stats ──────────────────────

func (s *eventService) Capacity(ctx context.Context, actor domain.Actor, eventID string) (*dto.EventCapacityResponse, error) {
	event, err := s.visibleEvent(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.Registration.CountByStatus(ctx, event.EventID)
	if err != nil {
		s.logger.Error("统计报名失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}
	avail := domain.ComputeAvailability(event.CapacityPolicy(), occupancyOf(counts))

	return &dto.EventCapacityResponse{
		EventID:        event.EventID,
		Capacity:       event.Capacity,
		MaxCapacity:    event.MaxCapacity,
		Confirmed:      counts[domain.RegistrationConfirmed],
		Pending:        counts[domain.RegistrationPending],
		Waitlisted:     counts[domain.RegistrationWaitlisted],
		AvailableSpots: avail.AvailableSpots,
		WaitlistSpots:  avail.WaitlistSpots,
		CanRegister:    avail.CanRegister,
		CanWaitlist:    avail.CanWaitlist,
	}, nil
}

func (s *eventService) Stats(ctx context.Context, actor domain.Actor, eventID string) (*dto.EventStatsResponse, error) {
	if err := domain.Authorize(actor, domain.CapViewRegistrations); err != nil {
		return nil, err
	}
	event, err := s.repo.Event.GetByID(ctx, actor.OrgID, eventID)
	if err != nil {
		return nil, notFoundAs(err, ErrEventNotFound)
	}

	counts, err := s.repo.Registration.CountByStatus(ctx, event.EventID)
	if err != nil {
		return nil, err
	}
	checkedIn, err := s.repo.Registration.CountCheckedIn(ctx, event.EventID)
	if err != nil {
		return nil, err
	}

	resp := &dto.EventStatsResponse{
		EventID:   event.EventID,
		ByStatus:  make(map[string]int64, len(counts)),
		CheckedIn: checkedIn,
	}
	for status, n := range counts {
		resp.ByStatus[string(status)] = n
		if status != domain.RegistrationCancelled {
			resp.TotalActive += n
		}
	}
	if confirmed := counts[domain.RegistrationConfirmed]; confirmed > 0 {
		resp.AttendanceRate = float64(checkedIn) / float64(confirmed)
	}
	return resp, nil
}

// ────────────────────── Calendar ──────────────────────

func (s *eventService) Calendar(ctx context.Context, actor domain.Actor, eventID string) ([]byte, error) {
	event, err := s.visibleEvent(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	cal := newCalendar(event.Title)
	addCalendarEvent(cal, event, ics.ObjectStatusConfirmed)
	return []byte(cal.Serialize()), nil
}

// MyCalendar 当前会员及其家庭成员未取消报名的活动日历
func (s *eventService) MyCalendar(ctx context.Context, actor domain.Actor) ([]byte, error) {
	if err := domain.Authorize(actor, domain.CapRegister); err != nil {
		return nil, err
	}
	member, err := s.repo.Member.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, notFoundAs(err, ErrNoMemberProfile)
	}
	refs, err := ownedRegistrants(ctx, s.repo, member)
	if err != nil {
		return nil, err
	}
	regs, err := s.repo.Registration.ListByRegistrants(ctx, actor.OrgID, refs, false)
	if err != nil {
		s.logger.Error("查询报名失败", zap.Error(err))
		return nil, err
	}

	cal := newCalendar("EventBuddy")
	seen := make(map[string]bool)
	for _, r := range regs {
		if r.Event == nil || seen[r.EventID] {
			continue
		}
		seen[r.EventID] = true
		status := ics.ObjectStatusConfirmed
		if r.Status != domain.RegistrationConfirmed {
			status = ics.ObjectStatusTentative
		}
		addCalendarEvent(cal, r.Event, status)
	}
	return []byte(cal.Serialize()), nil
}

func newCalendar(name string) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName(name)
	return cal
}

func addCalendarEvent(cal *ics.Calendar, e *model.Event, status ics.ObjectStatus) {
	ve := cal.AddEvent(e.EventID + "@eventbuddy")
	ve.SetDtStampTime(now())
	ve.SetCreatedTime(e.CreatedAt)
	ve.SetStartAt(e.StartsAt)
	if e.EndsAt != nil {
		ve.SetEndAt(*e.EndsAt)
	} else {
		ve.SetEndAt(e.StartsAt.Add(time.Hour))
	}
	ve.SetSummary(e.Title)
	if e.Location != "" {
		ve.SetLocation(e.Location)
	}
	if e.Description != "" {
		ve.SetDescription(e.Description)
	}
	ve.SetStatus(status)
}

// ── 共享辅助 ──

// occupancyOf 由各状态计数得到占用快照
func occupancyOf(counts map[domain.RegistrationStatus]int64) domain.Occupancy {
	return domain.Occupancy{
		Occupying:  int(counts[domain.RegistrationConfirmed] + counts[domain.RegistrationPending]),
		Waitlisted: int(counts[domain.RegistrationWaitlisted]),
	}
}

// eventWithAvailability 活动详情附带当前余量
func eventWithAvailability(ctx context.Context, repo *repository.Repository, e *model.Event) (*dto.EventResponse, error) {
	counts, err := repo.Registration.CountByStatus(ctx, e.EventID)
	if err != nil {
		return nil, err
	}
	avail := domain.ComputeAvailability(e.CapacityPolicy(), occupancyOf(counts))
	resp := toEventResponse(e)
	resp.Availability = &avail
	return &resp, nil
}

func toEventResponse(e *model.Event) dto.EventResponse {
	return dto.EventResponse{
		EventID:          e.EventID,
		Title:            e.Title,
		Description:      e.Description,
		Location:         e.Location,
		StartsAt:         formatTime(e.StartsAt),
		EndsAt:           formatTimePtr(e.EndsAt),
		Capacity:         e.Capacity,
		MaxCapacity:      e.MaxCapacity,
		WaitlistEnabled:  e.WaitlistEnabled,
		RequiresApproval: e.RequiresApproval,
		IsPublic:         e.IsPublic,
		IsActive:         e.IsActive,
		CustomFields:     jsonArray(e.CustomFields),
		CreatedAt:        formatTime(e.CreatedAt),
	}
}
