package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shyamsasidharan1/eventbuddy/config"
	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/dto"
	"github.com/shyamsasidharan1/eventbuddy/internal/model"
	"github.com/shyamsasidharan1/eventbuddy/internal/notify"
	"github.com/shyamsasidharan1/eventbuddy/internal/repository"
	apperrors "github.com/shyamsasidharan1/eventbuddy/pkg/errors"
	"github.com/shyamsasidharan1/eventbuddy/pkg/metrics"
)

// ── 报名模块业务错误 ──

var (
	ErrRegistrationNotFound    = apperrors.New(apperrors.ErrNotFound, 40406, "报名记录不存在")
	ErrRegistrantNotFound      = apperrors.New(apperrors.ErrNotFound, 40407, "报名主体不存在")
	ErrRegistrationNotInEvent  = apperrors.New(apperrors.ErrNotFound, 40408, "部分报名记录不属于该活动")
	ErrCapacityExceeded        = apperrors.New(apperrors.ErrCapacityExceeded, 40903, "活动名额及候补名额均已满")
	ErrNotRegistrantOwner      = apperrors.New(apperrors.ErrPermissionDenied, 40303, "只能为本人或本人的家庭成员报名")
	ErrRegistrationNotApproved = apperrors.New(apperrors.ErrInvalidState, 42208, "仅已确认的报名可以签到")
	ErrRegistrationCancelled   = apperrors.New(apperrors.ErrInvalidState, 42209, "报名已取消")
	ErrRegistrationUnchanged   = apperrors.New(apperrors.ErrInvalidState, 42210, "报名已处于该状态")
	ErrMemberNotActive         = apperrors.New(apperrors.ErrInvalidState, 42211, "会员未处于有效状态，不能报名")
)

// errAlreadyRegistered 冲突信息中列出已报名的主体
func errAlreadyRegistered(names []string) error {
	return apperrors.New(apperrors.ErrConflict, 40904, "以下报名主体已报名该活动："+strings.Join(names, "、"))
}

// RegistrationService 活动报名业务接口
type RegistrationService interface {
	Register(ctx context.Context, actor domain.Actor, eventID string, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	ListForEvent(ctx context.Context, actor domain.Actor, eventID string, req *dto.RegistrationListRequest) (*dto.EventRegistrationsResponse, error)
	ListMine(ctx context.Context, actor domain.Actor) ([]dto.RegistrationResponse, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, registrationID string, req *dto.UpdateRegistrationStatusRequest) (*dto.RegistrationResponse, error)
	Cancel(ctx context.Context, actor domain.Actor, registrationID string) (*dto.CancelRegistrationResponse, error)
	CheckIn(ctx context.Context, actor domain.Actor, eventID string, req *dto.CheckInRequest) (*dto.CheckInResponse, error)
}

type registrationService struct {
	cfg      *config.Config
	repo     *repository.Repository
	locker   EventLocker
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewRegistrationService 创建 RegistrationService 实例
func NewRegistrationService(
	cfg *config.Config,
	repo *repository.Repository,
	locker EventLocker,
	notifier notify.Notifier,
	logger *zap.Logger,
) RegistrationService {
	return &registrationService{
		cfg:      cfg,
		repo:     repo,
		locker:   locker,
		notifier: notifier,
		logger:   logger,
	}
}

// withEventLock 在活动锁内执行 fn
func (s *registrationService) withEventLock(ctx context.Context, eventID string, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, eventID)
	if err != nil {
		s.logger.Error("获取活动锁失败", zap.String("event_id", eventID), zap.Error(err))
		return err
	}
	defer unlock()
	return fn()
}

// ────────────────────── Register ──────────────────────

// registrantSet 已校验的报名主体：姓名与所属会员
type registrantSet struct {
	names  map[string]string
	owners map[string]string
}

func (s *registrationService) Register(ctx context.Context, actor domain.Actor, eventID string, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if err := domain.Authorize(actor, domain.CapRegister); err != nil {
		return nil, err
	}

	// 1. 批次校验：非空、格式合法、批内不重复
	refs := req.Registrants
	if len(refs) == 0 {
		return nil, apperrors.Validation("至少需要一个报名主体")
	}
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if err := ref.Validate(); err != nil {
			return nil, apperrors.Validation("%s", err.Error())
		}
		if seen[ref.String()] {
			return nil, apperrors.Validation("同一报名主体在批次中重复出现")
		}
		seen[ref.String()] = true
	}

	var (
		event   *model.Event
		set     *registrantSet
		status  domain.RegistrationStatus
		created []model.Registration
	)
	err := s.withEventLock(ctx, eventID, func() error {
		return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			var err error
			// 2. 活动须存在、启用且未开始
			event, err = tx.Event.GetByIDForUpdate(ctx, actor.OrgID, eventID)
			if err != nil {
				return notFoundAs(err, ErrEventNotFound)
			}
			if !event.IsActive {
				return ErrEventInactive
			}
			if !event.StartsAt.After(now()) {
				return ErrEventStarted
			}

			// 3. 主体存在、归属与状态
			set, err = s.checkRegistrants(ctx, tx, actor, refs)
			if err != nil {
				return err
			}

			// 4. 不允许重复报名
			existing, err := tx.Registration.FindActive(ctx, event.EventID, refs)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				names := make([]string, 0, len(existing))
				for i := range existing {
					names = append(names, set.names[existing[i].Registrant().String()])
				}
				return errAlreadyRegistered(names)
			}

			// 5. 名额判定，整批共享一个结果
			counts, err := tx.Registration.CountByStatus(ctx, event.EventID)
			if err != nil {
				return err
			}
			var ok bool
			status, ok = domain.DecideRegistrationStatus(event.CapacityPolicy(), occupancyOf(counts), len(refs))
			if !ok {
				return ErrCapacityExceeded
			}

			registeredAt := now()
			customData := toJSON(req.CustomData, "{}")
			created = make([]model.Registration, 0, len(refs))
			for _, ref := range refs {
				reg := model.Registration{
					RegistrationID: uuid.NewString(),
					OrgID:          actor.OrgID,
					EventID:        event.EventID,
					Status:         status,
					CustomData:     customData,
					Notes:          strings.TrimSpace(req.Notes),
					RegisteredAt:   registeredAt,
					BaseModel:      model.BaseModel{CreatedBy: strPtr(actor.UserID)},
				}
				reg.SetRegistrant(ref)
				created = append(created, reg)
			}
			return tx.Registration.BatchCreate(ctx, created)
		})
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.ErrCapacityExceeded {
			metrics.ObserveRegistrationDecision("REJECTED", 0)
		}
		return nil, err
	}

	metrics.ObserveRegistrationDecision(string(status), len(created))
	s.logger.Info("活动报名成功",
		zap.String("event_id", event.EventID),
		zap.String("status", string(status)),
		zap.Int("count", len(created)),
		zap.String("actor", actor.UserID),
	)

	// 6. 提交后按所属会员分别通知
	s.notifyOwners(ctx, actor.OrgID, event, status, refs, set)

	resp := &dto.RegisterResponse{
		Status:        string(status),
		Registrations: make([]dto.RegistrationResponse, 0, len(created)),
	}
	for i := range created {
		created[i].Event = event
		resp.Registrations = append(resp.Registrations, toRegistrationResponse(&created[i], set.names))
	}
	return resp, nil
}

// checkRegistrants 校验报名主体：无代报权限时只能是本人或本人的家庭成员，
// 主体必须存在且有效，会员本人须为 ACTIVE
func (s *registrationService) checkRegistrants(
	ctx context.Context,
	tx *repository.Repository,
	actor domain.Actor,
	refs []domain.RegistrantRef,
) (*registrantSet, error) {
	var self *model.MemberProfile
	onBehalf := actor.Can(domain.CapRegisterOnBehalf)
	if !onBehalf {
		var err error
		self, err = tx.Member.GetByUserID(ctx, actor.UserID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, ErrNotRegistrantOwner
			}
			return nil, err
		}
	}

	var memberIDs, familyIDs []string
	for _, ref := range refs {
		switch ref.Kind {
		case domain.RegistrantMember:
			if self != nil && ref.ID != self.MemberID {
				return nil, ErrNotRegistrantOwner
			}
			memberIDs = append(memberIDs, ref.ID)
		case domain.RegistrantFamilyMember:
			familyIDs = append(familyIDs, ref.ID)
		}
	}

	set := &registrantSet{
		names:  make(map[string]string, len(refs)),
		owners: make(map[string]string, len(refs)),
	}

	members, err := tx.Member.ListByIDs(ctx, actor.OrgID, memberIDs)
	if err != nil {
		return nil, err
	}
	if len(members) != len(memberIDs) {
		return nil, ErrRegistrantNotFound
	}
	for i := range members {
		m := &members[i]
		if m.MembershipStatus != domain.MembershipActive {
			return nil, ErrMemberNotActive
		}
		key := domain.MemberRef(m.MemberID).String()
		set.names[key] = m.FullName()
		set.owners[key] = m.MemberID
	}

	family, err := tx.FamilyMember.ListByIDs(ctx, actor.OrgID, familyIDs)
	if err != nil {
		return nil, err
	}
	if len(family) != len(familyIDs) {
		return nil, ErrRegistrantNotFound
	}
	for i := range family {
		f := &family[i]
		if !f.IsActive {
			return nil, ErrRegistrantNotFound
		}
		if self != nil && f.MemberID != self.MemberID {
			return nil, ErrNotRegistrantOwner
		}
		key := domain.FamilyMemberRef(f.FamilyMemberID).String()
		set.names[key] = f.FullName()
		set.owners[key] = f.MemberID
	}
	return set, nil
}

func (s *registrationService) notifyOwners(
	ctx context.Context,
	orgID string,
	event *model.Event,
	status domain.RegistrationStatus,
	refs []domain.RegistrantRef,
	set *registrantSet,
) {
	counts := make(map[string]int)
	ownerIDs := make([]string, 0, len(refs))
	for _, ref := range refs {
		owner := set.owners[ref.String()]
		if counts[owner] == 0 {
			ownerIDs = append(ownerIDs, owner)
		}
		counts[owner]++
	}

	owners, err := s.repo.Member.ListByIDs(ctx, orgID, ownerIDs)
	if err != nil {
		s.logger.Warn("加载报名所属会员失败，跳过通知", zap.String("event_id", event.EventID), zap.Error(err))
		return
	}
	for i := range owners {
		m := &owners[i]
		s.notifier.EventRegistration(ctx, m, memberEmail(m), event, string(status), counts[m.MemberID])
	}
}

// ────────────────────── ListForEvent / ListMine ──────────────────────

func (s *registrationService) ListForEvent(ctx context.Context, actor domain.Actor, eventID string, req *dto.RegistrationListRequest) (*dto.EventRegistrationsResponse, error) {
	if err := domain.Authorize(actor, domain.CapViewRegistrations); err != nil {
		return nil, err
	}
	event, err := s.repo.Event.GetByID(ctx, actor.OrgID, eventID)
	if err != nil {
		return nil, notFoundAs(err, ErrEventNotFound)
	}

	regs, err := s.repo.Registration.ListByEvent(ctx, event.EventID, repository.RegistrationFilter{
		Status:    domain.RegistrationStatus(req.Status),
		CheckedIn: req.CheckedIn,
	})
	if err != nil {
		s.logger.Error("查询报名名单失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}
	names, err := resolveRegistrantNames(ctx, s.repo, actor.OrgID, regs)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.Registration.CountByStatus(ctx, event.EventID)
	if err != nil {
		return nil, err
	}
	checkedIn, err := s.repo.Registration.CountCheckedIn(ctx, event.EventID)
	if err != nil {
		return nil, err
	}

	resp := &dto.EventRegistrationsResponse{
		Registrations: make([]dto.RegistrationResponse, 0, len(regs)),
		Summary: dto.RegistrationSummary{
			Pending:    counts[domain.RegistrationPending],
			Confirmed:  counts[domain.RegistrationConfirmed],
			Waitlisted: counts[domain.RegistrationWaitlisted],
			Cancelled:  counts[domain.RegistrationCancelled],
			CheckedIn:  checkedIn,
		},
	}
	for i := range regs {
		regs[i].Event = event
		resp.Registrations = append(resp.Registrations, toRegistrationResponse(&regs[i], names))
	}
	return resp, nil
}

// ListMine 当前会员及其家庭成员的全部报名（含已取消）
func (s *registrationService) ListMine(ctx context.Context, actor domain.Actor) ([]dto.RegistrationResponse, error) {
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

	regs, err := s.repo.Registration.ListByRegistrants(ctx, actor.OrgID, refs, true)
	if err != nil {
		s.logger.Error("查询报名失败", zap.String("member_id", member.MemberID), zap.Error(err))
		return nil, err
	}
	names, err := resolveRegistrantNames(ctx, s.repo, actor.OrgID, regs)
	if err != nil {
		return nil, err
	}

	items := make([]dto.RegistrationResponse, 0, len(regs))
	for i := range regs {
		items = append(items, toRegistrationResponse(&regs[i], names))
	}
	return items, nil
}

// ────────────────────── UpdateStatus ──────────────────────

func (s *registrationService) UpdateStatus(ctx context.Context, actor domain.Actor, registrationID string, req *dto.UpdateRegistrationStatusRequest) (*dto.RegistrationResponse, error) {
	if err := domain.Authorize(actor, domain.CapManageRegistrations); err != nil {
		return nil, err
	}
	to := domain.RegistrationStatus(req.Status)
	if !to.Valid() {
		return nil, apperrors.Validation("未知的报名状态 %q", req.Status)
	}

	reg, err := s.repo.Registration.GetByID(ctx, actor.OrgID, registrationID)
	if err != nil {
		return nil, notFoundAs(err, ErrRegistrationNotFound)
	}

	var promoted int
	err = s.withEventLock(ctx, reg.EventID, func() error {
		return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			event, err := tx.Event.GetByIDForUpdate(ctx, actor.OrgID, reg.EventID)
			if err != nil {
				return notFoundAs(err, ErrEventNotFound)
			}
			reg, err = tx.Registration.GetByID(ctx, actor.OrgID, registrationID)
			if err != nil {
				return notFoundAs(err, ErrRegistrationNotFound)
			}

			from := reg.Status
			if from == to {
				return ErrRegistrationUnchanged
			}

			if to == domain.RegistrationConfirmed {
				counts, err := tx.Registration.CountByStatus(ctx, event.EventID)
				if err != nil {
					return err
				}
				if int(counts[domain.RegistrationConfirmed]) >= event.Capacity {
					return ErrCapacityExceeded
				}
			}

			// 恢复已取消的报名前确认该主体没有其他未取消报名
			if from == domain.RegistrationCancelled {
				active, err := tx.Registration.FindActive(ctx, event.EventID, []domain.RegistrantRef{reg.Registrant()})
				if err != nil {
					return err
				}
				if len(active) > 0 {
					names, err := resolveRegistrantNames(ctx, tx, actor.OrgID, active)
					if err != nil {
						return err
					}
					return errAlreadyRegistered([]string{names[reg.Registrant().String()]})
				}
				reg.CancelledAt = nil
			}

			reg.Status = to
			if to == domain.RegistrationCancelled {
				at := now()
				reg.CancelledAt = &at
			}
			if from == domain.RegistrationConfirmed {
				reg.ClearCheckIn()
			}
			if note := strings.TrimSpace(req.Notes); note != "" {
				reg.Notes = note
			}
			reg.UpdatedBy = strPtr(actor.UserID)
			if err := tx.Registration.Update(ctx, reg); err != nil {
				return err
			}

			if err := writeAudit(ctx, tx, auditEntry{
				OrgID:      actor.OrgID,
				ActorID:    actor.UserID,
				Action:     model.AuditRegistrationStatus,
				EntityType: "registration",
				EntityID:   reg.RegistrationID,
				From:       string(from),
				To:         string(to),
				Message:    strings.TrimSpace(req.Notes),
			}); err != nil {
				return err
			}

			if from.OccupiesCapacity() && to == domain.RegistrationCancelled {
				promoted, err = s.promoteWaitlist(ctx, tx, event, actor.UserID)
				return err
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.ObserveWaitlistPromotions(promoted)

	names, err := resolveRegistrantNames(ctx, s.repo, actor.OrgID, []model.Registration{*reg})
	if err != nil {
		return nil, err
	}
	resp := toRegistrationResponse(reg, names)
	return &resp, nil
}

// ────────────────────── Cancel ──────────────────────

func (s *registrationService) Cancel(ctx context.Context, actor domain.Actor, registrationID string) (*dto.CancelRegistrationResponse, error) {
	if err := domain.Authorize(actor, domain.CapRegister); err != nil {
		return nil, err
	}

	reg, err := s.repo.Registration.GetByID(ctx, actor.OrgID, registrationID)
	if err != nil {
		return nil, notFoundAs(err, ErrRegistrationNotFound)
	}
	if !actor.Can(domain.CapManageRegistrations) {
		if err := s.ensureOwner(ctx, actor, reg.Registrant()); err != nil {
			return nil, err
		}
	}
	if reg.Status == domain.RegistrationCancelled {
		return nil, ErrRegistrationCancelled
	}

	var promoted int
	err = s.withEventLock(ctx, reg.EventID, func() error {
		return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			event, err := tx.Event.GetByIDForUpdate(ctx, actor.OrgID, reg.EventID)
			if err != nil {
				return notFoundAs(err, ErrEventNotFound)
			}
			reg, err = tx.Registration.GetByID(ctx, actor.OrgID, registrationID)
			if err != nil {
				return notFoundAs(err, ErrRegistrationNotFound)
			}
			from := reg.Status
			if from == domain.RegistrationCancelled {
				return ErrRegistrationCancelled
			}

			at := now()
			reg.Status = domain.RegistrationCancelled
			reg.CancelledAt = &at
			reg.ClearCheckIn()
			reg.UpdatedBy = strPtr(actor.UserID)
			if err := tx.Registration.Update(ctx, reg); err != nil {
				return err
			}

			if err := writeAudit(ctx, tx, auditEntry{
				OrgID:      actor.OrgID,
				ActorID:    actor.UserID,
				Action:     model.AuditRegistrationCancelled,
				EntityType: "registration",
				EntityID:   reg.RegistrationID,
				From:       string(from),
				To:         string(domain.RegistrationCancelled),
			}); err != nil {
				return err
			}

			if from.OccupiesCapacity() {
				promoted, err = s.promoteWaitlist(ctx, tx, event, actor.UserID)
				return err
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.ObserveWaitlistPromotions(promoted)
	s.logger.Info("报名已取消",
		zap.String("registration_id", registrationID),
		zap.Int("promoted", promoted),
		zap.String("actor", actor.UserID),
	)

	names, err := resolveRegistrantNames(ctx, s.repo, actor.OrgID, []model.Registration{*reg})
	if err != nil {
		return nil, err
	}
	return &dto.CancelRegistrationResponse{
		Registration: toRegistrationResponse(reg, names),
		Promoted:     promoted,
	}, nil
}

// ensureOwner 报名主体须为当前会员本人或其家庭成员
func (s *registrationService) ensureOwner(ctx context.Context, actor domain.Actor, ref domain.RegistrantRef) error {
	self, err := s.repo.Member.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrNotRegistrantOwner
		}
		return err
	}

	switch ref.Kind {
	case domain.RegistrantMember:
		if ref.ID == self.MemberID {
			return nil
		}
	case domain.RegistrantFamilyMember:
		fm, err := s.repo.FamilyMember.GetByID(ctx, actor.OrgID, ref.ID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrNotRegistrantOwner
			}
			return err
		}
		if fm.MemberID == self.MemberID {
			return nil
		}
	}
	return ErrNotRegistrantOwner
}

// promoteWaitlist 按报名先后将候补转为 CONFIRMED，直至占用达到容量
func (s *registrationService) promoteWaitlist(ctx context.Context, tx *repository.Repository, event *model.Event, actorID string) (int, error) {
	if !s.cfg.Feature.WaitlistPromotion || event.RequiresApproval {
		return 0, nil
	}
	counts, err := tx.Registration.CountByStatus(ctx, event.EventID)
	if err != nil {
		return 0, err
	}
	free := event.Capacity - occupancyOf(counts).Occupying
	if free <= 0 {
		return 0, nil
	}

	waitlisted, err := tx.Registration.ListWaitlisted(ctx, event.EventID, free)
	if err != nil {
		return 0, err
	}
	for i := range waitlisted {
		reg := &waitlisted[i]
		reg.Status = domain.RegistrationConfirmed
		reg.UpdatedBy = strPtr(actorID)
		if err := tx.Registration.Update(ctx, reg); err != nil {
			return 0, err
		}
		if err := writeAudit(ctx, tx, auditEntry{
			OrgID:      event.OrgID,
			ActorID:    actorID,
			Action:     model.AuditRegistrationStatus,
			EntityType: "registration",
			EntityID:   reg.RegistrationID,
			From:       string(domain.RegistrationWaitlisted),
			To:         string(domain.RegistrationConfirmed),
			Message:    "waitlist promotion",
		}); err != nil {
			return 0, err
		}
	}
	return len(waitlisted), nil
}

// ────────────────────── CheckIn ──────────────────────

// CheckIn 批量签到；已签到的记录保持不变
func (s *registrationService) CheckIn(ctx context.Context, actor domain.Actor, eventID string, req *dto.CheckInRequest) (*dto.CheckInResponse, error) {
	if err := domain.Authorize(actor, domain.CapCheckIn); err != nil {
		return nil, err
	}
	if len(req.RegistrationIDs) == 0 {
		return nil, apperrors.Validation("至少需要一条报名记录")
	}
	event, err := s.repo.Event.GetByID(ctx, actor.OrgID, eventID)
	if err != nil {
		return nil, notFoundAs(err, ErrEventNotFound)
	}

	ids := make([]string, 0, len(req.RegistrationIDs))
	seen := make(map[string]bool, len(req.RegistrationIDs))
	for _, id := range req.RegistrationIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	resp := &dto.CheckInResponse{}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		regs, err := tx.Registration.ListByEventAndIDs(ctx, event.EventID, ids)
		if err != nil {
			return err
		}
		if len(regs) != len(ids) {
			return ErrRegistrationNotInEvent
		}
		for i := range regs {
			if regs[i].Status != domain.RegistrationConfirmed {
				return ErrRegistrationNotApproved
			}
		}

		at := now()
		for i := range regs {
			reg := &regs[i]
			if reg.CheckedIn {
				resp.AlreadyCheckedIn++
				continue
			}
			reg.CheckedIn = true
			reg.CheckedInAt = &at
			reg.CheckedInBy = strPtr(actor.UserID)
			if err := tx.Registration.Update(ctx, reg); err != nil {
				return err
			}
			resp.CheckedIn++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("活动签到",
		zap.String("event_id", event.EventID),
		zap.Int("checked_in", resp.CheckedIn),
		zap.Int("already", resp.AlreadyCheckedIn),
	)
	return resp, nil
}

// ── 共享辅助 ──

// ownedRegistrants 会员本人及其在册家庭成员
func ownedRegistrants(ctx context.Context, repo *repository.Repository, member *model.MemberProfile) ([]domain.RegistrantRef, error) {
	family, err := repo.FamilyMember.ListByMember(ctx, member.OrgID, member.MemberID)
	if err != nil {
		return nil, err
	}
	refs := make([]domain.RegistrantRef, 0, len(family)+1)
	refs = append(refs, domain.MemberRef(member.MemberID))
	for _, f := range family {
		refs = append(refs, domain.FamilyMemberRef(f.FamilyMemberID))
	}
	return refs, nil
}

// resolveRegistrantNames 批量解析报名主体姓名，键为 RegistrantRef.String()
func resolveRegistrantNames(ctx context.Context, repo *repository.Repository, orgID string, regs []model.Registration) (map[string]string, error) {
	var memberIDs, familyIDs []string
	for i := range regs {
		switch regs[i].RegistrantType {
		case domain.RegistrantMember:
			memberIDs = append(memberIDs, regs[i].RegistrantID)
		case domain.RegistrantFamilyMember:
			familyIDs = append(familyIDs, regs[i].RegistrantID)
		}
	}

	names := make(map[string]string, len(regs))
	members, err := repo.Member.ListByIDs(ctx, orgID, memberIDs)
	if err != nil {
		return nil, err
	}
	for i := range members {
		names[domain.MemberRef(members[i].MemberID).String()] = members[i].FullName()
	}
	family, err := repo.FamilyMember.ListByIDs(ctx, orgID, familyIDs)
	if err != nil {
		return nil, err
	}
	for i := range family {
		names[domain.FamilyMemberRef(family[i].FamilyMemberID).String()] = family[i].FullName()
	}
	return names, nil
}

func toRegistrationResponse(r *model.Registration, names map[string]string) dto.RegistrationResponse {
	resp := dto.RegistrationResponse{
		RegistrationID: r.RegistrationID,
		EventID:        r.EventID,
		RegistrantType: string(r.RegistrantType),
		RegistrantID:   r.RegistrantID,
		RegistrantName: names[r.Registrant().String()],
		Status:         string(r.Status),
		CustomData:     jsonObject(r.CustomData),
		Notes:          r.Notes,
		RegisteredAt:   formatTime(r.RegisteredAt),
		CheckedIn:      r.CheckedIn,
		CheckedInAt:    formatTimePtr(r.CheckedInAt),
		CancelledAt:    formatTimePtr(r.CancelledAt),
	}
	if r.Event != nil {
		resp.EventTitle = r.Event.Title
		resp.EventStartsAt = formatTime(r.Event.StartsAt)
	}
	return resp
}
