package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/dto"
	"github.com/shyamsasidharan1/eventbuddy/internal/model"
	"github.com/shyamsasidharan1/eventbuddy/internal/repository"
	apperrors "github.com/shyamsasidharan1/eventbuddy/pkg/errors"
)

// ── 家庭成员模块业务错误 ──

var (
	ErrFamilyMemberNotFound         = apperrors.New(apperrors.ErrNotFound, 40410, "家庭成员不存在")
	ErrFamilyMemberHasRegistrations = apperrors.New(apperrors.ErrInvalidState, 42204, "该家庭成员仍有未开始活动的有效报名，请先取消报名")
)

// FamilyService 家庭成员业务接口
type FamilyService interface {
	Add(ctx context.Context, actor domain.Actor, memberID string, req *dto.FamilyMemberRequest) (*dto.FamilyMemberResponse, error)
	List(ctx context.Context, actor domain.Actor, memberID string) ([]dto.FamilyMemberResponse, error)
	Update(ctx context.Context, actor domain.Actor, familyMemberID string, req *dto.UpdateFamilyMemberRequest) (*dto.FamilyMemberResponse, error)
	Remove(ctx context.Context, actor domain.Actor, familyMemberID string) error
}

type familyService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewFamilyService 创建 FamilyService 实例
func NewFamilyService(repo *repository.Repository, logger *zap.Logger) FamilyService {
	return &familyService{repo: repo, logger: logger}
}

// ownerFor 加载所属会员并校验访问权限
func (s *familyService) ownerFor(ctx context.Context, actor domain.Actor, memberID string, othersCap domain.Capability) (*model.MemberProfile, error) {
	member, err := s.repo.Member.GetByID(ctx, actor.OrgID, memberID)
	if err != nil {
		return nil, notFoundAs(err, ErrMemberNotFound)
	}
	if err := authorizeMemberAccess(actor, member, othersCap); err != nil {
		return nil, err
	}
	return member, nil
}

// loadFamilyMember 已移除的家庭成员视为不存在
func (s *familyService) loadFamilyMember(ctx context.Context, actor domain.Actor, id string) (*model.FamilyMember, error) {
	fm, err := s.repo.FamilyMember.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		return nil, notFoundAs(err, ErrFamilyMemberNotFound)
	}
	if !fm.IsActive {
		return nil, ErrFamilyMemberNotFound
	}
	if _, err := s.ownerFor(ctx, actor, fm.MemberID, domain.CapManageMembers); err != nil {
		return nil, err
	}
	return fm, nil
}

// ────────────────────── Add ──────────────────────

func (s *familyService) Add(ctx context.Context, actor domain.Actor, memberID string, req *dto.FamilyMemberRequest) (*dto.FamilyMemberResponse, error) {
	member, err := s.ownerFor(ctx, actor, memberID, domain.CapManageMembers)
	if err != nil {
		return nil, err
	}
	dob, err := dto.ParseDate(req.DateOfBirth)
	if err != nil {
		return nil, apperrors.Validation("出生日期格式不正确")
	}

	fm := &model.FamilyMember{
		FamilyMemberID: uuid.NewString(),
		OrgID:          member.OrgID,
		MemberID:       member.MemberID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Relationship:   req.Relationship,
		DateOfBirth:    dob,
		Phone:          req.Phone,
		IsActive:       true,
		BaseModel:      model.BaseModel{CreatedBy: strPtr(actor.UserID)},
	}
	if err := s.repo.FamilyMember.Create(ctx, fm); err != nil {
		s.logger.Error("创建家庭成员失败", zap.String("member_id", memberID), zap.Error(err))
		return nil, err
	}

	resp := toFamilyMemberResponse(fm)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *familyService) List(ctx context.Context, actor domain.Actor, memberID string) ([]dto.FamilyMemberResponse, error) {
	member, err := s.ownerFor(ctx, actor, memberID, domain.CapViewMembers)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.FamilyMember.ListByMember(ctx, member.OrgID, member.MemberID)
	if err != nil {
		s.logger.Error("查询家庭成员失败", zap.String("member_id", memberID), zap.Error(err))
		return nil, err
	}

	items := make([]dto.FamilyMemberResponse, 0, len(list))
	for i := range list {
		items = append(items, toFamilyMemberResponse(&list[i]))
	}
	return items, nil
}

// ────────────────────── Update ──────────────────────

func (s *familyService) Update(ctx context.Context, actor domain.Actor, familyMemberID string, req *dto.UpdateFamilyMemberRequest) (*dto.FamilyMemberResponse, error) {
	fm, err := s.loadFamilyMember(ctx, actor, familyMemberID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		fm.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		fm.LastName = *req.LastName
	}
	if req.Relationship != nil {
		fm.Relationship = *req.Relationship
	}
	if req.DateOfBirth != nil {
		dob, err := dto.ParseDate(*req.DateOfBirth)
		if err != nil {
			return nil, apperrors.Validation("出生日期格式不正确")
		}
		fm.DateOfBirth = dob
	}
	if req.Phone != nil {
		fm.Phone = *req.Phone
	}
	fm.UpdatedBy = strPtr(actor.UserID)

	if err := s.repo.FamilyMember.Update(ctx, fm); err != nil {
		s.logger.Error("更新家庭成员失败", zap.String("family_member_id", familyMemberID), zap.Error(err))
		return nil, err
	}
	resp := toFamilyMemberResponse(fm)
	return &resp, nil
}

// ────────────────────── Remove ──────────────────────

// Remove 软删除；仍有未开始活动的有效报名时拒绝
func (s *familyService) Remove(ctx context.Context, actor domain.Actor, familyMemberID string) error {
	fm, err := s.loadFamilyMember(ctx, actor, familyMemberID)
	if err != nil {
		return err
	}

	active, err := s.repo.Registration.CountActiveUpcoming(ctx, domain.FamilyMemberRef(fm.FamilyMemberID), now())
	if err != nil {
		s.logger.Error("统计家庭成员报名失败", zap.String("family_member_id", familyMemberID), zap.Error(err))
		return err
	}
	if active > 0 {
		return ErrFamilyMemberHasRegistrations
	}

	fm.IsActive = false
	fm.UpdatedBy = strPtr(actor.UserID)
	if err := s.repo.FamilyMember.Update(ctx, fm); err != nil {
		return err
	}
	s.logger.Info("家庭成员已移除", zap.String("family_member_id", familyMemberID), zap.String("actor", actor.UserID))
	return nil
}

func toFamilyMemberResponse(f *model.FamilyMember) dto.FamilyMemberResponse {
	return dto.FamilyMemberResponse{
		FamilyMemberID: f.FamilyMemberID,
		MemberID:       f.MemberID,
		FirstName:      f.FirstName,
		LastName:       f.LastName,
		Relationship:   f.Relationship,
		DateOfBirth:    dto.FormatDate(f.DateOfBirth),
		Phone:          f.Phone,
	}
}
