package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shyamsasidharan1/eventbuddy/internal/model"
)

// EventFilter 活动列表过滤条件
type EventFilter struct {
	ActiveOnly   bool
	PublicOnly   bool
	UpcomingFrom *time.Time // 仅返回该时间之后开始的活动
	Search       string
}

// EventRepository 活动数据访问接口
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, orgID, id string) (*model.Event, error)
	// GetByIDForUpdate 使用 SELECT ... FOR UPDATE 行级锁查询活动，串行化同一活动的报名写入
	// 必须在已有事务的 *gorm.DB 上调用（通过 Repository.WithTx 注入事务连接）
	GetByIDForUpdate(ctx context.Context, orgID, id string) (*model.Event, error)
	ListByIDs(ctx context.Context, orgID string, ids []string) ([]model.Event, error)
	List(ctx context.Context, orgID string, filter EventFilter, offset, limit int) ([]model.Event, int64, error)
	Update(ctx context.Context, event *model.Event) error
	CountUpcoming(ctx context.Context, orgID string, now time.Time) (int64, error)
}

type eventRepo struct {
	db *gorm.DB
}

// NewEventRepo 创建 EventRepository 实例
func NewEventRepo(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) Create(ctx context.Context, event *model.Event) error {
	return translateError(r.db.WithContext(ctx).Create(event).Error)
}

func (r *eventRepo) GetByID(ctx context.Context, orgID, id string) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND event_id = ?", orgID, id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) GetByIDForUpdate(ctx context.Context, orgID, id string) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("org_id = ? AND event_id = ?", orgID, id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) ListByIDs(ctx context.Context, orgID string, ids []string) ([]model.Event, error) {
	var events []model.Event
	if len(ids) == 0 {
		return events, nil
	}
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND event_id IN ?", orgID, ids).
		Order("starts_at ASC").
		Find(&events).Error
	return events, err
}

func (r *eventRepo) List(ctx context.Context, orgID string, filter EventFilter, offset, limit int) ([]model.Event, int64, error) {
	var events []model.Event
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Event{})
	if orgID != "" {
		db = db.Where("org_id = ?", orgID)
	}
	if filter.ActiveOnly {
		db = db.Where("is_active = ?", true)
	}
	if filter.PublicOnly {
		db = db.Where("is_public = ?", true)
	}
	if filter.UpcomingFrom != nil {
		db = db.Where("starts_at > ?", *filter.UpcomingFrom)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(location) LIKE ?", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("starts_at ASC").
		Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func (r *eventRepo) Update(ctx context.Context, event *model.Event) error {
	return translateError(r.db.WithContext(ctx).Save(event).Error)
}

func (r *eventRepo) CountUpcoming(ctx context.Context, orgID string, now time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Event{}).
		Where("org_id = ? AND is_active = ? AND starts_at > ?", orgID, true, now).
		Count(&total).Error
	return total, err
}
