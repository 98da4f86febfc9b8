package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Organization OrganizationRepository
	User         UserRepository
	Member       MemberRepository
	FamilyMember FamilyMemberRepository
	Event        EventRepository
	Registration RegistrationRepository
	AuditLog     AuditLogRepository
	Notification NotificationRepository
	Report       ReportRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		Organization: NewOrganizationRepo(db),
		User:         NewUserRepo(db),
		Member:       NewMemberRepo(db),
		FamilyMember: NewFamilyMemberRepo(db),
		Event:        NewEventRepo(db),
		Registration: NewRegistrationRepo(db),
		AuditLog:     NewAuditLogRepo(db),
		Notification: NewNotificationRepo(db),
		Report:       NewReportRepo(db),
	}
}

// BeginTx 开启事务；单元测试中 db 为空时返回 nil，由调用方按无事务处理
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务连接的 Repository；tx 为空时返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Transaction 在一个事务内执行 fn，fn 返回错误或 panic 时整体回滚
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) (err error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(p)
		}
	}()

	if err := fn(r.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			return fmt.Errorf("提交事务失败: %w", err)
		}
	}
	return nil
}
