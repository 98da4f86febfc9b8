package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/shyamsasidharan1/eventbuddy/pkg/errors"
)

// PostgreSQL 错误码
const pgUniqueViolation = "23505"

// ErrDuplicateKey 唯一约束冲突
var ErrDuplicateKey = apperrors.New(apperrors.ErrConflict, 40900, "记录已存在")

// translateError 将驱动层唯一约束冲突转换为 ErrDuplicateKey，其余原样返回
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicateKey
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}

// IsNotFound 是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
