// Package errors 定义全局错误分类。
//
// 业务错误统一由 New 构造，并归属于且仅归属于一个分类；
// HTTP 层依据分类映射状态码，调用方通过 errors.Is 判断分类或具体错误。
package errors

import (
	"errors"
	"fmt"
)

// ── 错误分类 ──

var (
	// ErrNotFound 实体不存在或不属于调用方所在组织
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied 角色或归属校验失败
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidState 当前生命周期状态下不允许该操作
	ErrInvalidState = errors.New("invalid state")
	// ErrConflict 重复报名、重复邀请、并发修改等冲突
	ErrConflict = errors.New("conflict")
	// ErrCapacityExceeded 容量及候补名额均已耗尽，属于冲突族
	ErrCapacityExceeded = fmt.Errorf("capacity exceeded: %w", ErrConflict)
	// ErrValidation 输入格式错误或缺少必填项
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated 凭证缺失、无效或已过期
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = New(ErrConflict, 40901, "数据已被其他操作修改，请刷新后重试")

// Error 带分类与业务码的错误
type Error struct {
	Kind    error
	Code    int
	Message string
}

// New 创建归属于 kind 分类的业务错误
func New(kind error, code int, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string { return e.Message }

// Unwrap 使 errors.Is(err, 分类) 成立
func (e *Error) Unwrap() error { return e.Kind }

// Kinds 按匹配优先级排列的全部分类
var Kinds = []error{
	ErrCapacityExceeded,
	ErrNotFound,
	ErrPermissionDenied,
	ErrInvalidState,
	ErrConflict,
	ErrValidation,
	ErrUnauthenticated,
}

// KindOf 返回 err 所属分类，未分类返回 nil
func KindOf(err error) error {
	for _, k := range Kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Validation 快速构造一个携带具体说明的校验错误
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
