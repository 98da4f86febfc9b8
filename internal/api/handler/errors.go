package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/shyamsasidharan1/eventbuddy/pkg/errors"
	"github.com/shyamsasidharan1/eventbuddy/pkg/response"
)

// kindStatus 错误分类 → HTTP 状态码与兜底业务码
var kindStatus = map[error]struct {
	status int
	code   int
	msg    string
}{
	apperrors.ErrCapacityExceeded: {http.StatusConflict, 40900, "名额已满"},
	apperrors.ErrNotFound:         {http.StatusNotFound, 40400, "资源不存在"},
	apperrors.ErrPermissionDenied: {http.StatusForbidden, 40300, "无权限访问"},
	apperrors.ErrInvalidState:     {http.StatusUnprocessableEntity, 42200, "当前状态不允许该操作"},
	apperrors.ErrConflict:         {http.StatusConflict, 40900, "资源冲突"},
	apperrors.ErrValidation:       {http.StatusBadRequest, 40000, "参数校验失败"},
	apperrors.ErrUnauthenticated:  {http.StatusUnauthorized, 40100, "未认证"},
}

// handleError 按错误分类写出统一错误响应；未分类错误记为 500
func handleError(c *gin.Context, err error) {
	_ = c.Error(err)

	kind := apperrors.KindOf(err)
	if kind == nil {
		response.InternalError(c)
		return
	}
	m := kindStatus[kind]

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		response.Error(c, m.status, appErr.Code, appErr.Message)
		return
	}
	// apperrors.Validation 等只带分类的错误，把具体说明放进 details
	response.ErrorWithDetails(c, m.status, m.code, m.msg, err.Error())
}

// badRequest 请求绑定失败；请求体超出 BodyLimit 时返回 413
func badRequest(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		response.Error(c, http.StatusRequestEntityTooLarge, 41300, "请求体过大")
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, 40000, "参数校验失败", err.Error())
}
