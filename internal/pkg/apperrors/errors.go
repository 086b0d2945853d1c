// internal/pkg/apperrors/errors.go
package apperrors

import (
	"net/http"

	"github.com/pkg/errors"
)

// Kind 划分了平台内所有错误的类别，HTTP 边界按类别一一映射状态码。
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation 请求本身不合法（未知状态值、畸形请求体），同步拒绝，不改变任何状态
	KindValidation
	// KindNotFound 未知的订单/维修单/零件 ID，调用方不应重试
	KindNotFound
	// KindUnavailable 强制重新解析后仍没有存活实例，调用方可带退避重试
	KindUnavailable
	// KindDependency 非关键步骤上的依赖故障（如缺件上报），只记录日志并吞掉
	KindDependency
	// KindIllegalTransition 非法的状态流转（如取消已发货订单），同步拒绝
	KindIllegalTransition
)

// Error 携带类别信息的业务错误。
type Error struct {
	kind Kind
	err  error
}

func (e *Error) Error() string { return e.err.Error() }
func (e *Error) Unwrap() error { return e.err }
func (e *Error) Kind() Kind    { return e.kind }

// New 创建一个带类别的错误。
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, err: errors.New(msg)}
}

// Newf 创建一个带类别的格式化错误。
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, err: errors.Errorf(format, args...)}
}

// Wrap 包装底层错误并附上类别，底层错误为 nil 时返回 nil。
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, err: errors.Wrap(err, msg)}
}

// KindOf 返回错误的类别，未分类错误返回 KindUnknown。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

// Is 判断错误是否属于指定类别。
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus 把错误类别映射为 HTTP 状态码。
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindDependency:
		return http.StatusBadGateway
	case KindIllegalTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
