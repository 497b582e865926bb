package apperr

import (
	"errors"
	"fmt"
)

// Kind 稳定的错误类别，HTTP 层据此映射状态码
type Kind int

const (
	Unauthenticated  Kind = iota + 1 // 未登录或凭证无效
	PermissionDenied                 // 已登录但无权操作该资源
	NotFound                         // 引用的订单/商品/评价不存在
	InvalidArgument                  // 参数非法：支付方式、评分、自购等
	InvalidState                     // 当前状态不允许该操作
	Internal                         // 存储或下游协作方故障
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case PermissionDenied:
		return "permission_denied"
	case NotFound:
		return "not_found"
	case InvalidArgument:
		return "invalid_argument"
	case InvalidState:
		return "invalid_state"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error 业务错误，带类别和可读信息
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 创建指定类别的错误
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf 格式化版本
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap 包装底层错误并标注类别
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf 取出错误类别；非业务错误一律视为 Internal
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func IsNotFound(err error) bool         { return IsKind(err, NotFound) }
func IsInvalidState(err error) bool     { return IsKind(err, InvalidState) }
func IsInvalidArgument(err error) bool  { return IsKind(err, InvalidArgument) }
func IsPermissionDenied(err error) bool { return IsKind(err, PermissionDenied) }
