// Package service 实现归档域的业务逻辑：SIP 摄取、AIP 管理、DIP 导出与分类术语.
package service

import (
	"errors"
	"fmt"
)

// Kind 业务错误类别，handler 据此映射 HTTP 状态码.
type Kind int

const (
	KindInternal Kind = iota
	// KindValidation 请求内容不合法
	KindValidation
	// KindNotFound 资源不存在
	KindNotFound
	// KindAuthorization 无权访问.对外与 NotFound 同样呈现，避免泄露私有包的存在
	KindAuthorization
	// KindStorage 对象存储或数据库故障
	KindStorage
)

// Error 业务错误.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// E 构造业务错误.
func E(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validationf 构造校验错误.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound 构造资源不存在错误.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// AsError 提取业务错误，非业务错误归为 KindInternal.
func AsError(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}

	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}
