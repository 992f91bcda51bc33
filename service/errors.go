package service

import "errors"

// ErrorKind 业务错误类别，由 api 层统一映射为 HTTP 状态码
type ErrorKind int

const (
	// KindInternal 内部错误，映射 500
	KindInternal ErrorKind = iota
	// KindValidation 参数校验错误，映射 400
	KindValidation
	// KindNotFound 资源不存在，映射 404
	KindNotFound
	// KindConflict 资源冲突（如重名），映射 409
	KindConflict
)

// Error 携带类别的业务错误
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 支持 errors.Is/As 链
func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError 构造参数校验错误
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NewNotFoundError 构造资源不存在错误
func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// NewConflictError 构造资源冲突错误
func NewConflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// NewInternalError 包装底层错误为内部错误
func NewInternalError(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf 提取错误类别，非业务错误视为内部错误
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
