// Package apperr 定义跨层使用的业务错误码。
//
// The API layer maps a Code to an HTTP status; everything below it only
// wraps causes and picks a code.
package apperr

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

type Code string

const (
	CodeValidation      Code = "VALIDATION"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeUpstream        Code = "UPSTREAM"
	CodeUnsupported     Code = "UNSUPPORTED"
	CodeInternal        Code = "INTERNAL_ERROR"
)

// DomainError 领域错误接口
type DomainError interface {
	error
	Code() Code
	Message() string
}

// Coder is implemented by errors from other packages (e.g. provider errors)
// that know their own code without being a BusinessError.
type Coder interface {
	ErrorCode() Code
}

// BusinessError 业务错误
type BusinessError struct {
	code    Code
	message string
	cause   error
}

var _ DomainError = (*BusinessError)(nil)

func New(code Code, message string, cause error) *BusinessError {
	return &BusinessError{code: code, message: message, cause: cause}
}

func Validation(message string) *BusinessError { return New(CodeValidation, message, nil) }
func NotFound(message string) *BusinessError   { return New(CodeNotFound, message, nil) }
func Forbidden(message string) *BusinessError  { return New(CodeForbidden, message, nil) }
func Conflict(message string) *BusinessError   { return New(CodeConflict, message, nil) }

func Unauthenticated(message string) *BusinessError {
	return New(CodeUnauthenticated, message, nil)
}

func Internal(message string, cause error) *BusinessError {
	return New(CodeInternal, message, cause)
}

func (e *BusinessError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *BusinessError) Code() Code      { return e.code }
func (e *BusinessError) Message() string { return e.message }
func (e *BusinessError) Unwrap() error   { return e.cause }

// CodeOf 返回错误链上第一个可识别的错误码
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var be *BusinessError
	if errors.As(err, &be) {
		return be.code
	}
	var c Coder
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// PublicMessage 给客户端的消息；内部错误不暴露细节
func PublicMessage(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		if be.code == CodeInternal {
			return be.message
		}
		return be.Error()
	}
	if CodeOf(err) == CodeInternal {
		return "an internal error occurred"
	}
	return err.Error()
}

func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeUnsupported:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
