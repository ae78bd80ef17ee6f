// Package apperr описывает классификацию ошибок консоли.
//
// Каждая ошибка несёт вид (Kind), определяющий HTTP-статус, стабильный
// машинный код для поля "error" ответа и сообщение для человека.
// Внутренняя причина (Err) только логируется и никогда не уходит клиенту.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind класс отказа.
type Kind int

const (
	KindInternal Kind = iota
	KindAuthentication
	KindAuthorization
	KindTenantResolution
	KindValidation
	KindNotFound
	KindConflict
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindTenantResolution:
		return "tenant_resolution"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Стабильные коды ошибок.
const (
	CodeMissingCredential = "missing_credential"
	CodeInvalidCredential = "invalid_credential"
	CodeInactiveAccount   = "inactive_account"
	CodeInactiveTenant    = "inactive_tenant"
	CodeForbiddenOrigin   = "forbidden_origin"
	CodeMissingTenant     = "missing_tenant"
	CodeInvalidTenantID   = "invalid_tenant_id"
	CodeTenantMismatch    = "tenant_mismatch"
	CodeMissingPermission = "missing_permission"
	CodeForbiddenRole     = "forbidden_role"
	CodeValidation        = "validation_failed"
	CodeNotFound          = "not_found"
	CodeConflict          = "conflict"
	CodeRateLimited       = "rate_limited"
	CodeInternal          = "internal_error"
)

// Error ошибка с классификацией.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is сравнивает ошибки по коду, чтобы errors.Is работал с сентинелами ниже.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap возвращает копию ошибки с причиной cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: cause}
}

// WithMessage возвращает копию ошибки с другим сообщением для клиента.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: msg, Err: e.Err}
}

// New создаёт ошибку произвольного вида.
func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrMissingCredential = New(KindAuthentication, CodeMissingCredential, "missing or invalid authorization header")
	ErrInvalidCredential = New(KindAuthentication, CodeInvalidCredential, "invalid or expired token")
	ErrInactiveAccount   = New(KindAuthentication, CodeInactiveAccount, "account is inactive")
	ErrInactiveTenant    = New(KindAuthorization, CodeInactiveTenant, "hotel is inactive")
	ErrForbiddenOrigin   = New(KindAuthorization, CodeForbiddenOrigin, "request origin is not allowed")
	ErrMissingTenant     = New(KindTenantResolution, CodeMissingTenant, "hotel context is required")
	ErrInvalidTenantID   = New(KindTenantResolution, CodeInvalidTenantID, "invalid hotel id")
	ErrTenantMismatch    = New(KindAuthorization, CodeTenantMismatch, "filter targets another hotel")
	ErrMissingPermission = New(KindAuthorization, CodeMissingPermission, "permission denied")
	ErrForbiddenRole     = New(KindAuthorization, CodeForbiddenRole, "role is not allowed")
	ErrValidation        = New(KindValidation, CodeValidation, "invalid request")
	ErrNotFound          = New(KindNotFound, CodeNotFound, "not found")
	ErrConflict          = New(KindConflict, CodeConflict, "already exists")
	ErrRateLimited       = New(KindRateLimited, CodeRateLimited, "too many requests")
	ErrInternal          = New(KindInternal, CodeInternal, "internal service error")
)

// Validation возвращает ошибку валидации с сообщением msg.
func Validation(msg string) *Error { return ErrValidation.WithMessage(msg) }

// NotFound возвращает ошибку "не найдено" для сущности entity.
func NotFound(entity string) *Error { return ErrNotFound.WithMessage(entity + " not found") }

// Conflict возвращает ошибку уникальности с сообщением msg.
func Conflict(msg string) *Error { return ErrConflict.WithMessage(msg) }

// From приводит произвольную ошибку к *Error; неизвестные ошибки становятся внутренними.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal.Wrap(err)
}

// HTTPStatus возвращает HTTP-статус для ошибки.
func HTTPStatus(err error) int {
	switch From(err).Kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindTenantResolution:
		if From(err).Code == CodeMissingTenant {
			return http.StatusForbidden
		}
		return http.StatusBadRequest
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
