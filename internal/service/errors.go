package service

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindInvalidInput    ErrorKind = "invalid_input"
	KindNotFound        ErrorKind = "not_found"
	KindForbidden       ErrorKind = "forbidden"
	KindConflict        ErrorKind = "conflict"
	KindSlotUnavailable ErrorKind = "slot_unavailable"
	KindBadRequest      ErrorKind = "bad_request"
	KindQuotaExceeded   ErrorKind = "quota_exceeded"
	KindInternalFailure ErrorKind = "internal_failure"
)

// Error возвращают операции сервисов при отказе.
// Reason можно показывать пользователю.
type Error struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is совпадает с любым *Error того же вида, поэтому errors.Is работает
// с переменными ниже.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidInput    = &Error{Kind: KindInvalidInput, Reason: "invalid input"}
	ErrNotFound        = &Error{Kind: KindNotFound, Reason: "not found"}
	ErrForbidden       = &Error{Kind: KindForbidden, Reason: "not allowed"}
	ErrConflict        = &Error{Kind: KindConflict, Reason: "conflict"}
	ErrSlotUnavailable = &Error{Kind: KindSlotUnavailable, Reason: "slot no longer available"}
	ErrBadRequest      = &Error{Kind: KindBadRequest, Reason: "bad request"}
	ErrQuotaExceeded   = &Error{Kind: KindQuotaExceeded, Reason: "session quota for the current period is used up"}
	ErrInternalFailure = &Error{Kind: KindInternalFailure, Reason: "internal error, please try again later"}
)

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// internal оборачивает ошибку хранилища или внешнего сервиса. Причина
// остаётся для логов и errors.Is, но пользователю не показывается.
func internal(op string, err error) *Error {
	return &Error{
		Kind:   KindInternalFailure,
		Reason: ErrInternalFailure.Reason,
		Err:    fmt.Errorf("%s: %w", op, err),
	}
}

// KindOf возвращает вид ошибки сервиса или KindInternalFailure для
// любых других.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternalFailure
}
