package application

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies failures for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
)

var kindStatus = map[Kind]int{
	KindInternal:   http.StatusInternalServerError,
	KindValidation: http.StatusBadRequest,
	KindAuth:       http.StatusUnauthorized,
	KindForbidden:  http.StatusForbidden,
	KindNotFound:   http.StatusNotFound,
	KindConflict:   http.StatusConflict,
}

// AppError is the error type returned by every service method.
type AppError struct {
	Kind    Kind
	Message string
	Fields  []any
	Err     error
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Err }

// HTTPStatus maps the kind to a status code.
func (e *AppError) HTTPStatus() int { return kindStatus[e.Kind] }

// Details lists per-field problems; empty for most kinds.
func (e *AppError) Details() []any {
	if e.Fields == nil {
		return []any{}
	}
	return e.Fields
}

func ValidationError(msg string, fields ...any) *AppError {
	return &AppError{Kind: KindValidation, Message: msg, Fields: fields}
}

func AuthError(msg string) *AppError { return &AppError{Kind: KindAuth, Message: msg} }

func ForbiddenError(msg string) *AppError { return &AppError{Kind: KindForbidden, Message: msg} }

func NotFoundError(msg string) *AppError { return &AppError{Kind: KindNotFound, Message: msg} }

func ConflictError(msg string) *AppError { return &AppError{Kind: KindConflict, Message: msg} }

// InternalError keeps err for logs while showing msg to clients.
func InternalError(msg string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an AppError of kind k.
func IsKind(err error, k Kind) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Kind == k
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}
