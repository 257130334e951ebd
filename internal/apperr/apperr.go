// Package apperr is the error taxonomy shared by the workflow, the store and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindAuthentication Kind = "authentication"
	KindUnexpected     Kind = "unexpected"
)

type Error struct {
	Kind    Kind
	Status  int
	Field   string
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

func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Field: field, Message: msg}
}

// Conflict is a validation failure caused by a uniqueness rule.
func Conflict(field, msg string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusConflict, Field: field, Message: msg}
}

func NotFound(entity string, id any) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: fmt.Sprintf("%s %v not found", entity, id)}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindAuthentication, Status: http.StatusUnauthorized, Message: msg}
}

func Unexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Status: http.StatusInternalServerError, Message: "unexpected server error", Err: err}
}

// KindOf reports the Kind of err, KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
